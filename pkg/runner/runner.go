package runner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes host programs. Every collaborator that touches the host
// (package manager, sysctl, firewall tools, container runtime) goes through it.
type Runner interface {
	// Run executes name with args and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// LookPath reports where name is installed, or an error if it is absent.
	LookPath(name string) (string, error)
}

// Exec runs programs on the local host.
type Exec struct{}

func (Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s failed: %w output=%s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Has is a convenience for presence probes.
func Has(r Runner, name string) bool {
	_, err := r.LookPath(name)
	return err == nil
}
