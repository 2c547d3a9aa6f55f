package sysctl

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"wg-deploy/pkg/model"
	"wg-deploy/pkg/runner"
)

const DefaultPath = "/etc/sysctl.d/99-wireguard.conf"

// CriticalVerificationError means a critical parameter did not take effect
// in the live kernel.
type CriticalVerificationError struct {
	Param string
	Want  string
	Got   string
	Err   error
}

func (e *CriticalVerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("critical kernel parameter %s could not be read: %v", e.Param, e.Err)
	}
	return fmt.Sprintf("critical kernel parameter %s = %q, want %q", e.Param, e.Got, e.Want)
}

func (e *CriticalVerificationError) Unwrap() error { return e.Err }

// DefaultParameters is the set written on every run.
func DefaultParameters() model.SysctlParameterSet {
	return model.SysctlParameterSet{
		{Name: "net.ipv4.ip_forward", Value: "1", Critical: true},
		{Name: "net.ipv4.conf.all.src_valid_mark", Value: "1", Critical: true},
		{Name: "net.ipv6.conf.all.forwarding", Value: "1"},
		{Name: "net.ipv6.conf.default.forwarding", Value: "1"},
		{Name: "net.core.rmem_max", Value: "2500000"},
		{Name: "net.core.wmem_max", Value: "2500000"},
		{Name: "net.core.default_qdisc", Value: "fq"},
		{Name: "net.ipv4.tcp_congestion_control", Value: "bbr"},
	}
}

// Kernel is the live kernel parameter store.
type Kernel interface {
	Load(ctx context.Context, path string) error
	Read(ctx context.Context, name string) (string, error)
}

// CommandKernel talks to the kernel through the sysctl binary.
type CommandKernel struct {
	run runner.Runner
}

func NewCommandKernel(run runner.Runner) *CommandKernel {
	return &CommandKernel{run: run}
}

func (k *CommandKernel) Load(ctx context.Context, path string) error {
	_, err := k.run.Run(ctx, "sysctl", "-p", path)
	return err
}

func (k *CommandKernel) Read(ctx context.Context, name string) (string, error) {
	out, err := k.run.Run(ctx, "sysctl", "-n", name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Configurator owns the managed sysctl file.
type Configurator struct {
	path   string
	params model.SysctlParameterSet
	kernel Kernel
	log    *zap.Logger
}

func New(log *zap.Logger, kernel Kernel, path string, params model.SysctlParameterSet) *Configurator {
	if path == "" {
		path = DefaultPath
	}
	if len(params) == 0 {
		params = DefaultParameters()
	}
	return &Configurator{path: path, params: params, kernel: kernel, log: log}
}

func (c *Configurator) Path() string { return c.path }

func (c *Configurator) Parameters() model.SysctlParameterSet { return c.params }

// Write replaces the managed file with the full parameter set. Whatever was
// in the file before is discarded.
func (c *Configurator) Write() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(c.path), err)
	}
	if err := os.WriteFile(c.path, Render(c.params), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	c.log.Info("kernel parameters written", zap.String("path", c.path), zap.Int("count", len(c.params)))
	return nil
}

// Load applies the file to the live kernel. Some advisory parameters need
// modules that may be missing, so failures here are never fatal by
// themselves; Verify decides.
func (c *Configurator) Load(ctx context.Context) error {
	if err := c.kernel.Load(ctx, c.path); err != nil {
		c.log.Warn("some kernel parameters were not applied", zap.String("path", c.path), zap.Error(err))
		return fmt.Errorf("apply %s: %w", c.path, err)
	}
	return nil
}

// Verify reads every critical parameter back from the live kernel.
func (c *Configurator) Verify(ctx context.Context) error {
	var errs error
	for _, p := range c.params.Critical() {
		got, err := c.kernel.Read(ctx, p.Name)
		if err != nil {
			errs = multierr.Append(errs, &CriticalVerificationError{Param: p.Name, Want: p.Value, Err: err})
			continue
		}
		if got != p.Value {
			errs = multierr.Append(errs, &CriticalVerificationError{Param: p.Name, Want: p.Value, Got: got})
			continue
		}
		c.log.Debug("critical parameter verified", zap.String("param", p.Name), zap.String("value", got))
	}
	return errs
}

// Live reads the current value of every critical parameter.
func (c *Configurator) Live(ctx context.Context) map[string]string {
	out := make(map[string]string)
	for _, p := range c.params.Critical() {
		v, err := c.kernel.Read(ctx, p.Name)
		if err != nil {
			v = "unreadable"
		}
		out[p.Name] = v
	}
	return out
}

func Render(params model.SysctlParameterSet) []byte {
	var b bytes.Buffer
	b.WriteString("# Managed by wg-deploy. This file is overwritten on every run.\n")
	for _, p := range params {
		fmt.Fprintf(&b, "%s = %s\n", p.Name, p.Value)
	}
	return b.Bytes()
}
