package preflight

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wg-deploy/pkg/model"
	"wg-deploy/pkg/runner"
)

// Installer installs host packages through the OS-family package manager.
type Installer struct {
	run runner.Runner
	log *zap.Logger
}

func NewInstaller(log *zap.Logger, run runner.Runner) *Installer {
	return &Installer{run: run, log: log}
}

// EnsureRuntime installs and starts the container runtime when it is missing.
// A service that fails to start is reported back as a warning; the container
// stage will fail on its own if the runtime really is unusable.
func (i *Installer) EnsureRuntime(ctx context.Context, caps model.HostCapabilities) (warning error, err error) {
	if caps.OSFamily == model.OSFamilyUnknown {
		return nil, &UnsupportedOSError{ID: caps.OSID}
	}
	if caps.ContainerRuntime {
		return nil, nil
	}
	i.log.Info("container runtime missing, installing", zap.String("family", string(caps.OSFamily)))
	if err := i.Install(ctx, caps.OSFamily, runtimePackage(caps.OSFamily)); err != nil {
		return nil, err
	}
	if _, err := i.run.Run(ctx, "systemctl", "enable", "--now", "docker"); err != nil {
		i.log.Warn("could not enable docker service", zap.Error(err))
		return fmt.Errorf("enable docker service: %w", err), nil
	}
	return nil, nil
}

// Install dispatches to apt-get or dnf/yum.
func (i *Installer) Install(ctx context.Context, family model.OSFamily, pkgs ...string) error {
	switch family {
	case model.OSFamilyDebian:
		if _, err := i.run.Run(ctx, "apt-get", "update", "-q"); err != nil {
			return fmt.Errorf("apt-get update: %w", err)
		}
		args := append([]string{"install", "-y", "-q"}, pkgs...)
		if _, err := i.run.Run(ctx, "apt-get", args...); err != nil {
			return fmt.Errorf("apt-get install %v: %w", pkgs, err)
		}
	case model.OSFamilyRHEL:
		mgr := "dnf"
		if !runner.Has(i.run, mgr) {
			mgr = "yum"
		}
		args := append([]string{"install", "-y"}, pkgs...)
		if _, err := i.run.Run(ctx, mgr, args...); err != nil {
			return fmt.Errorf("%s install %v: %w", mgr, pkgs, err)
		}
	default:
		return &UnsupportedOSError{ID: string(family)}
	}
	return nil
}

func runtimePackage(family model.OSFamily) string {
	if family == model.OSFamilyDebian {
		return "docker.io"
	}
	return "docker"
}
