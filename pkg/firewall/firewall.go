package firewall

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"wg-deploy/pkg/model"
	"wg-deploy/pkg/runner"
)

// Backend is one firewall implementation that may be active on the host.
type Backend interface {
	Name() string
	Active(ctx context.Context) bool
	// AllowUDP opens port for UDP. Calling it again for the same port must
	// not add a second rule.
	AllowUDP(ctx context.Context, port int) error
}

// Manager applies the service port to every active backend.
type Manager struct {
	backends []Backend
	log      *zap.Logger
}

func New(log *zap.Logger, run runner.Runner) *Manager {
	return NewWithBackends(log,
		&ufw{run: run},
		&firewalld{run: run},
		&iptables{run: run, log: log},
	)
}

func NewWithBackends(log *zap.Logger, backends ...Backend) *Manager {
	return &Manager{backends: backends, log: log}
}

// Detect returns the backends that are currently active.
func (m *Manager) Detect(ctx context.Context) []Backend {
	var active []Backend
	for _, b := range m.backends {
		if b.Active(ctx) {
			active = append(active, b)
			continue
		}
		m.log.Debug("firewall backend inactive", zap.String("backend", b.Name()))
	}
	return active
}

// Allow opens port on each backend. A backend failure never stops the
// others; all failures are returned together.
func (m *Manager) Allow(ctx context.Context, backends []Backend, port int) error {
	if len(backends) == 0 {
		m.log.Info("no active firewall backend found, nothing to open", zap.Int("port", port))
		return nil
	}
	var errs error
	for _, b := range backends {
		if err := b.AllowUDP(ctx, port); err != nil {
			m.log.Warn("firewall rule not applied", zap.String("backend", b.Name()), zap.Int("port", port), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		m.log.Info("firewall rule applied", zap.String("backend", b.Name()), zap.Int("port", port))
	}
	return errs
}

// Record marks the active backends in caps.
func Record(caps *model.HostCapabilities, active []Backend) {
	for _, b := range active {
		switch b.Name() {
		case "ufw":
			caps.UFW = true
		case "firewalld":
			caps.Firewalld = true
		case "iptables":
			caps.Iptables = true
		}
	}
}
