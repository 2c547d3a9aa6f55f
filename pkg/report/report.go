package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"wg-deploy/pkg/model"
	"wg-deploy/pkg/wireguard"
)

// KernelParams returns the live values of the critical kernel parameters.
type KernelParams interface {
	Live(ctx context.Context) map[string]string
}

// Containers is the read-only part of the container manager the report needs.
type Containers interface {
	Inspect(ctx context.Context, name string) (model.ContainerHandle, error)
	Exec(ctx context.Context, name string, args ...string) (string, error)
}

// Generator collects a Report from observed state. It never changes the host.
type Generator struct {
	log        *zap.Logger
	kernel     KernelParams
	containers Containers
	devices    wireguard.DeviceReader
	iface      string
	hostname   func() (string, error)
	now        func() time.Time
}

func New(log *zap.Logger, kernel KernelParams, containers Containers, devices wireguard.DeviceReader) *Generator {
	return &Generator{
		log:        log,
		kernel:     kernel,
		containers: containers,
		devices:    devices,
		iface:      wireguard.DefaultInterface,
		hostname:   os.Hostname,
		now:        time.Now,
	}
}

// Generate gathers every section best effort. Anything that cannot be read is
// noted in Report.Warnings instead of failing the whole report.
func (g *Generator) Generate(ctx context.Context, cfg model.DeploymentConfig) model.Report {
	r := model.Report{
		GeneratedAt:   g.now().UTC(),
		ServerAddress: cfg.ServerAddress,
		Port:          cfg.Port,
		Peers:         cfg.Peers,
		ConfigDir:     cfg.ConfigDir,
		PeerProfile:   cfg.PeerProfile(1),
		PeerImage:     cfg.PeerImage(1),
		Container:     model.ContainerHandle{Name: cfg.ContainerName},
	}
	if host, err := g.hostname(); err == nil {
		r.Host = host
	}

	r.Sysctl = g.kernel.Live(ctx)

	h, err := g.containers.Inspect(ctx, cfg.ContainerName)
	if err != nil {
		r.Warnings = append(r.Warnings, fmt.Sprintf("container: %v", err))
	} else {
		r.Container = h
	}

	r.Interface = g.device(ctx, cfg.ContainerName, h.Running, &r)

	p, err := wireguard.ReadProfile(r.PeerProfile)
	switch {
	case err == nil:
		r.ProfileFound = true
		r.Endpoint = p.Endpoint
		r.AllowedIPs = p.AllowedIPs
	case errors.Is(err, os.ErrNotExist):
		r.Warnings = append(r.Warnings, "peer 1 profile not generated yet")
	default:
		r.Warnings = append(r.Warnings, fmt.Sprintf("peer profile: %v", err))
	}
	return r
}

// device reads the interface through wgctrl and falls back to running
// `wg show` inside the container.
func (g *Generator) device(ctx context.Context, container string, running bool, r *model.Report) *model.InterfaceState {
	st, err := g.devices.Device(g.iface)
	if err == nil {
		return st
	}
	g.log.Debug("wgctrl read failed, falling back to wg show", zap.String("iface", g.iface), zap.Error(err))
	if !running {
		r.Warnings = append(r.Warnings, fmt.Sprintf("interface %s: %v", g.iface, err))
		return nil
	}
	out, execErr := g.containers.Exec(ctx, container, "wg", "show", g.iface)
	if execErr != nil {
		r.Warnings = append(r.Warnings, fmt.Sprintf("interface %s: %v", g.iface, execErr))
		return nil
	}
	return wireguard.ParseShow(out)
}
