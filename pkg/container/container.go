package container

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"wg-deploy/pkg/model"
	"wg-deploy/pkg/runner"
)

const runtimeBin = "docker"

// Manager drives the lifecycle of the single managed container through the
// docker CLI.
type Manager struct {
	run runner.Runner
	log *zap.Logger
}

func New(log *zap.Logger, run runner.Runner) *Manager {
	return &Manager{run: run, log: log}
}

// Find looks up a container by exact name in any state. ok is false when no
// such container exists.
func (m *Manager) Find(ctx context.Context, name string) (model.ContainerHandle, bool, error) {
	out, err := m.run.Run(ctx, runtimeBin, "ps", "-a",
		"--filter", "name=^/"+name+"$",
		"--format", "{{.ID}} {{.State}}")
	if err != nil {
		return model.ContainerHandle{}, false, fmt.Errorf("list containers: %w", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		h := model.ContainerHandle{Name: name, ID: fields[0]}
		if len(fields) > 1 {
			h.Running = fields[1] == "running"
		}
		return h, true, nil
	}
	return model.ContainerHandle{}, false, nil
}

// Cleanup stops and removes any container with the given name. Failures are
// only logged; a container that cannot be removed surfaces later as a start
// failure.
func (m *Manager) Cleanup(ctx context.Context, name string) {
	h, ok, err := m.Find(ctx, name)
	if err != nil {
		m.log.Debug("container lookup failed", zap.String("name", name), zap.Error(err))
	}
	if !ok && err == nil {
		m.log.Debug("no previous container", zap.String("name", name))
		return
	}
	if _, err := m.run.Run(ctx, runtimeBin, "stop", name); err != nil {
		m.log.Debug("container stop failed", zap.String("name", name), zap.Error(err))
	}
	if _, err := m.run.Run(ctx, runtimeBin, "rm", name); err != nil {
		m.log.Debug("container rm failed", zap.String("name", name), zap.Error(err))
		return
	}
	m.log.Info("removed previous container", zap.String("name", name), zap.String("id", h.ID))
}

// RunArgs builds the docker run argument list for cfg.
func RunArgs(cfg model.DeploymentConfig) []string {
	args := []string{
		"run", "-d",
		"--name", cfg.ContainerName,
		"--network", "host",
		"--cap-add", "NET_ADMIN",
		"--cap-add", "SYS_MODULE",
	}
	for _, kv := range Env(cfg) {
		args = append(args, "-e", kv)
	}
	args = append(args,
		"-v", cfg.ConfigDir+":/config",
		"-v", "/lib/modules:/lib/modules:ro",
		"--restart", "on-failure",
		cfg.Image,
	)
	return args
}

// Env maps the deployment config onto the image's environment contract.
func Env(cfg model.DeploymentConfig) []string {
	return []string{
		"TZ=" + cfg.Timezone,
		"SERVERURL=" + cfg.ServerAddress,
		"SERVERPORT=" + strconv.Itoa(cfg.Port),
		"PEERS=" + strconv.Itoa(cfg.Peers),
		"PEERDNS=" + cfg.PeerDNS,
		"INTERNAL_SUBNET=" + cfg.InternalSubnet,
	}
}

// Start launches a fresh container. Callers are expected to Cleanup first.
func (m *Manager) Start(ctx context.Context, cfg model.DeploymentConfig) (model.ContainerHandle, error) {
	out, err := m.run.Run(ctx, runtimeBin, RunArgs(cfg)...)
	if err != nil {
		return model.ContainerHandle{}, fmt.Errorf("start container %s: %w", cfg.ContainerName, err)
	}
	id := lastLine(out)
	m.log.Info("container started", zap.String("name", cfg.ContainerName), zap.String("id", shortID(id)))
	return model.ContainerHandle{Name: cfg.ContainerName, ID: id, Running: true}, nil
}

func (m *Manager) Inspect(ctx context.Context, name string) (model.ContainerHandle, error) {
	out, err := m.run.Run(ctx, runtimeBin, "inspect", "-f", "{{.Id}} {{.State.Running}}", name)
	if err != nil {
		return model.ContainerHandle{Name: name}, fmt.Errorf("inspect %s: %w", name, err)
	}
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return model.ContainerHandle{Name: name}, fmt.Errorf("inspect %s: unexpected output %q", name, out)
	}
	running, err := strconv.ParseBool(fields[1])
	if err != nil {
		return model.ContainerHandle{Name: name}, fmt.Errorf("inspect %s: %w", name, err)
	}
	return model.ContainerHandle{Name: name, ID: fields[0], Running: running}, nil
}

// Logs returns the last tail lines of the container output.
func (m *Manager) Logs(ctx context.Context, name string, tail int) (string, error) {
	return m.run.Run(ctx, runtimeBin, "logs", "--tail", strconv.Itoa(tail), name)
}

func (m *Manager) Exec(ctx context.Context, name string, args ...string) (string, error) {
	return m.run.Run(ctx, runtimeBin, append([]string{"exec", name}, args...)...)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
