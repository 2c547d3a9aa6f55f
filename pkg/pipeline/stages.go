package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"wg-deploy/pkg/container"
	"wg-deploy/pkg/firewall"
	"wg-deploy/pkg/model"
	"wg-deploy/pkg/preflight"
	"wg-deploy/pkg/prompt"
	"wg-deploy/pkg/report"
	"wg-deploy/pkg/sysctl"
)

// ErrDeclined is returned when the operator answers no at the confirmation.
var ErrDeclined = errors.New("deployment declined by operator")

const logTail = 20

type Resolver interface {
	Resolve(ctx context.Context, cfg model.DeploymentConfig) (model.DeploymentConfig, error)
}

type Privilege interface {
	Check() error
}

type HostProber interface {
	Probe(ctx context.Context) (model.HostCapabilities, error)
}

type RuntimeInstaller interface {
	EnsureRuntime(ctx context.Context, caps model.HostCapabilities) (warning error, err error)
}

// Publisher ships the final report somewhere outside the host.
type Publisher interface {
	Publish(ctx context.Context, r model.Report) error
}

// Deps are the collaborators of a deploy run. Publisher is optional.
type Deps struct {
	Log        *zap.Logger
	Out        io.Writer
	Resolver   Resolver
	Privilege  Privilege
	Sockets    preflight.SocketTable
	Prompt     prompt.Interactor
	Prober     HostProber
	Installer  RuntimeInstaller
	Sysctl     *sysctl.Configurator
	Firewall   *firewall.Manager
	Containers *container.Manager
	Waiter     *container.Waiter
	Reporter   *report.Generator
	Publisher  Publisher
}

// DeployStages returns the full deploy sequence in execution order.
func DeployStages(d Deps) []Stage {
	stages := []Stage{
		{Name: "resolve-config", Run: d.resolve},
		{Name: "privilege", Run: d.privilege},
		{Name: "port", Run: d.port},
		{Name: "confirm", Run: d.confirm},
		{Name: "host-deps", Run: d.hostDeps},
		{Name: "sysctl", Run: d.sysctl},
		{Name: "firewall", Run: d.firewall},
		{Name: "container-cleanup", Run: d.cleanup},
		{Name: "container-start", Run: d.start},
		{Name: "readiness", Run: d.readiness},
		{Name: "report", Run: d.report},
	}
	if d.Publisher != nil {
		stages = append(stages, Stage{Name: "publish", Run: d.publish})
	}
	return stages
}

// StatusStages only observes: it produces and prints a report.
func StatusStages(d Deps) []Stage {
	stages := []Stage{{Name: "report", Run: d.report}}
	if d.Publisher != nil {
		stages = append(stages, Stage{Name: "publish", Run: d.publish})
	}
	return stages
}

func (d Deps) resolve(ctx context.Context, st *State) Result {
	cfg, err := d.Resolver.Resolve(ctx, st.Config)
	if err != nil {
		return Fatal(ClassFatalPrecondition, err)
	}
	st.Config = cfg
	return OK(fmt.Sprintf("server %s:%d", cfg.ServerAddress, cfg.Port))
}

func (d Deps) privilege(_ context.Context, _ *State) Result {
	if err := d.Privilege.Check(); err != nil {
		return Fatal(ClassFatalPrecondition, err)
	}
	return OK("")
}

func (d Deps) port(_ context.Context, st *State) Result {
	if err := preflight.CheckPort(d.Sockets, st.Config.Port); err != nil {
		return Fatal(ClassFatalPrecondition, err)
	}
	return OK(fmt.Sprintf("%d/udp free", st.Config.Port))
}

func (d Deps) confirm(_ context.Context, st *State) Result {
	cfg := st.Config
	fmt.Fprintf(d.Out, "About to deploy WireGuard:\n  endpoint    %s:%d/udp\n  peers       %d\n  config dir  %s\n  timezone    %s\n  image       %s\n",
		cfg.ServerAddress, cfg.Port, cfg.Peers, cfg.ConfigDir, cfg.Timezone, cfg.Image)
	if cfg.AutoConfirm {
		return OK("auto-confirmed")
	}
	if !d.Prompt.Interactive() {
		return Fatal(ClassFatalPrecondition, fmt.Errorf("%w: pass --yes to deploy unattended", prompt.ErrNotInteractive))
	}
	ok, err := d.Prompt.Confirm("Continue?")
	if err != nil {
		return Fatal(ClassFatalPrecondition, err)
	}
	if !ok {
		return Fatal(ClassFatalPrecondition, ErrDeclined)
	}
	return OK("confirmed")
}

func (d Deps) hostDeps(ctx context.Context, st *State) Result {
	caps, err := d.Prober.Probe(ctx)
	if err != nil {
		return Fatal(ClassFatalPrecondition, err)
	}
	st.Host = caps
	warn, err := d.Installer.EnsureRuntime(ctx, caps)
	if err != nil {
		var unsupported *preflight.UnsupportedOSError
		if errors.As(err, &unsupported) {
			return Fatal(ClassFatalPrecondition, err)
		}
		return Fatal(ClassFatal, err)
	}
	st.Host.ContainerRuntime = true
	if warn != nil {
		return Warning(ClassBestEffort, warn)
	}
	return OK(fmt.Sprintf("%s (%s)", caps.OSID, caps.OSFamily))
}

func (d Deps) sysctl(ctx context.Context, _ *State) Result {
	if err := d.Sysctl.Write(); err != nil {
		return Fatal(ClassFatal, err)
	}
	loadErr := d.Sysctl.Load(ctx)
	if err := d.Sysctl.Verify(ctx); err != nil {
		return Fatal(ClassCriticalVerification, err)
	}
	if loadErr != nil {
		return Warning(ClassBestEffort, loadErr)
	}
	return OK("critical parameters verified")
}

func (d Deps) firewall(ctx context.Context, st *State) Result {
	active := d.Firewall.Detect(ctx)
	firewall.Record(&st.Host, active)
	if err := d.Firewall.Allow(ctx, active, st.Config.Port); err != nil {
		return Warning(ClassBestEffort, err)
	}
	if len(active) == 0 {
		return OK("no active firewall")
	}
	return OK(fmt.Sprintf("%d backend(s) updated", len(active)))
}

func (d Deps) cleanup(ctx context.Context, st *State) Result {
	d.Containers.Cleanup(ctx, st.Config.ContainerName)
	return OK("")
}

func (d Deps) start(ctx context.Context, st *State) Result {
	h, err := d.Containers.Start(ctx, st.Config)
	if err != nil {
		return Fatal(ClassFatal, err)
	}
	st.Container = h
	return OK(h.ID)
}

func (d Deps) readiness(ctx context.Context, st *State) Result {
	artifact := st.Config.PeerProfile(1)
	if err := d.Waiter.Wait(ctx, artifact); err != nil {
		if ctx.Err() != nil {
			return Fatal(ClassFatal, err)
		}
		logs, logErr := d.Containers.Logs(ctx, st.Config.ContainerName, logTail)
		if logErr != nil {
			d.Log.Debug("container logs unavailable", zap.Error(logErr))
		}
		d.Log.Warn("container not ready yet, it may still be generating peers",
			zap.String("artifact", artifact), zap.String("logs", logs))
		return Warning(ClassBestEffort, err)
	}
	st.Ready = true
	return OK(artifact)
}

func (d Deps) report(ctx context.Context, st *State) Result {
	r := d.Reporter.Generate(ctx, st.Config)
	st.Report = &r
	if err := report.Render(d.Out, r); err != nil {
		return Warning(ClassBestEffort, err)
	}
	return OK("")
}

func (d Deps) publish(ctx context.Context, st *State) Result {
	if st.Report == nil {
		return OK("nothing to publish")
	}
	if err := d.Publisher.Publish(ctx, *st.Report); err != nil {
		return Warning(ClassBestEffort, err)
	}
	return OK("")
}
