package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wg-deploy/pkg/model"
	"wg-deploy/pkg/runner"
)

const DefaultOSRelease = "/etc/os-release"

// UnsupportedOSError is returned for distributions without a known package manager.
type UnsupportedOSError struct {
	ID string
}

func (e *UnsupportedOSError) Error() string {
	if e.ID == "" {
		return "unsupported operating system: could not identify distribution"
	}
	return fmt.Sprintf("unsupported operating system %q: need a Debian- or RHEL-family distribution", e.ID)
}

// Prober collects HostCapabilities. Firewall presence is filled in later by
// the firewall manager, which owns those probes.
type Prober struct {
	run       runner.Runner
	osRelease string
	log       *zap.Logger
}

func NewProber(log *zap.Logger, run runner.Runner, osRelease string) *Prober {
	if osRelease == "" {
		osRelease = DefaultOSRelease
	}
	return &Prober{run: run, osRelease: osRelease, log: log}
}

func (p *Prober) Probe(_ context.Context) (model.HostCapabilities, error) {
	caps := model.HostCapabilities{OSFamily: model.OSFamilyUnknown}
	release, err := godotenv.Read(p.osRelease)
	if err != nil {
		return caps, fmt.Errorf("read %s: %w", p.osRelease, err)
	}
	caps.OSID = release["ID"]
	caps.OSFamily = osFamily(release["ID"], release["ID_LIKE"])
	caps.ContainerRuntime = runner.Has(p.run, "docker")
	p.log.Info("host probed",
		zap.String("os", caps.OSID),
		zap.String("family", string(caps.OSFamily)),
		zap.Bool("docker", caps.ContainerRuntime))
	return caps, nil
}

func osFamily(id, idLike string) model.OSFamily {
	ids := append([]string{strings.ToLower(id)}, strings.Fields(strings.ToLower(idLike))...)
	for _, v := range ids {
		switch v {
		case "debian", "ubuntu", "raspbian", "linuxmint", "pop":
			return model.OSFamilyDebian
		case "rhel", "centos", "fedora", "rocky", "almalinux", "ol", "amzn":
			return model.OSFamilyRHEL
		}
	}
	return model.OSFamilyUnknown
}
