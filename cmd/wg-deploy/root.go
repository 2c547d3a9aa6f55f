package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/procfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wg-deploy/pkg/config"
	"wg-deploy/pkg/journal"
	"wg-deploy/pkg/model"
	"wg-deploy/pkg/pipeline"
	"wg-deploy/pkg/preflight"
	"wg-deploy/pkg/prompt"
	"wg-deploy/pkg/runner"
	"wg-deploy/pkg/sysctl"
	"wg-deploy/pkg/version"
	"wg-deploy/pkg/wireguard"
)

// options holds every flag of the command tree.
type options struct {
	configFile    string
	dotenv        string
	logLevel      string
	journal       string
	consulAddr    string
	fromInventory string
	metrics       string
	flags         model.DeploymentConfig
	host          host
}

// host bundles the collaborators that touch the real machine.
type host struct {
	run        runner.Runner
	procfs     string
	osRelease  string
	sysctlPath string
	prompt     prompt.Interactor
	devices    wireguard.DeviceReader
	privilege  pipeline.Privilege
}

func systemHost(out io.Writer) host {
	return host{
		run:        runner.Exec{},
		procfs:     procfs.DefaultMountPoint,
		osRelease:  preflight.DefaultOSRelease,
		sysctlPath: sysctl.DefaultPath,
		prompt:     prompt.NewTerminal(os.Stdin, out),
		devices:    wireguard.Kernel{},
		privilege:  preflight.NewGate(),
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	return newRootCmdWith(out, systemHost(out))
}

func newRootCmdWith(out io.Writer, h host) *cobra.Command {
	o := &options{host: h}
	root := &cobra.Command{
		Use:   "wg-deploy",
		Short: "Provision a containerized WireGuard server on this host",
		Long: `wg-deploy prepares a Linux host for a WireGuard server and runs it as a
container: it checks privileges and the UDP port, tunes kernel networking,
opens the firewall, recreates the container and reports where the generated
peer profiles are.`,
		Version:      version.String(),
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "wg-deploy version %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "YAML configuration file")
	pf.StringVar(&o.dotenv, "env-file", ".env", "dotenv file read before the process environment")
	pf.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&o.journal, "journal", journal.DefaultPath, "run journal database, empty to disable")
	pf.StringVar(&o.consulAddr, "consul-addr", "", "publish the report to this Consul agent")

	root.AddCommand(
		newDeployCmd(o, out),
		newStatusCmd(o, out),
		newHistoryCmd(o, out),
		newVersionCmd(out),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// loadConfig builds the layered configuration. Failures are operator input
// errors and map to the precondition exit code.
func (o *options) loadConfig(cmd *cobra.Command) (model.DeploymentConfig, error) {
	flags := config.Flags(o.flags, cmd.Flags().Changed("port"), cmd.Flags().Changed("peers"))
	cfg, err := config.Load(o.configFile, o.dotenv, flags)
	if err != nil {
		return model.DeploymentConfig{}, &pipeline.StageError{Stage: "resolve-config", Class: pipeline.ClassFatalPrecondition, Err: err}
	}
	return cfg, nil
}

// openJournal is best effort: a host without a writable state directory can
// still be deployed.
func (o *options) openJournal(cmd *cobra.Command, log *zap.Logger) *journal.Journal {
	if o.journal == "" {
		return nil
	}
	j, err := journal.Open(cmd.Context(), log, o.journal)
	if err != nil {
		log.Warn("run journal unavailable", zap.String("path", o.journal), zap.Error(err))
		return nil
	}
	return j
}
