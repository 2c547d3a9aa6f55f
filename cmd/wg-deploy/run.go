package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wg-deploy/pkg/config"
	"wg-deploy/pkg/container"
	"wg-deploy/pkg/firewall"
	"wg-deploy/pkg/inventory"
	"wg-deploy/pkg/journal"
	"wg-deploy/pkg/metrics"
	"wg-deploy/pkg/model"
	"wg-deploy/pkg/pipeline"
	"wg-deploy/pkg/preflight"
	"wg-deploy/pkg/report"
	"wg-deploy/pkg/sysctl"
)

func (o *options) deps(log *zap.Logger, out io.Writer) pipeline.Deps {
	h := o.host
	kernel := sysctl.New(log, sysctl.NewCommandKernel(h.run), h.sysctlPath, sysctl.DefaultParameters())
	containers := container.New(log, h.run)
	d := pipeline.Deps{
		Log:        log,
		Out:        out,
		Resolver:   config.NewResolver(log, config.NewAddressDetector(log, config.DefaultEndpoints, config.DefaultProbeTimeout), h.prompt),
		Privilege:  h.privilege,
		Prompt:     h.prompt,
		Prober:     preflight.NewProber(log, h.run, h.osRelease),
		Installer:  preflight.NewInstaller(log, h.run),
		Sysctl:     kernel,
		Firewall:   firewall.New(log, h.run),
		Containers: containers,
		Waiter:     container.NewWaiter(log),
		Reporter:   report.New(log, kernel, containers, h.devices),
	}
	if o.consulAddr != "" {
		pub, err := inventory.NewPublisher(log, o.consulAddr)
		if err != nil {
			log.Warn("inventory publishing disabled", zap.String("consul", o.consulAddr), zap.Error(err))
		} else {
			d.Publisher = pub
		}
	}
	return d
}

// execute runs stages with the journal and metrics attached and prints the
// run summary. The returned error is the fatal stage error, if any.
func (o *options) execute(cmd *cobra.Command, log *zap.Logger, out io.Writer, command string, stages []pipeline.Stage, cfg model.DeploymentConfig) error {
	ctx := cmd.Context()
	driver := pipeline.NewDriver(log, stages...)

	var rec *metrics.Recorder
	if o.metrics != "" {
		rec = metrics.NewRecorder()
		driver.Observe(rec)
	}

	var entry *journal.Run
	if j := o.openJournal(cmd, log); j != nil {
		defer j.Close()
		var err error
		if entry, err = j.Begin(ctx, command); err != nil {
			log.Warn("run not journaled", zap.Error(err))
		} else {
			driver.Observe(entry)
		}
	}

	st := &pipeline.State{Config: cfg}
	sum, runErr := driver.Run(ctx, st)

	if entry != nil {
		if err := entry.Finish(context.WithoutCancel(ctx), runStatus(sum, runErr), st.Config); err != nil {
			log.Warn("run not journaled", zap.Error(err))
		}
	}
	if rec != nil {
		rec.Finish(runErr == nil, time.Now())
		if err := rec.WriteTextfile(o.metrics); err != nil {
			log.Warn("metrics not written", zap.String("path", o.metrics), zap.Error(err))
		}
	}
	printSummary(out, command, sum, runErr)
	return runErr
}

func runStatus(sum pipeline.Summary, err error) string {
	switch {
	case err != nil:
		return "failed"
	case len(sum.Warnings) > 0:
		return "warnings"
	default:
		return "success"
	}
}

func printSummary(out io.Writer, command string, sum pipeline.Summary, err error) {
	if err != nil {
		fmt.Fprintf(out, "\n%s failed at stage %s\n", command, failedStage(err))
		return
	}
	if len(sum.Warnings) == 0 {
		fmt.Fprintf(out, "\n%s complete\n", command)
		return
	}
	fmt.Fprintf(out, "\n%s complete with %d warning(s):\n", command, len(sum.Warnings))
	for _, w := range sum.Warnings {
		fmt.Fprintf(out, "  - %v\n", w)
	}
}

func failedStage(err error) string {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "unknown"
}
