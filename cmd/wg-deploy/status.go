package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wg-deploy/pkg/inventory"
	"wg-deploy/pkg/pipeline"
	"wg-deploy/pkg/report"
)

func newStatusCmd(o *options, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the state of an existing deployment without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(o.logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			if o.fromInventory != "" {
				return o.publishedStatus(cmd, log, out)
			}
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			return o.execute(cmd, log, out, "status", pipeline.StatusStages(o.deps(log, out)), cfg)
		},
	}
	cmd.Flags().StringVarP(&o.flags.ServerAddress, "server", "s", "", "public IP or hostname shown in the report")
	cmd.Flags().StringVar(&o.fromInventory, "from-inventory", "", "show the report HOST last published to Consul instead of inspecting this machine")
	addServiceFlags(cmd, o)
	return cmd
}

// publishedStatus renders a report read back from Consul. Nothing on the
// local machine is inspected.
func (o *options) publishedStatus(cmd *cobra.Command, log *zap.Logger, out io.Writer) error {
	fail := func(err error) error {
		return &pipeline.StageError{Stage: "inventory", Class: pipeline.ClassFatalPrecondition, Err: err}
	}
	if o.consulAddr == "" {
		return fail(errors.New("--from-inventory needs --consul-addr"))
	}
	pub, err := inventory.NewPublisher(log, o.consulAddr)
	if err != nil {
		return fail(err)
	}
	r, ok, err := pub.Lookup(cmd.Context(), o.fromInventory)
	if err != nil {
		return &pipeline.StageError{Stage: "inventory", Class: pipeline.ClassFatal, Err: err}
	}
	if !ok {
		return fail(fmt.Errorf("no report published for host %q", o.fromInventory))
	}
	return report.Render(out, r)
}
