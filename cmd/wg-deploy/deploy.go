package main

import (
	"io"

	"github.com/spf13/cobra"

	"wg-deploy/pkg/pipeline"
	"wg-deploy/pkg/preflight"
)

func newDeployCmd(o *options, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Prepare the host and (re)create the WireGuard container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(o.logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			d := o.deps(log, out)
			sockets, err := preflight.NewProcSockets(o.host.procfs)
			if err != nil {
				return &pipeline.StageError{Stage: "port", Class: pipeline.ClassFatalPrecondition, Err: err}
			}
			d.Sockets = sockets
			return o.execute(cmd, log, out, "deploy", pipeline.DeployStages(d), cfg)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&o.flags.Port, "port", "p", 0, "UDP listen port (default 51820)")
	f.IntVarP(&o.flags.Peers, "peers", "n", 0, "number of peer profiles to generate (default 1)")
	f.StringVarP(&o.flags.ServerAddress, "server", "s", "", "public IP or hostname clients connect to (detected when empty)")
	f.BoolVarP(&o.flags.AutoConfirm, "yes", "y", false, "skip the confirmation prompt")
	f.StringVar(&o.metrics, "metrics-textfile", "", "write run metrics to this node_exporter textfile")
	addServiceFlags(cmd, o)
	return cmd
}

// addServiceFlags registers the flags that locate an existing deployment.
func addServiceFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVarP(&o.flags.ConfigDir, "config-dir", "d", "", "host directory mounted as /config (default /opt/wireguard/config)")
	f.StringVarP(&o.flags.Timezone, "timezone", "t", "", "container timezone (default Etc/UTC)")
	f.StringVar(&o.flags.ContainerName, "container-name", "", "container name (default wireguard)")
	f.StringVar(&o.flags.Image, "image", "", "container image")
	f.StringVar(&o.flags.PeerDNS, "peer-dns", "", "DNS server pushed to peers (default auto)")
	f.StringVar(&o.flags.InternalSubnet, "internal-subnet", "", "tunnel subnet (default 10.13.13.0)")
}
