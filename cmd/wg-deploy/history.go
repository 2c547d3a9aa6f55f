package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wg-deploy/pkg/journal"
)

func newHistoryCmd(o *options, out io.Writer) *cobra.Command {
	var (
		limit  int
		stages bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.journal == "" {
				return errors.New("journal disabled (--journal is empty)")
			}
			log, err := newLogger(o.logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			j, err := journal.Open(cmd.Context(), log, o.journal)
			if err != nil {
				return err
			}
			defer j.Close()
			runs, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCOMMAND\tSTARTED\tTOOK\tSTATUS\tENDPOINT\tPEERS")
			for _, r := range runs {
				took := "-"
				if !r.FinishedAt.IsZero() {
					took = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				endpoint := "-"
				if r.Server != "" {
					endpoint = fmt.Sprintf("%s:%d", r.Server, r.Port)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
					r.ID[:8], r.Command, r.StartedAt.Local().Format(time.DateTime), took, r.Status, endpoint, r.Peers)
				if stages {
					for _, s := range r.Stages {
						fmt.Fprintf(tw, "\t  %s\t%s\t%s\t%s\t\t\n", s.Name, s.Status, s.Duration.Round(time.Millisecond), s.Message)
					}
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	cmd.Flags().BoolVar(&stages, "stages", false, "include per-stage results")
	return cmd
}
