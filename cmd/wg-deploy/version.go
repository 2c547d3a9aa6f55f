package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wg-deploy/pkg/version"
)

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of wg-deploy",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "wg-deploy version %s\n", version.String())
		},
	}
}
