package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/api"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v := api.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "arcs-odds %s (commit %s, built %s)\n", v.EngineVersion, v.GitCommit, v.BuildTime)
		},
	}
}
