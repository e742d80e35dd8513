package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/engine"
)

func newMacrostatesCmd(o *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "macrostates",
		Short: "Print the labelled outcome distribution",
		Long: `Print outcomes as labels such as 3H1D or 1H0B2D2KI, least likely first.
With --limit N only the N most likely labels are shown, most likely first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0, got %d", limit)
			}
			pool, err := o.pool()
			if err != nil {
				return err
			}
			states, err := engine.Macrostates(pool)
			if err != nil {
				return err
			}
			if limit > 0 {
				states = engine.MostLikely(states, limit)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, s := range states {
				printer.Fprintf(tw, "%s\t%s\t%d\n", s.Label, percent(s.Prob), s.Microstates)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the N most likely outcomes")
	return cmd
}
