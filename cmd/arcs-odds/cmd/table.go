package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/engine"
)

func newTableCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the joint outcome table",
		Long: `Print one row per (hits, damage, building_hits, keys) outcome with its
microstate count and probability, sorted by outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := o.pool()
			if err != nil {
				return err
			}

			start := time.Now()
			t, err := engine.JointTable(pool)
			if err != nil {
				return err
			}
			o.log.Debug("table computed", "pool", pool.Key(), "rows", len(t.Rows), "duration", time.Since(start))

			out := cmd.OutOrStdout()
			writeHeader(out, pool, t.TotalMicrostates)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "hits\tdamage\tbuilding_hits\tkeys\tmicrostates\tprob\t")
			for _, r := range t.Rows {
				printer.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%s\t\n",
					r.Hits, r.Damage, r.BuildingHits, r.Keys, r.Microstates, percent(r.Prob))
			}
			return tw.Flush()
		},
	}
}
