package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/engine"
)

func newHeatmapCmd(o *options) *cobra.Command {
	var (
		x, y       string
		cumulative bool
	)

	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Print the joint distribution of two outcome columns",
		Long: `Print a grid of probabilities with --x across and --y down. Columns are
hits, damage, building_hits and keys (or h, d, b, k).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			xv, err := engine.ParseVariable(x)
			if err != nil {
				return err
			}
			yv, err := engine.ParseVariable(y)
			if err != nil {
				return err
			}
			pool, err := o.pool()
			if err != nil {
				return err
			}
			t, err := engine.JointTable(pool)
			if err != nil {
				return err
			}
			hm, err := t.Heatmap(xv, yv, cumulative)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "%s \\ %s\t", yv, xv)
			for _, xi := range hm.XValues {
				fmt.Fprintf(tw, "%d\t", xi)
			}
			fmt.Fprintln(tw)
			for j, yi := range hm.YValues {
				fmt.Fprintf(tw, "%d\t", yi)
				for i := range hm.XValues {
					fmt.Fprintf(tw, "%s\t", percent(hm.Cells[j][i]))
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&x, "x", string(engine.Hits), "column across")
	cmd.Flags().StringVar(&y, "y", string(engine.Damage), "column down")
	cmd.Flags().BoolVar(&cumulative, "cumulative", false, "print P(X >= x and Y >= y)")
	return cmd
}
