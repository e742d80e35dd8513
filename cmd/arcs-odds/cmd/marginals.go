package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/engine"
)

func newMarginalsCmd(o *options) *cobra.Command {
	var cumulative bool

	cmd := &cobra.Command{
		Use:   "marginals",
		Short: "Print the distribution of each outcome column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := o.pool()
			if err != nil {
				return err
			}
			t, err := engine.JointTable(pool)
			if err != nil {
				return err
			}

			op := "="
			if cumulative {
				op = ">="
			}
			out := cmd.OutOrStdout()
			writeHeader(out, pool, t.TotalMicrostates)
			for _, v := range engine.Variables {
				points := t.Marginal(v, cumulative)
				cells := make([]string, len(points))
				for i, p := range points {
					cells[i] = fmt.Sprintf("%s%d: %s", op, p.Value, percent(p.Prob))
				}
				fmt.Fprintf(out, "%-14s %s\n", v, strings.Join(cells, "  "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cumulative, "cumulative", false, "print P(X >= n) instead of P(X = n)")
	return cmd
}
