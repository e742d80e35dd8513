package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/scripting"
)

func newPredicateCmd(o *options) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "predicate EXPR",
		Short: "Probability that a JavaScript predicate holds",
		Long: `Evaluate a JavaScript predicate over every outcome. EXPR is either an
expression over hits, damage, building_hits and keys or a function taking
an outcome object:

  arcs-odds predicate -a 3 'hits >= 2 * damage'
  arcs-odds predicate -r 2 'o => o.keys + o.building_hits >= 3'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := o.pool()
			if err != nil {
				return err
			}
			t, err := engine.JointTable(pool)
			if err != nil {
				return err
			}
			res, err := scripting.Probability(args[0], t, timeout)
			if err != nil {
				return err
			}
			for _, l := range res.Logs {
				o.log.Info("script log", "message", l.Message)
			}

			printer.Fprintf(cmd.OutOrStdout(), "%s (%d of %d microstates, %d outcomes)\n",
				percent(res.Probability), res.Microstates, t.TotalMicrostates, res.Matched)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", scripting.DefaultTimeout, "evaluation time limit")
	return cmd
}
