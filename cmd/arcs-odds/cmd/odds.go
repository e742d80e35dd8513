package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/engine"
)

func newOddsCmd(o *options) *cobra.Command {
	var values [8]int
	bounds := []struct {
		flag  string
		usage string
		set   func(c *engine.Constraints, v *int)
	}{
		{"min-hits", "at least this many hits", func(c *engine.Constraints, v *int) { c.MinHits = v }},
		{"max-hits", "at most this many hits", func(c *engine.Constraints, v *int) { c.MaxHits = v }},
		{"min-damage", "at least this much damage", func(c *engine.Constraints, v *int) { c.MinDamage = v }},
		{"max-damage", "at most this much damage (needs -c if intercepts can roll)", func(c *engine.Constraints, v *int) { c.MaxDamage = v }},
		{"min-keys", "at least this many keys", func(c *engine.Constraints, v *int) { c.MinKeys = v }},
		{"max-keys", "at most this many keys", func(c *engine.Constraints, v *int) { c.MaxKeys = v }},
		{"min-buildings", "at least this many building hits", func(c *engine.Constraints, v *int) { c.MinBuildingHits = v }},
		{"max-buildings", "at most this many building hits", func(c *engine.Constraints, v *int) { c.MaxBuildingHits = v }},
	}

	cmd := &cobra.Command{
		Use:   "odds",
		Short: "Probability that a roll meets every bound",
		Long: `Print the probability that every given bound holds, e.g.

  arcs-odds odds -a 2 -c -f 2 --min-hits 3 --max-damage 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var c engine.Constraints
			for i, b := range bounds {
				if cmd.Flags().Changed(b.flag) {
					b.set(&c, engine.Int(values[i]))
				}
			}

			pool, err := o.pool()
			if err != nil {
				return err
			}
			t, err := engine.JointTable(pool)
			if err != nil {
				return err
			}
			res, err := t.Query(c)
			if err != nil {
				return err
			}
			o.log.Debug("odds computed", "pool", pool.Key(), "microstates", res.Microstates)

			fmt.Fprintln(cmd.OutOrStdout(), res.Description)
			return nil
		},
	}
	for i, b := range bounds {
		cmd.Flags().IntVar(&values[i], b.flag, 0, b.usage)
	}
	return cmd
}
