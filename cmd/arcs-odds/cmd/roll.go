package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/rng"
	"github.com/MJE43/arcs-odds/internal/roll"
)

func newRollCmd(o *options) *cobra.Command {
	var (
		seeds rng.Seeds
		nonce uint64
		count int
	)

	cmd := &cobra.Command{
		Use:   "roll",
		Short: "Roll the pool from a server/client seed pair",
		Long: `Roll the pool reproducibly. Each die draws one HMAC-SHA256 float from
(server seed, client seed, nonce); the same inputs always give the same faces.
With --count N the nonces nonce..nonce+N-1 are rolled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seeds.Server == "" {
				return errors.New("--server-seed is required")
			}
			if count < 1 {
				return fmt.Errorf("--count must be >= 1, got %d", count)
			}
			pool, err := o.pool()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				res, err := roll.Roll(pool, seeds, nonce+uint64(i))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "nonce %d: %s\n", res.Nonce, res.Label)
				if count > 1 && !o.verbose {
					continue
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, d := range res.Dice {
					fmt.Fprintf(tw, "  %s\t#%d\t%s\t%.10f\n", d.Die, d.Index, d.Face, d.Float)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seeds.Server, "server-seed", "", "server seed")
	cmd.Flags().StringVar(&seeds.Client, "client-seed", "", "client seed")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "first nonce")
	cmd.Flags().IntVar(&count, "count", 1, "number of consecutive nonces to roll")
	return cmd
}
