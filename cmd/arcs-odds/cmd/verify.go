package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/scan"
)

func newVerifyCmd(o *options) *cobra.Command {
	var (
		timeout   time.Duration
		workers   int
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the table against brute-force enumeration",
		Long: `Enumerate every microstate of the pool with a worker pool and compare
the resulting table with the computed one. Pools above 100,000,000
microstates are refused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := o.pool()
			if err != nil {
				return err
			}

			s := scan.NewScanner()
			if workers > 0 {
				s = scan.NewScannerWithWorkers(workers)
			}
			res, err := s.Verify(cmd.Context(), scan.ScanRequest{
				Pool:      pool,
				TimeoutMs: int(timeout / time.Millisecond),
			}, tolerance)
			if err != nil {
				return err
			}

			sum := res.Summary
			o.log.Debug("scan finished", "workers", sum.Workers, "duration", sum.Duration)
			printer.Fprintf(cmd.OutOrStdout(), "ok: %d microstates, %d outcomes, %d workers, %s\n",
				sum.TotalEvaluated, sum.Outcomes, sum.Workers, sum.Duration.Round(time.Microsecond))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "give up after this long")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (default GOMAXPROCS)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-12, "allowed probability difference per outcome")
	return cmd
}
