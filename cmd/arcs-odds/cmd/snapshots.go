package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/api"
	"github.com/MJE43/arcs-odds/internal/export"
	"github.com/MJE43/arcs-odds/internal/store"
)

func newSnapshotsCmd(o *options) *cobra.Command {
	var (
		db      string
		page    int
		perPage int
		byPool  bool
	)

	open := func(cmd *cobra.Command) (*store.Store, error) {
		if db == "" {
			return nil, errors.New("--db is required")
		}
		st, err := store.Open(db, api.EngineVersion)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(cmd.Context()); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List tables saved with export --format sqlite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			q := store.SnapshotsQuery{Page: page, PerPage: perPage}
			if byPool {
				pool, err := o.pool()
				if err != nil {
					return err
				}
				q.PoolKey = pool.Key()
			}
			list, err := st.ListSnapshots(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, s := range list.Snapshots {
				printer.Fprintf(tw, "%s\t%s\t%d rows\t%d\t%s\n",
					s.ID, s.Pool, s.RowCount, s.TotalMicrostates, s.CreatedAt.Format(time.RFC3339))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "page %d of %d (%d snapshots)\n", list.Page, list.TotalPages, list.TotalCount)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&db, "db", "", "SQLite file")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 50, "snapshots per page")
	cmd.Flags().BoolVar(&byPool, "pool", false, "only snapshots of the pool given by the dice flags")

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Print a saved snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.GetSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				ID            string               `json:"id"`
				EngineVersion string               `json:"engine_version"`
				CreatedAt     time.Time            `json:"created_at"`
				Table         export.TableDocument `json:"table"`
			}{snap.ID, snap.EngineVersion, snap.CreatedAt, export.NewTableDocument(snap.Table())})
		},
	})
	return cmd
}
