package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/api"
	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/export"
	"github.com/MJE43/arcs-odds/internal/store"
)

func newExportCmd(o *options) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the table as JSON, CSV, macrostate pairs or a SQLite snapshot",
		Long: `Write the joint table to --output ("-" for stdout).

Formats:
  json         table with exact decimal probabilities
  csv          hits,damage,building_hits,keys,microstates,prob
  macrostates  [[label, prob], ...] least likely first
  sqlite       append a snapshot to the SQLite file at --output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			pool, err := o.pool()
			if err != nil {
				return err
			}

			if f == export.FormatSQLite {
				if output == "" || output == "-" {
					return errors.New("sqlite export needs --output FILE")
				}
				t, err := engine.JointTable(pool)
				if err != nil {
					return err
				}
				id, err := saveSnapshot(cmd, output, t)
				if err != nil {
					return err
				}
				o.log.Debug("snapshot saved", "id", id, "path", output, "rows", len(t.Rows))
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}
			return writeExport(w, f, pool, o)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(export.FormatJSON), "json, csv, macrostates or sqlite")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file")
	return cmd
}

func writeExport(w io.Writer, f export.Format, pool dice.Pool, o *options) error {
	if f == export.FormatMacrostates {
		states, err := engine.Macrostates(pool)
		if err != nil {
			return err
		}
		return export.WriteMacrostatesJSON(w, states)
	}

	t, err := engine.JointTable(pool)
	if err != nil {
		return err
	}
	o.log.Debug("exporting table", "format", f, "rows", len(t.Rows))
	if f == export.FormatCSV {
		return export.WriteCSV(w, t)
	}
	return export.WriteJSON(w, t)
}

func saveSnapshot(cmd *cobra.Command, path string, t *engine.Table) (string, error) {
	st, err := store.Open(path, api.EngineVersion)
	if err != nil {
		return "", err
	}
	defer st.Close()

	if err := st.Migrate(cmd.Context()); err != nil {
		return "", err
	}
	return st.SaveTable(cmd.Context(), t)
}
