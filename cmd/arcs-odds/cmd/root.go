package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/logger"
)

// options holds the flags shared by every subcommand.
type options struct {
	skirmish     int
	assault      int
	raid         int
	freshTargets int
	convert      bool
	rolls        []string
	verbose      bool

	log *slog.Logger
}

// pool builds the dice pool from either --roll values or the count flags.
func (o *options) pool() (dice.Pool, error) {
	if len(o.rolls) == 0 {
		p := dice.Pool{
			Skirmish:          o.skirmish,
			Assault:           o.assault,
			Raid:              o.raid,
			FreshTargets:      o.freshTargets,
			ConvertIntercepts: o.convert,
		}
		return p, p.Validate()
	}

	rolls := make([]dice.Pool, len(o.rolls))
	for i, s := range o.rolls {
		p, err := parseRoll(s)
		if err != nil {
			return dice.Pool{}, err
		}
		p.FreshTargets = o.freshTargets
		p.ConvertIntercepts = o.convert
		rolls[i] = p
	}
	return dice.CombineRolls(rolls)
}

// parseRoll reads "s,a,r" counts. Missing trailing counts are zero.
func parseRoll(s string) (dice.Pool, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return dice.Pool{}, fmt.Errorf("invalid roll %q: want skirmish,assault,raid", s)
	}
	counts := make([]int, 3)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return dice.Pool{}, fmt.Errorf("invalid roll %q: %w", s, err)
		}
		counts[i] = n
	}
	p := dice.Pool{Skirmish: counts[0], Assault: counts[1], Raid: counts[2]}
	return p, p.Validate()
}

// printer formats numbers with digit grouping.
var printer = message.NewPrinter(language.English)

// NewRootCmd builds the arcs-odds command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "arcs-odds",
		Short: "Exact dice odds for Arcs combat rolls",
		Long: `arcs-odds computes the exact joint distribution of hits, damage,
building hits and keys for a roll of Skirmish, Assault and Raid dice.

Examples:
  arcs-odds table -a 3 -r 2
  arcs-odds odds -s 2 --min-hits 1
  arcs-odds macrostates -a 2 -c -f 1 --limit 5
  arcs-odds table --roll 2,1,0 --roll 0,0,2
  arcs-odds serve`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := logger.DefaultConfig()
			cfg.Level = "warn"
			if o.verbose {
				cfg.Level = "debug"
			}
			o.log = logger.New(cmd.ErrOrStderr(), cfg)
		},
	}

	f := root.PersistentFlags()
	f.IntVarP(&o.skirmish, "skirmish", "s", 0, "number of Skirmish dice")
	f.IntVarP(&o.assault, "assault", "a", 0, "number of Assault dice")
	f.IntVarP(&o.raid, "raid", "r", 0, "number of Raid dice")
	f.IntVarP(&o.freshTargets, "fresh-targets", "f", 0, "fresh target ships for intercept damage")
	f.BoolVarP(&o.convert, "convert-intercepts", "c", false, "score intercepts as damage from fresh targets")
	f.StringArrayVar(&o.rolls, "roll", nil, "add a roll of skirmish,assault,raid dice (repeatable)")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newTableCmd(o),
		newMacrostatesCmd(o),
		newMarginalsCmd(o),
		newHeatmapCmd(o),
		newOddsCmd(o),
		newPredicateCmd(o),
		newRollCmd(o),
		newExportCmd(o),
		newSnapshotsCmd(o),
		newVerifyCmd(o),
		newServeCmd(o),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func percent(p float64) string {
	return strconv.FormatFloat(p*100, 'f', 4, 64) + "%"
}

func writeHeader(w io.Writer, pool dice.Pool, total uint64) {
	printer.Fprintf(w, "%s (%d microstates)\n", pool, total)
}
