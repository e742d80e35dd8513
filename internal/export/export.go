package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
)

// ExactPlaces is the number of decimal places in prob_exact.
const ExactPlaces = 20

// Format is an export file format.
type Format string

const (
	FormatJSON        Format = "json"
	FormatCSV         Format = "csv"
	FormatMacrostates Format = "macrostates"
	FormatSQLite      Format = "sqlite"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatMacrostates, FormatSQLite}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "macrostates", "labels":
		return FormatMacrostates, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// CSVHeader is the first line of a CSV export.
var CSVHeader = []string{"hits", "damage", "building_hits", "keys", "microstates", "prob"}

// RowDocument is a table row with its exact probability.
type RowDocument struct {
	engine.Row
	ProbExact string `json:"prob_exact"`
}

// TableDocument is the JSON export of a table.
type TableDocument struct {
	Pool             dice.Pool     `json:"pool"`
	TotalMicrostates uint64        `json:"total_microstates"`
	Rows             []RowDocument `json:"rows"`
}

// ExactProb renders n/total rounded to ExactPlaces decimal places.
func ExactProb(n, total uint64) string {
	num := decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
	den := decimal.NewFromBigInt(new(big.Int).SetUint64(total), 0)
	return num.DivRound(den, ExactPlaces).StringFixed(ExactPlaces)
}

// NewTableDocument converts a table for JSON export.
func NewTableDocument(t *engine.Table) TableDocument {
	doc := TableDocument{
		Pool:             t.Pool,
		TotalMicrostates: t.TotalMicrostates,
		Rows:             make([]RowDocument, len(t.Rows)),
	}
	for i, r := range t.Rows {
		doc.Rows[i] = RowDocument{Row: r, ProbExact: ExactProb(r.Microstates, t.TotalMicrostates)}
	}
	return doc
}

// WriteJSON writes the table as an indented JSON document.
func WriteJSON(w io.Writer, t *engine.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewTableDocument(t))
}

// WriteMacrostatesJSON writes [[label, prob], ...] pairs.
func WriteMacrostatesJSON(w io.Writer, states []engine.Macrostate) error {
	pairs := make([][2]any, len(states))
	for i, s := range states {
		pairs[i] = [2]any{s.Label, s.Prob}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pairs)
}

// WriteCSV writes one line per row after CSVHeader.
func WriteCSV(w io.Writer, t *engine.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := []string{
			strconv.Itoa(r.Hits),
			strconv.Itoa(r.Damage),
			strconv.Itoa(r.BuildingHits),
			strconv.Itoa(r.Keys),
			strconv.FormatUint(r.Microstates, 10),
			strconv.FormatFloat(r.Prob, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
