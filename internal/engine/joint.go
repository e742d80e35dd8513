package engine

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/MJE43/arcs-odds/internal/dice"
)

// Row is one distinct (hits, damage, building_hits, keys) outcome.
type Row struct {
	Hits         int     `json:"hits"`
	Damage       int     `json:"damage"`
	BuildingHits int     `json:"building_hits"`
	Keys         int     `json:"keys"`
	Microstates  uint64  `json:"microstates"`
	Prob         float64 `json:"prob"`
}

// Table is the joint probability table for a pool. Rows are sorted by
// (hits, damage, building_hits, keys) and never repeat a tuple.
type Table struct {
	Pool             dice.Pool `json:"pool"`
	TotalMicrostates uint64    `json:"total_microstates"`
	Rows             []Row     `json:"rows"`
}

// JointTable computes the exact joint distribution of a roll.
func JointTable(pool dice.Pool) (*Table, error) {
	dist, total, err := distribution(pool)
	if err != nil {
		return nil, err
	}

	grouped := make(map[Outcome]uint64, len(dist))
	for t, n := range dist {
		grouped[OutcomeOf(Convert(pool, t))] += n
	}
	return NewTable(pool, total, grouped), nil
}

// NewTable builds a sorted table from microstate counts per outcome.
func NewTable(pool dice.Pool, total uint64, counts map[Outcome]uint64) *Table {
	rows := make([]Row, 0, len(counts))
	for o, n := range counts {
		rows = append(rows, Row{
			Hits:         o.Hits,
			Damage:       o.Damage,
			BuildingHits: o.BuildingHits,
			Keys:         o.Keys,
			Microstates:  n,
			Prob:         float64(n) / float64(total),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].less(rows[j]) })

	return &Table{Pool: pool, TotalMicrostates: total, Rows: rows}
}

// Convert applies intercept conversion: when enabled, a rolled intercept
// becomes FreshTargets points of damage and no longer shows.
func Convert(pool dice.Pool, t dice.Tally) dice.Tally {
	if pool.ConvertIntercepts && t.Intercept {
		t.Damage += pool.FreshTargets
		t.Intercept = false
	}
	return t
}

// TotalMicrostates returns 2^skirmish * 6^(assault+raid) for the stock dice.
func TotalMicrostates(pool dice.Pool) (uint64, error) {
	if err := pool.Validate(); err != nil {
		return 0, err
	}
	total := uint64(1)
	for _, t := range pool.Dice() {
		hi, lo := bits.Mul64(total, uint64(len(dice.Must(t).Faces())))
		if hi != 0 {
			return 0, fmt.Errorf("%w: %s", ErrTooManyDice, pool)
		}
		total = lo
	}
	return total, nil
}

// Outcome is the (hits, damage, building_hits, keys) key of a row.
type Outcome struct {
	Hits, Damage, BuildingHits, Keys int
}

// OutcomeOf drops the intercept flag from a converted tally.
func OutcomeOf(t dice.Tally) Outcome {
	return Outcome{t.Hits, t.Damage, t.BuildingHits, t.Keys}
}

// Outcome returns the row's key.
func (r Row) Outcome() Outcome {
	return Outcome{r.Hits, r.Damage, r.BuildingHits, r.Keys}
}

func (r Row) less(o Row) bool {
	if r.Hits != o.Hits {
		return r.Hits < o.Hits
	}
	if r.Damage != o.Damage {
		return r.Damage < o.Damage
	}
	if r.BuildingHits != o.BuildingHits {
		return r.BuildingHits < o.BuildingHits
	}
	return r.Keys < o.Keys
}

// distribution folds every die into a map from raw tally to the number of
// face combinations producing it. Partial tallies that coincide are merged
// as they appear, so the counts equal a full Cartesian enumeration.
func distribution(pool dice.Pool) (map[dice.Tally]uint64, uint64, error) {
	total, err := TotalMicrostates(pool)
	if err != nil {
		return nil, 0, err
	}

	dist := map[dice.Tally]uint64{{}: 1}
	for _, t := range dice.Types {
		weights := faceWeights(dice.Must(t))
		for i := 0; i < pool.Count(t); i++ {
			next := make(map[dice.Tally]uint64, len(dist)*len(weights))
			for partial, n := range dist {
				for face, w := range weights {
					next[partial.Add(face)] += n * w
				}
			}
			dist = next
		}
	}
	return dist, total, nil
}

// faceWeights collapses faces with identical tallies.
func faceWeights(d dice.Die) map[dice.Tally]uint64 {
	w := make(map[dice.Tally]uint64)
	for _, f := range d.Faces() {
		w[f.Tally()]++
	}
	return w
}

// Lookup finds the row for an outcome tuple.
func (t *Table) Lookup(hits, damage, buildingHits, keys int) (Row, bool) {
	want := Row{Hits: hits, Damage: damage, BuildingHits: buildingHits, Keys: keys}
	i := sort.Search(len(t.Rows), func(i int) bool { return !t.Rows[i].less(want) })
	if i < len(t.Rows) && !want.less(t.Rows[i]) {
		return t.Rows[i], true
	}
	return Row{}, false
}

// Probability sums the rows accepted by keep. Counts are summed before
// dividing so the result carries a single rounding.
func (t *Table) Probability(keep func(Row) bool) (float64, uint64) {
	var n uint64
	for _, r := range t.Rows {
		if keep(r) {
			n += r.Microstates
		}
	}
	return float64(n) / float64(t.TotalMicrostates), n
}

// Max is the largest value v takes anywhere in the table.
func (t *Table) Max(v Variable) int {
	top := 0
	for _, r := range t.Rows {
		if x := r.Value(v); x > top {
			top = x
		}
	}
	return top
}
