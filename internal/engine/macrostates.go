package engine

import (
	"fmt"
	"sort"

	"github.com/MJE43/arcs-odds/internal/dice"
)

// Macrostate is a labelled aggregate outcome such as "3H1D" or "1H0B2D2KI".
type Macrostate struct {
	Label       string  `json:"label"`
	Microstates uint64  `json:"microstates"`
	Prob        float64 `json:"prob"`
}

// Macrostates returns the labelled distribution of a roll sorted by
// ascending probability, ties broken by label.
func Macrostates(pool dice.Pool) ([]Macrostate, error) {
	dist, total, err := distribution(pool)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]uint64)
	for t, n := range dist {
		grouped[Label(pool, Convert(pool, t))] += n
	}

	out := make([]Macrostate, 0, len(grouped))
	for label, n := range grouped {
		out = append(out, Macrostate{
			Label:       label,
			Microstates: n,
			Prob:        float64(n) / float64(total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Microstates != out[j].Microstates {
			return out[i].Microstates < out[j].Microstates
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// Label renders an already converted tally. The columns shown depend on
// which dice the pool rolls: raid dice add buildings and keys, and only
// skirmish or assault dice can hit ships. A trailing "I" marks an
// intercept that was not converted to damage.
func Label(pool dice.Pool, t dice.Tally) string {
	var s string
	switch {
	case pool.Has(dice.Raid) && !pool.Has(dice.Skirmish) && !pool.Has(dice.Assault):
		s = fmt.Sprintf("%dB%dD%dK", t.BuildingHits, t.Damage, t.Keys)
	case pool.Has(dice.Raid):
		s = fmt.Sprintf("%dH%dB%dD%dK", t.Hits, t.BuildingHits, t.Damage, t.Keys)
	case pool.Has(dice.Assault):
		s = fmt.Sprintf("%dH%dD", t.Hits, t.Damage)
	default:
		s = fmt.Sprintf("%dH", t.Hits)
	}
	if t.Intercept {
		s += "I"
	}
	return s
}

// MostLikely returns the n most probable macrostates, most probable first.
// n <= 0 returns all of them.
func MostLikely(states []Macrostate, n int) []Macrostate {
	if n <= 0 || n > len(states) {
		n = len(states)
	}
	out := make([]Macrostate, 0, n)
	for i := len(states) - 1; i >= len(states)-n; i-- {
		out = append(out, states[i])
	}
	return out
}
