package roll

import (
	"fmt"

	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/rng"
)

// DieRoll is the face one die landed on.
type DieRoll struct {
	Die   dice.Type `json:"die"`
	Index int       `json:"index"`
	Face  dice.Face `json:"face"`
	Float float64   `json:"raw_float"`
}

// Result is one seeded roll of a pool.
type Result struct {
	Pool  dice.Pool  `json:"pool"`
	Nonce uint64     `json:"nonce"`
	Dice  []DieRoll  `json:"dice"`
	Tally dice.Tally `json:"tally"`
	Label string     `json:"label"`
}

// FloatCount is the number of floats a roll of pool consumes.
func FloatCount(pool dice.Pool) int { return pool.Total() }

// Roll draws one float per die, skirmish dice first, and picks face
// floor(f * sides). Equal seeds and nonce always give the same roll.
func Roll(pool dice.Pool, seeds rng.Seeds, nonce uint64) (*Result, error) {
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	if _, err := engine.TotalMicrostates(pool); err != nil {
		return nil, err
	}

	kinds := pool.Dice()
	floats := rng.Floats(seeds, nonce, 0, len(kinds))

	res := &Result{Pool: pool, Nonce: nonce, Dice: make([]DieRoll, len(kinds))}
	var tally dice.Tally
	for i, kind := range kinds {
		faces := dice.Must(kind).Faces()
		idx := int(floats[i] * float64(len(faces)))
		if idx >= len(faces) {
			return nil, fmt.Errorf("face index %d out of range for %s", idx, kind)
		}
		res.Dice[i] = DieRoll{Die: kind, Index: idx, Face: faces[idx], Float: floats[i]}
		tally = tally.Add(faces[idx].Tally())
	}

	res.Tally = engine.Convert(pool, tally)
	res.Label = engine.Label(pool, res.Tally)
	return res, nil
}
