package dice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNegativeDice         = errors.New("dice counts must be non-negative")
	ErrNegativeFreshTargets = errors.New("fresh targets must be non-negative")
	ErrUnknownDie           = errors.New("unknown die type")
	ErrNoRolls              = errors.New("at least one roll is required")
	ErrMixedRollOptions     = errors.New("rolls must share fresh targets and intercept conversion")
)

// Pool is a dice configuration together with the roll options that affect
// how intercepts are scored.
type Pool struct {
	Skirmish          int  `json:"skirmish"`
	Assault           int  `json:"assault"`
	Raid              int  `json:"raid"`
	FreshTargets      int  `json:"fresh_targets"`
	ConvertIntercepts bool `json:"convert_intercepts"`
}

// Validate reports whether the pool can be rolled.
func (p Pool) Validate() error {
	for _, t := range Types {
		if n := p.Count(t); n < 0 {
			return fmt.Errorf("%w: %s=%d", ErrNegativeDice, t, n)
		}
	}
	if p.FreshTargets < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeFreshTargets, p.FreshTargets)
	}
	return nil
}

// Count returns how many dice of type t the pool rolls.
func (p Pool) Count(t Type) int {
	switch t {
	case Skirmish:
		return p.Skirmish
	case Assault:
		return p.Assault
	case Raid:
		return p.Raid
	default:
		return 0
	}
}

// Has reports whether at least one die of type t is rolled.
func (p Pool) Has(t Type) bool { return p.Count(t) > 0 }

// Total is the number of dice rolled.
func (p Pool) Total() int { return p.Skirmish + p.Assault + p.Raid }

// Dice expands the pool into one entry per die, skirmish dice first.
func (p Pool) Dice() []Type {
	out := make([]Type, 0, p.Total())
	for _, t := range Types {
		for i := 0; i < p.Count(t); i++ {
			out = append(out, t)
		}
	}
	return out
}

// CanIntercept reports whether any die in the pool carries an intercept face.
func (p Pool) CanIntercept() bool {
	for _, t := range Types {
		if !p.Has(t) {
			continue
		}
		for _, f := range Must(t).Faces() {
			if f.Tally().Intercept {
				return true
			}
		}
	}
	return false
}

// Key is a compact, stable identifier for caching.
func (p Pool) Key() string {
	conv := 0
	if p.ConvertIntercepts {
		conv = 1
	}
	return fmt.Sprintf("s%da%dr%df%dc%d", p.Skirmish, p.Assault, p.Raid, p.FreshTargets, conv)
}

// String renders the pool the way plot titles do,
// e.g. "2 Skirmish, 1 Raid, 3 Fresh Target Ships".
func (p Pool) String() string {
	var parts []string
	for _, t := range Types {
		if n := p.Count(t); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, Must(t).Spec().Name))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "No dice")
	}
	if p.ConvertIntercepts {
		parts = append(parts, fmt.Sprintf("%d Fresh Target Ships", p.FreshTargets))
	}
	return strings.Join(parts, ", ")
}

// CombineRolls totals several rolls into one pool. All rolls must use the
// same intercept options.
func CombineRolls(rolls []Pool) (Pool, error) {
	if len(rolls) == 0 {
		return Pool{}, ErrNoRolls
	}

	total := Pool{
		FreshTargets:      rolls[0].FreshTargets,
		ConvertIntercepts: rolls[0].ConvertIntercepts,
	}
	for i, r := range rolls {
		if err := r.Validate(); err != nil {
			return Pool{}, fmt.Errorf("roll %d: %w", i+1, err)
		}
		if r.FreshTargets != total.FreshTargets || r.ConvertIntercepts != total.ConvertIntercepts {
			return Pool{}, fmt.Errorf("roll %d: %w", i+1, ErrMixedRollOptions)
		}
		total.Skirmish += r.Skirmish
		total.Assault += r.Assault
		total.Raid += r.Raid
	}
	return total, nil
}
