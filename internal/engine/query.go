package engine

import (
	"fmt"
	"strings"
)

// Constraints bounds the outcome columns. A nil bound is not checked.
type Constraints struct {
	MinHits         *int `json:"min_hits,omitempty" validate:"omitempty,min=0"`
	MaxHits         *int `json:"max_hits,omitempty" validate:"omitempty,min=0"`
	MinDamage       *int `json:"min_damage,omitempty" validate:"omitempty,min=0"`
	MaxDamage       *int `json:"max_damage,omitempty" validate:"omitempty,min=0"`
	MinKeys         *int `json:"min_keys,omitempty" validate:"omitempty,min=0"`
	MaxKeys         *int `json:"max_keys,omitempty" validate:"omitempty,min=0"`
	MinBuildingHits *int `json:"min_building_hits,omitempty" validate:"omitempty,min=0"`
	MaxBuildingHits *int `json:"max_building_hits,omitempty" validate:"omitempty,min=0"`
}

// QueryResult is the probability that every bound holds.
type QueryResult struct {
	Probability float64 `json:"probability"`
	Microstates uint64  `json:"microstates"`
	Description string  `json:"description"`
}

type bound struct {
	v        Variable
	min, max *int
	atLeast  string
	noMore   string
}

func (c Constraints) bounds() []bound {
	return []bound{
		{Hits, c.MinHits, c.MaxHits, "hitting at least %d times", "hitting no more than %d times"},
		{Damage, c.MinDamage, c.MaxDamage, "taking at least %d damage", "taking no more than %d damage"},
		{Keys, c.MinKeys, c.MaxKeys, "getting at least %d keys", "getting no more than %d keys"},
		{BuildingHits, c.MinBuildingHits, c.MaxBuildingHits, "hitting buildings at least %d times", "hitting buildings no more than %d times"},
	}
}

// Empty reports whether no bound is set.
func (c Constraints) Empty() bool {
	for _, b := range c.bounds() {
		if b.min != nil || b.max != nil {
			return false
		}
	}
	return true
}

// Validate checks each bound on its own.
func (c Constraints) Validate() error {
	for _, b := range c.bounds() {
		if b.min != nil && *b.min < 0 {
			return fmt.Errorf("%w: min %s is negative", ErrInvalidConstraint, b.v)
		}
		if b.max != nil && *b.max < 0 {
			return fmt.Errorf("%w: max %s is negative", ErrInvalidConstraint, b.v)
		}
		if b.min != nil && b.max != nil && *b.min > *b.max {
			return fmt.Errorf("%w: min %s %d exceeds max %d", ErrInvalidConstraint, b.v, *b.min, *b.max)
		}
	}
	return nil
}

// Matches reports whether the row satisfies every bound.
func (c Constraints) Matches(r Row) bool {
	for _, b := range c.bounds() {
		x := r.Value(b.v)
		if b.min != nil && x < *b.min {
			return false
		}
		if b.max != nil && x > *b.max {
			return false
		}
	}
	return true
}

// Describe renders the bounds as a phrase, e.g.
// "hitting at least 2 times and taking no more than 1 damage".
func (c Constraints) Describe() string {
	var parts []string
	for _, b := range c.bounds() {
		if b.min != nil {
			parts = append(parts, fmt.Sprintf(b.atLeast, *b.min))
		}
		if b.max != nil {
			parts = append(parts, fmt.Sprintf(b.noMore, *b.max))
		}
	}
	if len(parts) == 0 {
		return "any outcome"
	}
	return strings.Join(parts, " and ")
}

// Query returns the probability that every bound in c holds.
//
// An unconverted intercept hides an unknown amount of self damage, so a
// max damage bound is refused for pools that can roll one.
func (t *Table) Query(c Constraints) (QueryResult, error) {
	if err := c.Validate(); err != nil {
		return QueryResult{}, err
	}
	if c.MaxDamage != nil && !t.Pool.ConvertIntercepts && t.Pool.CanIntercept() {
		return QueryResult{}, ErrUnconvertedIntercepts
	}

	p, n := t.Probability(c.Matches)
	return QueryResult{
		Probability: p,
		Microstates: n,
		Description: fmt.Sprintf("Probability of %s is %.4f", c.Describe(), p),
	}, nil
}

// Int returns a pointer to v for building Constraints literals.
func Int(v int) *int { return &v }
