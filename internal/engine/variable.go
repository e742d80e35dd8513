package engine

import (
	"fmt"
	"strings"
)

// Variable names one of the four outcome columns.
type Variable string

const (
	Hits         Variable = "hits"
	Damage       Variable = "damage"
	BuildingHits Variable = "building_hits"
	Keys         Variable = "keys"
)

// Variables lists the outcome columns in table order.
var Variables = []Variable{Hits, Damage, BuildingHits, Keys}

var variableAliases = map[string]Variable{
	"hits":          Hits,
	"hit":           Hits,
	"h":             Hits,
	"damage":        Damage,
	"d":             Damage,
	"building_hits": BuildingHits,
	"building-hits": BuildingHits,
	"buildings":     BuildingHits,
	"b":             BuildingHits,
	"keys":          Keys,
	"key":           Keys,
	"k":             Keys,
}

// ParseVariable accepts column names, short letters as used in labels, and
// a few spelling variants.
func ParseVariable(s string) (Variable, error) {
	v, ok := variableAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariable, s)
	}
	return v, nil
}

// Value reads v from the row.
func (r Row) Value(v Variable) int {
	switch v {
	case Hits:
		return r.Hits
	case Damage:
		return r.Damage
	case BuildingHits:
		return r.BuildingHits
	case Keys:
		return r.Keys
	default:
		return 0
	}
}
