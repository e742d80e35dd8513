package dice

import (
	"sort"
	"strings"
)

// Symbol is a single mark printed on a die face.
type Symbol string

const (
	SymbolBlank       Symbol = "blank"
	SymbolHit         Symbol = "hit"
	SymbolFlame       Symbol = "flame" // damage to the attacker
	SymbolIntercept   Symbol = "intercept"
	SymbolBuildingHit Symbol = "hitb"
	SymbolKey         Symbol = "key"
)

// Type identifies one of the three combat dice.
type Type string

const (
	Skirmish Type = "skirmish"
	Assault  Type = "assault"
	Raid     Type = "raid"
)

// Types lists the die types in canonical roll order.
var Types = []Type{Skirmish, Assault, Raid}

// Face is the ordered list of symbols on one side of a die.
type Face []Symbol

// Tally is the contribution of one or more faces to a roll.
type Tally struct {
	Hits         int  `json:"hits"`
	Damage       int  `json:"damage"`
	BuildingHits int  `json:"building_hits"`
	Keys         int  `json:"keys"`
	Intercept    bool `json:"intercept"`
}

// Tally counts the symbols on the face.
func (f Face) Tally() Tally {
	var t Tally
	for _, s := range f {
		switch s {
		case SymbolHit:
			t.Hits++
		case SymbolFlame:
			t.Damage++
		case SymbolBuildingHit:
			t.BuildingHits++
		case SymbolKey:
			t.Keys++
		case SymbolIntercept:
			t.Intercept = true
		}
	}
	return t
}

// String joins the symbols with "+", e.g. "hit+flame".
func (f Face) String() string {
	parts := make([]string, len(f))
	for i, s := range f {
		parts[i] = string(s)
	}
	return strings.Join(parts, "+")
}

// Add combines two tallies. Intercepts do not stack: a roll either
// shows an intercept or it does not.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		Hits:         t.Hits + o.Hits,
		Damage:       t.Damage + o.Damage,
		BuildingHits: t.BuildingHits + o.BuildingHits,
		Keys:         t.Keys + o.Keys,
		Intercept:    t.Intercept || o.Intercept,
	}
}

// DieSpec describes a die type for listings.
type DieSpec struct {
	ID      Type     `json:"id"`
	Name    string   `json:"name"`
	Sides   int      `json:"sides"`
	Faces   []Face   `json:"faces"`
	Symbols []Symbol `json:"symbols"`
}

// Die is a combat die with a fixed table of equally likely faces.
type Die interface {
	Spec() DieSpec
	Faces() []Face
}

// symbolsOf returns the distinct non-blank symbols on the faces, sorted.
func symbolsOf(faces []Face) []Symbol {
	seen := make(map[Symbol]bool)
	for _, f := range faces {
		for _, s := range f {
			if s != SymbolBlank {
				seen[s] = true
			}
		}
	}
	out := make([]Symbol, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
