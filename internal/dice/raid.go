package dice

// RaidDie implements the raid die. It never produces ship hits.
type RaidDie struct{}

var raidFaces = []Face{
	{SymbolBuildingHit, SymbolFlame},
	{SymbolIntercept},
	{SymbolIntercept, SymbolKey, SymbolKey},
	{SymbolKey, SymbolFlame},
	{SymbolKey, SymbolBuildingHit},
	{SymbolBuildingHit, SymbolFlame},
}

// Spec returns metadata about the raid die
func (d *RaidDie) Spec() DieSpec {
	return DieSpec{
		ID:      Raid,
		Name:    "Raid",
		Sides:   len(raidFaces),
		Faces:   d.Faces(),
		Symbols: symbolsOf(raidFaces),
	}
}

// Faces returns the face table
func (d *RaidDie) Faces() []Face {
	return raidFaces
}
