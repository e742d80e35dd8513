package dice

// AssaultDie implements the assault die
type AssaultDie struct{}

var assaultFaces = []Face{
	{SymbolHit, SymbolFlame},
	{SymbolHit, SymbolHit},
	{SymbolHit, SymbolHit, SymbolFlame},
	{SymbolBlank},
	{SymbolHit, SymbolIntercept},
	{SymbolHit, SymbolHit},
}

// Spec returns metadata about the assault die
func (d *AssaultDie) Spec() DieSpec {
	return DieSpec{
		ID:      Assault,
		Name:    "Assault",
		Sides:   len(assaultFaces),
		Faces:   d.Faces(),
		Symbols: symbolsOf(assaultFaces),
	}
}

// Faces returns the face table
func (d *AssaultDie) Faces() []Face {
	return assaultFaces
}
