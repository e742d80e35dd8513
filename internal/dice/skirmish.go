package dice

// SkirmishDie implements the skirmish die. The physical die has three hit
// faces and three blanks; two faces carry the same distribution.
type SkirmishDie struct{}

var skirmishFaces = []Face{
	{SymbolBlank},
	{SymbolHit},
}

// Spec returns metadata about the skirmish die
func (d *SkirmishDie) Spec() DieSpec {
	return DieSpec{
		ID:      Skirmish,
		Name:    "Skirmish",
		Sides:   len(skirmishFaces),
		Faces:   d.Faces(),
		Symbols: symbolsOf(skirmishFaces),
	}
}

// Faces returns the face table
func (d *SkirmishDie) Faces() []Face {
	return skirmishFaces
}
