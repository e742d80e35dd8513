package dice

import "fmt"

// registry holds all available dice
var registry = make(map[Type]Die)

// RegisterDie adds a die to the registry
func RegisterDie(d Die) {
	registry[d.Spec().ID] = d
}

// GetDie retrieves a die by name
func GetDie(name string) (Die, bool) {
	d, exists := registry[Type(name)]
	return d, exists
}

// Must returns the registered die for t and panics if there is none.
func Must(t Type) Die {
	d, ok := registry[t]
	if !ok {
		panic(fmt.Sprintf("dice: %q is not registered", t))
	}
	return d
}

// ListDice returns the specs of all registered dice in roll order
func ListDice() []DieSpec {
	specs := make([]DieSpec, 0, len(registry))
	for _, t := range Types {
		if d, ok := registry[t]; ok {
			specs = append(specs, d.Spec())
		}
	}
	return specs
}

func init() {
	RegisterDie(&SkirmishDie{})
	RegisterDie(&AssaultDie{})
	RegisterDie(&RaidDie{})
}
