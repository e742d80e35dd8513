package scripting

import (
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/MJE43/arcs-odds/internal/engine"
)

// Predicate is a JS filter over outcomes. The source is either an
// expression over hits, damage, building_hits and keys, e.g.
//
//	hits >= 2 && damage <= 1
//
// or a function taking an outcome object, e.g.
//
//	o => o.keys > 0 || o.building_hits >= 2
type Predicate struct {
	vm *VM
	fn goja.Callable
	// expression predicates take the columns as positional arguments
	positional bool
}

// PredicateResult is the probability mass of rows the predicate accepts.
type PredicateResult struct {
	Probability float64    `json:"probability"`
	Microstates uint64     `json:"microstates"`
	Matched     int        `json:"matched_rows"`
	Logs        []LogEntry `json:"logs,omitempty"`
}

// NewPredicate compiles source in a fresh sandbox.
func NewPredicate(source string, timeout time.Duration) (*Predicate, error) {
	vm := NewVM(timeout)

	// Probe with the columns bound to zero: a function source evaluates to
	// itself, anything else is treated as an expression.
	probe := fmt.Sprintf("(function(hits, damage, building_hits, keys) { return (%s\n); })(0, 0, 0, 0)", source)
	v, err := vm.Run(probe)
	if err != nil {
		return nil, err
	}

	if fn, ok := goja.AssertFunction(v); ok {
		return &Predicate{vm: vm, fn: fn}, nil
	}

	wrapped, err := vm.Run(fmt.Sprintf("(function(hits, damage, building_hits, keys) { return (%s\n); })", source))
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(wrapped)
	if !ok {
		return nil, fmt.Errorf("%w: predicate did not compile to a function", ErrCompile)
	}
	return &Predicate{vm: vm, fn: fn, positional: true}, nil
}

func (p *Predicate) call(r engine.Row) (bool, error) {
	rt := p.vm.runtime
	var args []goja.Value
	if p.positional {
		args = []goja.Value{
			rt.ToValue(r.Hits), rt.ToValue(r.Damage), rt.ToValue(r.BuildingHits), rt.ToValue(r.Keys),
		}
	} else {
		o := rt.NewObject()
		o.Set("hits", r.Hits)
		o.Set("damage", r.Damage)
		o.Set("building_hits", r.BuildingHits)
		o.Set("keys", r.Keys)
		o.Set("prob", r.Prob)
		args = []goja.Value{o}
	}

	v, err := p.fn(goja.Undefined(), args...)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRuntime, err)
	}
	return v.ToBoolean(), nil
}

// Matches evaluates the predicate for one row.
func (p *Predicate) Matches(r engine.Row) (bool, error) {
	var ok bool
	err := p.vm.runWithTimeout(func() error {
		var err error
		ok, err = p.call(r)
		return err
	})
	return ok, err
}

// Probability sums the rows the predicate accepts. The whole table is
// evaluated under a single timeout.
func (p *Predicate) Probability(t *engine.Table) (*PredicateResult, error) {
	var n uint64
	matched := 0
	err := p.vm.runWithTimeout(func() error {
		for _, r := range t.Rows {
			ok, err := p.call(r)
			if err != nil {
				return fmt.Errorf("row %+v: %w", r.Outcome(), err)
			}
			if ok {
				n += r.Microstates
				matched++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &PredicateResult{
		Probability: float64(n) / float64(t.TotalMicrostates),
		Microstates: n,
		Matched:     matched,
		Logs:        p.vm.Logs(),
	}, nil
}

// Probability compiles source and evaluates it over t.
func Probability(source string, t *engine.Table, timeout time.Duration) (*PredicateResult, error) {
	p, err := NewPredicate(source, timeout)
	if err != nil {
		return nil, err
	}
	return p.Probability(t)
}
