package scan

import (
	"context"
	"fmt"

	"github.com/MJE43/arcs-odds/internal/engine"
)

// Mismatch describes the first row where two tables disagree.
type Mismatch struct {
	Outcome engine.Outcome `json:"outcome"`
	Want    engine.Row     `json:"want"`
	Got     engine.Row     `json:"got"`
	Reason  string         `json:"reason"`
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("%v at %+v: %s", ErrTableMismatch, m.Outcome, m.Reason)
}

func (m *Mismatch) Unwrap() error { return ErrTableMismatch }

// Compare checks that two tables hold the same rows with equal microstate
// counts and probabilities within tol. It returns nil when they agree.
func Compare(want, got *engine.Table, tol float64) *Mismatch {
	if want.TotalMicrostates != got.TotalMicrostates {
		return &Mismatch{Reason: fmt.Sprintf("total microstates %d != %d", want.TotalMicrostates, got.TotalMicrostates)}
	}

	gotRows := make(map[engine.Outcome]engine.Row, len(got.Rows))
	for _, r := range got.Rows {
		gotRows[r.Outcome()] = r
	}

	for _, w := range want.Rows {
		g, ok := gotRows[w.Outcome()]
		switch {
		case !ok:
			return &Mismatch{Outcome: w.Outcome(), Want: w, Reason: "missing row"}
		case g.Microstates != w.Microstates:
			return &Mismatch{Outcome: w.Outcome(), Want: w, Got: g,
				Reason: fmt.Sprintf("microstates %d != %d", w.Microstates, g.Microstates)}
		case abs(g.Prob-w.Prob) > tol:
			return &Mismatch{Outcome: w.Outcome(), Want: w, Got: g,
				Reason: fmt.Sprintf("prob %g != %g", w.Prob, g.Prob)}
		}
		delete(gotRows, w.Outcome())
	}

	for _, g := range got.Rows {
		if _, extra := gotRows[g.Outcome()]; extra {
			return &Mismatch{Outcome: g.Outcome(), Got: g, Reason: "unexpected row"}
		}
	}
	return nil
}

// Verify enumerates the pool and compares it with the engine's table.
func (s *Scanner) Verify(ctx context.Context, req ScanRequest, tol float64) (*ScanResult, error) {
	want, err := engine.JointTable(req.Pool)
	if err != nil {
		return nil, err
	}

	res, err := s.Scan(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Summary.TimedOut {
		return res, ErrTimeout
	}
	if m := Compare(want, res.Table, tol); m != nil {
		return res, m
	}
	return res, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
