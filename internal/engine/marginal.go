package engine

import "fmt"

// MarginalPoint is P(X = Value), or P(X >= Value) in cumulative form.
type MarginalPoint struct {
	Value int     `json:"value"`
	Prob  float64 `json:"prob"`
}

// Marginal sums the table over every column except v. Values run densely
// from 0 to the largest observed value.
func (t *Table) Marginal(v Variable, cumulative bool) []MarginalPoint {
	counts := make([]uint64, t.Max(v)+1)
	for _, r := range t.Rows {
		counts[r.Value(v)] += r.Microstates
	}
	if cumulative {
		for i := len(counts) - 2; i >= 0; i-- {
			counts[i] += counts[i+1]
		}
	}

	out := make([]MarginalPoint, len(counts))
	for i, n := range counts {
		out[i] = MarginalPoint{Value: i, Prob: float64(n) / float64(t.TotalMicrostates)}
	}
	return out
}

// Heatmap is a dense pivot of the table over two columns.
// Cells[y][x] holds the probability for YValues[y] and XValues[x].
type Heatmap struct {
	X       Variable    `json:"x"`
	Y       Variable    `json:"y"`
	XValues []int       `json:"x_values"`
	YValues []int       `json:"y_values"`
	Cells   [][]float64 `json:"cells"`
}

// Heatmap pivots the table onto x and y. The cumulative form gives
// P(X >= x, Y >= y).
func (t *Table) Heatmap(x, y Variable, cumulative bool) (*Heatmap, error) {
	if x == y {
		return nil, fmt.Errorf("%w: %s", ErrSameAxis, x)
	}

	nx, ny := t.Max(x)+1, t.Max(y)+1
	counts := make([][]uint64, ny)
	for i := range counts {
		counts[i] = make([]uint64, nx)
	}
	for _, r := range t.Rows {
		counts[r.Value(y)][r.Value(x)] += r.Microstates
	}

	if cumulative {
		for i := ny - 1; i >= 0; i-- {
			for j := nx - 1; j >= 0; j-- {
				if j+1 < nx {
					counts[i][j] += counts[i][j+1]
				}
				if i+1 < ny {
					counts[i][j] += counts[i+1][j]
				}
				if i+1 < ny && j+1 < nx {
					counts[i][j] -= counts[i+1][j+1]
				}
			}
		}
	}

	h := &Heatmap{
		X:       x,
		Y:       y,
		XValues: axis(nx),
		YValues: axis(ny),
		Cells:   make([][]float64, ny),
	}
	total := float64(t.TotalMicrostates)
	for i := range counts {
		h.Cells[i] = make([]float64, nx)
		for j, n := range counts[i] {
			h.Cells[i][j] = float64(n) / total
		}
	}
	return h, nil
}

func axis(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
