package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/arcs-odds/internal/dice"
)

func TestMacrostatesOneAssault(t *testing.T) {
	states, err := Macrostates(dice.Pool{Assault: 1})
	require.NoError(t, err)

	labels := make([]string, len(states))
	for i, s := range states {
		labels[i] = s.Label
	}
	assert.Equal(t, []string{"0H0D", "1H0DI", "1H1D", "2H1D", "2H0D"}, labels)
	assert.InDelta(t, 2.0/6, states[len(states)-1].Prob, tolerance)
}

func TestMacrostatesConverted(t *testing.T) {
	states, err := Macrostates(dice.Pool{Assault: 1, FreshTargets: 2, ConvertIntercepts: true})
	require.NoError(t, err)

	for _, s := range states {
		assert.NotContains(t, s.Label, "I")
	}
	assert.Contains(t, labelsOf(states), "1H2D")
}

func TestMacrostatesRaidOnly(t *testing.T) {
	states, err := Macrostates(dice.Pool{Raid: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0B0D0KI", "0B0D2KI", "1B0D1K", "0B1D1K", "1B1D0K"}, labelsOf(states))
}

func TestMacrostatesSumAndUniqueness(t *testing.T) {
	forEachPool(t, 3, func(t *testing.T, p dice.Pool) {
		states, err := Macrostates(p)
		require.NoError(t, err)

		var sum float64
		seen := make(map[string]bool)
		for i, s := range states {
			sum += s.Prob
			assert.False(t, seen[s.Label], "duplicate label %s", s.Label)
			seen[s.Label] = true
			if i > 0 {
				assert.LessOrEqual(t, states[i-1].Prob, s.Prob)
			}
		}
		assert.InDelta(t, 1.0, sum, tolerance)
	})
}

func TestLabelFormats(t *testing.T) {
	tally := dice.Tally{Hits: 3, Damage: 1, BuildingHits: 2, Keys: 4}

	tests := []struct {
		name  string
		pool  dice.Pool
		tally dice.Tally
		want  string
	}{
		{"empty", dice.Pool{}, dice.Tally{}, "0H"},
		{"skirmish", dice.Pool{Skirmish: 2}, tally, "3H"},
		{"assault", dice.Pool{Assault: 2}, tally, "3H1D"},
		{"skirmish and assault", dice.Pool{Skirmish: 1, Assault: 1}, tally, "3H1D"},
		{"raid", dice.Pool{Raid: 2}, tally, "2B1D4K"},
		{"raid mixed", dice.Pool{Skirmish: 1, Raid: 1}, tally, "3H2B1D4K"},
		{"intercept", dice.Pool{Assault: 1}, dice.Tally{Hits: 3, Damage: 1, Intercept: true}, "3H1DI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.pool, tt.tally))
		})
	}
}

func TestMostLikely(t *testing.T) {
	states, err := Macrostates(dice.Pool{Assault: 1})
	require.NoError(t, err)

	top := MostLikely(states, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "2H0D", top[0].Label)
	assert.Len(t, MostLikely(states, 0), len(states))
	assert.Len(t, MostLikely(states, 99), len(states))
}

func TestMarginalsSumToOne(t *testing.T) {
	forEachPool(t, 3, func(t *testing.T, p dice.Pool) {
		table, err := JointTable(p)
		require.NoError(t, err)

		for _, v := range Variables {
			var sum float64
			for _, m := range table.Marginal(v, false) {
				sum += m.Prob
			}
			assert.InDelta(t, 1.0, sum, tolerance, string(v))

			cum := table.Marginal(v, true)
			assert.InDelta(t, 1.0, cum[0].Prob, tolerance)
			for i := 1; i < len(cum); i++ {
				assert.LessOrEqual(t, cum[i].Prob, cum[i-1].Prob+tolerance)
			}
		}
	})
}

func TestMarginalOneAssault(t *testing.T) {
	table, err := JointTable(dice.Pool{Assault: 1})
	require.NoError(t, err)

	hits := table.Marginal(Hits, false)
	require.Len(t, hits, 3)
	assert.InDelta(t, 1.0/6, hits[0].Prob, tolerance)
	assert.InDelta(t, 2.0/6, hits[1].Prob, tolerance)
	assert.InDelta(t, 3.0/6, hits[2].Prob, tolerance)

	atLeast := table.Marginal(Hits, true)
	assert.InDelta(t, 5.0/6, atLeast[1].Prob, tolerance)

	keys := table.Marginal(Keys, false)
	assert.Equal(t, []MarginalPoint{{Value: 0, Prob: 1}}, keys)
}

func TestHeatmap(t *testing.T) {
	table, err := JointTable(dice.Pool{Assault: 1})
	require.NoError(t, err)

	h, err := table.Heatmap(Hits, Damage, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, h.XValues)
	assert.Equal(t, []int{0, 1}, h.YValues)
	assert.InDeltaSlice(t, []float64{1.0 / 6, 1.0 / 6, 2.0 / 6}, h.Cells[0], tolerance)
	assert.InDeltaSlice(t, []float64{0, 1.0 / 6, 1.0 / 6}, h.Cells[1], tolerance)

	cum, err := table.Heatmap(Hits, Damage, true)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, cum.Cells[0][0], tolerance)
	assert.InDelta(t, 2.0/6, cum.Cells[1][1], tolerance)
	assert.InDelta(t, 2.0/6, cum.Cells[1][0], tolerance)
	assert.InDelta(t, 3.0/6, cum.Cells[0][2], tolerance)

	_, err = table.Heatmap(Keys, Keys, false)
	assert.ErrorIs(t, err, ErrSameAxis)
}

func TestHeatmapSumsToOne(t *testing.T) {
	table, err := JointTable(dice.Pool{Skirmish: 2, Assault: 2, Raid: 2})
	require.NoError(t, err)

	for _, x := range Variables {
		for _, y := range Variables {
			if x == y {
				continue
			}
			h, err := table.Heatmap(x, y, false)
			require.NoError(t, err)

			var sum float64
			for _, row := range h.Cells {
				for _, c := range row {
					sum += c
				}
			}
			assert.InDelta(t, 1.0, sum, tolerance, "%s/%s", x, y)
		}
	}
}

func TestQuery(t *testing.T) {
	skirmish, err := JointTable(dice.Pool{Skirmish: 2})
	require.NoError(t, err)

	res, err := skirmish.Query(Constraints{MinHits: Int(1)})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Probability, tolerance)
	assert.Equal(t, "Probability of hitting at least 1 times is 0.7500", res.Description)

	res, err = skirmish.Query(Constraints{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Probability, tolerance)
	assert.Equal(t, "Probability of any outcome is 1.0000", res.Description)

	res, err = skirmish.Query(Constraints{MaxDamage: Int(0)})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Probability, tolerance)
}

func TestQueryIntercepts(t *testing.T) {
	assault, err := JointTable(dice.Pool{Assault: 1})
	require.NoError(t, err)

	_, err = assault.Query(Constraints{MaxDamage: Int(0)})
	assert.ErrorIs(t, err, ErrUnconvertedIntercepts)

	converted, err := JointTable(dice.Pool{Assault: 1, FreshTargets: 1, ConvertIntercepts: true})
	require.NoError(t, err)

	res, err := converted.Query(Constraints{MinHits: Int(1), MaxDamage: Int(0)})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/6, res.Probability, tolerance)
	assert.Equal(t, uint64(2), res.Microstates)
	assert.Equal(t, "Probability of hitting at least 1 times and taking no more than 0 damage is 0.3333", res.Description)
}

func TestConstraintsDescribe(t *testing.T) {
	c := Constraints{
		MinHits:         Int(2),
		MaxHits:         Int(4),
		MinDamage:       Int(1),
		MaxKeys:         Int(3),
		MinBuildingHits: Int(1),
		MaxBuildingHits: Int(2),
	}
	assert.Equal(t,
		"hitting at least 2 times and hitting no more than 4 times and taking at least 1 damage and "+
			"getting no more than 3 keys and hitting buildings at least 1 times and hitting buildings no more than 2 times",
		c.Describe())
	assert.False(t, c.Empty())
	assert.True(t, Constraints{}.Empty())
}

func TestConstraintsValidate(t *testing.T) {
	table, err := JointTable(dice.Pool{Raid: 2})
	require.NoError(t, err)

	_, err = table.Query(Constraints{MinKeys: Int(3), MaxKeys: Int(1)})
	assert.ErrorIs(t, err, ErrInvalidConstraint)

	_, err = table.Query(Constraints{MinBuildingHits: Int(-1)})
	assert.ErrorIs(t, err, ErrInvalidConstraint)

	res, err := table.Query(Constraints{MinKeys: Int(2), MaxKeys: Int(2)})
	require.NoError(t, err)
	want, _ := table.Probability(func(r Row) bool { return r.Keys == 2 })
	assert.InDelta(t, want, res.Probability, tolerance)
}

func TestParseVariable(t *testing.T) {
	tests := map[string]Variable{
		"hits":          Hits,
		"H":             Hits,
		" damage ":      Damage,
		"building_hits": BuildingHits,
		"buildings":     BuildingHits,
		"Keys":          Keys,
	}
	for in, want := range tests {
		got, err := ParseVariable(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseVariable("ships")
	assert.ErrorIs(t, err, ErrUnknownVariable)
}

func labelsOf(states []Macrostate) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.Label
	}
	return out
}
