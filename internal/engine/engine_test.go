package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/arcs-odds/internal/dice"
)

const tolerance = 1e-9

func forEachPool(t *testing.T, limit int, fn func(t *testing.T, p dice.Pool)) {
	t.Helper()
	for s := 0; s <= limit; s++ {
		for a := 0; a <= limit; a++ {
			for r := 0; r <= limit; r++ {
				p := dice.Pool{Skirmish: s, Assault: a, Raid: r}
				t.Run(p.Key(), func(t *testing.T) { fn(t, p) })
			}
		}
	}
}

func maxDice(t *testing.T) int {
	if testing.Short() {
		return 3
	}
	return 6
}

// bruteForce walks every face combination one die at a time.
func bruteForce(pool dice.Pool) map[Outcome]uint64 {
	kinds := pool.Dice()
	out := make(map[Outcome]uint64)
	var walk func(i int, acc dice.Tally)
	walk = func(i int, acc dice.Tally) {
		if i == len(kinds) {
			out[OutcomeOf(Convert(pool, acc))]++
			return
		}
		for _, f := range dice.Must(kinds[i]).Faces() {
			walk(i+1, acc.Add(f.Tally()))
		}
	}
	walk(0, dice.Tally{})
	return out
}

func TestJointTableNormalization(t *testing.T) {
	forEachPool(t, maxDice(t), func(t *testing.T, p dice.Pool) {
		table, err := JointTable(p)
		require.NoError(t, err)

		var sum float64
		var micro uint64
		for _, r := range table.Rows {
			sum += r.Prob
			micro += r.Microstates
		}
		assert.InDelta(t, 1.0, sum, tolerance)
		assert.Equal(t, table.TotalMicrostates, micro)

		want := uint64(math.Pow(2, float64(p.Skirmish)) * math.Pow(6, float64(p.Assault+p.Raid)))
		assert.Equal(t, want, table.TotalMicrostates)
	})
}

func TestJointTableEmptyPool(t *testing.T) {
	table, err := JointTable(dice.Pool{})
	require.NoError(t, err)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, Row{Microstates: 1, Prob: 1.0}, table.Rows[0])
	assert.Equal(t, uint64(1), table.TotalMicrostates)
}

func TestJointTableRowsAreUniqueSortedAndBounded(t *testing.T) {
	forEachPool(t, 3, func(t *testing.T, p dice.Pool) {
		table, err := JointTable(p)
		require.NoError(t, err)

		seen := make(map[Outcome]bool)
		for i, r := range table.Rows {
			o := r.Outcome()
			assert.False(t, seen[o], "duplicate %v", o)
			seen[o] = true

			assert.GreaterOrEqual(t, r.Hits, 0)
			assert.GreaterOrEqual(t, r.Damage, 0)
			assert.GreaterOrEqual(t, r.BuildingHits, 0)
			assert.GreaterOrEqual(t, r.Keys, 0)
			assert.Greater(t, r.Prob, 0.0)
			assert.LessOrEqual(t, r.Prob, 1.0)

			if i > 0 {
				assert.True(t, table.Rows[i-1].less(r), "rows out of order at %d", i)
			}
		}
	})
}

func TestJointTableDeterministic(t *testing.T) {
	p := dice.Pool{Skirmish: 2, Assault: 3, Raid: 2, FreshTargets: 2, ConvertIntercepts: true}

	first, err := JointTable(p)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := JointTable(p)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestJointTableMatchesBruteForce(t *testing.T) {
	pools := []dice.Pool{
		{Skirmish: 1, Assault: 1, Raid: 1},
		{Assault: 2, Raid: 2},
		{Skirmish: 2, Raid: 2},
		{Skirmish: 1, Assault: 3},
		{Assault: 2, Raid: 1, FreshTargets: 3, ConvertIntercepts: true},
		{Raid: 3, FreshTargets: 1, ConvertIntercepts: true},
		{Skirmish: 1, Assault: 1, Raid: 2, ConvertIntercepts: true},
	}

	for _, p := range pools {
		t.Run(p.Key(), func(t *testing.T) {
			table, err := JointTable(p)
			require.NoError(t, err)

			want := bruteForce(p)
			require.Len(t, table.Rows, len(want))
			for _, r := range table.Rows {
				assert.Equal(t, want[r.Outcome()], r.Microstates)
			}
		})
	}
}

func TestJointTableKnownValues(t *testing.T) {
	t.Run("one skirmish", func(t *testing.T) {
		table, err := JointTable(dice.Pool{Skirmish: 1})
		require.NoError(t, err)
		assert.Equal(t, []Row{
			{Hits: 0, Microstates: 1, Prob: 0.5},
			{Hits: 1, Microstates: 1, Prob: 0.5},
		}, table.Rows)
	})

	t.Run("one assault", func(t *testing.T) {
		table, err := JointTable(dice.Pool{Assault: 1})
		require.NoError(t, err)
		assert.Equal(t, []Row{
			{Hits: 0, Damage: 0, Microstates: 1, Prob: 1.0 / 6},
			{Hits: 1, Damage: 0, Microstates: 1, Prob: 1.0 / 6},
			{Hits: 1, Damage: 1, Microstates: 1, Prob: 1.0 / 6},
			{Hits: 2, Damage: 0, Microstates: 2, Prob: 2.0 / 6},
			{Hits: 2, Damage: 1, Microstates: 1, Prob: 1.0 / 6},
		}, table.Rows)
	})

	t.Run("one assault converting intercepts", func(t *testing.T) {
		table, err := JointTable(dice.Pool{Assault: 1, FreshTargets: 2, ConvertIntercepts: true})
		require.NoError(t, err)

		r, ok := table.Lookup(1, 2, 0, 0)
		require.True(t, ok)
		assert.Equal(t, uint64(1), r.Microstates)

		_, ok = table.Lookup(1, 0, 0, 0)
		assert.False(t, ok)
	})

	t.Run("one raid", func(t *testing.T) {
		table, err := JointTable(dice.Pool{Raid: 1})
		require.NoError(t, err)
		assert.Equal(t, []Row{
			{Damage: 0, BuildingHits: 0, Keys: 0, Microstates: 1, Prob: 1.0 / 6},
			{Damage: 0, BuildingHits: 0, Keys: 2, Microstates: 1, Prob: 1.0 / 6},
			{Damage: 0, BuildingHits: 1, Keys: 1, Microstates: 1, Prob: 1.0 / 6},
			{Damage: 1, BuildingHits: 0, Keys: 1, Microstates: 1, Prob: 1.0 / 6},
			{Damage: 1, BuildingHits: 1, Keys: 0, Microstates: 2, Prob: 2.0 / 6},
		}, table.Rows)
	})
}

func TestSingleTypeConstraints(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("%d", n), func(t *testing.T) {
			sk, err := JointTable(dice.Pool{Skirmish: n})
			require.NoError(t, err)
			for _, r := range sk.Rows {
				assert.Zero(t, r.Damage)
				assert.Zero(t, r.BuildingHits)
				assert.Zero(t, r.Keys)
			}

			as, err := JointTable(dice.Pool{Assault: n})
			require.NoError(t, err)
			for _, r := range as.Rows {
				assert.Zero(t, r.BuildingHits)
				assert.Zero(t, r.Keys)
			}

			ra, err := JointTable(dice.Pool{Raid: n})
			require.NoError(t, err)
			for _, r := range ra.Rows {
				assert.Zero(t, r.Hits)
			}
		})
	}
}

func TestSupportGrowsWithDice(t *testing.T) {
	forEachPool(t, 4, func(t *testing.T, p dice.Pool) {
		base, err := JointTable(p)
		require.NoError(t, err)

		for _, grown := range []dice.Pool{
			{Skirmish: p.Skirmish + 1, Assault: p.Assault, Raid: p.Raid},
			{Skirmish: p.Skirmish, Assault: p.Assault + 1, Raid: p.Raid},
			{Skirmish: p.Skirmish, Assault: p.Assault, Raid: p.Raid + 1},
		} {
			bigger, err := JointTable(grown)
			require.NoError(t, err)
			for _, v := range Variables {
				assert.GreaterOrEqual(t, bigger.Max(v), base.Max(v), "%s after adding to %s", v, grown.Key())
			}
		}
	})
}

func TestJointTableRejectsBadInput(t *testing.T) {
	for _, p := range []dice.Pool{{Skirmish: -1}, {Assault: -1}, {Raid: -3}, {Skirmish: 2, Raid: -1}} {
		_, err := JointTable(p)
		assert.ErrorIs(t, err, ErrNegativeDice)
	}

	_, err := JointTable(dice.Pool{Raid: 1, FreshTargets: -1, ConvertIntercepts: true})
	assert.ErrorIs(t, err, ErrNegativeFreshTargets)

	_, err = JointTable(dice.Pool{Assault: 25})
	assert.ErrorIs(t, err, ErrTooManyDice)

	_, err = JointTable(dice.Pool{Skirmish: 64})
	assert.ErrorIs(t, err, ErrTooManyDice)

	total, err := TotalMicrostates(dice.Pool{Assault: 12, Raid: 12})
	require.NoError(t, err)
	assert.Equal(t, uint64(4738381338321616896), total)
}

func TestTableProbabilityAndLookup(t *testing.T) {
	table, err := JointTable(dice.Pool{Skirmish: 2})
	require.NoError(t, err)

	p, n := table.Probability(func(r Row) bool { return r.Hits >= 1 })
	assert.InDelta(t, 0.75, p, tolerance)
	assert.Equal(t, uint64(3), n)

	r, ok := table.Lookup(1, 0, 0, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(2), r.Microstates)

	_, ok = table.Lookup(3, 0, 0, 0)
	assert.False(t, ok)
}
