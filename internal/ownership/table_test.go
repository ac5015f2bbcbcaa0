package ownership

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meshtopo/graph"
)

func TestClassify(t *testing.T) {
	// Two local cells, then a ghost cell sharing vertex 2 and bringing 3.
	cells := graph.FromLists([][]int64{{0, 1}, {1, 2}, {2, 3}})

	for _, parallelism := range []int{1, 2} {
		table, ambiguous, err := Classify(cells, 2, parallelism)
		require.NoError(t, err)

		assert.Equal(t, []int64{2}, ambiguous)
		assert.Equal(t, 4, table.Len())

		for id, want := range map[int64]Kind{0: OwnedUnshared, 1: OwnedUnshared, 2: Unresolved, 3: Unresolved} {
			s, ok := table.Get(id)
			require.True(t, ok)
			assert.Equal(t, want, s.Kind(), "id %d", id)
		}
		assert.Equal(t, []int64{2, 3}, table.Pending())
	}
}

func TestClassify_NoGhosts(t *testing.T) {
	cells := graph.FromLists([][]int64{{5, 9}, {9, 7}})
	table, ambiguous, err := Classify(cells, 2, 2)
	require.NoError(t, err)
	assert.Empty(t, ambiguous)
	assert.Equal(t, map[Kind]int{OwnedUnshared: 3}, table.Count())
}

func TestClassify_ExtremeIDs(t *testing.T) {
	cells := graph.FromLists([][]int64{{math.MinInt64, -1}, {-1, math.MaxInt64}, {math.MaxInt64, 0}})

	for _, parallelism := range []int{1, 2} {
		table, ambiguous, err := Classify(cells, 2, parallelism)
		require.NoError(t, err)
		assert.Equal(t, []int64{math.MaxInt64}, ambiguous)
		assert.Equal(t, []int64{0, math.MaxInt64}, table.Pending())
		assert.Equal(t, map[Kind]int{OwnedUnshared: 2, Unresolved: 2}, table.Count())
	}
}

func TestClassify_InvalidCount(t *testing.T) {
	cells := graph.FromLists([][]int64{{0, 1}})
	_, _, err := Classify(cells, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidCellCount)
}

func TestClaim(t *testing.T) {
	cells := graph.FromLists([][]int64{{0, 1, 2}, {1, 2, 3}})
	table, ambiguous, err := Classify(cells, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ambiguous)

	owners := map[int64]int{1: 0, 2: 1}
	n := table.Claim(ambiguous, 0, func(id int64) (int, bool) {
		p, ok := owners[id]
		return p, ok
	})
	assert.Equal(t, 1, n)

	s, _ := table.Get(1)
	assert.Equal(t, OwnedShared, s.Kind())
	assert.True(t, s.IsOwned())
	s, _ = table.Get(2)
	assert.Equal(t, Unresolved, s.Kind())
}

func TestSetGhostIsIdempotent(t *testing.T) {
	table := NewTable()
	assert.True(t, table.SetGhost(42, 3, 1))
	assert.False(t, table.SetGhost(42, 7, 2))

	s, _ := table.Get(42)
	idx, ok := s.Index()
	require.True(t, ok)
	assert.Equal(t, int32(3), idx)
	owner, ok := s.Owner()
	require.True(t, ok)
	assert.Equal(t, 1, owner)

	table.Set(7, ResolvedAt(0))
	assert.False(t, table.SetGhost(7, 1, 1))
}

func TestStateAccessors(t *testing.T) {
	var zero State
	assert.Equal(t, Unresolved, zero.Kind())
	_, ok := zero.Index()
	assert.False(t, ok)
	_, ok = ResolvedAt(4).Owner()
	assert.False(t, ok)
	assert.Equal(t, "resolved(4)", ResolvedAt(4).String())
	assert.Equal(t, "ghost(2@3)", GhostAt(2, 3).String())
	assert.Equal(t, "owned-unshared", State{kind: OwnedUnshared}.String())
}
