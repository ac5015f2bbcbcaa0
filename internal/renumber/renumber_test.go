package renumber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/internal/fabric"
	"github.com/hupe1980/meshtopo/internal/ownership"
)

func classify(t *testing.T, cells *graph.AdjacencyList[int64], numLocal int) (*ownership.Table, []int64) {
	t.Helper()
	table, ambiguous, err := ownership.Classify(cells, numLocal, 1)
	require.NoError(t, err)
	return table, ambiguous
}

func TestNumberOwned_FirstSeenOrder(t *testing.T) {
	cells := graph.FromLists([][]int64{{50, 30}, {30, 90}, {90, 10}})
	table, _ := classify(t, cells, 3)

	assert.Equal(t, int32(4), NumberOwned(cells, table))
	for id, want := range map[int64]int32{50: 0, 30: 1, 90: 2, 10: 3} {
		s, _ := table.Get(id)
		idx, ok := s.Index()
		require.True(t, ok)
		assert.Equal(t, want, idx, "id %d", id)
	}
}

func TestNumberOwned_SkipsUnclaimed(t *testing.T) {
	// Cell 1 is a ghost; vertex 2 is ambiguous and owned elsewhere.
	cells := graph.FromLists([][]int64{{1, 2}, {2, 3}})
	table, ambiguous := classify(t, cells, 1)
	require.Equal(t, []int64{2}, ambiguous)

	assert.Equal(t, int32(1), NumberOwned(cells, table))
	s, _ := table.Get(2)
	assert.Equal(t, ownership.Unresolved, s.Kind())
}

func TestAddGhostsAndLookup(t *testing.T) {
	cells := graph.FromLists([][]int64{{1, 2}, {2, 3}})
	table, ambiguous := classify(t, cells, 1)
	table.Claim(ambiguous, 0, func(int64) (int, bool) { return 1, true })

	n := &Numbering{Rank: 0, NumOwned: NumberOwned(cells, table), Offset: 4}
	added := n.AddGhosts(table, []fabric.Triplet{
		{ID: 2, Global: 0, Owner: 1},
		{ID: 2, Global: 0, Owner: 1},
		{ID: 3, Global: 1, Owner: 1},
		{ID: 99, Global: 7, Owner: 2},
	})
	assert.Equal(t, 2, added)
	assert.Equal(t, []int64{0, 1}, n.Ghosts)
	assert.Equal(t, []int{1, 1}, n.GhostOwners)

	g, owner, ok := n.Lookup(table, 1)
	require.True(t, ok)
	assert.Equal(t, int64(4), g)
	assert.Equal(t, 0, owner)

	g, owner, ok = n.Lookup(table, 3)
	require.True(t, ok)
	assert.Equal(t, int64(1), g)
	assert.Equal(t, 1, owner)

	_, ok = n.Global(table, 3)
	assert.False(t, ok)
	g, ok = n.Global(table, 1)
	require.True(t, ok)
	assert.Equal(t, int64(4), g)

	_, _, ok = n.Lookup(table, 99)
	assert.False(t, ok)

	local, err := Translate(0, cells, 1, true, table)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 1, 2}, local.Array())
}

func TestTranslate_DropsGhostCells(t *testing.T) {
	cells := graph.FromLists([][]int64{{1, 2}, {2, 3}})
	table, _ := classify(t, cells, 1)
	table.Set(2, ownership.GhostAt(1, 1))
	NumberOwned(cells, table)

	local, err := Translate(0, cells, 1, false, table)
	require.NoError(t, err)
	assert.Equal(t, 1, local.NumNodes())
	assert.Equal(t, []int32{0, 1}, local.Links(0))

	_, err = Translate(3, cells, 1, true, table)
	require.ErrorIs(t, err, ErrUnresolvedVertex)

	var uerr *UnresolvedVertexError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, int64(3), uerr.ID)
	assert.Equal(t, 1, uerr.Cell)
	assert.Equal(t, 3, uerr.Rank)
	assert.Contains(t, uerr.Error(), "vertex 3 of cell 1")
}
