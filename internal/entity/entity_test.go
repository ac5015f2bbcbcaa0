package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/indexmap"
)

// serialMesh is a single-rank mesh whose vertex global indices equal their
// local indices.
type serialMesh struct {
	c     *comm.Comm
	ct    cell.Type
	cells *graph.AdjacencyList[int32]
	maps  map[int]*indexmap.IndexMap
	conn  map[[2]int]*graph.AdjacencyList[int32]
}

func newSerialMesh(ctx context.Context, t *testing.T, c *comm.Comm, ct cell.Type, cells [][]int32, numVertices int32) *serialMesh {
	t.Helper()
	vmap, err := indexmap.New(ctx, c, numVertices, nil, nil)
	require.NoError(t, err)
	cmap, err := indexmap.New(ctx, c, int32(len(cells)), nil, nil)
	require.NoError(t, err)
	conn := graph.FromLists(cells)
	return &serialMesh{
		c:     c,
		ct:    ct,
		cells: conn,
		maps:  map[int]*indexmap.IndexMap{0: vmap, ct.Dim(): cmap},
		conn:  map[[2]int]*graph.AdjacencyList[int32]{{ct.Dim(), 0}: conn},
	}
}

func (m *serialMesh) Comm() *comm.Comm      { return m.c }
func (m *serialMesh) CellType() cell.Type   { return m.ct }
func (m *serialMesh) Dim() int              { return m.ct.Dim() }
func (m *serialMesh) KeepsGhostCells() bool { return false }

func (m *serialMesh) Connectivity(d0, d1 int) (*graph.AdjacencyList[int32], error) {
	if c, ok := m.conn[[2]int{d0, d1}]; ok {
		return c, nil
	}
	return nil, errors.New("not computed")
}

func (m *serialMesh) IndexMap(d int) (*indexmap.IndexMap, error) {
	if im, ok := m.maps[d]; ok {
		return im, nil
	}
	return nil, errors.New("not computed")
}

func (m *serialMesh) add(d int, r *Result) {
	m.maps[d] = r.IndexMap
	m.conn[[2]int{m.Dim(), d}] = r.CellEntity
	m.conn[[2]int{d, 0}] = r.EntityVertex
}

func TestCanonical(t *testing.T) {
	local := []int32{5, 6, 7}
	global := []int64{30, 10, 20}
	canonical(cell.Interval, local[:2], global[:2])
	assert.Equal(t, []int64{10, 30}, global[:2])
	assert.Equal(t, []int32{6, 5}, local[:2])

	local = []int32{5, 6, 7}
	global = []int64{30, 10, 20}
	canonical(cell.Triangle, local, global)
	assert.Equal(t, []int64{10, 20, 30}, global)
	assert.Equal(t, []int32{6, 7, 5}, local)

	qlocal := []int32{10, 11, 12, 13}
	qglobal := []int64{4, 1, 7, 3}
	canonical(cell.Quadrilateral, qlocal, qglobal)
	assert.Equal(t, []int64{1, 3, 4, 7}, qglobal)
	assert.Equal(t, []int32{11, 13, 10, 12}, qlocal)

	// The same face read from two cells in different orders agrees.
	a := []int64{8, 2, 9, 5}
	b := []int64{5, 9, 2, 8}
	canonical(cell.Quadrilateral, make([]int32, 4), a)
	canonical(cell.Quadrilateral, make([]int32, 4), b)
	assert.Equal(t, a, b)
}

func TestFaceOrientation(t *testing.T) {
	tests := []struct {
		ct         cell.Type
		v          []int64
		rots, refl uint8
	}{
		{cell.Triangle, []int64{2, 5, 9}, 0, 0},
		{cell.Triangle, []int64{2, 9, 5}, 0, 1},
		{cell.Triangle, []int64{5, 2, 9}, 1, 1},
		{cell.Triangle, []int64{9, 5, 2}, 2, 1},
		{cell.Quadrilateral, []int64{0, 1, 2, 3}, 0, 0},
		{cell.Quadrilateral, []int64{0, 2, 1, 3}, 0, 1},
		{cell.Quadrilateral, []int64{1, 0, 3, 2}, 1, 1},
		{cell.Quadrilateral, []int64{2, 3, 0, 1}, 3, 1},
		{cell.Quadrilateral, []int64{3, 2, 1, 0}, 2, 0},
	}
	for _, tt := range tests {
		rots, refl := faceOrientation(tt.ct, tt.v)
		assert.Equal(t, tt.rots, rots, "%s %v rotations", tt.ct, tt.v)
		assert.Equal(t, tt.refl, refl, "%s %v reflection", tt.ct, tt.v)
	}
}

func TestCompute_Serial(t *testing.T) {
	err := comm.Run(context.Background(), 1, func(ctx context.Context, c *comm.Comm) error {
		m := newSerialMesh(ctx, t, c, cell.Triangle, [][]int32{{0, 1, 3}, {0, 2, 3}}, 4)
		r, err := Compute(ctx, m, 1, 0)
		if err != nil {
			return err
		}
		assert.Equal(t, int32(5), r.IndexMap.SizeLocal())
		assert.Equal(t, int32(0), r.IndexMap.NumGhosts())
		assert.Equal(t, []int32{0, 1, 2}, r.CellEntity.Links(0))
		assert.Equal(t, []int32{3, 1, 4}, r.CellEntity.Links(1))
		assert.Equal(t, []int32{1, 3}, r.EntityVertex.Links(0))
		assert.Equal(t, []int32{0, 3}, r.EntityVertex.Links(1))
		assert.Equal(t, []int32{0, 2}, r.EntityVertex.Links(4))

		_, err = Compute(ctx, m, 2, 0)
		assert.ErrorIs(t, err, ErrDimension)
		_, err = Compute(ctx, m, 0, 0)
		assert.ErrorIs(t, err, ErrDimension)
		return nil
	})
	require.NoError(t, err)
}

func TestConnectivity_Serial(t *testing.T) {
	err := comm.Run(context.Background(), 1, func(ctx context.Context, c *comm.Comm) error {
		// Two tetrahedra sharing face {1, 2, 3}.
		m := newSerialMesh(ctx, t, c, cell.Tetrahedron, [][]int32{{0, 1, 2, 3}, {1, 2, 3, 4}}, 5)
		for d := 1; d < 3; d++ {
			r, err := Compute(ctx, m, d, 0)
			if err != nil {
				return err
			}
			m.add(d, r)
		}
		faces, _ := m.IndexMap(2)
		assert.Equal(t, int32(7), faces.SizeLocal())
		edges, _ := m.IndexMap(1)
		assert.Equal(t, int32(9), edges.SizeLocal())

		fc, cf, err := Connectivity(m, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 7, fc.NumNodes())
		assert.Equal(t, 2, cf.NumNodes())
		interior := 0
		for f := range fc.NumNodes() {
			if fc.NumLinks(f) == 2 {
				interior++
			}
		}
		assert.Equal(t, 1, interior)

		fe, ef, err := Connectivity(m, 2, 1)
		require.NoError(t, err)
		for f := range fe.NumNodes() {
			assert.Equal(t, 3, fe.NumLinks(f))
		}
		assert.Equal(t, 9, ef.NumNodes())

		id, _, err := Connectivity(m, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 9, id.NumNodes())

		_, _, err = Connectivity(m, 4, 0)
		assert.ErrorIs(t, err, ErrDimension)
		return nil
	})
	require.NoError(t, err)
}

func TestPermutations_Serial(t *testing.T) {
	err := comm.Run(context.Background(), 1, func(ctx context.Context, c *comm.Comm) error {
		tri := newSerialMesh(ctx, t, c, cell.Triangle, [][]int32{{0, 1, 2}, {2, 1, 0}}, 3)
		facet, info, err := Permutations(tri)
		if err != nil {
			return err
		}
		assert.Equal(t, []uint32{0, 7}, info)
		assert.Equal(t, []uint8{0, 0, 0, 1, 1, 1}, facet)

		tet := newSerialMesh(ctx, t, c, cell.Tetrahedron, [][]int32{{0, 1, 2, 3}, {3, 2, 1, 0}}, 4)
		facet, info, err = Permutations(tet)
		if err != nil {
			return err
		}
		assert.Equal(t, uint32(0), info[0])
		assert.Equal(t, uint32(2925|0x3f<<12), info[1])
		assert.Equal(t, []uint8{0, 0, 0, 0, 5, 5, 5, 5}, facet)

		line := newSerialMesh(ctx, t, c, cell.Interval, [][]int32{{1, 0}}, 2)
		facet, info, err = Permutations(line)
		if err != nil {
			return err
		}
		assert.Equal(t, []uint8{0, 0}, facet)
		assert.Equal(t, []uint32{0}, info)
		return nil
	})
	require.NoError(t, err)
}
