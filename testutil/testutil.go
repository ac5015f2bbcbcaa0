package testutil

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/graph"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Mesh is a serial mesh: cells as lists of global vertex ids.
type Mesh struct {
	CellType cell.Type
	Cells    [][]int64
}

// NumCells returns the number of cells.
func (m *Mesh) NumCells() int { return len(m.Cells) }

// Vertices returns the distinct vertex ids, ascending.
func (m *Mesh) Vertices() []int64 {
	var ids []int64
	for _, c := range m.Cells {
		ids = append(ids, c...)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Relabel replaces every vertex id v by fn(v). fn must be injective.
func (m *Mesh) Relabel(fn func(int64) int64) *Mesh {
	cells := make([][]int64, len(m.Cells))
	for i, c := range m.Cells {
		cells[i] = make([]int64, len(c))
		for j, v := range c {
			cells[i][j] = fn(v)
		}
	}
	return &Mesh{CellType: m.CellType, Cells: cells}
}

// UnitInterval returns n interval cells over vertices 0..n.
func UnitInterval(n int) *Mesh {
	cells := make([][]int64, n)
	for i := range n {
		cells[i] = []int64{int64(i), int64(i + 1)}
	}
	return &Mesh{CellType: cell.Interval, Cells: cells}
}

// UnitSquare returns an n x n grid of quadrilaterals, or of triangles (two
// per square), over vertices j*(n+1)+i.
func UnitSquare(n int, ct cell.Type) *Mesh {
	v := func(i, j int) int64 { return int64(j*(n+1) + i) }
	var cells [][]int64
	for j := range n {
		for i := range n {
			v0, v1, v2, v3 := v(i, j), v(i+1, j), v(i, j+1), v(i+1, j+1)
			if ct == cell.Quadrilateral {
				cells = append(cells, []int64{v0, v1, v2, v3})
				continue
			}
			cells = append(cells, []int64{v0, v1, v3}, []int64{v0, v2, v3})
		}
	}
	if ct != cell.Quadrilateral {
		ct = cell.Triangle
	}
	return &Mesh{CellType: ct, Cells: cells}
}

// UnitCube returns an n x n x n grid of hexahedra, or of tetrahedra (six per
// cube), over vertices (k*(n+1)+j)*(n+1)+i.
func UnitCube(n int, ct cell.Type) *Mesh {
	v := func(i, j, k int) int64 { return int64((k*(n+1)+j)*(n+1) + i) }
	var cells [][]int64
	for k := range n {
		for j := range n {
			for i := range n {
				c := [8]int64{
					v(i, j, k), v(i+1, j, k), v(i, j+1, k), v(i+1, j+1, k),
					v(i, j, k+1), v(i+1, j, k+1), v(i, j+1, k+1), v(i+1, j+1, k+1),
				}
				if ct == cell.Hexahedron {
					cells = append(cells, c[:])
					continue
				}
				// Kuhn subdivision: six tetrahedra around the 0-7 diagonal.
				for _, p := range [6][2]int{{1, 3}, {2, 3}, {2, 6}, {4, 6}, {4, 5}, {1, 5}} {
					cells = append(cells, []int64{c[0], c[p[0]], c[p[1]], c[7]})
				}
			}
		}
	}
	if ct != cell.Hexahedron {
		ct = cell.Tetrahedron
	}
	return &Mesh{CellType: ct, Cells: cells}
}

// Part is the input of one rank: its cells followed by its ghost cells.
type Part struct {
	Cells         *graph.AdjacencyList[int64]
	OriginalIndex []int64
	GhostOwners   []int
	NumLocal      int
}

// Partition splits m over size ranks. Cells are assigned in contiguous blocks
// of a permutation drawn from seed (seed 0 keeps the input order). Every rank
// receives as ghosts all cells of other ranks that share a vertex with one of
// its own cells. Local and ghost cells are each sorted by original index.
func Partition(m *Mesh, size int, seed uint64) []Part {
	n := m.NumCells()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if seed != 0 {
		order = NewRNG(seed).Perm(n)
	}
	owner := make([]int, n)
	for pos, ci := range order {
		owner[ci] = blockOwner(size, pos, n)
	}

	vertexCells := map[int64][]int{}
	for ci, c := range m.Cells {
		for _, v := range c {
			vertexCells[v] = append(vertexCells[v], ci)
		}
	}

	parts := make([]Part, size)
	for r := range size {
		var local []int
		ghost := map[int]bool{}
		for ci := range n {
			if owner[ci] != r {
				continue
			}
			local = append(local, ci)
			for _, v := range m.Cells[ci] {
				for _, other := range vertexCells[v] {
					if owner[other] != r {
						ghost[other] = true
					}
				}
			}
		}
		ghosts := make([]int, 0, len(ghost))
		for ci := range ghost {
			ghosts = append(ghosts, ci)
		}
		slices.Sort(ghosts)

		lists := make([][]int64, 0, len(local)+len(ghosts))
		orig := make([]int64, 0, len(local)+len(ghosts))
		owners := make([]int, 0, len(ghosts))
		for _, ci := range local {
			lists = append(lists, m.Cells[ci])
			orig = append(orig, int64(ci))
		}
		for _, ci := range ghosts {
			lists = append(lists, m.Cells[ci])
			orig = append(orig, int64(ci))
			owners = append(owners, owner[ci])
		}
		parts[r] = Part{
			Cells:         graph.FromLists(lists),
			OriginalIndex: orig,
			GhostOwners:   owners,
			NumLocal:      len(local),
		}
	}
	return parts
}

func blockOwner(size, pos, n int) int {
	block := n / size
	rem := n % size
	if pos < rem*(block+1) {
		return pos / (block + 1)
	}
	return rem + (pos-rem*(block+1))/block
}

// PerRank runs fn on every rank of an in-process world and returns the
// results indexed by rank.
func PerRank[T any](ctx context.Context, size int, fn func(ctx context.Context, c *comm.Comm) (T, error)) ([]T, error) {
	out := make([]T, size)
	err := comm.Run(ctx, size, func(ctx context.Context, c *comm.Comm) error {
		v, err := fn(ctx, c)
		out[c.Rank()] = v
		return err
	})
	return out, err
}
