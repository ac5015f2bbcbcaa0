package indexmap

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/graph"
)

var (
	// ErrOutOfRange is returned for a local index outside [0, SizeLocal+NumGhosts).
	ErrOutOfRange = errors.New("indexmap: local index out of range")

	// ErrGhostMismatch is returned when ghosts and owners differ in length.
	ErrGhostMismatch = errors.New("indexmap: ghost and owner counts differ")

	// ErrForeignIndex is returned when a peer ghosts an index this rank does
	// not own.
	ErrForeignIndex = errors.New("indexmap: ghost index not owned by its owner rank")
)

// IndexMap describes the distribution of an index set over the ranks of a
// communicator. Owned indices are [0, SizeLocal) locally and
// [offset, offset+SizeLocal) globally; ghosts follow the owned range locally.
//
// An IndexMap is immutable after construction.
type IndexMap struct {
	rank       int
	sizeLocal  int32
	offset     int64
	sizeGlobal int64

	ghosts []int64
	owners []int

	fwd     []int
	bwd     []int
	scatter *graph.AdjacencyList[int32]
	shared  *roaring.Bitmap
}

// New builds an IndexMap collectively. ghosts are the global indices of this
// rank's ghost entries and owners their owning ranks.
//
// New issues an exclusive scan, an all-reduce, a graph-edge discovery and one
// neighbourhood exchange on c.
func New(ctx context.Context, c *comm.Comm, sizeLocal int32, ghosts []int64, owners []int) (*IndexMap, error) {
	if len(ghosts) != len(owners) {
		return nil, fmt.Errorf("%w: %d ghosts, %d owners", ErrGhostMismatch, len(ghosts), len(owners))
	}
	offset, err := c.ExclusiveScan(ctx, int64(sizeLocal))
	if err != nil {
		return nil, fmt.Errorf("indexmap: offset: %w", err)
	}
	total, err := c.AllReduce(ctx, int64(sizeLocal), comm.OpSum)
	if err != nil {
		return nil, fmt.Errorf("indexmap: global size: %w", err)
	}

	bwd := slices.Clone(owners)
	slices.Sort(bwd)
	bwd = slices.Compact(bwd)
	for _, p := range bwd {
		if p == c.Rank() {
			return nil, fmt.Errorf("%w: rank %d lists itself as a ghost owner", ErrForeignIndex, p)
		}
	}
	fwd, err := c.ComputeGraphEdges(ctx, bwd)
	if err != nil {
		return nil, fmt.Errorf("indexmap: neighbours: %w", err)
	}

	// Tell every owner which of its indices this rank ghosts.
	nbr, err := c.NewNeighborhood(fwd, bwd)
	if err != nil {
		return nil, err
	}
	defer nbr.Close()

	send := make([][]int64, len(bwd))
	for i, g := range ghosts {
		slot, _ := slices.BinarySearch(bwd, owners[i])
		send[slot] = append(send[slot], g)
	}
	recv, err := nbr.AllToAll(ctx, send)
	if err != nil {
		return nil, fmt.Errorf("indexmap: scatter pattern: %w", err)
	}

	lists := make([][]int32, len(fwd))
	shared := roaring.New()
	for i, r := range recv {
		lists[i] = make([]int32, len(r))
		for j, g := range r {
			local := g - offset
			if local < 0 || local >= int64(sizeLocal) {
				return nil, fmt.Errorf("%w: rank %d ghosts %d, owned range is [%d, %d)",
					ErrForeignIndex, fwd[i], g, offset, offset+int64(sizeLocal))
			}
			lists[i][j] = int32(local)
			shared.Add(uint32(local))
		}
	}

	return &IndexMap{
		rank:       c.Rank(),
		sizeLocal:  sizeLocal,
		offset:     offset,
		sizeGlobal: total,
		ghosts:     slices.Clone(ghosts),
		owners:     slices.Clone(owners),
		fwd:        fwd,
		bwd:        bwd,
		scatter:    graph.FromLists(lists),
		shared:     shared,
	}, nil
}

// Rank returns the rank the map was built on.
func (m *IndexMap) Rank() int { return m.rank }

// SizeLocal returns the number of owned indices.
func (m *IndexMap) SizeLocal() int32 { return m.sizeLocal }

// NumGhosts returns the number of ghost indices.
func (m *IndexMap) NumGhosts() int32 { return int32(len(m.ghosts)) }

// Size returns the number of owned plus ghost indices.
func (m *IndexMap) Size() int32 { return m.sizeLocal + int32(len(m.ghosts)) }

// SizeGlobal returns the number of indices owned by all ranks together.
func (m *IndexMap) SizeGlobal() int64 { return m.sizeGlobal }

// LocalRange returns the half-open global range of owned indices.
func (m *IndexMap) LocalRange() (int64, int64) {
	return m.offset, m.offset + int64(m.sizeLocal)
}

// Ghosts returns the global index of every ghost, in local order.
func (m *IndexMap) Ghosts() []int64 { return m.ghosts }

// GhostOwners returns the owning rank of every ghost, in local order.
func (m *IndexMap) GhostOwners() []int { return m.owners }

// Forward returns the ranks that ghost indices owned here, ascending.
func (m *IndexMap) Forward() []int { return m.fwd }

// Backward returns the ranks owning this rank's ghosts, ascending.
func (m *IndexMap) Backward() []int { return m.bwd }

// ScatterFwdIndices returns, for each Forward rank, the owned local indices
// that rank ghosts, in the order that rank holds them.
func (m *IndexMap) ScatterFwdIndices() *graph.AdjacencyList[int32] { return m.scatter }

// Shared returns the set of owned local indices ghosted by at least one
// other rank. The bitmap must not be modified.
func (m *IndexMap) Shared() *roaring.Bitmap { return m.shared }

// IsShared reports whether owned local index i is ghosted elsewhere.
func (m *IndexMap) IsShared(i int32) bool {
	return i >= 0 && m.shared.Contains(uint32(i))
}

// Owner returns the owning rank of local index i.
func (m *IndexMap) Owner(i int32) (int, error) {
	switch {
	case i < 0 || i >= m.Size():
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	case i < m.sizeLocal:
		return m.rank, nil
	}
	return m.owners[i-m.sizeLocal], nil
}

// LocalToGlobal maps a local index to its global index.
func (m *IndexMap) LocalToGlobal(i int32) (int64, error) {
	switch {
	case i < 0 || i >= m.Size():
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	case i < m.sizeLocal:
		return m.offset + int64(i), nil
	}
	return m.ghosts[i-m.sizeLocal], nil
}

// GlobalIndices returns the global index of every local index, owned first.
func (m *IndexMap) GlobalIndices() []int64 {
	out := make([]int64, 0, m.Size())
	for i := range m.sizeLocal {
		out = append(out, m.offset+int64(i))
	}
	return append(out, m.ghosts...)
}
