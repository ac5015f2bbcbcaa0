package meshtopo

import (
	"context"
	"fmt"

	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/indexmap"
)

type connKey struct{ d0, d1 int }

// Topology is the distributed topology of a mesh on one rank: connectivity
// between entity dimensions, one IndexMap per dimension and cached
// orientation permutations.
//
// Connectivity and entities are created lazily by the Create* builders, which
// are collective: every rank must call them in the same order. Once cached,
// data is never recomputed. A Topology is used by a single goroutine.
type Topology struct {
	comm      *comm.Comm
	cellType  cell.Type
	ghostMode GhostMode
	opts      options
	logger    *Logger

	conn map[connKey]*graph.AdjacencyList[int32]
	maps []*indexmap.IndexMap

	originalCells []int64

	facetPerms []uint8
	cellPerms  []uint32
	hasPerms   bool
}

func newTopology(c *comm.Comm, ct cell.Type, mode GhostMode, o options) *Topology {
	return &Topology{
		comm:      c,
		cellType:  ct,
		ghostMode: mode,
		opts:      o,
		logger:    o.logger.WithRank(c.Rank()),
		conn:      make(map[connKey]*graph.AdjacencyList[int32]),
		maps:      make([]*indexmap.IndexMap, ct.Dim()+1),
	}
}

// Dim returns the topological dimension.
func (t *Topology) Dim() int { return t.cellType.Dim() }

// CellType returns the cell type.
func (t *Topology) CellType() cell.Type { return t.cellType }

// Comm returns the communicator the topology was built on.
func (t *Topology) Comm() *comm.Comm { return t.comm }

// GhostMode returns the ghost mode the topology was built with.
func (t *Topology) GhostMode() GhostMode { return t.ghostMode }

// KeepsGhostCells reports whether ghost cells are part of the topology.
func (t *Topology) KeepsGhostCells() bool { return t.ghostMode == GhostSharedFacet }

// OriginalCellIndex returns the caller's cell index of every retained cell.
func (t *Topology) OriginalCellIndex() []int64 { return t.originalCells }

func (t *Topology) checkDim(d int) error {
	if d < 0 || d > t.Dim() {
		return fmt.Errorf("%w: %d for %s", ErrInvalidDimension, d, t.cellType)
	}
	return nil
}

// IndexMap returns the index map of dimension d.
func (t *Topology) IndexMap(d int) (*indexmap.IndexMap, error) {
	if err := t.checkDim(d); err != nil {
		return nil, err
	}
	if t.maps[d] == nil {
		return nil, &PreconditionError{Step: "CreateEntities", What: fmt.Sprintf("index map of dimension %d", d)}
	}
	return t.maps[d], nil
}

// Connectivity returns the cached (d0, d1) connectivity.
func (t *Topology) Connectivity(d0, d1 int) (*graph.AdjacencyList[int32], error) {
	if err := t.checkDim(d0); err != nil {
		return nil, err
	}
	if err := t.checkDim(d1); err != nil {
		return nil, err
	}
	if c, ok := t.conn[connKey{d0, d1}]; ok {
		return c, nil
	}
	what := fmt.Sprintf("connectivity (%d, %d)", d0, d1)
	if t.maps[d0] == nil || t.maps[d1] == nil {
		return nil, &PreconditionError{Step: "CreateEntities", What: what}
	}
	return nil, &PreconditionError{Step: "CreateConnectivity", What: what}
}

// CellPermutationInfo returns the packed permutation info of every cell.
func (t *Topology) CellPermutationInfo() ([]uint32, error) {
	if !t.hasPerms {
		return nil, &PreconditionError{Step: "CreateEntityPermutations", What: "cell permutation info"}
	}
	return t.cellPerms, nil
}

// FacetPermutations returns the permutation code of every (cell, facet) pair,
// cell-major.
func (t *Topology) FacetPermutations() ([]uint8, error) {
	if !t.hasPerms {
		return nil, &PreconditionError{Step: "CreateEntityPermutations", What: "facet permutations"}
	}
	return t.facetPerms, nil
}

// CreateEntities creates the entities of dimension d. It returns -1 if they
// already exist, otherwise the number of entities owned by this rank.
func (t *Topology) CreateEntities(ctx context.Context, d int) (int32, error) {
	if err := t.checkDim(d); err != nil {
		return 0, err
	}
	if _, ok := t.conn[connKey{d, 0}]; ok {
		return -1, nil
	}
	res, err := t.opts.entities.ComputeEntities(ctx, t, d)
	if err == nil && (res.IndexMap == nil || res.EntityVertex == nil) {
		err = fmt.Errorf("entity computer returned no vertices or index map for dimension %d", d)
	}
	if err != nil {
		t.logger.LogEntities(ctx, d, 0, err)
		return 0, fmt.Errorf("create entities of dimension %d: %w", d, err)
	}
	if res.CellEntity != nil {
		t.conn[connKey{t.Dim(), d}] = res.CellEntity
	}
	t.conn[connKey{d, 0}] = res.EntityVertex
	t.maps[d] = res.IndexMap
	t.logger.LogEntities(ctx, d, res.IndexMap.SizeLocal(), nil)
	return res.IndexMap.SizeLocal(), nil
}

// CreateConnectivity creates the entities of d0 and d1 and the (d0, d1)
// connectivity. The reverse direction is cached as well if the computation
// produced it.
func (t *Topology) CreateConnectivity(ctx context.Context, d0, d1 int) error {
	if _, err := t.CreateEntities(ctx, d0); err != nil {
		return err
	}
	if _, err := t.CreateEntities(ctx, d1); err != nil {
		return err
	}
	if _, ok := t.conn[connKey{d0, d1}]; ok {
		return nil
	}
	c01, c10, err := t.opts.connectivity.ComputeConnectivity(ctx, t, d0, d1)
	if err == nil && c01 == nil {
		err = fmt.Errorf("connectivity computer returned nothing for (%d, %d)", d0, d1)
	}
	t.logger.LogConnectivity(ctx, d0, d1, err)
	if err != nil {
		return fmt.Errorf("create connectivity (%d, %d): %w", d0, d1, err)
	}
	t.conn[connKey{d0, d1}] = c01
	if _, ok := t.conn[connKey{d1, d0}]; !ok && c10 != nil {
		t.conn[connKey{d1, d0}] = c10
	}
	return nil
}

// CreateEntityPermutations creates the entities of every dimension below the
// cell dimension and computes the permutation tables once.
func (t *Topology) CreateEntityPermutations(ctx context.Context) error {
	if t.hasPerms {
		return nil
	}
	for d := range t.Dim() {
		if _, err := t.CreateEntities(ctx, d); err != nil {
			return err
		}
	}
	facet, info, err := t.opts.permutations.ComputePermutations(ctx, t)
	if err != nil {
		return fmt.Errorf("create entity permutations: %w", err)
	}
	t.facetPerms, t.cellPerms, t.hasPerms = facet, info, true
	return nil
}

// ComputeBoundaryFacets marks the owned facets on the exterior boundary. A
// facet is exterior if exactly one cell is attached on this rank and, when
// ghost cells are discarded, no other rank holds it. With ghost cells kept,
// facets on partition interfaces already see both cells.
//
// It requires CreateConnectivity(tdim-1, tdim).
func ComputeBoundaryFacets(t *Topology) ([]bool, error) {
	tdim := t.Dim()
	fc, err := t.Connectivity(tdim-1, tdim)
	if err != nil {
		return nil, err
	}
	facets, err := t.IndexMap(tdim - 1)
	if err != nil {
		return nil, err
	}
	useShared := !t.KeepsGhostCells()
	boundary := make([]bool, facets.SizeLocal())
	for f := range boundary {
		if fc.NumLinks(f) != 1 {
			continue
		}
		if useShared && facets.IsShared(int32(f)) {
			continue
		}
		boundary[f] = true
	}
	return boundary, nil
}
