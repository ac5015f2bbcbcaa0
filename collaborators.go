package meshtopo

import (
	"context"

	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/indexmap"
	"github.com/hupe1980/meshtopo/internal/entity"
)

// Entities is the output of an EntityComputer for one dimension d.
type Entities struct {
	// CellEntity is the (tdim, d) connectivity. Optional.
	CellEntity *graph.AdjacencyList[int32]
	// EntityVertex is the (d, 0) connectivity.
	EntityVertex *graph.AdjacencyList[int32]
	// IndexMap distributes the entities over the ranks.
	IndexMap *indexmap.IndexMap
}

// EntityComputer derives the entities of dimension d from a topology's
// existing connectivity. It is called collectively on every rank.
type EntityComputer interface {
	ComputeEntities(ctx context.Context, t *Topology, d int) (Entities, error)
}

// ConnectivityComputer derives (d0, d1) connectivity. It may also return
// (d1, d0) when that is produced on the way; nil results are not cached.
type ConnectivityComputer interface {
	ComputeConnectivity(ctx context.Context, t *Topology, d0, d1 int) (c01, c10 *graph.AdjacencyList[int32], err error)
}

// PermutationComputer derives per-cell facet permutation codes and packed
// cell permutation info.
type PermutationComputer interface {
	ComputePermutations(ctx context.Context, t *Topology) (facet []uint8, cell []uint32, err error)
}

type defaultEntityComputer struct{}

func (defaultEntityComputer) ComputeEntities(ctx context.Context, t *Topology, d int) (Entities, error) {
	r, err := entity.Compute(ctx, t, d, t.opts.seed)
	if err != nil {
		return Entities{}, err
	}
	return Entities{CellEntity: r.CellEntity, EntityVertex: r.EntityVertex, IndexMap: r.IndexMap}, nil
}

type defaultConnectivityComputer struct{}

func (defaultConnectivityComputer) ComputeConnectivity(_ context.Context, t *Topology, d0, d1 int) (*graph.AdjacencyList[int32], *graph.AdjacencyList[int32], error) {
	return entity.Connectivity(t, d0, d1)
}

type defaultPermutationComputer struct{}

func (defaultPermutationComputer) ComputePermutations(_ context.Context, t *Topology) ([]uint8, []uint32, error) {
	return entity.Permutations(t)
}
