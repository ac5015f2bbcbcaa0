package entity

import (
	"errors"

	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/indexmap"
)

var (
	// ErrUnsupportedCell is returned for cell types without entity tables.
	ErrUnsupportedCell = errors.New("entity: unsupported cell type")

	// ErrDimension is returned for an entity dimension the operation cannot
	// produce.
	ErrDimension = errors.New("entity: invalid dimension")

	// ErrMissingNumber is returned when a ghost entity received no global
	// number from its owner.
	ErrMissingNumber = errors.New("entity: ghost entity was not numbered")
)

// Mesh is the read view of a topology the computations work on.
type Mesh interface {
	Comm() *comm.Comm
	CellType() cell.Type
	Dim() int
	Connectivity(d0, d1 int) (*graph.AdjacencyList[int32], error)
	IndexMap(d int) (*indexmap.IndexMap, error)
	KeepsGhostCells() bool
}

// Result holds the entities of one dimension.
type Result struct {
	// CellEntity is the (tdim, d) connectivity.
	CellEntity *graph.AdjacencyList[int32]
	// EntityVertex is the (d, 0) connectivity.
	EntityVertex *graph.AdjacencyList[int32]
	// IndexMap distributes the entities.
	IndexMap *indexmap.IndexMap
}
