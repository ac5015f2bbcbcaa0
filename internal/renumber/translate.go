package renumber

import (
	"errors"
	"fmt"

	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/internal/ownership"
)

// ErrUnresolvedVertex is matched by every *UnresolvedVertexError.
var ErrUnresolvedVertex = errors.New("unresolved vertex")

// UnresolvedVertexError reports a vertex id that has no local index after
// all numbering rounds. It indicates a bug in the protocol or input that
// violates the ghost-layer contract.
type UnresolvedVertexError struct {
	Rank  int
	Cell  int
	ID    int64
	State ownership.State
}

func (e *UnresolvedVertexError) Error() string {
	return fmt.Sprintf("rank %d: vertex %d of cell %d is %v after renumbering", e.Rank, e.ID, e.Cell, e.State)
}

func (e *UnresolvedVertexError) Unwrap() error { return ErrUnresolvedVertex }

// Translate rewrites cells from global vertex ids to local indices. When
// keepGhosts is false only the first numLocal cells are kept.
func Translate(rank int, cells *graph.AdjacencyList[int64], numLocal int, keepGhosts bool, table *ownership.Table) (*graph.AdjacencyList[int32], error) {
	kept := cells
	if !keepGhosts {
		kept = cells.Head(numLocal)
	}
	src := kept.Array()
	out := make([]int32, len(src))
	offsets := kept.Offsets()
	c := 0
	for i, id := range src {
		for int(offsets[c+1]) <= i {
			c++
		}
		s, _ := table.Get(id)
		idx, ok := s.Index()
		if !ok {
			return nil, &UnresolvedVertexError{Rank: rank, Cell: c, ID: id, State: s}
		}
		out[i] = idx
	}
	return graph.New(out, append([]int32(nil), offsets...))
}
