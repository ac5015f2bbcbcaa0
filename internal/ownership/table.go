package ownership

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/meshtopo/graph"
)

// ErrInvalidCellCount is returned when the number of local cells exceeds the
// number of cells in the list.
var ErrInvalidCellCount = errors.New("ownership: invalid local cell count")

// Table maps every referenced global vertex id to its State.
//
// A Table is owned by the rank that built it and is not safe for concurrent
// mutation.
type Table struct {
	states map[int64]State
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{states: make(map[int64]State)}
}

// Len returns the number of ids in the table.
func (t *Table) Len() int { return len(t.states) }

// Get returns the state of id. ok is false for ids never referenced.
func (t *Table) Get(id int64) (State, bool) {
	s, ok := t.states[id]
	return s, ok
}

// Set overwrites the state of id.
func (t *Table) Set(id int64, s State) { t.states[id] = s }

// SetGhost records id as a ghost unless it already has a final index. It
// reports whether the table changed, so repeated receipts are no-ops.
func (t *Table) SetGhost(id int64, index int32, owner int) bool {
	if s, ok := t.states[id]; ok && s.IsFinal() {
		return false
	}
	t.states[id] = GhostAt(index, owner)
	return true
}

// Count returns the number of ids per Kind.
func (t *Table) Count() map[Kind]int {
	out := make(map[Kind]int, 5)
	for _, s := range t.states {
		out[s.kind]++
	}
	return out
}

// Pending returns, in ascending order, the ids that have no final index.
func (t *Table) Pending() []int64 {
	var ids []int64
	for id, s := range t.states {
		if !s.IsFinal() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Classify builds the ownership table of a rank's cells. cells holds the
// numLocal owned cells followed by ghost cells.
//
// Ids referenced by ghost cells start Unresolved. Ids of local cells that are
// also referenced by a ghost cell are ambiguous and returned in ascending
// order; the remaining local ids are OwnedUnshared. Ids referenced only by
// ghost cells stay Unresolved and are not ambiguous.
//
// The local and ghost sets are sorted on up to parallelism goroutines.
func Classify(cells *graph.AdjacencyList[int64], numLocal, parallelism int) (*Table, []int64, error) {
	if numLocal < 0 || numLocal > cells.NumNodes() {
		return nil, nil, fmt.Errorf("%w: %d of %d cells", ErrInvalidCellCount, numLocal, cells.NumNodes())
	}
	split := int(cells.Offsets()[numLocal])
	all := cells.Array()

	var local, ghost []int64
	var g errgroup.Group
	g.SetLimit(max(1, parallelism))
	g.Go(func() error {
		local = sortedSet(all[:split])
		return nil
	})
	g.Go(func() error {
		ghost = sortedSet(all[split:])
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	t := &Table{states: make(map[int64]State, len(local)+len(ghost))}
	for _, id := range ghost {
		t.states[id] = State{kind: Unresolved}
	}
	var ambiguous []int64
	for _, id := range local {
		if _, ok := t.states[id]; ok {
			ambiguous = append(ambiguous, id)
			continue
		}
		t.states[id] = State{kind: OwnedUnshared}
	}
	return t, ambiguous, nil
}

// Claim marks the ambiguous ids whose agreed owner is rank as OwnedShared.
// It returns the number of ids claimed.
func (t *Table) Claim(ambiguous []int64, rank int, owner func(id int64) (int, bool)) int {
	n := 0
	for _, id := range ambiguous {
		if p, ok := owner(id); ok && p == rank {
			t.states[id] = State{kind: OwnedShared}
			n++
		}
	}
	return n
}

func sortedSet(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
