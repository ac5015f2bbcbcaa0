package renumber

import (
	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/internal/fabric"
	"github.com/hupe1980/meshtopo/internal/ownership"
)

// Numbering is the vertex numbering of one rank: owned vertices occupy local
// indices [0, NumOwned) and global indices [Offset, Offset+NumOwned); ghost i
// has local index NumOwned+i, global index Ghosts[i] and owner GhostOwners[i].
type Numbering struct {
	Rank        int
	NumOwned    int32
	Offset      int64
	Ghosts      []int64
	GhostOwners []int
}

// NumberOwned gives every owned id (OwnedUnshared or OwnedShared) the next
// local index when it is first met scanning cells in input order. Ghost cells
// are scanned too. It returns the number of owned ids.
func NumberOwned(cells *graph.AdjacencyList[int64], table *ownership.Table) int32 {
	var next int32
	for _, id := range cells.Array() {
		s, ok := table.Get(id)
		if !ok {
			continue
		}
		if k := s.Kind(); k == ownership.OwnedUnshared || k == ownership.OwnedShared {
			table.Set(id, ownership.ResolvedAt(next))
			next++
		}
	}
	return next
}

// Global returns the global number of an owned, numbered id.
func (n *Numbering) Global(table *ownership.Table, id int64) (int64, bool) {
	s, ok := table.Get(id)
	if !ok || s.Kind() != ownership.Resolved {
		return 0, false
	}
	i, _ := s.Index()
	return n.Offset + int64(i), true
}

// Lookup returns the global number and owner of any id with a final index.
func (n *Numbering) Lookup(table *ownership.Table, id int64) (int64, int, bool) {
	s, ok := table.Get(id)
	if !ok {
		return 0, 0, false
	}
	switch s.Kind() {
	case ownership.Resolved:
		i, _ := s.Index()
		return n.Offset + int64(i), n.Rank, true
	case ownership.Ghost:
		i, _ := s.Index()
		owner, _ := s.Owner()
		return n.Ghosts[i-n.NumOwned], owner, true
	}
	return 0, 0, false
}

// AddGhosts appends the ids announced by triplets as ghosts, in order. Ids
// the table does not reference, and ids that already have a final index, are
// skipped. It returns the number of ghosts added.
func (n *Numbering) AddGhosts(table *ownership.Table, triplets []fabric.Triplet) int {
	added := 0
	for _, t := range triplets {
		s, ok := table.Get(t.ID)
		if !ok || s.IsFinal() {
			continue
		}
		table.SetGhost(t.ID, n.NumOwned+int32(len(n.Ghosts)), t.Owner)
		n.Ghosts = append(n.Ghosts, t.Global)
		n.GhostOwners = append(n.GhostOwners, t.Owner)
		added++
	}
	return added
}
