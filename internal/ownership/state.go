package ownership

import "fmt"

// Kind is the discriminant of a State.
type Kind uint8

const (
	// Unresolved ids are referenced by a ghost cell; their owner is not known yet.
	Unresolved Kind = iota
	// OwnedUnshared ids appear only in locally owned cells.
	OwnedUnshared
	// OwnedShared ids are shared with other ranks and this rank was chosen as
	// their owner. They are waiting for a local number.
	OwnedShared
	// Resolved ids are owned and carry their local index.
	Resolved
	// Ghost ids are owned elsewhere and carry their local ghost index and owner.
	Ghost
)

func (k Kind) String() string {
	switch k {
	case Unresolved:
		return "unresolved"
	case OwnedUnshared:
		return "owned-unshared"
	case OwnedShared:
		return "owned-shared"
	case Resolved:
		return "resolved"
	case Ghost:
		return "ghost"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// State is the ownership state of one global vertex id.
//
// The zero value is Unresolved. Index is only meaningful for Resolved and
// Ghost states, Owner only for Ghost.
type State struct {
	kind  Kind
	index int32
	owner int
}

// ResolvedAt returns the state of an owned id numbered i.
func ResolvedAt(i int32) State { return State{kind: Resolved, index: i} }

// GhostAt returns the state of an id owned by owner and stored at local index i.
func GhostAt(i int32, owner int) State { return State{kind: Ghost, index: i, owner: owner} }

// Kind returns the discriminant.
func (s State) Kind() Kind { return s.kind }

// Index returns the local index of a Resolved or Ghost id.
func (s State) Index() (int32, bool) {
	if s.kind == Resolved || s.kind == Ghost {
		return s.index, true
	}
	return 0, false
}

// Owner returns the owning rank of a Ghost id.
func (s State) Owner() (int, bool) {
	if s.kind == Ghost {
		return s.owner, true
	}
	return 0, false
}

// IsOwned reports whether this rank owns the id.
func (s State) IsOwned() bool {
	return s.kind == OwnedUnshared || s.kind == OwnedShared || s.kind == Resolved
}

// IsFinal reports whether the id has its final local index.
func (s State) IsFinal() bool {
	return s.kind == Resolved || s.kind == Ghost
}

func (s State) String() string {
	switch s.kind {
	case Resolved:
		return fmt.Sprintf("resolved(%d)", s.index)
	case Ghost:
		return fmt.Sprintf("ghost(%d@%d)", s.index, s.owner)
	}
	return s.kind.String()
}
