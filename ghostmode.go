package meshtopo

import (
	"fmt"
	"strings"
)

// GhostMode selects what a topology keeps of the ghost cell layer.
type GhostMode uint8

const (
	// GhostNone discards ghost cells and the vertices only they reference.
	GhostNone GhostMode = iota
	// GhostSharedFacet keeps ghost cells and forwards the numbering of their
	// vertices to the ranks that ghost them.
	GhostSharedFacet
)

// String returns the configuration name of the mode.
func (g GhostMode) String() string {
	switch g {
	case GhostNone:
		return "none"
	case GhostSharedFacet:
		return "shared_facet"
	}
	return fmt.Sprintf("GhostMode(%d)", uint8(g))
}

// ParseGhostMode parses "none" or "shared_facet".
func ParseGhostMode(s string) (GhostMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return GhostNone, nil
	case "shared_facet":
		return GhostSharedFacet, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGhostMode, s)
}

func (g GhostMode) valid() bool { return g == GhostNone || g == GhostSharedFacet }
