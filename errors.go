package meshtopo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/internal/renumber"
)

var (
	// ErrInvalidDimension is returned for a topological dimension outside
	// [0, tdim].
	ErrInvalidDimension = errors.New("invalid topological dimension")

	// ErrInvalidGhostMode is returned when parsing an unknown ghost mode.
	ErrInvalidGhostMode = errors.New("invalid ghost mode")

	// ErrUnsupportedCellType is returned for cell types a topology cannot be
	// built from.
	ErrUnsupportedCellType = errors.New("unsupported cell type")

	// ErrInvalidInput is returned when the parallel input arrays disagree.
	ErrInvalidInput = errors.New("invalid topology input")

	// ErrUnresolvedVertex is matched by UnresolvedVertexError. It signals a
	// violated protocol invariant, not bad input.
	ErrUnresolvedVertex = renumber.ErrUnresolvedVertex
)

// UnresolvedVertexError reports a vertex that ended renumbering without a
// local index.
type UnresolvedVertexError = renumber.UnresolvedVertexError

// CellVertexCountError indicates a cell whose vertex count does not match the
// cell type. It is detected before any communication takes place.
type CellVertexCountError struct {
	Cell     int
	CellType cell.Type
	Expected int
	Actual   int
}

func (e *CellVertexCountError) Error() string {
	return fmt.Sprintf("cell %d: %s has %d vertices, got %d", e.Cell, e.CellType, e.Expected, e.Actual)
}

// PreconditionError is returned when data is queried before the builder
// producing it has run. Step names the missing call.
type PreconditionError struct {
	Step string
	What string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s not available: call %s first", e.What, e.Step)
}
