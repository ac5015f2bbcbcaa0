package cell

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when parsing an unrecognised cell type name.
var ErrUnknownType = errors.New("cell: unknown cell type")

// Type identifies a reference cell shape.
type Type uint8

const (
	// Point is the 0-dimensional reference cell.
	Point Type = iota
	// Interval is the reference line segment.
	Interval
	// Triangle is the reference triangle.
	Triangle
	// Quadrilateral is the reference quadrilateral with tensor vertex order.
	Quadrilateral
	// Tetrahedron is the reference tetrahedron.
	Tetrahedron
	// Hexahedron is the reference hexahedron with tensor vertex order.
	Hexahedron
)

var typeNames = [...]string{
	Point:         "point",
	Interval:      "interval",
	Triangle:      "triangle",
	Quadrilateral: "quadrilateral",
	Tetrahedron:   "tetrahedron",
	Hexahedron:    "hexahedron",
}

// String returns the lower-case name of the cell type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("cell.Type(%d)", uint8(t))
}

// ParseType parses a cell type name as returned by Type.String.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range typeNames {
		if n == name {
			return Type(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Dim returns the topological dimension of the cell.
func (t Type) Dim() int {
	switch t {
	case Point:
		return 0
	case Interval:
		return 1
	case Triangle, Quadrilateral:
		return 2
	case Tetrahedron, Hexahedron:
		return 3
	}
	return -1
}

// NumVertices returns the number of vertices of the cell.
func (t Type) NumVertices() int {
	switch t {
	case Point:
		return 1
	case Interval:
		return 2
	case Triangle:
		return 3
	case Quadrilateral, Tetrahedron:
		return 4
	case Hexahedron:
		return 8
	}
	return 0
}

// IsSimplex reports whether the cell is a simplex.
func (t Type) IsSimplex() bool {
	return t == Point || t == Interval || t == Triangle || t == Tetrahedron
}

// EntityType returns the type of the sub-entities of dimension d.
func (t Type) EntityType(d int) Type {
	switch {
	case d == t.Dim():
		return t
	case d == 0:
		return Point
	case d == 1:
		return Interval
	case d == 2 && t == Tetrahedron:
		return Triangle
	case d == 2 && t == Hexahedron:
		return Quadrilateral
	}
	return Point
}

// NumEntities returns the number of sub-entities of dimension d.
func (t Type) NumEntities(d int) int {
	return len(t.EntityVertices(d))
}

// EntityVertices returns, for each sub-entity of dimension d, its vertices as
// reference-cell local indices. The tables must not be modified.
func (t Type) EntityVertices(d int) [][]int {
	if d < 0 || d > t.Dim() {
		return nil
	}
	if d == t.Dim() {
		return cellSelf[t]
	}
	if d == 0 {
		return vertexTables[t]
	}
	switch t {
	case Triangle:
		return triangleEdges
	case Quadrilateral:
		return quadrilateralEdges
	case Tetrahedron:
		if d == 1 {
			return tetrahedronEdges
		}
		return tetrahedronFaces
	case Hexahedron:
		if d == 1 {
			return hexahedronEdges
		}
		return hexahedronFaces
	}
	return nil
}

var (
	triangleEdges      = [][]int{{1, 2}, {0, 2}, {0, 1}}
	quadrilateralEdges = [][]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}
	tetrahedronEdges   = [][]int{{2, 3}, {1, 3}, {1, 2}, {0, 3}, {0, 2}, {0, 1}}
	tetrahedronFaces   = [][]int{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}}
	hexahedronEdges    = [][]int{
		{0, 1}, {0, 2}, {0, 4}, {1, 3}, {1, 5}, {2, 3},
		{2, 6}, {3, 7}, {4, 5}, {4, 6}, {5, 7}, {6, 7},
	}
	hexahedronFaces = [][]int{
		{0, 1, 2, 3}, {0, 1, 4, 5}, {0, 2, 4, 6},
		{1, 3, 5, 7}, {2, 3, 6, 7}, {4, 5, 6, 7},
	}

	vertexTables = map[Type][][]int{}
	cellSelf     = map[Type][][]int{}
)

func init() {
	for t := range typeNames {
		ct := Type(t)
		n := ct.NumVertices()
		verts := make([][]int, n)
		self := make([]int, n)
		for i := range n {
			verts[i] = []int{i}
			self[i] = i
		}
		vertexTables[ct] = verts
		cellSelf[ct] = [][]int{self}
	}
}
