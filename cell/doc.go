// Package cell describes the reference cells a mesh topology can be built
// from: their topological dimension, vertex count and the local vertex
// numbering of every sub-entity.
//
// Vertex numbering follows the usual finite-element conventions: simplices
// number the sub-entity opposite vertex i as entity i, tensor-product cells
// (quadrilateral, hexahedron) use lexicographic vertex order.
package cell
