// Package entity provides the default computations behind a topology's lazy
// builders: distributed numbering of edges and faces, connectivity between
// entity dimensions, and cell orientation permutations.
package entity
