// Package graph provides the compressed adjacency list used for every
// node -> links relation in a mesh topology (cell -> vertex, facet -> cell,
// neighbour -> shared indices).
//
//	cells, _ := graph.Uniform([]int64{0, 1, 1, 2}, 2) // two interval cells
//	for c := range cells.NumNodes() {
//	    fmt.Println(cells.Links(c))
//	}
package graph
