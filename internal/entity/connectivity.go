package entity

import (
	"fmt"

	"github.com/hupe1980/meshtopo/graph"
)

// Connectivity computes (d0, d1) from cached entity data: the identity for
// d0 == d1, vertex inclusion through an incident cell for d0 > d1, and the
// transpose of (d1, d0) for d0 < d1. The reverse direction is returned as
// well.
func Connectivity(m Mesh, d0, d1 int) (c01, c10 *graph.AdjacencyList[int32], err error) {
	tdim := m.Dim()
	if d0 < 0 || d1 < 0 || d0 > tdim || d1 > tdim {
		return nil, nil, fmt.Errorf("%w: (%d, %d)", ErrDimension, d0, d1)
	}
	n0, err := numEntities(m, d0)
	if err != nil {
		return nil, nil, err
	}
	if d0 == d1 {
		id := graph.Identity[int32](int(n0))
		return id, id, nil
	}
	if d0 < d1 {
		down, _, err := Connectivity(m, d1, d0)
		if err != nil {
			return nil, nil, err
		}
		return graph.Transpose(down, int(n0)), down, nil
	}

	n1, err := numEntities(m, d1)
	if err != nil {
		return nil, nil, err
	}
	down, err := downward(m, d0, d1)
	if err != nil {
		return nil, nil, err
	}
	return down, graph.Transpose(down, int(n1)), nil
}

func numEntities(m Mesh, d int) (int32, error) {
	im, err := m.IndexMap(d)
	if err != nil {
		return 0, err
	}
	return im.Size(), nil
}

// downward computes (d0, d1) for d0 > d1.
func downward(m Mesh, d0, d1 int) (*graph.AdjacencyList[int32], error) {
	tdim := m.Dim()
	if d1 == 0 {
		return m.Connectivity(d0, 0)
	}
	cellD1, err := m.Connectivity(tdim, d1)
	if err != nil {
		return nil, err
	}
	if d0 == tdim {
		return cellD1, nil
	}
	cellD0, err := m.Connectivity(tdim, d0)
	if err != nil {
		return nil, err
	}
	v0, err := m.Connectivity(d0, 0)
	if err != nil {
		return nil, err
	}
	v1, err := m.Connectivity(d1, 0)
	if err != nil {
		return nil, err
	}

	incident := graph.Transpose(cellD0, v0.NumNodes())
	lists := make([][]int32, v0.NumNodes())
	for e := range v0.NumNodes() {
		cells := incident.Links(e)
		if len(cells) == 0 {
			continue
		}
		verts := v0.Links(e)
		for _, f := range cellD1.Links(int(cells[0])) {
			if subset(v1.Links(int(f)), verts) {
				lists[e] = append(lists[e], f)
			}
		}
	}
	return graph.FromLists(lists), nil
}

func subset(a, b []int32) bool {
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
