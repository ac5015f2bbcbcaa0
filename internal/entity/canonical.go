package entity

import (
	"cmp"
	"slices"

	"github.com/hupe1980/meshtopo/cell"
)

// canonical orders the vertices of an entity independently of the cell it
// was read from. Simplices are sorted by global index. Quadrilaterals start
// at the smallest vertex, followed by its two neighbours in ascending order
// and the opposite vertex, which keeps a valid tensor ordering.
//
// local and global are parallel; both are reordered in place.
func canonical(t cell.Type, local []int32, global []int64) {
	if t != cell.Quadrilateral {
		idx := make([]int, len(local))
		for i := range idx {
			idx[i] = i
		}
		slices.SortFunc(idx, func(a, b int) int { return cmp.Compare(global[a], global[b]) })
		l := slices.Clone(local)
		g := slices.Clone(global)
		for i, j := range idx {
			local[i], global[i] = l[j], g[j]
		}
		return
	}

	// Tensor order: 0-1, 0-2, 1-3 and 2-3 are the edges, 3 is opposite 0.
	neighbours := [4][2]int{{1, 2}, {0, 3}, {0, 3}, {1, 2}}
	opposite := [4]int{3, 2, 1, 0}
	m := 0
	for i := 1; i < 4; i++ {
		if global[i] < global[m] {
			m = i
		}
	}
	a, b := neighbours[m][0], neighbours[m][1]
	if global[b] < global[a] {
		a, b = b, a
	}
	order := [4]int{m, a, b, opposite[m]}
	l := slices.Clone(local)
	g := slices.Clone(global)
	for i, j := range order {
		local[i], global[i] = l[j], g[j]
	}
}
