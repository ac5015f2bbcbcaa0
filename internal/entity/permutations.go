package entity

import (
	"fmt"

	"github.com/hupe1980/meshtopo/cell"
)

// Permutations computes, for every cell, the orientation of its sub-entities
// relative to their global vertex order.
//
// facet[c*nfacets+f] is 2*rotations+reflection of facet f of cell c. info[c]
// packs the rotations and reflections of the cell: for 3D cells face f uses
// bits 3f (reflection) and 3f+1, 3f+2 (rotations), followed by one reflection
// bit per edge; 2D cells use one reflection bit per edge.
func Permutations(m Mesh) (facet []uint8, info []uint32, err error) {
	ct := m.CellType()
	tdim := m.Dim()
	if tdim < 1 || tdim > 3 {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedCell, ct)
	}
	cells, err := m.Connectivity(tdim, 0)
	if err != nil {
		return nil, nil, err
	}
	vmap, err := m.IndexMap(0)
	if err != nil {
		return nil, nil, err
	}
	globals := vmap.GlobalIndices()

	ncells := cells.NumNodes()
	nfacets := ct.NumEntities(tdim - 1)
	facet = make([]uint8, ncells*nfacets)
	info = make([]uint32, ncells)
	if tdim == 1 {
		return facet, info, nil
	}

	edges := ct.EntityVertices(1)
	var faces [][]int
	if tdim == 3 {
		faces = ct.EntityVertices(2)
	}

	gv := make([]int64, 4)
	for c := range ncells {
		cv := cells.Links(c)
		var bits uint32
		for f, face := range faces {
			for k, r := range face {
				gv[k] = globals[cv[r]]
			}
			rots, refl := faceOrientation(ct.EntityType(2), gv[:len(face)])
			bits |= uint32(refl) << (3 * f)
			bits |= uint32(rots%2) << (3*f + 1)
			bits |= uint32(rots/2) << (3*f + 2)
			facet[c*nfacets+f] = 2*rots + refl
		}
		shift := 3 * len(faces)
		for e, edge := range edges {
			var refl uint8
			if globals[cv[edge[0]]] > globals[cv[edge[1]]] {
				refl = 1
			}
			bits |= uint32(refl) << (shift + e)
			if tdim == 2 {
				facet[c*nfacets+e] = refl
			}
		}
		info[c] = bits
	}
	return facet, info, nil
}

// faceOrientation returns the number of rotations that bring the lowest
// vertex first and whether the face is then reflected.
func faceOrientation(t cell.Type, v []int64) (rots, refl uint8) {
	if t == cell.Triangle {
		for i := uint8(1); i < 3; i++ {
			if v[i] < v[rots] {
				rots = i
			}
		}
		pre := v[(rots+2)%3]
		post := v[(rots+1)%3]
		if post > pre {
			refl = 1
		}
		return rots, refl
	}

	// Quadrilateral, tensor order; walking the boundary visits 0, 1, 3, 2.
	m := 0
	for i := 1; i < 4; i++ {
		if v[i] < v[m] {
			m = i
		}
	}
	pre, post := 2, 1
	switch m {
	case 1:
		pre, post, rots = 0, 3, 1
	case 2:
		pre, post, rots = 3, 0, 3
	case 3:
		pre, post, rots = 1, 2, 2
	}
	if v[post] > v[pre] {
		refl = 1
	}
	return rots, refl
}
