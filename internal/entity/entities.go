package entity

import (
	"context"
	"fmt"

	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/graph"
	"github.com/hupe1980/meshtopo/indexmap"
	"github.com/hupe1980/meshtopo/internal/directory"
)

type key [directory.MaxKeyWidth]int64

type record struct {
	key     key
	verts   []int32
	inLocal bool
	shared  bool
	sharers []int
	owner   int
	known   bool
	global  int64
}

// Compute builds the entities of dimension d, 0 < d < tdim, collectively
// over the communicator of m.
//
// Entities are identified by the global indices of their vertices. An entity
// of a local cell whose vertices are all ghosts or shared with other ranks may
// exist on several ranks; those are resolved with the directory, and their
// owners send the global numbers to the other sharers. Entities that only
// appear in ghost cells receive their numbers from the owners of those cells.
func Compute(ctx context.Context, m Mesh, d int, seed uint64) (*Result, error) {
	tdim := m.Dim()
	if d <= 0 || d >= tdim {
		return nil, fmt.Errorf("%w: %d for a %d-dimensional mesh", ErrDimension, d, tdim)
	}
	ct := m.CellType()
	tables := ct.EntityVertices(d)
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCell, ct)
	}
	width := len(tables[0])
	et := ct.EntityType(d)

	cells, err := m.Connectivity(tdim, 0)
	if err != nil {
		return nil, err
	}
	vmap, err := m.IndexMap(0)
	if err != nil {
		return nil, err
	}
	cmap, err := m.IndexMap(tdim)
	if err != nil {
		return nil, err
	}
	c := m.Comm()
	rank := c.Rank()
	globals := vmap.GlobalIndices()
	numLocalCells := int(cmap.SizeLocal())
	ncells := cells.NumNodes()

	// Local deduplication, first seen first.
	index := make(map[key]int, ncells*len(tables))
	var records []record
	cellEntity := make([]int, ncells*len(tables))
	for ci := range ncells {
		cv := cells.Links(ci)
		for li, ref := range tables {
			lv := make([]int32, width)
			gv := make([]int64, width)
			for k, r := range ref {
				lv[k] = cv[r]
				gv[k] = globals[cv[r]]
			}
			canonical(et, lv, gv)
			var k key
			copy(k[:], gv)
			id, ok := index[k]
			if !ok {
				id = len(records)
				index[k] = id
				records = append(records, record{key: k, verts: lv, owner: -1})
			}
			if ci < numLocalCells {
				records[id].inLocal = true
			}
			cellEntity[ci*len(tables)+li] = id
		}
	}

	var candidates []int
	var flat []int64
	for id := range records {
		r := &records[id]
		if !r.inLocal {
			continue
		}
		r.shared = true
		for _, v := range r.verts {
			if v < vmap.SizeLocal() && !vmap.IsShared(v) {
				r.shared = false
				break
			}
		}
		if r.shared {
			candidates = append(candidates, id)
			flat = append(flat, r.key[:width]...)
		} else {
			r.owner = rank
		}
	}

	lists, err := directory.SharingKeys(ctx, c, flat, width, seed)
	if err != nil {
		return nil, fmt.Errorf("entity: sharing: %w", err)
	}
	for i, id := range candidates {
		records[id].sharers = lists[i]
		records[id].owner = lists[i][0]
	}

	newIndex := make([]int32, len(records))
	var owned int32
	for id := range records {
		if records[id].owner == rank {
			newIndex[id] = owned
			owned++
		}
	}
	offset, err := c.ExclusiveScan(ctx, int64(owned))
	if err != nil {
		return nil, fmt.Errorf("entity: offset: %w", err)
	}
	for id := range records {
		if r := &records[id]; r.owner == rank {
			r.known = true
			r.global = offset + int64(newIndex[id])
		}
	}

	if err := exchangeShared(ctx, c, records, candidates, index, width); err != nil {
		return nil, err
	}
	if m.KeepsGhostCells() {
		if err := forwardGhostCells(ctx, c, cmap, records, cellEntity, len(tables), index, width); err != nil {
			return nil, err
		}
	}

	var ghosts []int64
	var ghostOwners []int
	for id := range records {
		r := &records[id]
		if r.owner == rank {
			continue
		}
		if !r.known {
			return nil, fmt.Errorf("%w: rank %d, dimension %d, vertices %v", ErrMissingNumber, rank, d, r.key[:width])
		}
		newIndex[id] = owned + int32(len(ghosts))
		ghosts = append(ghosts, r.global)
		ghostOwners = append(ghostOwners, r.owner)
	}

	imap, err := indexmap.New(ctx, c, owned, ghosts, ghostOwners)
	if err != nil {
		return nil, fmt.Errorf("entity: index map: %w", err)
	}

	ce := make([]int32, len(cellEntity))
	for i, id := range cellEntity {
		ce[i] = newIndex[id]
	}
	cellConn, err := graph.Uniform(ce, len(tables))
	if err != nil {
		return nil, err
	}

	ev := make([][]int32, len(records))
	for id := range records {
		ev[newIndex[id]] = records[id].verts
	}
	return &Result{
		CellEntity:   cellConn,
		EntityVertex: graph.FromLists(ev),
		IndexMap:     imap,
	}, nil
}

// exchangeShared sends (key, global, owner) for every owned shared entity to
// the other ranks of its sharing list.
func exchangeShared(ctx context.Context, c *comm.Comm, records []record, candidates []int, index map[key]int, width int) error {
	rank := c.Rank()
	slot := map[int]int{}
	var ranks []int
	for _, id := range candidates {
		for _, p := range records[id].sharers {
			if _, ok := slot[p]; !ok && p != rank {
				slot[p] = -1
				ranks = append(ranks, p)
			}
		}
	}
	nbr, err := c.NewNeighborhood(ranks, ranks)
	if err != nil {
		return err
	}
	defer nbr.Close()
	for i, p := range nbr.Destinations() {
		slot[p] = i
	}

	send := make([][]int64, len(nbr.Destinations()))
	for _, id := range candidates {
		r := &records[id]
		if r.owner != rank {
			continue
		}
		for _, p := range r.sharers[1:] {
			s := slot[p]
			send[s] = append(send[s], r.key[:width]...)
			send[s] = append(send[s], r.global, int64(rank))
		}
	}
	recv, err := nbr.AllToAll(ctx, send)
	if err != nil {
		return fmt.Errorf("entity: shared numbers: %w", err)
	}
	return apply(recv, records, index, width)
}

// forwardGhostCells sends the numbers of every known entity of a cell to the
// ranks that ghost the cell.
func forwardGhostCells(ctx context.Context, c *comm.Comm, cmap *indexmap.IndexMap, records []record, cellEntity []int, perCell int, index map[key]int, width int) error {
	nbr, err := c.NewNeighborhood(cmap.Backward(), cmap.Forward())
	if err != nil {
		return err
	}
	defer nbr.Close()

	scatter := cmap.ScatterFwdIndices()
	send := make([][]int64, scatter.NumNodes())
	for i := range send {
		for _, ci := range scatter.Links(i) {
			for _, id := range cellEntity[int(ci)*perCell : int(ci+1)*perCell] {
				r := &records[id]
				if !r.known {
					continue
				}
				send[i] = append(send[i], r.key[:width]...)
				send[i] = append(send[i], r.global, int64(r.owner))
			}
		}
	}
	recv, err := nbr.AllToAll(ctx, send)
	if err != nil {
		return fmt.Errorf("entity: ghost cell numbers: %w", err)
	}
	return apply(recv, records, index, width)
}

func apply(recv [][]int64, records []record, index map[key]int, width int) error {
	stride := width + 2
	for _, buf := range recv {
		if len(buf)%stride != 0 {
			return fmt.Errorf("entity: malformed payload of %d values", len(buf))
		}
		for j := 0; j < len(buf); j += stride {
			var k key
			copy(k[:], buf[j:j+width])
			id, ok := index[k]
			if !ok {
				continue
			}
			r := &records[id]
			if r.known {
				continue
			}
			r.known = true
			r.global = buf[j+width]
			r.owner = int(buf[j+width+1])
		}
	}
	return nil
}
