package indexmap

import (
	"context"
	"fmt"
	"slices"

	"github.com/hupe1980/meshtopo/comm"
)

// ComputeGhostIndices numbers the ghost entries of a distributed index set.
//
// originalIndex holds a caller-side identifier for every entry, owned entries
// first, followed by len(ghostOwners) ghost entries. Owned entries are
// numbered offset+position; each ghost's global index is fetched from its
// owner by matching the identifier. It returns the ghost global indices and
// the ascending, deduplicated set of owner ranks.
func ComputeGhostIndices(ctx context.Context, c *comm.Comm, originalIndex []int64, ghostOwners []int) ([]int64, []int, error) {
	nghost := len(ghostOwners)
	if nghost > len(originalIndex) {
		return nil, nil, fmt.Errorf("%w: %d ghost owners for %d entries", ErrGhostMismatch, nghost, len(originalIndex))
	}
	nlocal := len(originalIndex) - nghost

	offset, err := c.ExclusiveScan(ctx, int64(nlocal))
	if err != nil {
		return nil, nil, fmt.Errorf("indexmap: ghost offset: %w", err)
	}

	owners := slices.Clone(ghostOwners)
	slices.Sort(owners)
	owners = slices.Compact(owners)

	requesters, err := c.ComputeGraphEdges(ctx, owners)
	if err != nil {
		return nil, nil, fmt.Errorf("indexmap: ghost neighbours: %w", err)
	}

	ask, err := c.NewNeighborhood(requesters, owners)
	if err != nil {
		return nil, nil, err
	}
	defer ask.Close()

	send := make([][]int64, len(owners))
	for i, p := range ghostOwners {
		slot, _ := slices.BinarySearch(owners, p)
		send[slot] = append(send[slot], originalIndex[nlocal+i])
	}
	queries, err := ask.AllToAll(ctx, send)
	if err != nil {
		return nil, nil, fmt.Errorf("indexmap: ghost query: %w", err)
	}

	position := make(map[int64]int64, nlocal)
	for i, id := range originalIndex[:nlocal] {
		position[id] = offset + int64(i)
	}
	replies := make([][]int64, len(requesters))
	for i, q := range queries {
		replies[i] = make([]int64, len(q))
		for j, id := range q {
			g, ok := position[id]
			if !ok {
				return nil, nil, fmt.Errorf("%w: rank %d asked for entry %d", ErrForeignIndex, requesters[i], id)
			}
			replies[i][j] = g
		}
	}

	answer, err := c.NewNeighborhood(owners, requesters)
	if err != nil {
		return nil, nil, err
	}
	defer answer.Close()

	recv, err := answer.AllToAll(ctx, replies)
	if err != nil {
		return nil, nil, fmt.Errorf("indexmap: ghost reply: %w", err)
	}

	ghosts := make([]int64, nghost)
	next := make([]int, len(owners))
	for i, p := range ghostOwners {
		slot, _ := slices.BinarySearch(owners, p)
		if next[slot] >= len(recv[slot]) {
			return nil, nil, fmt.Errorf("indexmap: ghost reply: rank %d answered %d of %d queries", p, len(recv[slot]), len(send[slot]))
		}
		ghosts[i] = recv[slot][next[slot]]
		next[slot]++
	}
	return ghosts, owners, nil
}
