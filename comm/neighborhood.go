package comm

import (
	"context"
	"fmt"
	"slices"
)

// Neighborhood is a sparse communication topology over a Comm: this rank
// receives only from Sources and sends only to Destinations.
//
// Exchanges on a Neighborhood are collective over the parent Comm: every rank
// of the group calls AllToAll (possibly with no neighbours) the same number of
// times. A Neighborhood is a scoped resource; Close it when the exchange
// protocol is done.
type Neighborhood struct {
	c      *Comm
	srcs   []int
	dests  []int
	closed bool
}

// NewNeighborhood declares the ranks this rank exchanges with. Both lists are
// sorted and deduplicated; self is allowed.
func (c *Comm) NewNeighborhood(sources, destinations []int) (*Neighborhood, error) {
	if c.closed {
		return nil, ErrClosed
	}
	norm := func(r []int) ([]int, error) {
		out := slices.Clone(r)
		slices.Sort(out)
		out = slices.Compact(out)
		for _, p := range out {
			if p < 0 || p >= c.Size() {
				return nil, fmt.Errorf("%w: %d", ErrRankOutOfRange, p)
			}
		}
		return out, nil
	}
	srcs, err := norm(sources)
	if err != nil {
		return nil, err
	}
	dests, err := norm(destinations)
	if err != nil {
		return nil, err
	}
	c.neighborhoods.Add(1)
	return &Neighborhood{c: c, srcs: srcs, dests: dests}, nil
}

// Sources returns the ranks this rank receives from.
func (n *Neighborhood) Sources() []int { return n.srcs }

// Destinations returns the ranks this rank sends to.
func (n *Neighborhood) Destinations() []int { return n.dests }

// AllToAll sends send[i] to Destinations()[i] and returns one buffer per
// source, in Sources() order.
func (n *Neighborhood) AllToAll(ctx context.Context, send [][]int64) ([][]int64, error) {
	if n.closed {
		return nil, ErrClosed
	}
	if len(send) != len(n.dests) {
		return nil, fmt.Errorf("%w: %d buffers for %d neighbours", ErrSizeMismatch, len(send), len(n.dests))
	}
	seq, err := n.c.next()
	if err != nil {
		return nil, err
	}
	return n.c.exchange(ctx, seq, n.dests, send, n.srcs)
}

// Close releases the neighbourhood. It is safe to call more than once.
func (n *Neighborhood) Close() error {
	n.closed = true
	return nil
}
