package fabric

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/internal/directory"
)

// TripletWidth is the number of int64 values per encoded Triplet.
const TripletWidth = 3

var (
	// ErrNotNeighbor is returned when addressing a rank outside the fabric.
	ErrNotNeighbor = errors.New("fabric: rank is not a neighbour")

	// ErrMalformedPayload is returned for a payload that is not a whole number
	// of triplets.
	ErrMalformedPayload = errors.New("fabric: malformed triplet payload")
)

// Triplet announces the new global number of a vertex.
type Triplet struct {
	ID     int64
	Global int64
	Owner  int
}

// Fabric is the sparse exchange topology between ranks that share vertices.
// Sources and destinations are the same set, so every exchange is
// bidirectional.
type Fabric struct {
	rank      int
	nbr       *comm.Neighborhood
	neighbors *roaring.Bitmap
	ranks     []int
	slot      map[int]int
}

// New builds the fabric over the union of all sharing lists and extra,
// excluding this rank. Every rank of c must call New.
func New(c *comm.Comm, sharing *directory.Sharing, extra ...int) (*Fabric, error) {
	set := roaring.New()
	if sharing != nil {
		set.Or(sharing.Neighbors())
	}
	for _, p := range extra {
		set.Add(uint32(p))
	}
	set.Remove(uint32(c.Rank()))

	ranks := make([]int, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		ranks = append(ranks, int(it.Next()))
	}
	nbr, err := c.NewNeighborhood(ranks, ranks)
	if err != nil {
		return nil, fmt.Errorf("fabric: %w", err)
	}
	slot := make(map[int]int, len(ranks))
	for i, p := range ranks {
		slot[p] = i
	}
	return &Fabric{rank: c.Rank(), nbr: nbr, neighbors: set, ranks: ranks, slot: slot}, nil
}

// Neighbors returns the neighbour ranks in ascending order.
func (f *Fabric) Neighbors() []int { return f.ranks }

// Contains reports whether rank p is a neighbour.
func (f *Fabric) Contains(p int) bool { return f.neighbors.Contains(uint32(p)) }

// Close releases the underlying neighbourhood.
func (f *Fabric) Close() error { return f.nbr.Close() }

// SendOwnedNumbering is the owned-to-sharers round. For every id in ids
// (visited in ascending order) owned by this rank, it sends
// (id, global number, owner) to every other rank of the id's sharing list.
// numbering returns the global number of an owned id.
//
// It returns the triplets received, in neighbour order then payload order.
func (f *Fabric) SendOwnedNumbering(ctx context.Context, ids []int64, sharing *directory.Sharing, numbering func(id int64) (int64, bool)) ([]Triplet, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	out := make([][]Triplet, len(f.ranks))
	for _, id := range sorted {
		ranks := sharing.Ranks(id)
		if len(ranks) == 0 || ranks[0] != f.rank {
			continue
		}
		g, ok := numbering(id)
		if !ok {
			return nil, fmt.Errorf("fabric: owned id %d has no number", id)
		}
		for _, p := range ranks[1:] {
			s, ok := f.slot[p]
			if !ok {
				return nil, fmt.Errorf("%w: %d", ErrNotNeighbor, p)
			}
			out[s] = append(out[s], Triplet{ID: id, Global: g, Owner: f.rank})
		}
	}
	return f.exchange(ctx, out)
}

// ForwardGhostNumbering is the ghost-forwarding round. targets maps a vertex
// id to the ranks that hold a ghost copy of a cell containing it; lookup
// returns the vertex's global number and owner. Triplets are sent vertex
// ascending, then destination ascending.
func (f *Fabric) ForwardGhostNumbering(ctx context.Context, targets map[int64][]int, lookup func(id int64) (int64, int, bool)) ([]Triplet, error) {
	ids := make([]int64, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([][]Triplet, len(f.ranks))
	for _, id := range ids {
		g, owner, ok := lookup(id)
		if !ok {
			return nil, fmt.Errorf("fabric: forwarded id %d has no number", id)
		}
		dests := slices.Clone(targets[id])
		slices.Sort(dests)
		for _, p := range slices.Compact(dests) {
			if p == f.rank {
				continue
			}
			s, ok := f.slot[p]
			if !ok {
				return nil, fmt.Errorf("%w: %d", ErrNotNeighbor, p)
			}
			out[s] = append(out[s], Triplet{ID: id, Global: g, Owner: owner})
		}
	}
	return f.exchange(ctx, out)
}

func (f *Fabric) exchange(ctx context.Context, out [][]Triplet) ([]Triplet, error) {
	send := make([][]int64, len(out))
	for i, ts := range out {
		send[i] = EncodeTriplets(ts)
	}
	recv, err := f.nbr.AllToAll(ctx, send)
	if err != nil {
		return nil, fmt.Errorf("fabric: exchange: %w", err)
	}
	var all []Triplet
	for i, buf := range recv {
		ts, err := DecodeTriplets(buf)
		if err != nil {
			return nil, fmt.Errorf("fabric: from rank %d: %w", f.ranks[i], err)
		}
		all = append(all, ts...)
	}
	return all, nil
}

// EncodeTriplets flattens triplets into (id, global, owner) int64 groups.
func EncodeTriplets(ts []Triplet) []int64 {
	buf := make([]int64, 0, len(ts)*TripletWidth)
	for _, t := range ts {
		buf = append(buf, t.ID, t.Global, int64(t.Owner))
	}
	return buf
}

// DecodeTriplets reverses EncodeTriplets.
func DecodeTriplets(buf []int64) ([]Triplet, error) {
	if len(buf)%TripletWidth != 0 {
		return nil, fmt.Errorf("%w: %d values", ErrMalformedPayload, len(buf))
	}
	ts := make([]Triplet, len(buf)/TripletWidth)
	for i := range ts {
		b := buf[i*TripletWidth:]
		ts[i] = Triplet{ID: b[0], Global: b[1], Owner: int(b[2])}
	}
	return ts, nil
}
