package directory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/internal/hash"
)

// MaxKeyWidth is the largest number of components of a compound key.
const MaxKeyWidth = 4

var (
	// ErrKeyWidth is returned for a compound key width outside [1, MaxKeyWidth].
	ErrKeyWidth = errors.New("directory: invalid key width")

	// ErrMalformedReply is returned when a directory rank answers with a
	// payload that does not match the request.
	ErrMalformedReply = errors.New("directory: malformed reply")
)

type key [MaxKeyWidth]int64

func compareKeys(a, b key) int {
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// IndexOwner returns the rank that holds index in a block distribution of
// the indices [0, last] over size ranks. The first (last+1)%size ranks hold
// one extra index. last may be math.MaxUint64.
func IndexOwner(size int, index, last uint64) int {
	if size <= 1 {
		return 0
	}
	s := uint64(size)
	// Block and remainder of last+1 without forming last+1.
	q, r := last/s, last%s
	block := q + (r+1)/s
	rem := (r + 1) % s
	head := rem * (block + 1)
	if index < head {
		return int(index / (block + 1))
	}
	return int(rem + (index-head)/block)
}

// NewRand returns the generator used to order sharing lists for one protocol
// run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// post runs the post-office exchange: each key is sent to the directory rank
// chosen by route, the directory rank collects, per key, the requesting ranks
// in ascending rank order, shuffles each list with a generator seeded from
// seed (keys visited in ascending order) and replies with the list to every
// requester. The result is aligned with keys.
func post(ctx context.Context, c *comm.Comm, keys []key, width int, route func(key) int, seed uint64) ([][]int, error) {
	size := c.Size()

	send := make([][]int64, size)
	dests := make([]int, len(keys))
	for i, k := range keys {
		d := route(k)
		dests[i] = d
		send[d] = append(send[d], k[:width]...)
	}
	requests, err := c.AllToAll(ctx, send)
	if err != nil {
		return nil, fmt.Errorf("directory: request: %w", err)
	}

	sharers := make(map[key][]int)
	for src, buf := range requests {
		if len(buf)%width != 0 {
			return nil, fmt.Errorf("%w: %d values from rank %d for width %d", ErrMalformedReply, len(buf), src, width)
		}
		for j := 0; j < len(buf); j += width {
			var k key
			copy(k[:], buf[j:j+width])
			sharers[k] = append(sharers[k], src)
		}
	}

	held := make([]key, 0, len(sharers))
	for k := range sharers {
		held = append(held, k)
	}
	slices.SortFunc(held, compareKeys)
	rng := NewRand(seed)
	for _, k := range held {
		ranks := sharers[k]
		rng.Shuffle(len(ranks), func(i, j int) { ranks[i], ranks[j] = ranks[j], ranks[i] })
	}

	replies := make([][]int64, size)
	for src, buf := range requests {
		for j := 0; j < len(buf); j += width {
			var k key
			copy(k[:], buf[j:j+width])
			ranks := sharers[k]
			replies[src] = append(replies[src], int64(len(ranks)))
			for _, r := range ranks {
				replies[src] = append(replies[src], int64(r))
			}
		}
	}
	answers, err := c.AllToAll(ctx, replies)
	if err != nil {
		return nil, fmt.Errorf("directory: reply: %w", err)
	}

	out := make([][]int, len(keys))
	pos := make([]int, size)
	for i, d := range dests {
		buf := answers[d]
		p := pos[d]
		if p >= len(buf) {
			return nil, fmt.Errorf("%w: rank %d answered too few keys", ErrMalformedReply, d)
		}
		n := int(buf[p])
		if n <= 0 || p+1+n > len(buf) {
			return nil, fmt.Errorf("%w: rank %d sent a list of %d ranks", ErrMalformedReply, d, n)
		}
		ranks := make([]int, n)
		for j := range n {
			ranks[j] = int(buf[p+1+j])
		}
		out[i] = ranks
		pos[d] = p + 1 + n
	}
	return out, nil
}

// SharingRanks discovers, for every id in ids, the ranks that also passed it
// and agrees on an owner. ids must not contain duplicates. Every rank of c
// must call SharingRanks with the same seed, ids may be empty.
//
// Any int64 is a valid id. The address space runs from the smallest to the
// largest id on any rank; ids are routed to directory ranks with IndexOwner on
// their unsigned offset from the smallest.
func SharingRanks(ctx context.Context, c *comm.Comm, ids []int64, seed uint64) (*Sharing, error) {
	localMin, localMax := int64(math.MaxInt64), int64(math.MinInt64)
	for _, id := range ids {
		localMin = min(localMin, id)
		localMax = max(localMax, id)
	}
	globalMin, err := c.AllReduce(ctx, localMin, comm.OpMin)
	if err != nil {
		return nil, fmt.Errorf("directory: address space: %w", err)
	}
	globalMax, err := c.AllReduce(ctx, localMax, comm.OpMax)
	if err != nil {
		return nil, fmt.Errorf("directory: address space: %w", err)
	}
	// Two's complement subtraction gives the exact offset for every pair.
	last := uint64(globalMax) - uint64(globalMin)
	size := c.Size()

	keys := make([]key, len(ids))
	for i, id := range ids {
		keys[i][0] = id
	}
	lists, err := post(ctx, c, keys, 1, func(k key) int {
		return IndexOwner(size, uint64(k[0])-uint64(globalMin), last)
	}, seed)
	if err != nil {
		return nil, err
	}

	s := &Sharing{rank: c.Rank(), ranks: make(map[int64][]int, len(ids))}
	for i, id := range ids {
		s.ranks[id] = lists[i]
	}
	return s, nil
}

// SharingKeys is SharingRanks for compound keys. keys is a flat array of
// len(keys)/width keys of width components each; callers sort the components
// of each key so that every holder names it identically. Keys are routed by
// their CRC32C hash. The result holds one ordered sharing list per key.
func SharingKeys(ctx context.Context, c *comm.Comm, keys []int64, width int, seed uint64) ([][]int, error) {
	if width < 1 || width > MaxKeyWidth || len(keys)%width != 0 {
		return nil, fmt.Errorf("%w: %d values of width %d", ErrKeyWidth, len(keys), width)
	}
	packed := make([]key, len(keys)/width)
	for i := range packed {
		copy(packed[i][:], keys[i*width:(i+1)*width])
	}
	return post(ctx, c, packed, width, func(k key) int {
		return hash.Route(k[:width], c.Size())
	}, seed)
}
