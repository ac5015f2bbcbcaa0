package comm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/meshtopo/internal/wire"
)

var (
	// ErrClosed is returned when using a released communicator or neighbourhood.
	ErrClosed = errors.New("comm: closed")

	// ErrRankOutOfRange is returned for a rank outside [0, size).
	ErrRankOutOfRange = errors.New("comm: rank out of range")

	// ErrSizeMismatch is returned when a send buffer does not have one entry
	// per destination.
	ErrSizeMismatch = errors.New("comm: send buffer size mismatch")
)

// Transport moves tagged byte payloads between ranks.
//
// Send must not block waiting for the matching Recv. Recv blocks until the
// message from src carrying seq has arrived or ctx is done.
type Transport interface {
	Rank() int
	Size() int
	Send(ctx context.Context, dst int, seq uint64, payload []byte) error
	Recv(ctx context.Context, src int, seq uint64) ([]byte, error)
	Close() error
}

// Op is a reduction operator.
type Op uint8

const (
	// OpSum adds the contributions.
	OpSum Op = iota
	// OpMax keeps the largest contribution.
	OpMax
	// OpMin keeps the smallest contribution.
	OpMin
)

func (op Op) apply(a, b int64) int64 {
	switch op {
	case OpMax:
		return max(a, b)
	case OpMin:
		return min(a, b)
	default:
		return a + b
	}
}

// Stats counts traffic to other ranks (self messages are not counted).
type Stats struct {
	MessagesSent  int64
	MessagesRecv  int64
	BytesSent     int64
	BytesRecv     int64
	Collectives   int64
	Neighborhoods int64
}

// Comm is a communicator: a fixed group of ranks executing collectives.
//
// A Comm is used by a single goroutine. Every rank of the group must call the
// same collectives in the same order; each call consumes one sequence number
// and messages are matched by (source, sequence).
type Comm struct {
	t      Transport
	seq    uint64
	closed bool

	messagesSent  atomic.Int64
	messagesRecv  atomic.Int64
	bytesSent     atomic.Int64
	bytesRecv     atomic.Int64
	collectives   atomic.Int64
	neighborhoods atomic.Int64
}

// New wraps a transport in a communicator.
func New(t Transport) *Comm {
	return &Comm{t: t}
}

// Rank returns this process' rank.
func (c *Comm) Rank() int { return c.t.Rank() }

// Size returns the number of ranks.
func (c *Comm) Size() int { return c.t.Size() }

// Stats returns a snapshot of the traffic counters.
func (c *Comm) Stats() Stats {
	return Stats{
		MessagesSent:  c.messagesSent.Load(),
		MessagesRecv:  c.messagesRecv.Load(),
		BytesSent:     c.bytesSent.Load(),
		BytesRecv:     c.bytesRecv.Load(),
		Collectives:   c.collectives.Load(),
		Neighborhoods: c.neighborhoods.Load(),
	}
}

// Close releases the transport.
func (c *Comm) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	return c.t.Close()
}

func (c *Comm) next() (uint64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	c.seq++
	c.collectives.Add(1)
	return c.seq, nil
}

// exchange sends send[i] to dests[i] and receives one message from each of
// srcs, all under the same sequence number.
func (c *Comm) exchange(ctx context.Context, seq uint64, dests []int, send [][]int64, srcs []int) ([][]int64, error) {
	self := c.Rank()
	var selfPayload []int64
	for i, dst := range dests {
		if dst < 0 || dst >= c.Size() {
			return nil, fmt.Errorf("%w: %d", ErrRankOutOfRange, dst)
		}
		if dst == self {
			selfPayload = send[i]
			continue
		}
		buf := wire.EncodeInt64s(send[i])
		if err := c.t.Send(ctx, dst, seq, buf); err != nil {
			return nil, fmt.Errorf("comm: send to rank %d: %w", dst, err)
		}
		c.messagesSent.Add(1)
		c.bytesSent.Add(int64(len(buf)))
	}

	recv := make([][]int64, len(srcs))
	for i, src := range srcs {
		if src < 0 || src >= c.Size() {
			return nil, fmt.Errorf("%w: %d", ErrRankOutOfRange, src)
		}
		if src == self {
			recv[i] = append([]int64(nil), selfPayload...)
			continue
		}
		buf, err := c.t.Recv(ctx, src, seq)
		if err != nil {
			return nil, fmt.Errorf("comm: receive from rank %d: %w", src, err)
		}
		c.messagesRecv.Add(1)
		c.bytesRecv.Add(int64(len(buf)))
		values, err := wire.DecodeInt64s(buf)
		if err != nil {
			return nil, fmt.Errorf("comm: receive from rank %d: %w", src, err)
		}
		recv[i] = values
	}
	return recv, nil
}

func (c *Comm) allRanks() []int {
	ranks := make([]int, c.Size())
	for i := range ranks {
		ranks[i] = i
	}
	return ranks
}

// AllGather returns every rank's contribution, indexed by rank.
func (c *Comm) AllGather(ctx context.Context, v int64) ([]int64, error) {
	seq, err := c.next()
	if err != nil {
		return nil, err
	}
	ranks := c.allRanks()
	send := make([][]int64, len(ranks))
	for i := range send {
		send[i] = []int64{v}
	}
	recv, err := c.exchange(ctx, seq, ranks, send, ranks)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(recv))
	for p, r := range recv {
		if len(r) != 1 {
			return nil, fmt.Errorf("comm: all-gather: rank %d sent %d values", p, len(r))
		}
		out[p] = r[0]
	}
	return out, nil
}

// AllReduce combines v over all ranks with op and returns the result on every
// rank. The reduction is applied in rank order, so every rank computes the
// identical value.
func (c *Comm) AllReduce(ctx context.Context, v int64, op Op) (int64, error) {
	all, err := c.AllGather(ctx, v)
	if err != nil {
		return 0, err
	}
	acc := all[0]
	for _, x := range all[1:] {
		acc = op.apply(acc, x)
	}
	return acc, nil
}

// ExclusiveScan returns the sum of v over all ranks lower than this one.
// Rank 0 receives 0.
func (c *Comm) ExclusiveScan(ctx context.Context, v int64) (int64, error) {
	all, err := c.AllGather(ctx, v)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, x := range all[:c.Rank()] {
		sum += x
	}
	return sum, nil
}

// Barrier blocks until every rank has entered it.
func (c *Comm) Barrier(ctx context.Context) error {
	_, err := c.AllGather(ctx, 0)
	return err
}

// AllToAll sends send[p] to rank p and returns the data received from every
// rank, indexed by source rank. len(send) must equal Size.
func (c *Comm) AllToAll(ctx context.Context, send [][]int64) ([][]int64, error) {
	if len(send) != c.Size() {
		return nil, fmt.Errorf("%w: %d buffers for %d ranks", ErrSizeMismatch, len(send), c.Size())
	}
	seq, err := c.next()
	if err != nil {
		return nil, err
	}
	ranks := c.allRanks()
	return c.exchange(ctx, seq, ranks, send, ranks)
}

// ComputeGraphEdges returns, in ascending order, the ranks that listed this
// rank among their destinations. dests may contain duplicates.
func (c *Comm) ComputeGraphEdges(ctx context.Context, dests []int) ([]int, error) {
	send := make([][]int64, c.Size())
	for _, d := range dests {
		if d < 0 || d >= c.Size() {
			return nil, fmt.Errorf("%w: %d", ErrRankOutOfRange, d)
		}
		send[d] = []int64{1}
	}
	recv, err := c.AllToAll(ctx, send)
	if err != nil {
		return nil, err
	}
	var srcs []int
	for p, r := range recv {
		if len(r) > 0 {
			srcs = append(srcs, p)
		}
	}
	return srcs, nil
}
