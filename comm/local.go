package comm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/meshtopo/internal/mailbox"
)

// World is an in-process group of ranks connected by mailboxes.
type World struct {
	boxes []*mailbox.Mailbox
}

// NewWorld creates a world of size ranks.
func NewWorld(size int) *World {
	boxes := make([]*mailbox.Mailbox, size)
	for i := range boxes {
		boxes[i] = mailbox.New()
	}
	return &World{boxes: boxes}
}

// Size returns the number of ranks.
func (w *World) Size() int { return len(w.boxes) }

// Comm returns a new communicator for rank.
func (w *World) Comm(rank int) *Comm {
	return New(&localTransport{rank: rank, w: w})
}

// Close wakes every blocked receive with an error.
func (w *World) Close() {
	for _, b := range w.boxes {
		b.Close()
	}
}

type localTransport struct {
	rank int
	w    *World
}

func (t *localTransport) Rank() int { return t.rank }

func (t *localTransport) Size() int { return len(t.w.boxes) }

func (t *localTransport) Send(ctx context.Context, dst int, seq uint64, payload []byte) error {
	if dst < 0 || dst >= len(t.w.boxes) {
		return fmt.Errorf("%w: %d", ErrRankOutOfRange, dst)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.w.boxes[dst].Deliver(t.rank, seq, payload)
}

func (t *localTransport) Recv(ctx context.Context, src int, seq uint64) ([]byte, error) {
	if src < 0 || src >= len(t.w.boxes) {
		return nil, fmt.Errorf("%w: %d", ErrRankOutOfRange, src)
	}
	return t.w.boxes[t.rank].Recv(ctx, src, seq)
}

func (t *localTransport) Close() error { return nil }

// Run executes fn once per rank of a fresh in-process world, each in its own
// goroutine, and waits for all of them. The first failing rank cancels the
// context of the others, so ranks blocked in a collective return instead of
// hanging.
func Run(ctx context.Context, size int, fn func(ctx context.Context, c *Comm) error) error {
	w := NewWorld(size)
	defer w.Close()

	g, ctx := errgroup.WithContext(ctx)
	for rank := range size {
		c := w.Comm(rank)
		g.Go(func() error {
			if err := fn(ctx, c); err != nil {
				return fmt.Errorf("rank %d: %w", rank, err)
			}
			return nil
		})
	}
	return g.Wait()
}
