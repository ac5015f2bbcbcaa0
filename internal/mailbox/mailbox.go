// Package mailbox matches incoming point-to-point messages with the receives
// waiting for them.
//
// Every message is addressed by (source rank, sequence number). Whichever side
// arrives first creates the slot; the other side completes it. A slot is used
// exactly once, so a mailbox never needs ordering guarantees from the
// underlying transport.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicate is returned when a second message arrives for an occupied slot.
var ErrDuplicate = errors.New("mailbox: duplicate message")

// ErrClosed is returned by Recv after Close.
var ErrClosed = errors.New("mailbox: closed")

type key struct {
	src int
	seq uint64
}

// Mailbox is safe for concurrent use.
type Mailbox struct {
	mu     sync.Mutex
	slots  map[key]chan []byte
	closed chan struct{}
	once   sync.Once
}

// New creates an empty mailbox.
func New() *Mailbox {
	return &Mailbox{
		slots:  make(map[key]chan []byte),
		closed: make(chan struct{}),
	}
}

func (m *Mailbox) slot(k key) chan []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.slots[k]
	if !ok {
		ch = make(chan []byte, 1)
		m.slots[k] = ch
	}
	return ch
}

// Deliver stores payload for (src, seq). It never blocks.
func (m *Mailbox) Deliver(src int, seq uint64, payload []byte) error {
	ch := m.slot(key{src, seq})
	select {
	case ch <- payload:
		return nil
	default:
		return fmt.Errorf("%w: source %d sequence %d", ErrDuplicate, src, seq)
	}
}

// Recv blocks until the message for (src, seq) arrives, ctx is done or the
// mailbox is closed.
func (m *Mailbox) Recv(ctx context.Context, src int, seq uint64) ([]byte, error) {
	k := key{src, seq}
	ch := m.slot(k)
	select {
	case payload := <-ch:
		m.mu.Lock()
		delete(m.slots, k)
		m.mu.Unlock()
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closed:
		return nil, ErrClosed
	}
}

// Pending returns the number of slots holding or awaiting a message.
func (m *Mailbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// Close wakes all pending receivers with ErrClosed.
func (m *Mailbox) Close() {
	m.once.Do(func() { close(m.closed) })
}
