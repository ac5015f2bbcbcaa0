package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverThenRecv(t *testing.T) {
	m := New()
	require.NoError(t, m.Deliver(1, 7, []byte("a")))
	got, err := m.Recv(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)
	assert.Equal(t, 0, m.Pending())
}

func TestRecvThenDeliver(t *testing.T) {
	m := New()
	done := make(chan []byte)
	go func() {
		got, _ := m.Recv(context.Background(), 0, 1)
		done <- got
	}()
	require.NoError(t, m.Deliver(0, 1, []byte("b")))
	select {
	case got := <-done:
		assert.Equal(t, []byte("b"), got)
	case <-time.After(5 * time.Second):
		t.Fatal("receive did not complete")
	}
}

func TestDuplicate(t *testing.T) {
	m := New()
	require.NoError(t, m.Deliver(0, 1, nil))
	assert.ErrorIs(t, m.Deliver(0, 1, nil), ErrDuplicate)
	require.NoError(t, m.Deliver(0, 2, nil))
	assert.Equal(t, 2, m.Pending())
}

func TestRecvCancelAndClose(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Recv(ctx, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)

	m.Close()
	m.Close()
	_, err = m.Recv(context.Background(), 0, 2)
	assert.ErrorIs(t, err, ErrClosed)
}
