package fabric

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/internal/directory"
)

func TestFabricRounds(t *testing.T) {
	roundA := make([][]Triplet, 3)
	roundB := make([][]Triplet, 3)
	neighbors := make([][]int, 3)

	err := comm.Run(context.Background(), 3, func(ctx context.Context, c *comm.Comm) error {
		// Vertex 5 is shared by every rank and owned by rank 0.
		sharing := directory.NewSharing(c.Rank(), map[int64][]int{5: {0, 2, 1}})
		f, err := New(c, sharing)
		if err != nil {
			return err
		}
		defer f.Close()
		neighbors[c.Rank()] = f.Neighbors()

		got, err := f.SendOwnedNumbering(ctx, []int64{5}, sharing, func(id int64) (int64, bool) {
			return 10, id == 5
		})
		if err != nil {
			return err
		}
		roundA[c.Rank()] = got

		targets := map[int64][]int{}
		if c.Rank() == 1 {
			targets[7] = []int{2, 2}
			targets[5] = []int{2}
		}
		got, err = f.ForwardGhostNumbering(ctx, targets, func(id int64) (int64, int, bool) {
			if id == 7 {
				return 13, 1, true
			}
			return 10, 0, true
		})
		roundB[c.Rank()] = got
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, neighbors[0])
	assert.Equal(t, []int{0, 2}, neighbors[1])

	assert.Empty(t, roundA[0])
	assert.Equal(t, []Triplet{{ID: 5, Global: 10, Owner: 0}}, roundA[1])
	assert.Equal(t, []Triplet{{ID: 5, Global: 10, Owner: 0}}, roundA[2])

	assert.Empty(t, roundB[0])
	assert.Empty(t, roundB[1])
	assert.Equal(t, []Triplet{{ID: 5, Global: 10, Owner: 0}, {ID: 7, Global: 13, Owner: 1}}, roundB[2])
}

func TestFabric_ExtraNeighbors(t *testing.T) {
	err := comm.Run(context.Background(), 2, func(ctx context.Context, c *comm.Comm) error {
		f, err := New(c, nil, 0, 1)
		if err != nil {
			return err
		}
		defer f.Close()
		if !f.Contains(1-c.Rank()) || f.Contains(c.Rank()) {
			return assert.AnError
		}
		_, err = f.ForwardGhostNumbering(ctx, nil, nil)
		return err
	})
	require.NoError(t, err)
}

func TestFabric_NotNeighbor(t *testing.T) {
	w := comm.NewWorld(2)
	defer w.Close()

	c := w.Comm(0)
	f, err := New(c, nil)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ForwardGhostNumbering(context.Background(), map[int64][]int{1: {1}}, func(int64) (int64, int, bool) {
		return 0, 0, true
	})
	assert.ErrorIs(t, err, ErrNotNeighbor)
}

func TestDecodeTriplets(t *testing.T) {
	ts := []Triplet{{ID: 1, Global: 2, Owner: 3}, {ID: -4, Global: 5, Owner: 0}}
	got, err := DecodeTriplets(EncodeTriplets(ts))
	require.NoError(t, err)
	assert.Equal(t, ts, got)

	_, err = DecodeTriplets([]int64{1, 2})
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
