package directory

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meshtopo/comm"
)

func TestIndexOwner(t *testing.T) {
	// 10 ids over 3 ranks: blocks of 4, 3, 3.
	want := []int{0, 0, 0, 0, 1, 1, 1, 2, 2, 2}
	for i, w := range want {
		assert.Equal(t, w, IndexOwner(3, uint64(i), 9), "index %d", i)
	}

	// Fewer ids than ranks.
	assert.Equal(t, 0, IndexOwner(4, 0, 1))
	assert.Equal(t, 1, IndexOwner(4, 1, 1))

	assert.Equal(t, 0, IndexOwner(1, 99, 99))
}

func TestIndexOwner_FullRange(t *testing.T) {
	for _, size := range []int{2, 3, 7} {
		assert.Equal(t, 0, IndexOwner(size, 0, math.MaxUint64), "size %d", size)
		assert.Equal(t, size-1, IndexOwner(size, math.MaxUint64, math.MaxUint64), "size %d", size)

		prev := 0
		for _, idx := range []uint64{1 << 20, 1 << 40, 1 << 62, 1 << 63, math.MaxUint64 - 1} {
			r := IndexOwner(size, idx, math.MaxUint64)
			assert.GreaterOrEqual(t, r, prev, "size %d index %d", size, idx)
			assert.Less(t, r, size)
			prev = r
		}
	}
	assert.Equal(t, 0, IndexOwner(1, math.MaxUint64, math.MaxUint64))
}

func runSharing(t *testing.T, ids [][]int64, seed uint64) []*Sharing {
	t.Helper()
	out := make([]*Sharing, len(ids))
	err := comm.Run(context.Background(), len(ids), func(ctx context.Context, c *comm.Comm) error {
		s, err := SharingRanks(ctx, c, ids[c.Rank()], seed)
		out[c.Rank()] = s
		return err
	})
	require.NoError(t, err)
	return out
}

func TestSharingRanks(t *testing.T) {
	ids := [][]int64{{1, 2}, {2, 3}, {2}}
	res := runSharing(t, ids, 0)

	assert.Equal(t, []int{0}, res[0].Ranks(1))
	assert.Equal(t, []int{1}, res[1].Ranks(3))

	shared := res[0].Ranks(2)
	assert.ElementsMatch(t, []int{0, 1, 2}, shared)
	assert.Equal(t, shared, res[1].Ranks(2))
	assert.Equal(t, shared, res[2].Ranks(2))

	owner, ok := res[2].Owner(2)
	require.True(t, ok)
	assert.Equal(t, shared[0], owner)

	_, ok = res[2].Owner(1)
	assert.False(t, ok)

	assert.Equal(t, []int64{1, 2}, res[0].IDs())
	nbrs := res[2].Neighbors()
	assert.Equal(t, []uint32{0, 1}, nbrs.ToArray())

	owned := 0
	for _, s := range res {
		owned += s.NumOwned()
	}
	assert.Equal(t, 3, owned)
}

func TestSharingRanks_Deterministic(t *testing.T) {
	ids := [][]int64{{0, 4, 8, 9}, {4, 8, 9}, {8, 9, 12}, {9, 12}}
	first := runSharing(t, ids, 7)
	for range 3 {
		again := runSharing(t, ids, 7)
		for r := range ids {
			for _, id := range ids[r] {
				assert.Equal(t, first[r].Ranks(id), again[r].Ranks(id))
			}
		}
	}
}

func TestSharingRanks_ExtremeIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  [][]int64
	}{
		{"max int64", [][]int64{{0, math.MaxInt64}, {math.MaxInt64}}},
		{"negative", [][]int64{{-100, 3}, {-100}}},
		{"all negative", [][]int64{{-4, -3, -2}, {-2, -1}}},
		{"full range", [][]int64{{math.MinInt64, 0}, {math.MinInt64, math.MaxInt64}, {0, math.MaxInt64}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runSharing(t, tt.ids, 0)

			holders := make(map[int64][]int)
			for r, ids := range tt.ids {
				for _, id := range ids {
					holders[id] = append(holders[id], r)
				}
			}
			for r, ids := range tt.ids {
				for _, id := range ids {
					assert.ElementsMatch(t, holders[id], res[r].Ranks(id), "rank %d id %d", r, id)
					assert.Equal(t, res[holders[id][0]].Ranks(id), res[r].Ranks(id))
				}
			}
		})
	}
}

func TestSharingRanks_EmptyRank(t *testing.T) {
	res := runSharing(t, [][]int64{{}, {5}, {5}}, 0)
	assert.Equal(t, 0, res[0].Len())
	assert.ElementsMatch(t, []int{1, 2}, res[1].Ranks(5))
}

func TestSharingRanks_NoIDsAnywhere(t *testing.T) {
	res := runSharing(t, [][]int64{{}, {}}, 0)
	assert.Equal(t, 0, res[0].Len())
	assert.Equal(t, 0, res[1].Len())
}

func TestSharingKeys(t *testing.T) {
	keys := [][]int64{
		{1, 2, 2, 3},
		{2, 3, 3, 4},
		{2, 3},
	}
	out := make([][][]int, len(keys))
	err := comm.Run(context.Background(), len(keys), func(ctx context.Context, c *comm.Comm) error {
		l, err := SharingKeys(ctx, c, keys[c.Rank()], 2, 3)
		out[c.Rank()] = l
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, out[0][0])
	assert.Equal(t, []int{1}, out[1][1])
	assert.ElementsMatch(t, []int{0, 1, 2}, out[2][0])
	assert.Equal(t, out[2][0], out[0][1])
	assert.Equal(t, out[2][0], out[1][0])
}

func TestSharingKeys_BadWidth(t *testing.T) {
	w := comm.NewWorld(1)
	defer w.Close()

	_, err := SharingKeys(context.Background(), w.Comm(0), []int64{1, 2, 3}, 2, 0)
	assert.ErrorIs(t, err, ErrKeyWidth)
	_, err = SharingKeys(context.Background(), w.Comm(0), nil, MaxKeyWidth+1, 0)
	assert.ErrorIs(t, err, ErrKeyWidth)
}
