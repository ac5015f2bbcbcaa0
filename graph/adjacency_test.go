package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, err := New([]int64{1, 2, 3}, []int32{0, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, a.NumNodes())
	assert.Equal(t, []int64{1, 2}, a.Links(0))
	assert.Equal(t, 1, a.NumLinks(1))

	empty, err := New[int32](nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumNodes())

	_, err = New([]int64{1}, []int32{0, 2})
	assert.ErrorIs(t, err, ErrInvalidOffsets)
	_, err = New([]int64{1, 2}, []int32{0, 2, 1, 2})
	assert.ErrorIs(t, err, ErrInvalidOffsets)
}

func TestUniform(t *testing.T) {
	a, err := Uniform([]int32{0, 1, 1, 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 2, 4}, a.Offsets())

	_, err = Uniform([]int32{0, 1, 2}, 2)
	assert.ErrorIs(t, err, ErrInvalidOffsets)
}

func TestFromListsAndHead(t *testing.T) {
	a := FromLists([][]int64{{0, 1}, {1, 2, 3}, {}})
	assert.Equal(t, 3, a.NumNodes())
	assert.Equal(t, 0, a.NumLinks(2))

	h := a.Head(1)
	assert.Equal(t, 1, h.NumNodes())
	assert.Equal(t, []int64{0, 1}, h.Array())
	assert.True(t, h.Equal(FromLists([][]int64{{0, 1}})))
	assert.False(t, h.Equal(a))
}

func TestIdentityAndTranspose(t *testing.T) {
	id := Identity[int32](3)
	assert.Equal(t, []int32{1}, id.Links(1))

	cells := FromLists([][]int32{{0, 1}, {1, 2}})
	vc := Transpose(cells, 4)
	assert.Equal(t, 4, vc.NumNodes())
	assert.Equal(t, []int32{0}, vc.Links(0))
	assert.Equal(t, []int32{0, 1}, vc.Links(1))
	assert.Equal(t, []int32{1}, vc.Links(2))
	assert.Empty(t, vc.Links(3))
}

func TestNilAndString(t *testing.T) {
	var a *AdjacencyList[int32]
	assert.Equal(t, 0, a.NumNodes())
	assert.True(t, a.Equal(nil))
	assert.Equal(t, "<AdjacencyList 0:[1 2]>", FromLists([][]int32{{1, 2}}).String())
}
