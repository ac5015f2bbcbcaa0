package hash

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt64sMatchesCRC32C(t *testing.T) {
	key := []int64{3, -1, 1 << 40}
	buf := make([]byte, 0, 24)
	for _, v := range key {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
	}
	assert.Equal(t, CRC32C(buf), Int64s(key))
}

func TestRoute(t *testing.T) {
	assert.Equal(t, 0, Route([]int64{7, 9}, 1))
	assert.Equal(t, 0, Route([]int64{7, 9}, 0))
	for n := 2; n < 9; n++ {
		r := Route([]int64{7, 9}, n)
		assert.GreaterOrEqual(t, r, 0)
		assert.Less(t, r, n)
		assert.Equal(t, r, Route([]int64{7, 9}, n))
	}
}
