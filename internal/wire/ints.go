package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Int64Size is the encoded width of one integer.
const Int64Size = 8

// ErrMisaligned is returned when a payload is not a whole number of integers.
var ErrMisaligned = errors.New("wire: payload is not a multiple of 8 bytes")

// EncodeInt64s encodes values as fixed-width little-endian integers.
func EncodeInt64s(values []int64) []byte {
	buf := make([]byte, len(values)*Int64Size)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*Int64Size:], uint64(v))
	}
	return buf
}

// DecodeInt64s decodes a payload produced by EncodeInt64s.
func DecodeInt64s(buf []byte) ([]int64, error) {
	if len(buf)%Int64Size != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMisaligned, len(buf))
	}
	values := make([]int64, len(buf)/Int64Size)
	for i := range values {
		values[i] = int64(binary.LittleEndian.Uint64(buf[i*Int64Size:]))
	}
	return values, nil
}
