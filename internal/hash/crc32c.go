package hash

import (
	"encoding/binary"
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Int64s hashes a compound key of int64 components in little-endian order.
func Int64s(key []int64) uint32 {
	var buf [8]byte
	var crc uint32
	for _, v := range key {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		crc = crc32.Update(crc, crc32cTable, buf[:])
	}
	return crc
}

// Route maps a compound key onto one of n buckets.
func Route(key []int64, n int) int {
	if n <= 1 {
		return 0
	}
	return int(Int64s(key) % uint32(n))
}
