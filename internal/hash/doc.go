// Package hash provides the CRC32-Castagnoli hashing used to route compound
// keys (sorted global vertex ids of an edge or face) to directory ranks.
//
// Go's crc32 package uses SSE4.2 or the ARM CRC extension when available, so
// routing costs are negligible next to the exchanges themselves.
package hash
