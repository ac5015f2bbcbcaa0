// Package wire implements the byte-level encodings used between ranks:
// fixed-width integer payloads, the TCP frame format and optional LZ4/zstd
// payload compression.
package wire
