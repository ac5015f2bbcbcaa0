package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// Magic identifies a meshtopo frame ("MTOP").
	Magic uint32 = 0x4d544f50
	// Version is the current frame layout version.
	Version uint16 = 1
	// HeaderLen is the size of the fixed frame header.
	HeaderLen = 28

	// FlagHandshake marks the first frame on a connection; Source is the
	// dialling rank and the payload is empty.
	FlagHandshake uint8 = 0x01
)

var (
	ErrShortHeader     = errors.New("wire: short frame header")
	ErrBadMagic        = errors.New("wire: bad frame magic")
	ErrBadVersion      = errors.New("wire: unsupported frame version")
	ErrPayloadTooLarge = errors.New("wire: payload too large")
)

// Header is the fixed frame header.
//
// Layout (big endian):
//
//	[0:4)   magic
//	[4:6)   version
//	[6:7)   flags
//	[7:8)   compression
//	[8:12)  source rank
//	[12:20) sequence
//	[20:24) raw (uncompressed) payload length
//	[24:28) encoded payload length
type Header struct {
	Magic       uint32
	Version     uint16
	Flags       uint8
	Compression Compression
	Source      uint32
	Sequence    uint64
	RawLen      uint32
	PayloadLen  uint32
}

// Frame is one complete wire message.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

// DefaultLimits allows payloads of up to 256 MiB.
func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 256 << 20}
}

// EncodeHeader serialises h.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = h.Flags
	buf[7] = byte(h.Compression)
	binary.BigEndian.PutUint32(buf[8:12], h.Source)
	binary.BigEndian.PutUint64(buf[12:20], h.Sequence)
	binary.BigEndian.PutUint32(buf[20:24], h.RawLen)
	binary.BigEndian.PutUint32(buf[24:28], h.PayloadLen)
	return buf
}

// DecodeHeader parses and validates a fixed header.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("wire: invalid header length: %d", len(b))
	}
	h := Header{
		Magic:       binary.BigEndian.Uint32(b[0:4]),
		Version:     binary.BigEndian.Uint16(b[4:6]),
		Flags:       b[6],
		Compression: Compression(b[7]),
		Source:      binary.BigEndian.Uint32(b[8:12]),
		Sequence:    binary.BigEndian.Uint64(b[12:20]),
		RawLen:      binary.BigEndian.Uint32(b[20:24]),
		PayloadLen:  binary.BigEndian.Uint32(b[24:28]),
	}
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: %#x", ErrBadMagic, h.Magic)
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	return h, nil
}

// WriteFrame compresses payload with c and writes one frame. Payloads that do
// not shrink are sent uncompressed.
func WriteFrame(w io.Writer, src uint32, seq uint64, flags uint8, payload []byte, c Compression, limits Limits) (int, error) {
	if uint64(len(payload)) > uint64(limits.MaxPayloadBytes) {
		return 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	body, used, err := Compress(payload, c)
	if err != nil {
		return 0, err
	}
	h := Header{
		Magic:       Magic,
		Version:     Version,
		Flags:       flags,
		Compression: used,
		Source:      src,
		Sequence:    seq,
		RawLen:      uint32(len(payload)),
		PayloadLen:  uint32(len(body)),
	}
	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return 0, err
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return 0, err
		}
	}
	return HeaderLen + len(body), nil
}

// ReadFrame reads one frame and returns it with the payload decompressed.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}
	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.PayloadLen > limits.MaxPayloadBytes || h.RawLen > limits.MaxPayloadBytes {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, max(h.PayloadLen, h.RawLen))
	}
	body := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return Frame{}, err
		}
	}
	payload, err := Decompress(body, h.Compression, int(h.RawLen))
	if err != nil {
		return Frame{}, err
	}
	return Frame{Header: h, Payload: payload}, nil
}
