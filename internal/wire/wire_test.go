package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64s(t *testing.T) {
	in := []int64{0, -1, 1 << 40, 42}
	out, err := DecodeInt64s(EncodeInt64s(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeInt64s([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestCompression(t *testing.T) {
	data := EncodeInt64s(make([]int64, 512))
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			body, used, err := Compress(data, c)
			require.NoError(t, err)
			assert.Equal(t, c, used)
			if c != CompressionNone {
				assert.Less(t, len(body), len(data))
			}
			out, err := Decompress(body, used, len(data))
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}

	small, used, err := Compress([]byte{1, 2, 3}, CompressionZSTD)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, used)
	assert.Equal(t, []byte{1, 2, 3}, small)

	_, err = Decompress([]byte{1}, CompressionNone, 2)
	assert.ErrorIs(t, err, ErrSizeMismatch)
	_, _, err = Compress(data, Compression(9))
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("LZ4")
	require.NoError(t, err)
	assert.Equal(t, CompressionLZ4, c)
	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)
	_, err = ParseCompression("snappy")
	assert.ErrorIs(t, err, ErrUnknownCompression)
	assert.Equal(t, "compression(7)", Compression(7).String())
}

func TestFrame(t *testing.T) {
	payload := EncodeInt64s(make([]int64, 100))
	var buf bytes.Buffer
	n, err := WriteFrame(&buf, 3, 99, 0, payload, CompressionZSTD, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)

	f, err := ReadFrame(&buf, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), f.Header.Source)
	assert.Equal(t, uint64(99), f.Header.Sequence)
	assert.Equal(t, CompressionZSTD, f.Header.Compression)
	assert.Equal(t, payload, f.Payload)
}

func TestFrame_Handshake(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteFrame(&buf, 1, 0, FlagHandshake, nil, CompressionLZ4, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, HeaderLen, buf.Len())
	f, err := ReadFrame(&buf, DefaultLimits())
	require.NoError(t, err)
	assert.NotZero(t, f.Header.Flags&FlagHandshake)
	assert.Empty(t, f.Payload)
}

func TestFrame_Errors(t *testing.T) {
	limits := Limits{MaxPayloadBytes: 8}
	_, err := WriteFrame(&bytes.Buffer{}, 0, 1, 0, make([]byte, 16), CompressionNone, limits)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	var buf bytes.Buffer
	_, err = WriteFrame(&buf, 0, 1, 0, make([]byte, 16), CompressionNone, DefaultLimits())
	require.NoError(t, err)
	_, err = ReadFrame(bytes.NewReader(buf.Bytes()), limits)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = ReadFrame(bytes.NewReader(buf.Bytes()[:10]), DefaultLimits())
	assert.ErrorIs(t, err, ErrShortHeader)

	bad := bytes.Clone(buf.Bytes())
	bad[0] = 0
	_, err = ReadFrame(bytes.NewReader(bad), DefaultLimits())
	assert.ErrorIs(t, err, ErrBadMagic)

	h := EncodeHeader(Header{Magic: Magic, Version: 9})
	_, err = DecodeHeader(h)
	assert.ErrorIs(t, err, ErrBadVersion)
}
