package pgx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jp2kit/go-jp2-codec/codec"
)

func TestWrite8Bit(t *testing.T) {
	var buf bytes.Buffer
	p := codec.Plane{
		Data:     []int32{0, 1, 127, 255},
		Width:    2,
		Height:   2,
		BitDepth: 8,
	}
	require.NoError(t, Write(&buf, p))

	want := append([]byte("PG ML + 8 2 2\n"), 0x00, 0x01, 0x7F, 0xFF)
	assert.Equal(t, want, buf.Bytes())
}

func TestWrite16BitSignedLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	p := codec.Plane{
		Data:     []int32{-1, 0x1234},
		Width:    2,
		Height:   1,
		BitDepth: 12,
		Signed:   true,
	}
	require.NoError(t, Write(&buf, p))

	want := append([]byte("PG ML - 12 2 1\n"), 0xFF, 0xFF, 0x34, 0x12)
	assert.Equal(t, want, buf.Bytes())
}

func TestWrite32Bit(t *testing.T) {
	var buf bytes.Buffer
	p := codec.Plane{
		Data:     []int32{0x01020304},
		Width:    1,
		Height:   1,
		BitDepth: 24,
	}
	require.NoError(t, Write(&buf, p))
	want := append([]byte("PG ML + 24 1 1\n"), 0x04, 0x03, 0x02, 0x01)
	assert.Equal(t, want, buf.Bytes())
}

func TestWriteRejectsBadPlane(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, codec.Plane{Data: []int32{1}, Width: 2, Height: 2, BitDepth: 8})
	assert.ErrorIs(t, err, codec.ErrInvalidParameter)

	err = Write(&buf, codec.Plane{Data: []int32{1}, Width: 1, Height: 1, BitDepth: 0})
	assert.ErrorIs(t, err, codec.ErrInvalidParameter)
}
