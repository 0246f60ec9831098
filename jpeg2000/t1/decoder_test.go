package t1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLabelsCoverNineteen(t *testing.T) {
	assert.Equal(t, 19, NumContexts)

	// Zero-coding context range over every orientation and neighbourhood.
	for i, v := range zcLUT {
		assert.LessOrEqual(t, v, uint8(8), "zcLUT[%d]", i)
	}
	// Sign contexts 9-13.
	for i, v := range scLUT {
		assert.GreaterOrEqual(t, v, uint8(9), "scLUT[%d]", i)
		assert.LessOrEqual(t, v, uint8(13), "scLUT[%d]", i)
	}
	for i, v := range spbLUT {
		assert.True(t, v == 0 || v == 1, "spbLUT[%d]", i)
	}
}

func TestZeroCodingContextNoNeighbours(t *testing.T) {
	for orient := 0; orient < 4; orient++ {
		assert.Equal(t, 0, zcContext(0, orient), "orientation %d", orient)
	}
}

func TestMagRefinementContexts(t *testing.T) {
	assert.Equal(t, 14, mrContext(0))
	assert.Equal(t, 15, mrContext(flagSigN))
	assert.Equal(t, 16, mrContext(flagRefine))
	assert.Equal(t, 16, mrContext(flagRefine|flagSigN))
}

func TestDecodeEmptyInput(t *testing.T) {
	d := NewDecoder(8, 8, 0)
	require.NoError(t, d.Decode(nil, 3, 5))
	for _, v := range d.Coefficients() {
		assert.Equal(t, int32(0), v)
	}
}

func TestDecodeZeroPasses(t *testing.T) {
	d := NewDecoder(4, 4, 0)
	require.NoError(t, d.Decode([]byte{0x12, 0x34}, 0, 7))
	for _, v := range d.Coefficients() {
		assert.Equal(t, int32(0), v)
	}
}

func TestDecodeRejectsUnsupportedStyles(t *testing.T) {
	for _, style := range []int{StyleLazy, StyleTermAll, StyleVSC} {
		d := NewDecoder(4, 4, style)
		err := d.Decode([]byte{0x00}, 1, 3)
		assert.ErrorIs(t, err, ErrUnsupportedStyle, "style 0x%02x", style)
	}
}

// For arbitrary segment bytes the decoder must uphold the structural
// invariants: decoding is deterministic, every coefficient's magnitude
// fits the decoded bit-planes, and the dimensions are respected.
func TestDecodeInvariantsOnArbitraryInput(t *testing.T) {
	segments := [][]byte{
		{0x00},
		{0xFF, 0x7F},
		{0x5A, 0xC3, 0x99, 0x10, 0x84, 0x21},
		{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
	}
	for si, seg := range segments {
		maxBitplane := 6
		decode := func() []int32 {
			d := NewDecoder(8, 12, 0)
			d.SetOrientation(2)
			require.NoError(t, d.Decode(seg, 9, maxBitplane))
			return d.Coefficients()
		}
		first := decode()
		second := decode()
		require.Len(t, first, 8*12, "segment %d", si)
		assert.Equal(t, first, second, "segment %d determinism", si)

		limit := int32(1) << uint(maxBitplane+1)
		for i, v := range first {
			mag := v
			if mag < 0 {
				mag = -mag
			}
			assert.Less(t, mag, limit, "segment %d coefficient %d", si, i)
		}
	}
}

// Orientation changes the context mapping, not the structural rules.
func TestDecodePerOrientation(t *testing.T) {
	seg := []byte{0x37, 0x91, 0xAC, 0x44, 0x0F}
	for orient := 0; orient < 4; orient++ {
		d := NewDecoder(6, 6, 0)
		d.SetOrientation(orient)
		require.NoError(t, d.Decode(seg, 6, 4))
		assert.Len(t, d.Coefficients(), 36)
	}
}
