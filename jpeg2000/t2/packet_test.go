package t2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNumPasses(t *testing.T) {
	cases := []struct {
		bits  []byte
		wantN int
	}{
		{[]byte{0b00000000}, 1},
		{[]byte{0b10000000}, 2},
		{[]byte{0b11000000}, 3},
		{[]byte{0b11010000}, 4},
		{[]byte{0b11100000}, 5},
		{[]byte{0b11110000, 0b00000000}, 6},
		{[]byte{0b11111111, 0b00000000}, 36}, // 11 11 11110 -> 6+30
		{[]byte{0b11111111, 0b01000000, 0}, 37}, // 9 ones then 7 zeros
		// 16 one-bits with the stuffed follower of the 0xFF byte.
		{[]byte{0b11111111, 0b01111111, 0b10000000}, 164},
	}
	for _, tc := range cases {
		hr := newHeaderReader(tc.bits)
		n, err := decodeNumPasses(hr)
		require.NoError(t, err)
		assert.Equal(t, tc.wantN, n, "bits %08b", tc.bits)
	}
}

func singleBlockGeometry() *Geometry {
	// 4x4 tile-component, no decomposition: one LL code-block.
	return &Geometry{
		TileComp:   Rect{0, 0, 4, 4},
		NumLevels:  0,
		CodeBlockW: 6,
		CodeBlockH: 6,
	}
}

func TestNextPacketEmpty(t *testing.T) {
	geos := []*Geometry{singleBlockGeometry()}
	p := NewPacketParser([]byte{0x00, 0xAB}, geos, 1, false, false)

	contribs, err := p.NextPacket(0, 0, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, contribs)
	assert.Equal(t, 1, p.Pos(), "empty packet is a single aligned zero byte")
}

func TestNextPacketSingleBlock(t *testing.T) {
	// Header bits: present=1, inclusion=1 (tag tree value 0), zero
	// bit-planes=1 (value 0), passes="0" (one), Lblock stop=0, then
	// 3 length bits 101 (5 bytes). Packed: 1110 0101 = 0xE5.
	body := []byte{0x11, 0x22, 0x33, 0x44, 0x55}
	data := append([]byte{0xE5}, body...)

	geos := []*Geometry{singleBlockGeometry()}
	p := NewPacketParser(data, geos, 2, false, false)

	contribs, err := p.NextPacket(0, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, contribs, 1)

	c := contribs[0]
	assert.Equal(t, BandLL, c.Band)
	assert.True(t, c.FirstInclusion)
	assert.Equal(t, 0, c.ZeroBitPlanes)
	assert.Equal(t, 1, c.NumPasses)
	assert.Equal(t, 0, c.PassesBefore)
	assert.Equal(t, body, c.Data)
	assert.Equal(t, len(data), p.Pos())
}

func TestNextPacketSecondLayerReuse(t *testing.T) {
	// Layer 0 as above; layer 1 re-includes the block with one more pass:
	// bits: present=1, inclusion bit=1 (already-included path), passes=0,
	// Lblock stop=0, 3 length bits 010 (2 bytes) -> 1100 0100 = 0xC4.
	layer0 := append([]byte{0xE5}, 0x11, 0x22, 0x33, 0x44, 0x55)
	layer1 := append([]byte{0xC4}, 0xAA, 0xBB)
	data := append(layer0, layer1...)

	geos := []*Geometry{singleBlockGeometry()}
	p := NewPacketParser(data, geos, 2, false, false)

	_, err := p.NextPacket(0, 0, 0, 0)
	require.NoError(t, err)

	contribs, err := p.NextPacket(1, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, contribs, 1)
	assert.False(t, contribs[0].FirstInclusion)
	assert.Equal(t, 1, contribs[0].PassesBefore)
	assert.Equal(t, []byte{0xAA, 0xBB}, contribs[0].Data)
}

func TestNextPacketSOPEPH(t *testing.T) {
	// SOP(FF91 0004 seq=7), then the single-block packet, EPH after the
	// header.
	packet := []byte{0xE5, 0xFF, 0x92, 0x11, 0x22, 0x33, 0x44, 0x55}
	data := append([]byte{0xFF, 0x91, 0x00, 0x04, 0x00, 0x07}, packet...)

	geos := []*Geometry{singleBlockGeometry()}
	p := NewPacketParser(data, geos, 1, true, true)

	contribs, err := p.NextPacket(0, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, contribs, 1)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44, 0x55}, contribs[0].Data)
	assert.Equal(t, len(data), p.Pos())
}

func TestNextPacketTruncatedBody(t *testing.T) {
	data := []byte{0xE5, 0x11} // header promises 5 body bytes
	geos := []*Geometry{singleBlockGeometry()}
	p := NewPacketParser(data, geos, 1, false, false)

	_, err := p.NextPacket(0, 0, 0, 0)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestNextPacketAtEndOfData(t *testing.T) {
	geos := []*Geometry{singleBlockGeometry()}
	p := NewPacketParser(nil, geos, 1, false, false)
	contribs, err := p.NextPacket(0, 0, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, contribs)
}
