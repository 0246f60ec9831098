package mqc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTableShape(t *testing.T) {
	// Annex C Table C.2 spot checks.
	assert.Equal(t, uint32(0x5601), qeTable[0])
	assert.Equal(t, uint32(0x5601), qeTable[46])
	assert.Equal(t, uint32(0x0001), qeTable[45])
	assert.Equal(t, uint8(46), nmpsTable[46])
	assert.Equal(t, uint8(46), nlpsTable[46])

	for s := 0; s < 47; s++ {
		assert.Less(t, nmpsTable[s], uint8(47), "state %d", s)
		assert.Less(t, nlpsTable[s], uint8(47), "state %d", s)
		assert.LessOrEqual(t, switchTable[s], uint8(1), "state %d", s)
	}
	// Only the states that re-estimate after the first LPS switch MPS.
	switched := 0
	for _, v := range switchTable {
		switched += int(v)
	}
	assert.Equal(t, 3, switched)
}

// Decoding the same segment with the same context initialization twice
// produces the identical bit sequence.
func TestDecodeDeterministic(t *testing.T) {
	data := []byte{0x84, 0xC7, 0x3B, 0xFC, 0xE1, 0xA1, 0x43, 0x04, 0x02, 0x20, 0x5C}

	run := func() []int {
		d := NewDecoder(data, 19)
		d.SetContextState(18, 46)
		d.SetContextState(17, 3)
		d.SetContextState(0, 4)
		bits := make([]int, 0, 200)
		for i := 0; i < 200; i++ {
			ctx := i % 19
			bits = append(bits, d.Decode(ctx))
		}
		return bits
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	for _, b := range first {
		require.True(t, b == 0 || b == 1)
	}
}

// An exhausted segment keeps producing bits from the synthesized 0xFF
// tail instead of running off the buffer.
func TestDecodeBeyondSegment(t *testing.T) {
	d := NewDecoder([]byte{0x00}, 19)
	for i := 0; i < 1000; i++ {
		bit := d.Decode(0)
		require.True(t, bit == 0 || bit == 1, "iteration %d", i)
	}
}

func TestDecodeEmptySegment(t *testing.T) {
	d := NewDecoder(nil, 19)
	for i := 0; i < 64; i++ {
		bit := d.Decode(i % 19)
		require.True(t, bit == 0 || bit == 1)
	}
}

func TestContextAdaptationIsPerContext(t *testing.T) {
	data := []byte{0xA0, 0x55, 0x3C, 0x99, 0x12, 0xEF}
	d := NewDecoder(data, 2)

	// Drive only context 0; context 1 must stay in its initial state.
	for i := 0; i < 50; i++ {
		d.Decode(0)
	}
	assert.Equal(t, uint8(0), d.contexts[1]&0x7F)
}

func TestResetContexts(t *testing.T) {
	d := NewDecoder([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 19)
	for i := 0; i < 40; i++ {
		d.Decode(0)
	}
	d.ResetContexts()
	for i := range d.contexts {
		assert.Equal(t, uint8(0), d.contexts[i])
	}
}
