package colorspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRCTRoundTrip(t *testing.T) {
	r := []int32{0, 255, 17, -80, 128}
	g := []int32{0, 255, 250, 3, -128}
	b := []int32{0, 255, 99, -1, 64}

	c0 := append([]int32(nil), r...)
	c1 := append([]int32(nil), g...)
	c2 := append([]int32(nil), b...)

	ForwardRCT(c0, c1, c2)
	InverseRCT(c0, c1, c2)

	assert.Equal(t, r, c0)
	assert.Equal(t, g, c1)
	assert.Equal(t, b, c2)
}

func TestRCTGreyStaysGrey(t *testing.T) {
	c0 := []int32{100, 100}
	c1 := []int32{100, 100}
	c2 := []int32{100, 100}
	ForwardRCT(c0, c1, c2)
	assert.Equal(t, []int32{100, 100}, c0, "luma of grey equals the grey")
	assert.Equal(t, []int32{0, 0}, c1)
	assert.Equal(t, []int32{0, 0}, c2)
}

func TestICTRoundTripApproximate(t *testing.T) {
	r := []int32{0, 255, 17, 200, 128}
	g := []int32{0, 255, 250, 3, 127}
	b := []int32{0, 255, 99, 45, 126}

	c0 := append([]int32(nil), r...)
	c1 := append([]int32(nil), g...)
	c2 := append([]int32(nil), b...)

	ForwardICT(c0, c1, c2)
	InverseICT(c0, c1, c2)

	for i := range r {
		assert.InDelta(t, r[i], c0[i], 2, "red %d", i)
		assert.InDelta(t, g[i], c1[i], 2, "green %d", i)
		assert.InDelta(t, b[i], c2[i], 2, "blue %d", i)
	}
}
