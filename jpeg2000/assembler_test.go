package jpeg2000

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jp2kit/go-jp2-codec/jpeg2000/codestream"
	"github.com/jp2kit/go-jp2-codec/jpeg2000/t2"
)

func sizFor(w, h, tw, th uint32, comps []codestream.ComponentSize) *codestream.SIZSegment {
	return &codestream.SIZSegment{
		Xsiz: w, Ysiz: h,
		XTsiz: tw, YTsiz: th,
		Csiz:       uint16(len(comps)),
		Components: comps,
	}
}

func TestComponentImageRectSubsampling(t *testing.T) {
	siz := sizFor(9, 9, 9, 9, []codestream.ComponentSize{
		{Ssiz: 7, XRsiz: 1, YRsiz: 1},
		{Ssiz: 7, XRsiz: 2, YRsiz: 2},
	})
	full := componentImageRect(siz, 0)
	assert.Equal(t, 9, full.Dx())
	assert.Equal(t, 9, full.Dy())

	sub := componentImageRect(siz, 1)
	assert.Equal(t, 5, sub.Dx(), "ceil(9/2)")
	assert.Equal(t, 5, sub.Dy())
}

func TestPlaceTileStitching(t *testing.T) {
	siz := sizFor(4, 2, 2, 2, []codestream.ComponentSize{{Ssiz: 7, XRsiz: 1, YRsiz: 1}})
	asm := newAssembler(siz)

	left := &tileComponent{idx: 0, rect: t2.Rect{X0: 0, Y0: 0, X1: 2, Y1: 2}}
	right := &tileComponent{idx: 0, rect: t2.Rect{X0: 2, Y0: 0, X1: 4, Y1: 2}}

	require.NoError(t, asm.placeTile(0, []*tileComponent{left}, [][]int32{{1, 2, 3, 4}}))
	require.NoError(t, asm.placeTile(1, []*tileComponent{right}, [][]int32{{5, 6, 7, 8}}))

	assert.Equal(t, []int32{1, 2, 5, 6, 3, 4, 7, 8}, asm.planes[0])
}

func TestPlaceTileSizeMismatch(t *testing.T) {
	siz := sizFor(4, 2, 2, 2, []codestream.ComponentSize{{Ssiz: 7, XRsiz: 1, YRsiz: 1}})
	asm := newAssembler(siz)
	tc := &tileComponent{idx: 0, rect: t2.Rect{X0: 0, Y0: 0, X1: 2, Y1: 2}}
	err := asm.placeTile(0, []*tileComponent{tc}, [][]int32{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrMalformed)
}
