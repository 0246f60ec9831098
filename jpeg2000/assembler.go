package jpeg2000

import (
	"github.com/jp2kit/go-jp2-codec/jpeg2000/codestream"
	"github.com/jp2kit/go-jp2-codec/jpeg2000/t2"
)

// Tile stitching: decoded tile-component planes are copied into dense
// per-component image planes. Components keep their own grid, so their
// image dimensions differ under sub-sampling.

type assembler struct {
	siz    *codestream.SIZSegment
	planes [][]int32 // [component][pixel]
	width  []int     // per-component image width
	height []int
}

func newAssembler(siz *codestream.SIZSegment) *assembler {
	n := int(siz.Csiz)
	a := &assembler{
		siz:    siz,
		planes: make([][]int32, n),
		width:  make([]int, n),
		height: make([]int, n),
	}
	for c := 0; c < n; c++ {
		r := componentImageRect(siz, c)
		a.width[c] = r.Dx()
		a.height[c] = r.Dy()
		a.planes[c] = make([]int32, r.Dx()*r.Dy())
	}
	return a
}

// componentImageRect returns the component's sample rectangle on its own
// grid: ceil of the image area by the sub-sampling factors.
func componentImageRect(siz *codestream.SIZSegment, c int) t2.Rect {
	dx := int(siz.Components[c].XRsiz)
	dy := int(siz.Components[c].YRsiz)
	return t2.Rect{
		X0: ceilDiv(int(siz.XOsiz), dx),
		Y0: ceilDiv(int(siz.YOsiz), dy),
		X1: ceilDiv(int(siz.Xsiz), dx),
		Y1: ceilDiv(int(siz.Ysiz), dy),
	}
}

// placeTile copies one tile's component planes into the image planes.
func (a *assembler) placeTile(tileIndex int, comps []*tileComponent, planes [][]int32) error {
	for c := range planes {
		if planes[c] == nil {
			continue
		}
		tc := comps[c]
		img := componentImageRect(a.siz, c)
		tw := tc.rect.Dx()
		th := tc.rect.Dy()
		if len(planes[c]) != tw*th {
			return tileError(tileIndex, c, codestreamError("tile", "plane size %d != %dx%d", len(planes[c]), tw, th))
		}
		for y := 0; y < th; y++ {
			dstY := tc.rect.Y0 - img.Y0 + y
			dst := a.planes[c][dstY*a.width[c]+tc.rect.X0-img.X0:]
			copy(dst[:tw], planes[c][y*tw:(y+1)*tw])
		}
	}
	return nil
}
