package t2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry(rect Rect, levels int) *Geometry {
	return &Geometry{
		TileComp:   rect,
		NumLevels:  levels,
		CodeBlockW: 6,
		CodeBlockH: 6,
	}
}

func TestBandRectCeilingRule(t *testing.T) {
	// Odd-width tile-component with an odd horizontal offset: the high-pass
	// sides subtract the half-step offset before the ceiling division.
	g := testGeometry(Rect{X0: 3, Y0: 0, X1: 8, Y1: 4}, 1)

	hl := g.BandRect(1, BandHL)
	assert.Equal(t, 3, hl.Dx(), "HL width") // ceil((8-1)/2)-ceil((3-1)/2)
	assert.Equal(t, 2, hl.Dy(), "HL height")

	lh := g.BandRect(1, BandLH)
	assert.Equal(t, 2, lh.Dx(), "LH width") // ceil(8/2)-ceil(3/2)
	assert.Equal(t, 2, lh.Dy(), "LH height")

	hh := g.BandRect(1, BandHH)
	assert.Equal(t, 3, hh.Dx(), "HH width")
	assert.Equal(t, 2, hh.Dy(), "HH height")
}

// For every tile-component the coefficient count across
// (LL_N, HL_r, LH_r, HH_r for r=1..N) equals the sample count.
func TestSubbandPartition(t *testing.T) {
	cases := []struct {
		rect   Rect
		levels int
	}{
		{Rect{0, 0, 64, 64}, 3},
		{Rect{0, 0, 13, 17}, 2},
		{Rect{3, 5, 16, 22}, 4},
		{Rect{1, 1, 2, 2}, 5},
		{Rect{7, 9, 100, 41}, 1},
	}
	for _, tc := range cases {
		g := testGeometry(tc.rect, tc.levels)
		total := g.BandRect(0, BandLL).Dx() * g.BandRect(0, BandLL).Dy()
		for r := 1; r <= tc.levels; r++ {
			for _, b := range g.Bands(r) {
				band := g.BandRect(r, b)
				total += band.Dx() * band.Dy()
			}
		}
		assert.Equal(t, tc.rect.Dx()*tc.rect.Dy(), total, "rect %+v levels %d", tc.rect, tc.levels)
	}
}

func TestCodeBlockGridBoundaries(t *testing.T) {
	// 100-wide band space with 64-wide nominal code-blocks anchored at
	// multiples of 64: blocks split at the anchoring boundary.
	g := &Geometry{
		TileComp:   Rect{0, 0, 200, 80},
		NumLevels:  1,
		CodeBlockW: 6,
		CodeBlockH: 6,
	}
	ncbx, ncby := g.CodeBlockGrid(1, BandHL, 0, 0)
	require.Equal(t, 2, ncbx)
	require.Equal(t, 1, ncby)

	first := g.CodeBlockRect(1, BandHL, 0, 0, 0, 0)
	second := g.CodeBlockRect(1, BandHL, 0, 0, 1, 0)
	assert.Equal(t, 64, first.Dx())
	assert.Equal(t, 36, second.Dx())
	assert.Equal(t, 40, first.Dy())
}

func TestPrecinctPartition(t *testing.T) {
	g := &Geometry{
		TileComp:   Rect{0, 0, 256, 256},
		NumLevels:  2,
		CodeBlockW: 6,
		CodeBlockH: 6,
		PrecinctW:  []int{6, 7, 7},
		PrecinctH:  []int{6, 7, 7},
	}
	// Resolution 2 spans 256x256 with 128-wide precincts.
	npx, npy := g.NumPrecincts(2)
	assert.Equal(t, 2, npx)
	assert.Equal(t, 2, npy)

	// In band space precincts halve to 64.
	p := g.BandPrecinctRect(2, BandHL, 1, 0)
	assert.Equal(t, Rect{X0: 64, Y0: 0, X1: 128, Y1: 64}, p)

	// Resolution 0 spans 64x64 with 64-wide precincts.
	npx, npy = g.NumPrecincts(0)
	assert.Equal(t, 1, npx)
	assert.Equal(t, 1, npy)

	// Code-blocks clamp to the band-space precinct size.
	ncbx, ncby := g.CodeBlockGrid(2, BandHL, 0, 0)
	assert.Equal(t, 1, ncbx)
	assert.Equal(t, 1, ncby)
}
