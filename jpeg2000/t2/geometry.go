package t2

// Coordinate derivations for resolutions, subbands, precincts and
// code-blocks on the reference grid.
// Reference: ISO/IEC 15444-1:2019 Annex B.5-B.7
//
// Every rectangle is half-open: [X0, X1) x [Y0, Y1). All grids derive from
// the tile-component rectangle; nothing is stored redundantly.

// Rect is a half-open rectangle on some grid.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Dx returns the rectangle width.
func (r Rect) Dx() int { return r.X1 - r.X0 }

// Dy returns the rectangle height.
func (r Rect) Dy() int { return r.Y1 - r.Y0 }

// Empty reports whether the rectangle contains no samples.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Band identifies a subband orientation within a resolution level.
type Band int

// Subband orientations. The zero-coding context tables index by this order.
const (
	BandLL Band = iota
	BandHL
	BandLH
	BandHH
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandLL:
		return "LL"
	case BandHL:
		return "HL"
	case BandLH:
		return "LH"
	case BandHH:
		return "HH"
	}
	return "??"
}

// Geometry derives all per-resolution grids for one tile-component.
type Geometry struct {
	TileComp Rect // tile-component rectangle on the component grid

	NumLevels int // decomposition level count N

	// Nominal code-block size exponents (xcb, ycb).
	CodeBlockW int
	CodeBlockH int

	// Precinct size exponents per resolution level (PPx, PPy); when a level
	// has no entry the maximal size 2^15 applies.
	PrecinctW []int
	PrecinctH []int
}

func ceilDiv(a, b int) int {
	if a >= 0 {
		return (a + b - 1) / b
	}
	return -((-a) / b)
}

func floorDiv(a, b int) int {
	if a >= 0 {
		return a / b
	}
	return -ceilDiv(-a, b)
}

// NumResolutions returns N+1.
func (g *Geometry) NumResolutions() int { return g.NumLevels + 1 }

// precinctExp returns the precinct size exponents for resolution r.
func (g *Geometry) precinctExp(r int) (ppx, ppy int) {
	ppx, ppy = 15, 15
	if r < len(g.PrecinctW) {
		ppx = g.PrecinctW[r]
	}
	if r < len(g.PrecinctH) {
		ppy = g.PrecinctH[r]
	}
	return ppx, ppy
}

// ResolutionRect returns the tile-component rectangle scaled to resolution
// level r: ceil(coord / 2^(N-r)).
func (g *Geometry) ResolutionRect(r int) Rect {
	d := 1 << (g.NumLevels - r)
	return Rect{
		X0: ceilDiv(g.TileComp.X0, d),
		Y0: ceilDiv(g.TileComp.Y0, d),
		X1: ceilDiv(g.TileComp.X1, d),
		Y1: ceilDiv(g.TileComp.Y1, d),
	}
}

// BandRect returns the subband rectangle for band b of resolution r. The
// high-pass sides subtract a half-step offset before the ceiling division;
// floor division here would be off by one on odd tile-component bounds.
func (g *Geometry) BandRect(r int, b Band) Rect {
	if r == 0 {
		return g.ResolutionRect(0)
	}
	nb := g.NumLevels - r + 1
	var xo, yo int
	switch b {
	case BandHL:
		xo, yo = 1, 0
	case BandLH:
		xo, yo = 0, 1
	case BandHH:
		xo, yo = 1, 1
	}
	d := 1 << nb
	h := 1 << (nb - 1)
	return Rect{
		X0: ceilDiv(g.TileComp.X0-h*xo, d),
		Y0: ceilDiv(g.TileComp.Y0-h*yo, d),
		X1: ceilDiv(g.TileComp.X1-h*xo, d),
		Y1: ceilDiv(g.TileComp.Y1-h*yo, d),
	}
}

// Bands returns the bands contributing to resolution level r.
func (g *Geometry) Bands(r int) []Band {
	if r == 0 {
		return []Band{BandLL}
	}
	return []Band{BandHL, BandLH, BandHH}
}

// NumPrecincts returns the precinct grid dimensions at resolution r.
// Precincts are anchored at multiples of their size on the resolution grid.
func (g *Geometry) NumPrecincts(r int) (npx, npy int) {
	res := g.ResolutionRect(r)
	if res.Empty() {
		return 0, 0
	}
	ppx, ppy := g.precinctExp(r)
	npx = ceilDiv(res.X1, 1<<ppx) - floorDiv(res.X0, 1<<ppx)
	npy = ceilDiv(res.Y1, 1<<ppy) - floorDiv(res.Y0, 1<<ppy)
	return npx, npy
}

// bandPrecinctExp returns the precinct size exponents mapped to band
// coordinates: halved for resolutions above zero.
func (g *Geometry) bandPrecinctExp(r int) (ppx, ppy int) {
	ppx, ppy = g.precinctExp(r)
	if r > 0 {
		ppx--
		ppy--
	}
	return ppx, ppy
}

// BandPrecinctRect returns the rectangle of precinct (px, py) within band b
// of resolution r, in band coordinates.
func (g *Geometry) BandPrecinctRect(r int, b Band, px, py int) Rect {
	band := g.BandRect(r, b)
	ppx, ppy := g.bandPrecinctExp(r)
	x0 := (floorDiv(band.X0, 1<<ppx) + px) << ppx
	y0 := (floorDiv(band.Y0, 1<<ppy) + py) << ppy
	return intersect(band, Rect{X0: x0, Y0: y0, X1: x0 + 1<<ppx, Y1: y0 + 1<<ppy})
}

// codeBlockExp returns the effective code-block size exponents in band b of
// resolution r: the nominal size clamped to the band-space precinct size.
func (g *Geometry) codeBlockExp(r int) (xcb, ycb int) {
	ppx, ppy := g.bandPrecinctExp(r)
	xcb, ycb = g.CodeBlockW, g.CodeBlockH
	if xcb > ppx {
		xcb = ppx
	}
	if ycb > ppy {
		ycb = ppy
	}
	return xcb, ycb
}

// CodeBlockGrid returns the code-block grid dimensions within one band
// precinct. Code-blocks are anchored at multiples of their size in band
// coordinates, so boundary blocks may be smaller than nominal.
func (g *Geometry) CodeBlockGrid(r int, b Band, px, py int) (ncbx, ncby int) {
	p := g.BandPrecinctRect(r, b, px, py)
	if p.Empty() {
		return 0, 0
	}
	xcb, ycb := g.codeBlockExp(r)
	ncbx = ceilDiv(p.X1, 1<<xcb) - floorDiv(p.X0, 1<<xcb)
	ncby = ceilDiv(p.Y1, 1<<ycb) - floorDiv(p.Y0, 1<<ycb)
	return ncbx, ncby
}

// CodeBlockRect returns the rectangle of code-block (cx, cy) of the grid
// returned by CodeBlockGrid, in band coordinates.
func (g *Geometry) CodeBlockRect(r int, b Band, px, py, cx, cy int) Rect {
	p := g.BandPrecinctRect(r, b, px, py)
	xcb, ycb := g.codeBlockExp(r)
	x0 := (floorDiv(p.X0, 1<<xcb) + cx) << xcb
	y0 := (floorDiv(p.Y0, 1<<ycb) + cy) << ycb
	return intersect(p, Rect{X0: x0, Y0: y0, X1: x0 + 1<<xcb, Y1: y0 + 1<<ycb})
}

func intersect(a, b Rect) Rect {
	r := Rect{
		X0: max(a.X0, b.X0),
		Y0: max(a.Y0, b.Y0),
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
	}
	if r.X1 < r.X0 {
		r.X1 = r.X0
	}
	if r.Y1 < r.Y0 {
		r.Y1 = r.Y0
	}
	return r
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
