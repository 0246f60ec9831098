package jpeg2000

import (
	"github.com/jp2kit/go-jp2-codec/jpeg2000/codestream"
	"github.com/jp2kit/go-jp2-codec/jpeg2000/t1"
	"github.com/jp2kit/go-jp2-codec/jpeg2000/t2"
	"github.com/jp2kit/go-jp2-codec/jpeg2000/wavelet"
)

// Per-tile decode pipeline: packet parse (serial), code-block entropy
// decode, dequantization, subband assembly, inverse DWT. Nothing is shared
// across tiles; all buffers die with the tile.

// tileComponent carries one component's derived parameters and buffers.
type tileComponent struct {
	idx  int
	rect t2.Rect // tile-component rectangle on the component grid

	cod *codestream.CODSegment
	qcd *codestream.QCDSegment
	geo *t2.Geometry

	// Decomposition window chain: windows[0] is the full tile-component,
	// windows[i] the LL window after i levels.
	winW, winH, winX, winY []int
}

type cbKey struct {
	comp, res int
	band      t2.Band
	prec      int
	cbx, cby  int
}

type cbAccum struct {
	data          []byte
	passes        int
	zeroBitPlanes int
}

// decodeTile reconstructs all component planes of one tile.
func (d *Decoder) decodeTile(cs *codestream.Codestream, tile *codestream.Tile) ([]*tileComponent, [][]int32, error) {
	siz := cs.SIZ
	numComps := int(siz.Csiz)

	tileRect := tileRectOnGrid(siz, tile.Index)
	if tileRect.Empty() {
		return nil, nil, tileError(tile.Index, -1, codestreamError("SOT", "tile %d outside image area", tile.Index))
	}

	comps := make([]*tileComponent, numComps)
	geos := make([]*t2.Geometry, numComps)
	for c := 0; c < numComps; c++ {
		tc, err := d.newTileComponent(cs, tile, c, tileRect)
		if err != nil {
			return nil, nil, tileError(tile.Index, c, err)
		}
		comps[c] = tc
		geos[c] = tc.geo
	}

	// Tile-level coding parameters: progression, layers, delimiters.
	tileCOD := cs.COD
	if tile.COD != nil {
		tileCOD = tile.COD
	}
	numLayers := int(tileCOD.NumberOfLayers)
	order := t2.ProgressionOrder(tileCOD.ProgressionOrder)

	poc := cs.POC
	if len(tile.POC) > 0 {
		poc = tile.POC
	}
	var changes []t2.ProgressionChange
	for _, seg := range poc {
		for _, e := range seg.Entries {
			changes = append(changes, t2.ProgressionChange{
				ResStart:  int(e.RSpoc),
				CompStart: int(e.CSpoc),
				LayerEnd:  int(e.LYEpoc),
				ResEnd:    int(e.REpoc),
				CompEnd:   int(e.CEpoc),
				Order:     t2.ProgressionOrder(e.Ppoc),
			})
		}
	}

	seq := t2.PacketSequence(geos, numLayers, order, changes)

	// Packet parsing advances a single bit cursor and must stay serial.
	parser := t2.NewPacketParser(tile.Data(), geos, numLayers, tileCOD.UseSOP(), tileCOD.UseEPH())
	blocks := make(map[cbKey]*cbAccum)
	var blockOrder []cbKey
	for _, pc := range seq {
		contribs, err := parser.NextPacket(pc.Layer, pc.Res, pc.Comp, pc.Precinct)
		if err != nil {
			return nil, nil, tileError(tile.Index, pc.Comp, err)
		}
		for _, con := range contribs {
			key := cbKey{con.Comp, con.Res, con.Band, con.Precinct, con.CBX, con.CBY}
			acc, ok := blocks[key]
			if !ok {
				acc = &cbAccum{zeroBitPlanes: con.ZeroBitPlanes}
				blocks[key] = acc
				blockOrder = append(blockOrder, key)
			}
			acc.data = append(acc.data, con.Data...)
			acc.passes += con.NumPasses
		}
	}

	// Everything after packet parsing is per-component work.
	planes := make([][]int32, numComps)
	for c := 0; c < numComps; c++ {
		plane, err := d.decodeTileComponent(comps[c], blocks, blockOrder)
		if err != nil {
			return nil, nil, tileError(tile.Index, c, err)
		}
		planes[c] = plane
	}

	if tileCOD.MultipleComponentTransform == 1 {
		inverseMCT(tile.Index, comps, planes)
	}
	return comps, planes, nil
}

// tileRectOnGrid returns the tile's rectangle on the reference grid,
// clipped to the image area.
func tileRectOnGrid(siz *codestream.SIZSegment, index int) t2.Rect {
	ntx := siz.NumTilesX()
	tx := index % ntx
	ty := index / ntx
	x0 := int(siz.XTOsiz) + tx*int(siz.XTsiz)
	y0 := int(siz.YTOsiz) + ty*int(siz.YTsiz)
	r := t2.Rect{
		X0: max(x0, int(siz.XOsiz)),
		Y0: max(y0, int(siz.YOsiz)),
		X1: min(x0+int(siz.XTsiz), int(siz.Xsiz)),
		Y1: min(y0+int(siz.YTsiz), int(siz.Ysiz)),
	}
	if r.X1 < r.X0 {
		r.X1 = r.X0
	}
	if r.Y1 < r.Y0 {
		r.Y1 = r.Y0
	}
	return r
}

// newTileComponent derives one component's geometry and validates its
// coding parameters against this decoder's scope.
func (d *Decoder) newTileComponent(cs *codestream.Codestream, tile *codestream.Tile, c int, tileRect t2.Rect) (*tileComponent, error) {
	siz := cs.SIZ
	cod := cs.ComponentCOD(tile, c)
	qcd := cs.ComponentQCD(tile, c)
	if cod == nil || qcd == nil {
		return nil, codestreamError("COD", "missing coding parameters for component %d", c)
	}
	if cod.CodeBlockStyle&(t1.StyleLazy|t1.StyleTermAll|t1.StyleVSC) != 0 {
		return nil, unsupportedError("code-block style 0x%02x", cod.CodeBlockStyle)
	}
	if depth := siz.Components[c].BitDepth(); depth > 31 {
		// Samples are carried in int32; Part 1 allows up to 38 bits but
		// nothing this decoder can represent.
		return nil, unsupportedError("component precision %d bits", depth)
	}

	dx := int(siz.Components[c].XRsiz)
	dy := int(siz.Components[c].YRsiz)
	rect := t2.Rect{
		X0: ceilDiv(tileRect.X0, dx),
		Y0: ceilDiv(tileRect.Y0, dy),
		X1: ceilDiv(tileRect.X1, dx),
		Y1: ceilDiv(tileRect.Y1, dy),
	}
	if area := int64(rect.Dx()) * int64(rect.Dy()); area > d.maxTileSamples {
		return nil, resourceError("tile-component %dx%d exceeds sample limit %d", rect.Dx(), rect.Dy(), d.maxTileSamples)
	}

	levels := int(cod.NumberOfDecompositionLevels)
	geo := &t2.Geometry{
		TileComp:   rect,
		NumLevels:  levels,
		CodeBlockW: int(cod.CodeBlockWidth) + 2,
		CodeBlockH: int(cod.CodeBlockHeight) + 2,
	}
	for _, ps := range cod.PrecinctSizes {
		geo.PrecinctW = append(geo.PrecinctW, int(ps.PPx))
		geo.PrecinctH = append(geo.PrecinctH, int(ps.PPy))
	}

	tc := &tileComponent{
		idx:  c,
		rect: rect,
		cod:  cod,
		qcd:  qcd,
		geo:  geo,
	}

	tc.winW = make([]int, levels+1)
	tc.winH = make([]int, levels+1)
	tc.winX = make([]int, levels+1)
	tc.winY = make([]int, levels+1)
	tc.winW[0], tc.winH[0] = rect.Dx(), rect.Dy()
	tc.winX[0], tc.winY[0] = rect.X0, rect.Y0
	for i := 1; i <= levels; i++ {
		tc.winW[i], tc.winH[i], tc.winX[i], tc.winY[i] =
			wavelet.NextWindow(tc.winW[i-1], tc.winH[i-1], tc.winX[i-1], tc.winY[i-1])
	}
	return tc, nil
}

// bandOrigin returns the offset of band b of resolution r inside the
// packed tile-component plane.
func (tc *tileComponent) bandOrigin(r int, b t2.Band) (ox, oy int) {
	if r == 0 {
		return 0, 0
	}
	depth := tc.geo.NumLevels - r // window the band's samples live in
	snx := tc.winW[depth+1]
	sny := tc.winH[depth+1]
	switch b {
	case t2.BandHL:
		return snx, 0
	case t2.BandLH:
		return 0, sny
	case t2.BandHH:
		return snx, sny
	}
	return 0, 0
}

// decodeTileComponent runs entropy decode and the inverse DWT for one
// component, returning its sample plane (before DC shift).
func (d *Decoder) decodeTileComponent(tc *tileComponent, blocks map[cbKey]*cbAccum, order []cbKey) ([]int32, error) {
	w, h := tc.rect.Dx(), tc.rect.Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}
	reversible := tc.cod.Reversible()
	levels := tc.geo.NumLevels
	bitDepth := d.componentDepth(tc.idx)

	plane := make([]int32, w*h)
	var fplane []float64
	if !reversible {
		fplane = make([]float64, w*h)
	}

	for _, key := range order {
		if key.comp != tc.idx {
			continue
		}
		acc := blocks[key]

		quant, err := deriveBandQuant(tc.qcd, bitDepth, levels, key.res, key.band)
		if err != nil {
			return nil, err
		}
		maxBitplane := quant.numBPS - 1 - acc.zeroBitPlanes
		if maxBitplane < 0 || acc.passes == 0 || len(acc.data) == 0 {
			continue
		}
		if maxBitplane > 30 {
			return nil, codestreamError("QCD", "bit-plane depth %d exceeds coefficient range", maxBitplane+1)
		}

		g := tc.geo
		npx, _ := g.NumPrecincts(key.res)
		px, py := 0, 0
		if npx > 0 {
			px, py = key.prec%npx, key.prec/npx
		}
		cbRect := g.CodeBlockRect(key.res, key.band, px, py, key.cbx, key.cby)
		if cbRect.Empty() {
			continue
		}

		dec := t1.NewDecoder(cbRect.Dx(), cbRect.Dy(), int(tc.cod.CodeBlockStyle))
		dec.SetOrientation(int(key.band))
		if err := dec.Decode(acc.data, acc.passes, maxBitplane); err != nil {
			return nil, err
		}
		coeffs := dec.Coefficients()

		// Bit-planes the segment never reached keep the irreversible
		// reconstruction bias centred.
		planesDecoded := (acc.passes + 2) / 3
		undecoded := maxBitplane + 1 - planesDecoded
		if undecoded < 0 {
			undecoded = 0
		}

		band := g.BandRect(key.res, key.band)
		ox, oy := tc.bandOrigin(key.res, key.band)
		for y := 0; y < cbRect.Dy(); y++ {
			dy := oy + cbRect.Y0 - band.Y0 + y
			for x := 0; x < cbRect.Dx(); x++ {
				dx := ox + cbRect.X0 - band.X0 + x
				m := coeffs[y*cbRect.Dx()+x]
				if reversible {
					plane[dy*w+dx] = m
				} else {
					fplane[dy*w+dx] = dequantize(m, quant, false, undecoded)
				}
			}
		}
	}

	if reversible {
		wavelet.Inverse53Tile(plane, w, h, w, levels, tc.rect.X0, tc.rect.Y0)
		return plane, nil
	}

	wavelet.Inverse97Tile(fplane, w, h, w, levels, tc.rect.X0, tc.rect.Y0)
	for i, v := range fplane {
		plane[i] = roundToInt32(v)
	}
	return plane, nil
}

func roundToInt32(v float64) int32 {
	if v >= 0 {
		return int32(v + 0.5)
	}
	return int32(v - 0.5)
}

func ceilDiv(a, b int) int {
	if a >= 0 {
		return (a + b - 1) / b
	}
	return -((-a) / b)
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
