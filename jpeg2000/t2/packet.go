package t2

import (
	"fmt"
	"math/bits"
)

// Packet parsing per ISO/IEC 15444-1:2019 B.9-B.10: one packet carries one
// layer's contribution from one resolution of one component of one
// precinct. Header state (inclusion and zero-bit-plane tag trees, Lblock,
// pass counts) lives in the precinct and carries forward across layers.

// Contribution describes one code-block's share of a packet.
type Contribution struct {
	Comp     int
	Res      int
	Band     Band
	Precinct int
	CBX, CBY int // code-block grid position within the precinct

	FirstInclusion bool
	ZeroBitPlanes  int
	NumPasses      int // new passes in this packet
	PassesBefore   int // passes accumulated in earlier layers
	Data           []byte
}

// cbState tracks one code-block's header state across layers.
type cbState struct {
	included      bool
	lblock        int
	zeroBitPlanes int
	passes        int
}

// bandState holds the per-band tag trees and code-block states of a precinct.
type bandState struct {
	band       Band
	incl, zbp  *TagTree
	ncbx, ncby int
	cbs        []*cbState
}

type precinctState struct {
	bands []*bandState
}

type precKey struct {
	comp, res, prec int
}

// PacketParser walks a tile's packet sequence, advancing a single byte
// cursor. Packet parsing is inherently serial; everything downstream of it
// may be fanned out.
type PacketParser struct {
	data []byte
	pos  int

	geos      []*Geometry
	numLayers int
	useSOP    bool
	useEPH    bool

	precincts map[precKey]*precinctState
}

// NewPacketParser creates a parser over one tile's bitstream.
func NewPacketParser(data []byte, geos []*Geometry, numLayers int, useSOP, useEPH bool) *PacketParser {
	return &PacketParser{
		data:      data,
		geos:      geos,
		numLayers: numLayers,
		useSOP:    useSOP,
		useEPH:    useEPH,
		precincts: make(map[precKey]*precinctState),
	}
}

// Pos returns the current byte offset within the tile bitstream.
func (p *PacketParser) Pos() int { return p.pos }

func (p *PacketParser) precinct(comp, res, prec int) *precinctState {
	key := precKey{comp, res, prec}
	if ps, ok := p.precincts[key]; ok {
		return ps
	}
	g := p.geos[comp]
	npx, _ := g.NumPrecincts(res)
	px, py := 0, 0
	if npx > 0 {
		px, py = prec%npx, prec/npx
	}
	ps := &precinctState{}
	for _, b := range g.Bands(res) {
		ncbx, ncby := g.CodeBlockGrid(res, b, px, py)
		bs := &bandState{
			band: b,
			ncbx: ncbx,
			ncby: ncby,
		}
		if ncbx > 0 && ncby > 0 {
			bs.incl = NewTagTree(ncbx, ncby)
			bs.zbp = NewTagTree(ncbx, ncby)
			bs.cbs = make([]*cbState, ncbx*ncby)
			for i := range bs.cbs {
				bs.cbs[i] = &cbState{lblock: 3}
			}
		}
		ps.bands = append(ps.bands, bs)
	}
	p.precincts[key] = ps
	return ps
}

// NextPacket parses the packet for (layer, res, comp, precinct) at the
// current cursor and returns the code-block contributions with their body
// bytes carved out. A cursor already at end of data yields no
// contributions: trailing empty packets may be omitted by encoders.
func (p *PacketParser) NextPacket(layer, res, comp, prec int) ([]Contribution, error) {
	if p.pos >= len(p.data) {
		return nil, nil
	}

	if p.useSOP {
		if err := p.skipSOP(); err != nil {
			return nil, err
		}
	}

	hr := newHeaderReader(p.data[p.pos:])

	present, err := hr.readBit()
	if err != nil {
		return nil, fmt.Errorf("packet (L=%d,R=%d,C=%d,P=%d): %w", layer, res, comp, prec, err)
	}
	if present == 0 {
		// Empty packet: one aligned zero bit, no contributions.
		if err := hr.alignToByte(); err != nil {
			return nil, err
		}
		p.pos += hr.bytesRead()
		p.skipEPH()
		return nil, nil
	}

	ps := p.precinct(comp, res, prec)
	var contribs []Contribution
	var segLens []int

	for _, bs := range ps.bands {
		for cy := 0; cy < bs.ncby; cy++ {
			for cx := 0; cx < bs.ncbx; cx++ {
				cb := bs.cbs[cy*bs.ncbx+cx]

				included := false
				first := false
				if !cb.included {
					inc, _, err := bs.incl.DecodeInclusion(cx, cy, layer, hr)
					if err != nil {
						return nil, err
					}
					included = inc
					first = inc
				} else {
					bit, err := hr.readBit()
					if err != nil {
						return nil, err
					}
					included = bit == 1
				}
				if !included {
					continue
				}

				if first {
					zbp, err := bs.zbp.DecodeValue(cx, cy, hr)
					if err != nil {
						return nil, err
					}
					cb.included = true
					cb.zeroBitPlanes = zbp
				}

				newPasses, err := decodeNumPasses(hr)
				if err != nil {
					return nil, err
				}

				// Lblock update: a unary run of 1-bits, each adding one
				// length bit for this and all later packets.
				for {
					bit, err := hr.readBit()
					if err != nil {
						return nil, err
					}
					if bit == 0 {
						break
					}
					cb.lblock++
				}
				lenBits := cb.lblock + floorLog2(newPasses)
				segLen, err := hr.readBits(lenBits)
				if err != nil {
					return nil, err
				}

				contribs = append(contribs, Contribution{
					Comp:           comp,
					Res:            res,
					Band:           bs.band,
					Precinct:       prec,
					CBX:            cx,
					CBY:            cy,
					FirstInclusion: first,
					ZeroBitPlanes:  cb.zeroBitPlanes,
					NumPasses:      newPasses,
					PassesBefore:   cb.passes,
				})
				segLens = append(segLens, segLen)
				cb.passes += newPasses
			}
		}
	}

	if err := hr.alignToByte(); err != nil {
		return nil, err
	}
	p.pos += hr.bytesRead()
	p.skipEPH()

	// Packet body: contribution bytes concatenated in header order.
	for i := range contribs {
		n := segLens[i]
		if p.pos+n > len(p.data) {
			return nil, fmt.Errorf("packet (L=%d,R=%d,C=%d,P=%d): body: %w", layer, res, comp, prec, ErrTruncated)
		}
		contribs[i].Data = p.data[p.pos : p.pos+n]
		p.pos += n
	}
	return contribs, nil
}

// skipSOP consumes an optional start-of-packet marker segment (marker,
// Lsop=4, 16-bit sequence number).
func (p *PacketParser) skipSOP() error {
	if p.pos+2 > len(p.data) {
		return nil
	}
	if p.data[p.pos] != 0xFF || p.data[p.pos+1] != 0x91 {
		return nil
	}
	if p.pos+6 > len(p.data) {
		return ErrTruncated
	}
	p.pos += 6
	return nil
}

// skipEPH consumes an optional end-of-packet-header marker.
func (p *PacketParser) skipEPH() {
	if !p.useEPH {
		return
	}
	if p.pos+2 <= len(p.data) && p.data[p.pos] == 0xFF && p.data[p.pos+1] == 0x92 {
		p.pos += 2
	}
}

// decodeNumPasses reads the number of new coding passes (Table B.4):
// 1, 2, 3-5, 6-36 and 37-164 passes take 1, 2, 4, 9 and 16 bits.
func decodeNumPasses(hr *headerReader) (int, error) {
	bit, err := hr.readBit()
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return 1, nil
	}
	bit, err = hr.readBit()
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return 2, nil
	}
	v, err := hr.readBits(2)
	if err != nil {
		return 0, err
	}
	if v < 3 {
		return 3 + v, nil
	}
	v, err = hr.readBits(5)
	if err != nil {
		return 0, err
	}
	if v < 31 {
		return 6 + v, nil
	}
	v, err = hr.readBits(7)
	if err != nil {
		return 0, err
	}
	return 37 + v, nil
}

func floorLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}
