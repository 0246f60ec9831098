package codestream

import (
	"encoding/binary"
	"log/slog"
)

// Parser walks a raw codestream from SOC to EOC.
type Parser struct {
	data   []byte
	offset int
}

// NewParser creates a parser over the codestream bytes.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse consumes the whole codestream: main header, every tile-part, EOC.
func (p *Parser) Parse() (*Codestream, error) {
	cs := &Codestream{
		COC: make(map[uint16]*COCSegment),
		QCC: make(map[uint16]*QCCSegment),
	}

	marker, err := p.readMarker()
	if err != nil {
		return nil, err
	}
	if marker != MarkerSOC {
		return nil, newError(ErrStructural, 0, "SOC", "codestream must start with SOC, got 0x%04X", marker)
	}

	if err := p.parseMainHeader(cs); err != nil {
		return nil, err
	}

	tilesByIndex := make(map[int]*Tile)
	for {
		start := p.offset
		marker, err := p.readMarker()
		if err != nil {
			return nil, newError(ErrStructural, start, "EOC", "codestream ends without EOC")
		}
		if marker == MarkerEOC {
			break
		}
		if marker != MarkerSOT {
			return nil, newError(ErrStructural, start, MarkerName(marker), "expected SOT or EOC in tile sequence")
		}
		if err := p.parseTilePart(cs, tilesByIndex, start); err != nil {
			return nil, err
		}
	}

	if len(cs.Tiles) == 0 {
		return nil, newError(ErrStructural, p.offset, "SOT", "codestream carries no tile-parts")
	}
	return cs, nil
}

// parseMainHeader parses marker segments up to the first SOT.
func (p *Parser) parseMainHeader(cs *Codestream) error {
	for {
		start := p.offset
		marker, err := p.peekMarker()
		if err != nil {
			return newError(ErrMalformed, start, "main header", "truncated before SOT")
		}
		if marker == MarkerSOT {
			break
		}
		p.offset += 2

		switch marker {
		case MarkerSIZ:
			if cs.SIZ != nil {
				return newError(ErrStructural, start, "SIZ", "duplicate SIZ")
			}
			if start != 2 {
				return newError(ErrStructural, start, "SIZ", "SIZ must immediately follow SOC")
			}
			siz, err := p.parseSIZ(start)
			if err != nil {
				return err
			}
			cs.SIZ = siz

		case MarkerCOD:
			if cs.COD != nil {
				return newError(ErrStructural, start, "COD", "duplicate COD")
			}
			cod, err := p.parseCOD(start)
			if err != nil {
				return err
			}
			cs.COD = cod

		case MarkerCOC:
			coc, err := p.parseCOC(start, cs.SIZ)
			if err != nil {
				return err
			}
			cs.COC[coc.Component] = coc

		case MarkerQCD:
			if cs.QCD != nil {
				return newError(ErrStructural, start, "QCD", "duplicate QCD")
			}
			qcd, err := p.parseQCD(start)
			if err != nil {
				return err
			}
			cs.QCD = qcd

		case MarkerQCC:
			qcc, err := p.parseQCC(start, cs.SIZ)
			if err != nil {
				return err
			}
			cs.QCC[qcc.Component] = qcc

		case MarkerPOC:
			poc, err := p.parsePOC(start, cs.SIZ)
			if err != nil {
				return err
			}
			cs.POC = append(cs.POC, *poc)

		case MarkerRGN:
			rgn, err := p.parseRGN(start)
			if err != nil {
				return err
			}
			slog.Warn("region-of-interest decoding not supported, RGN ignored",
				"offset", start, "component", rgn.Crgn, "shift", rgn.SPrgn)
			cs.RGN = append(cs.RGN, *rgn)

		case MarkerCOM:
			com, err := p.parseCOM(start)
			if err != nil {
				return err
			}
			if com.Rcom > 1 {
				slog.Warn("comment with unknown registration", "offset", start, "rcom", com.Rcom)
			}
			cs.COM = append(cs.COM, *com)

		case MarkerTLM, MarkerPLM, MarkerPPM, MarkerCRG:
			// Pointer and registration segments: not needed for a full
			// sequential decode.
			if err := p.skipSegment(start, MarkerName(marker)); err != nil {
				return err
			}

		case MarkerCAP, MarkerCPF, MarkerMCT, MarkerMCC, MarkerMCO:
			return newError(ErrUnsupported, start, MarkerName(marker), "marker defined outside Part 1 baseline")

		case MarkerEOC:
			return newError(ErrStructural, start, "EOC", "EOC before any tile-part")

		default:
			if marker < 0xFF30 {
				return newError(ErrMalformed, start, "main header", "not a marker: 0x%04X", marker)
			}
			slog.Warn("skipping unknown marker segment", "offset", start, "marker", MarkerName(marker))
			if err := p.skipSegment(start, MarkerName(marker)); err != nil {
				return err
			}
		}
	}

	if cs.SIZ == nil {
		return newError(ErrStructural, p.offset, "SIZ", "missing mandatory SIZ")
	}
	if cs.COD == nil {
		return newError(ErrStructural, p.offset, "COD", "missing mandatory COD")
	}
	if cs.QCD == nil {
		return newError(ErrStructural, p.offset, "QCD", "missing mandatory QCD")
	}
	return nil
}

// parseTilePart parses one SOT..SOD header plus its data run. The SOT
// marker itself has already been consumed; start is its offset.
func (p *Parser) parseTilePart(cs *Codestream, tiles map[int]*Tile, start int) error {
	sot, err := p.parseSOT(start)
	if err != nil {
		return err
	}

	tile, ok := tiles[int(sot.Isot)]
	if !ok {
		tile = &Tile{
			Index: int(sot.Isot),
			COC:   make(map[uint16]*COCSegment),
			QCC:   make(map[uint16]*QCCSegment),
		}
		tiles[int(sot.Isot)] = tile
		cs.Tiles = append(cs.Tiles, tile)
	}

	for {
		segStart := p.offset
		marker, err := p.peekMarker()
		if err != nil {
			return newError(ErrMalformed, segStart, "tile-part header", "truncated before SOD")
		}
		if marker == MarkerSOD {
			p.offset += 2
			break
		}
		p.offset += 2

		switch marker {
		case MarkerCOD:
			cod, err := p.parseCOD(segStart)
			if err != nil {
				return err
			}
			tile.COD = cod
		case MarkerCOC:
			coc, err := p.parseCOC(segStart, cs.SIZ)
			if err != nil {
				return err
			}
			tile.COC[coc.Component] = coc
		case MarkerQCD:
			qcd, err := p.parseQCD(segStart)
			if err != nil {
				return err
			}
			tile.QCD = qcd
		case MarkerQCC:
			qcc, err := p.parseQCC(segStart, cs.SIZ)
			if err != nil {
				return err
			}
			tile.QCC[qcc.Component] = qcc
		case MarkerPOC:
			poc, err := p.parsePOC(segStart, cs.SIZ)
			if err != nil {
				return err
			}
			tile.POC = append(tile.POC, *poc)
		case MarkerRGN:
			rgn, err := p.parseRGN(segStart)
			if err != nil {
				return err
			}
			slog.Warn("region-of-interest decoding not supported, RGN ignored",
				"offset", segStart, "tile", tile.Index, "component", rgn.Crgn)
		case MarkerPLT, MarkerPPT, MarkerCOM:
			if err := p.skipSegment(segStart, MarkerName(marker)); err != nil {
				return err
			}
		default:
			if marker < 0xFF30 {
				return newError(ErrMalformed, segStart, "tile-part header", "not a marker: 0x%04X", marker)
			}
			slog.Warn("skipping unknown marker segment", "offset", segStart, "marker", MarkerName(marker))
			if err := p.skipSegment(segStart, MarkerName(marker)); err != nil {
				return err
			}
		}
	}

	// Data run: Psot covers the whole tile-part from the SOT marker; zero
	// means "up to the next SOT or EOC", legal only in the last tile-part.
	var data []byte
	if sot.Psot != 0 {
		end := start + int(sot.Psot)
		if end < p.offset || end > len(p.data) {
			return newError(ErrMalformed, start, "SOT", "Psot %d exceeds codestream", sot.Psot)
		}
		data = p.data[p.offset:end]
		p.offset = end
	} else {
		data = p.scanToNextMarker()
	}
	tile.Parts = append(tile.Parts, TilePart{SOT: *sot, Data: data})
	return nil
}

// scanToNextMarker consumes bytes until the next SOT or EOC marker.
func (p *Parser) scanToNextMarker() []byte {
	start := p.offset
	for p.offset+1 < len(p.data) {
		if p.data[p.offset] == 0xFF {
			m := binary.BigEndian.Uint16(p.data[p.offset:])
			if m == MarkerSOT || m == MarkerEOC {
				break
			}
		}
		p.offset++
	}
	if p.offset+1 >= len(p.data) {
		p.offset = len(p.data)
	}
	return p.data[start:p.offset]
}

func (p *Parser) parseSIZ(start int) (*SIZSegment, error) {
	body, err := p.segmentBody(start, "SIZ", 38)
	if err != nil {
		return nil, err
	}
	siz := &SIZSegment{
		Rsiz:   binary.BigEndian.Uint16(body[0:]),
		Xsiz:   binary.BigEndian.Uint32(body[2:]),
		Ysiz:   binary.BigEndian.Uint32(body[6:]),
		XOsiz:  binary.BigEndian.Uint32(body[10:]),
		YOsiz:  binary.BigEndian.Uint32(body[14:]),
		XTsiz:  binary.BigEndian.Uint32(body[18:]),
		YTsiz:  binary.BigEndian.Uint32(body[22:]),
		XTOsiz: binary.BigEndian.Uint32(body[26:]),
		YTOsiz: binary.BigEndian.Uint32(body[30:]),
		Csiz:   binary.BigEndian.Uint16(body[34:]),
	}

	if siz.Rsiz&0xC000 != 0 {
		return nil, newError(ErrUnsupported, start, "SIZ", "capability bits 0x%04X outside Part 1", siz.Rsiz)
	}
	if siz.Xsiz <= siz.XOsiz || siz.Ysiz <= siz.YOsiz {
		return nil, newError(ErrMalformed, start, "SIZ", "empty image area")
	}
	if siz.XTsiz == 0 || siz.YTsiz == 0 {
		return nil, newError(ErrMalformed, start, "SIZ", "zero tile size")
	}
	if siz.XTOsiz > siz.XOsiz || siz.YTOsiz > siz.YOsiz {
		return nil, newError(ErrMalformed, start, "SIZ", "tile offset beyond image offset")
	}
	if siz.Csiz == 0 || siz.Csiz > 16384 {
		return nil, newError(ErrMalformed, start, "SIZ", "component count %d out of range", siz.Csiz)
	}
	if len(body) != 36+3*int(siz.Csiz) {
		return nil, newError(ErrMalformed, start, "SIZ", "length %d does not match %d components", len(body)+2, siz.Csiz)
	}

	siz.Components = make([]ComponentSize, siz.Csiz)
	for i := range siz.Components {
		c := ComponentSize{
			Ssiz:  body[36+3*i],
			XRsiz: body[37+3*i],
			YRsiz: body[38+3*i],
		}
		if depth := c.BitDepth(); depth < 1 || depth > 38 {
			return nil, newError(ErrMalformed, start, "SIZ", "component %d precision %d out of range", i, depth)
		}
		if c.XRsiz == 0 || c.YRsiz == 0 {
			return nil, newError(ErrMalformed, start, "SIZ", "component %d zero sub-sampling", i)
		}
		siz.Components[i] = c
	}
	return siz, nil
}

func (p *Parser) parseCOD(start int) (*CODSegment, error) {
	body, err := p.segmentBody(start, "COD", 10)
	if err != nil {
		return nil, err
	}
	cod := &CODSegment{
		Scod:                        body[0],
		ProgressionOrder:            body[1],
		NumberOfLayers:              binary.BigEndian.Uint16(body[2:]),
		MultipleComponentTransform:  body[4],
		NumberOfDecompositionLevels: body[5],
		CodeBlockWidth:              body[6] & 0x0F,
		CodeBlockHeight:             body[7] & 0x0F,
		CodeBlockStyle:              body[8],
		Transformation:              body[9],
	}
	if err := validateCodingStyle(start, "COD", cod); err != nil {
		return nil, err
	}
	if cod.Scod&0x01 != 0 {
		n := int(cod.NumberOfDecompositionLevels) + 1
		if len(body) < 10+n {
			return nil, newError(ErrMalformed, start, "COD", "missing precinct sizes")
		}
		cod.PrecinctSizes = parsePrecincts(body[10 : 10+n])
	}
	return cod, nil
}

func (p *Parser) parseCOC(start int, siz *SIZSegment) (*COCSegment, error) {
	if siz == nil {
		return nil, newError(ErrStructural, start, "COC", "COC before SIZ")
	}
	minLen := 7
	wideComp := siz.Csiz >= 257
	if wideComp {
		minLen = 8
	}
	body, err := p.segmentBody(start, "COC", minLen)
	if err != nil {
		return nil, err
	}
	coc := &COCSegment{}
	i := 0
	if wideComp {
		coc.Component = binary.BigEndian.Uint16(body)
		i = 2
	} else {
		coc.Component = uint16(body[0])
		i = 1
	}
	coc.Scoc = body[i]
	coc.NumberOfDecompositionLevels = body[i+1]
	coc.CodeBlockWidth = body[i+2] & 0x0F
	coc.CodeBlockHeight = body[i+3] & 0x0F
	coc.CodeBlockStyle = body[i+4]
	coc.Transformation = body[i+5]
	if coc.Component >= siz.Csiz {
		return nil, newError(ErrMalformed, start, "COC", "component %d out of range", coc.Component)
	}
	if coc.Scoc&0x01 != 0 {
		n := int(coc.NumberOfDecompositionLevels) + 1
		if len(body) < i+6+n {
			return nil, newError(ErrMalformed, start, "COC", "missing precinct sizes")
		}
		coc.PrecinctSizes = parsePrecincts(body[i+6 : i+6+n])
	}
	return coc, nil
}

func validateCodingStyle(start int, elem string, cod *CODSegment) error {
	if cod.ProgressionOrder > 4 {
		return newError(ErrMalformed, start, elem, "progression order %d reserved", cod.ProgressionOrder)
	}
	if cod.NumberOfLayers == 0 {
		return newError(ErrMalformed, start, elem, "zero layers")
	}
	if cod.NumberOfDecompositionLevels > 32 {
		return newError(ErrMalformed, start, elem, "decomposition levels %d out of range", cod.NumberOfDecompositionLevels)
	}
	w, h := cod.CodeBlockSize()
	if w > 1024 || h > 1024 || w*h > 4096 {
		return newError(ErrMalformed, start, elem, "code-block size %dx%d out of range", w, h)
	}
	if cod.Transformation > 1 {
		return newError(ErrMalformed, start, elem, "transformation %d reserved", cod.Transformation)
	}
	return nil
}

func parsePrecincts(raw []byte) []PrecinctSize {
	out := make([]PrecinctSize, len(raw))
	for i, b := range raw {
		out[i] = PrecinctSize{PPx: b & 0x0F, PPy: b >> 4}
	}
	return out
}

func (p *Parser) parseQCD(start int) (*QCDSegment, error) {
	body, err := p.segmentBody(start, "QCD", 1)
	if err != nil {
		return nil, err
	}
	return &QCDSegment{
		Sqcd:  body[0],
		SPqcd: append([]byte(nil), body[1:]...),
	}, nil
}

func (p *Parser) parseQCC(start int, siz *SIZSegment) (*QCCSegment, error) {
	if siz == nil {
		return nil, newError(ErrStructural, start, "QCC", "QCC before SIZ")
	}
	minLen := 2
	wideComp := siz.Csiz >= 257
	if wideComp {
		minLen = 3
	}
	body, err := p.segmentBody(start, "QCC", minLen)
	if err != nil {
		return nil, err
	}
	qcc := &QCCSegment{}
	i := 0
	if wideComp {
		qcc.Component = binary.BigEndian.Uint16(body)
		i = 2
	} else {
		qcc.Component = uint16(body[0])
		i = 1
	}
	if qcc.Component >= siz.Csiz {
		return nil, newError(ErrMalformed, start, "QCC", "component %d out of range", qcc.Component)
	}
	qcc.Sqcc = body[i]
	qcc.SPqcc = append([]byte(nil), body[i+1:]...)
	return qcc, nil
}

func (p *Parser) parsePOC(start int, siz *SIZSegment) (*POCSegment, error) {
	if siz == nil {
		return nil, newError(ErrStructural, start, "POC", "POC before SIZ")
	}
	body, err := p.segmentBody(start, "POC", 7)
	if err != nil {
		return nil, err
	}
	entrySize := 7
	wideComp := siz.Csiz >= 257
	if wideComp {
		entrySize = 9
	}
	if len(body)%entrySize != 0 {
		return nil, newError(ErrMalformed, start, "POC", "length not a multiple of entry size")
	}
	poc := &POCSegment{}
	for i := 0; i < len(body); i += entrySize {
		e := POCEntry{RSpoc: body[i]}
		j := i + 1
		if wideComp {
			e.CSpoc = binary.BigEndian.Uint16(body[j:])
			j += 2
		} else {
			e.CSpoc = uint16(body[j])
			j++
		}
		e.LYEpoc = binary.BigEndian.Uint16(body[j:])
		j += 2
		e.REpoc = body[j]
		j++
		if wideComp {
			e.CEpoc = binary.BigEndian.Uint16(body[j:])
			j += 2
		} else {
			e.CEpoc = uint16(body[j])
			if e.CEpoc == 0 {
				e.CEpoc = 256
			}
			j++
		}
		e.Ppoc = body[j]
		if e.Ppoc > 4 {
			return nil, newError(ErrMalformed, start, "POC", "progression order %d reserved", e.Ppoc)
		}
		poc.Entries = append(poc.Entries, e)
	}
	return poc, nil
}

func (p *Parser) parseRGN(start int) (*RGNSegment, error) {
	body, err := p.segmentBody(start, "RGN", 3)
	if err != nil {
		return nil, err
	}
	return &RGNSegment{
		Crgn:  uint16(body[0]),
		Srgn:  body[1],
		SPrgn: body[2],
	}, nil
}

func (p *Parser) parseCOM(start int) (*COMSegment, error) {
	body, err := p.segmentBody(start, "COM", 2)
	if err != nil {
		return nil, err
	}
	return &COMSegment{
		Rcom: binary.BigEndian.Uint16(body),
		Data: append([]byte(nil), body[2:]...),
	}, nil
}

func (p *Parser) parseSOT(start int) (*SOTSegment, error) {
	body, err := p.segmentBody(start, "SOT", 8)
	if err != nil {
		return nil, err
	}
	if len(body) != 8 {
		return nil, newError(ErrMalformed, start, "SOT", "length must be 10, got %d", len(body)+2)
	}
	return &SOTSegment{
		Isot:  binary.BigEndian.Uint16(body[0:]),
		Psot:  binary.BigEndian.Uint32(body[2:]),
		TPsot: body[6],
		TNsot: body[7],
	}, nil
}

// segmentBody reads Lmarker and returns the payload after it, checking the
// declared length covers the segment's fixed fields.
func (p *Parser) segmentBody(start int, elem string, minBody int) ([]byte, error) {
	if p.offset+2 > len(p.data) {
		return nil, newError(ErrMalformed, start, elem, "truncated length field")
	}
	length := int(binary.BigEndian.Uint16(p.data[p.offset:]))
	if length < 2+minBody {
		return nil, newError(ErrMalformed, start, elem, "declared length %d shorter than fixed fields", length)
	}
	if p.offset+length > len(p.data) {
		return nil, newError(ErrMalformed, start, elem, "truncated segment (need %d bytes)", length)
	}
	body := p.data[p.offset+2 : p.offset+length]
	p.offset += length
	return body, nil
}

func (p *Parser) skipSegment(start int, elem string) error {
	_, err := p.segmentBody(start, elem, 0)
	return err
}

func (p *Parser) readMarker() (uint16, error) {
	if p.offset+2 > len(p.data) {
		return 0, newError(ErrMalformed, p.offset, "", "truncated marker")
	}
	m := binary.BigEndian.Uint16(p.data[p.offset:])
	p.offset += 2
	return m, nil
}

func (p *Parser) peekMarker() (uint16, error) {
	if p.offset+2 > len(p.data) {
		return 0, newError(ErrMalformed, p.offset, "", "truncated marker")
	}
	return binary.BigEndian.Uint16(p.data[p.offset:]), nil
}
