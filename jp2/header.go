package jp2

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// JP2 header super-box contents: the closed set of header box variants.
// Reference: ISO/IEC 15444-1:2019 I.5.3

// Header holds the parsed JP2 header boxes.
type Header struct {
	ImageHeader   *ImageHeaderBox
	BitsPerComp   *BitsPerCompBox
	ColourSpecs   []ColourSpecBox // at least one is mandatory
	Palette       *PaletteBox
	ComponentMaps []ComponentMapping
	ChannelDefs   []ChannelDef
	Resolution    *ResolutionBox
}

// ImageHeaderBox - "ihdr" (I.5.3.1).
type ImageHeaderBox struct {
	Height            uint32
	Width             uint32
	NumComponents     uint16
	BitsPerComponent  uint8 // 0xFF when a bpcc box carries per-component depths
	CompressionType   uint8 // always 7 for JP2
	UnknownColourspace uint8
	IPR               uint8
}

func (b *ImageHeaderBox) parse(data []byte) error {
	if len(data) < 14 {
		return fmt.Errorf("ihdr: payload %d bytes, need 14: %w", len(data), ErrTruncated)
	}
	b.Height = binary.BigEndian.Uint32(data[0:4])
	b.Width = binary.BigEndian.Uint32(data[4:8])
	b.NumComponents = binary.BigEndian.Uint16(data[8:10])
	b.BitsPerComponent = data[10]
	b.CompressionType = data[11]
	b.UnknownColourspace = data[12]
	b.IPR = data[13]
	if b.CompressionType != 7 {
		return fmt.Errorf("ihdr: compression type %d is not JPEG 2000", b.CompressionType)
	}
	return nil
}

// BitsPerCompBox - "bpcc", per-component precision when ihdr signals 0xFF.
type BitsPerCompBox struct {
	Depths []uint8
}

func (b *BitsPerCompBox) parse(data []byte) error {
	b.Depths = append([]uint8(nil), data...)
	return nil
}

// ColourMethod enumerates the colour specification methods as a closed
// tagged set. Methods beyond the Part 1 pair are carried for JPX files but
// flagged reserved.
type ColourMethod uint8

// Colour specification methods.
const (
	MethodEnumerated    ColourMethod = 1
	MethodRestrictedICC ColourMethod = 2
	MethodAnyICC        ColourMethod = 3 // JPX
	MethodVendor        ColourMethod = 4 // JPX
	MethodParameterized ColourMethod = 5 // JPX
)

// String names the colour method.
func (m ColourMethod) String() string {
	switch m {
	case MethodEnumerated:
		return "enumerated"
	case MethodRestrictedICC:
		return "restricted ICC"
	case MethodAnyICC:
		return "any ICC"
	case MethodVendor:
		return "vendor"
	case MethodParameterized:
		return "parameterized"
	}
	return "reserved"
}

// Enumerated colourspace values (Annex I / M).
const (
	CSBiLevel   = 0
	CSYCbCr1    = 1
	CSYCbCr2    = 3
	CSYCbCr3    = 4
	CSPhotoYCC  = 9
	CSCMY       = 11
	CSCMYK      = 12
	CSYCCK      = 13
	CSCIELab    = 14
	CSBiLevel2  = 15
	CSsRGB      = 16
	CSGreyscale = 17
	CSsYCC      = 18
)

// ColourSpecBox - "colr" (I.5.3.3).
type ColourSpecBox struct {
	Method        ColourMethod
	Precedence    uint8
	Approximation uint8
	EnumCS        uint32 // method 1
	ICCProfile    []byte // methods 2 and 3
}

func (b *ColourSpecBox) parse(data []byte) error {
	if len(data) < 3 {
		return fmt.Errorf("colr: payload %d bytes, need 3: %w", len(data), ErrTruncated)
	}
	b.Method = ColourMethod(data[0])
	b.Precedence = data[1]
	b.Approximation = data[2]
	switch b.Method {
	case MethodEnumerated:
		if len(data) < 7 {
			return fmt.Errorf("colr: enumerated colourspace truncated: %w", ErrTruncated)
		}
		b.EnumCS = binary.BigEndian.Uint32(data[3:7])
	case MethodRestrictedICC, MethodAnyICC:
		b.ICCProfile = append([]byte(nil), data[3:]...)
	}
	return nil
}

// PaletteBox - "pclr" (I.5.3.4).
type PaletteBox struct {
	NumEntries int
	Depths     []uint8    // per palette column, bits 0-6 depth-1, bit 7 sign
	Entries    [][]uint32 // [entry][column]
}

func (b *PaletteBox) parse(data []byte) error {
	if len(data) < 3 {
		return fmt.Errorf("pclr: payload %d bytes, need 3: %w", len(data), ErrTruncated)
	}
	b.NumEntries = int(binary.BigEndian.Uint16(data[0:2]))
	cols := int(data[2])
	if len(data) < 3+cols {
		return fmt.Errorf("pclr: missing column depths: %w", ErrTruncated)
	}
	b.Depths = append([]uint8(nil), data[3:3+cols]...)
	pos := 3 + cols
	b.Entries = make([][]uint32, b.NumEntries)
	for e := 0; e < b.NumEntries; e++ {
		row := make([]uint32, cols)
		for c := 0; c < cols; c++ {
			n := (int(b.Depths[c]&0x7F) + 8) / 8
			if pos+n > len(data) {
				return fmt.Errorf("pclr: palette entries truncated: %w", ErrTruncated)
			}
			var v uint32
			for i := 0; i < n; i++ {
				v = v<<8 | uint32(data[pos+i])
			}
			row[c] = v
			pos += n
		}
		b.Entries[e] = row
	}
	return nil
}

// ComponentMapping is one entry of the "cmap" box (I.5.3.5): which
// codestream component feeds a channel, directly or through a palette
// column. Palette application happens downstream of decode; the mapping is
// preserved for it.
type ComponentMapping struct {
	Component     uint16
	MappingType   uint8 // 0 direct, 1 via palette
	PaletteColumn uint8
}

func parseComponentMap(data []byte) ([]ComponentMapping, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cmap: payload %d bytes is not a multiple of 4: %w", len(data), ErrTruncated)
	}
	maps := make([]ComponentMapping, len(data)/4)
	for i := range maps {
		o := 4 * i
		maps[i] = ComponentMapping{
			Component:     binary.BigEndian.Uint16(data[o:]),
			MappingType:   data[o+2],
			PaletteColumn: data[o+3],
		}
	}
	return maps, nil
}

// ChannelDef is one entry of the "cdef" box (I.5.3.6).
type ChannelDef struct {
	Channel     uint16
	Type        uint16 // 0 colour, 1 opacity, 2 premultiplied opacity
	Association uint16
}

func parseChannelDefs(data []byte) ([]ChannelDef, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("cdef: payload %d bytes, need 2: %w", len(data), ErrTruncated)
	}
	n := int(binary.BigEndian.Uint16(data[0:2]))
	if len(data) < 2+6*n {
		return nil, fmt.Errorf("cdef: %d entries truncated: %w", n, ErrTruncated)
	}
	defs := make([]ChannelDef, n)
	for i := 0; i < n; i++ {
		o := 2 + 6*i
		defs[i] = ChannelDef{
			Channel:     binary.BigEndian.Uint16(data[o:]),
			Type:        binary.BigEndian.Uint16(data[o+2:]),
			Association: binary.BigEndian.Uint16(data[o+4:]),
		}
	}
	return defs, nil
}

// ResolutionBox - "res " with capture/display sub-boxes (I.5.3.7).
type ResolutionBox struct {
	CaptureNumY, CaptureDenY   uint16
	CaptureNumX, CaptureDenX   uint16
	CaptureExpY, CaptureExpX   int8
	DisplayNumY, DisplayDenY   uint16
	DisplayNumX, DisplayDenX   uint16
	DisplayExpY, DisplayExpX   int8
	HasCapture, HasDisplay     bool
}

func (b *ResolutionBox) parse(data []byte) error {
	r := NewReader(bytes.NewReader(data))
	for {
		box, err := r.ReadBox()
		if err != nil {
			break
		}
		if len(box.Contents) < 10 {
			return fmt.Errorf("res: sub-box %q truncated: %w", box.Type, ErrTruncated)
		}
		c := box.Contents
		switch box.Type {
		case TypeCaptureRes:
			b.CaptureNumY = binary.BigEndian.Uint16(c[0:])
			b.CaptureDenY = binary.BigEndian.Uint16(c[2:])
			b.CaptureNumX = binary.BigEndian.Uint16(c[4:])
			b.CaptureDenX = binary.BigEndian.Uint16(c[6:])
			b.CaptureExpY = int8(c[8])
			b.CaptureExpX = int8(c[9])
			b.HasCapture = true
		case TypeDisplayRes:
			b.DisplayNumY = binary.BigEndian.Uint16(c[0:])
			b.DisplayDenY = binary.BigEndian.Uint16(c[2:])
			b.DisplayNumX = binary.BigEndian.Uint16(c[4:])
			b.DisplayDenX = binary.BigEndian.Uint16(c[6:])
			b.DisplayExpY = int8(c[8])
			b.DisplayExpX = int8(c[9])
			b.HasDisplay = true
		}
	}
	return nil
}

// parseHeader parses the jp2h super-box payload.
func parseHeader(data []byte) (*Header, error) {
	h := &Header{}
	r := NewReader(bytes.NewReader(data))
	first := true
	for {
		box, err := r.ReadBox()
		if err != nil {
			break
		}
		switch box.Type {
		case TypeImageHeader:
			if !first {
				return nil, fmt.Errorf("jp2h: ihdr must be the first header box")
			}
			h.ImageHeader = &ImageHeaderBox{}
			if err := h.ImageHeader.parse(box.Contents); err != nil {
				return nil, err
			}
		case TypeBitsPerComp:
			h.BitsPerComp = &BitsPerCompBox{}
			if err := h.BitsPerComp.parse(box.Contents); err != nil {
				return nil, err
			}
		case TypeColourSpec:
			var cs ColourSpecBox
			if err := cs.parse(box.Contents); err != nil {
				return nil, err
			}
			h.ColourSpecs = append(h.ColourSpecs, cs)
		case TypePalette:
			h.Palette = &PaletteBox{}
			if err := h.Palette.parse(box.Contents); err != nil {
				return nil, err
			}
		case TypeComponentMap:
			maps, err := parseComponentMap(box.Contents)
			if err != nil {
				return nil, err
			}
			h.ComponentMaps = maps
		case TypeChannelDef:
			defs, err := parseChannelDefs(box.Contents)
			if err != nil {
				return nil, err
			}
			h.ChannelDefs = defs
		case TypeResolution:
			h.Resolution = &ResolutionBox{}
			if err := h.Resolution.parse(box.Contents); err != nil {
				return nil, err
			}
		}
		first = false
	}
	if h.ImageHeader == nil {
		return nil, fmt.Errorf("jp2h: missing ihdr box")
	}
	if len(h.ColourSpecs) == 0 {
		return nil, fmt.Errorf("jp2h: missing colour specification box")
	}
	return h, nil
}
