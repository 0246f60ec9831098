package jpeg2000

import (
	"log/slog"

	"github.com/jp2kit/go-jp2-codec/jpeg2000/codestream"
	"github.com/jp2kit/go-jp2-codec/jpeg2000/colorspace"
)

// defaultSampleLimit caps derived tile-component sizes so hostile SIZ
// values cannot force unbounded allocation.
const defaultSampleLimit = int64(1) << 30

// Decoder decodes a JPEG 2000 Part 1 codestream into per-component sample
// planes. The decode is strictly single-threaded and synchronous; it either
// completes or fails with the first error encountered. No partial output is
// produced on failure.
type Decoder struct {
	maxTileSamples int64

	cs     *codestream.Codestream
	planes [][]int32
	width  []int
	height []int
}

// NewDecoder creates a decoder with the default resource bounds.
func NewDecoder() *Decoder {
	return &Decoder{maxTileSamples: defaultSampleLimit}
}

// SetSampleLimit bounds the per-tile-component sample count derived from
// SIZ; decode fails with a resource error beyond it.
func (d *Decoder) SetSampleLimit(n int64) {
	if n > 0 {
		d.maxTileSamples = n
	}
}

// Decode decodes a raw codestream (SOC..EOC).
func (d *Decoder) Decode(data []byte) error {
	parser := codestream.NewParser(data)
	cs, err := parser.Parse()
	if err != nil {
		return err
	}
	d.cs = cs

	asm := newAssembler(cs.SIZ)
	for _, tile := range cs.Tiles {
		comps, planes, err := d.decodeTile(cs, tile)
		if err != nil {
			return err
		}
		if err := asm.placeTile(tile.Index, comps, planes); err != nil {
			return err
		}
	}

	d.planes = asm.planes
	d.width = asm.width
	d.height = asm.height
	d.levelShift()
	return nil
}

// levelShift adds 2^(precision-1) to unsigned components and clips every
// sample to its component's declared range.
func (d *Decoder) levelShift() {
	for c, plane := range d.planes {
		depth := d.componentDepth(c)
		signed := d.cs.SIZ.Components[c].IsSigned()
		var lo, hi, shift int32
		if signed {
			lo = -(int32(1) << (depth - 1))
			hi = int32(1)<<(depth-1) - 1
		} else {
			shift = int32(1) << (depth - 1)
			lo = 0
			hi = int32(1)<<depth - 1
		}
		for i, v := range plane {
			v += shift
			if v < lo {
				v = lo
			}
			if v > hi {
				v = hi
			}
			plane[i] = v
		}
	}
}

func (d *Decoder) componentDepth(c int) int {
	return d.cs.SIZ.Components[c].BitDepth()
}

// Components returns the component count.
func (d *Decoder) Components() int { return len(d.planes) }

// Width returns component c's sample width.
func (d *Decoder) Width(c int) int { return d.width[c] }

// Height returns component c's sample height.
func (d *Decoder) Height(c int) int { return d.height[c] }

// BitDepth returns component c's declared precision in bits.
func (d *Decoder) BitDepth(c int) int { return d.componentDepth(c) }

// IsSigned reports whether component c carries signed samples.
func (d *Decoder) IsSigned(c int) bool { return d.cs.SIZ.Components[c].IsSigned() }

// Plane returns component c's decoded samples in row-major order.
func (d *Decoder) Plane(c int) []int32 { return d.planes[c] }

// Codestream exposes the parsed marker segments, for inspection tools.
func (d *Decoder) Codestream() *codestream.Codestream { return d.cs }

// inverseMCT undoes the component decorrelation on a tile's first three
// planes when the COD flags it: RCT under the 5-3 filter, ICT under 9-7.
func inverseMCT(tileIndex int, comps []*tileComponent, planes [][]int32) {
	if len(planes) < 3 || planes[0] == nil || planes[1] == nil || planes[2] == nil {
		return
	}
	n := len(planes[0])
	if len(planes[1]) != n || len(planes[2]) != n {
		slog.Warn("component transform flagged but component grids differ, skipped",
			"tile", tileIndex)
		return
	}
	if comps[0].cod.Reversible() {
		colorspace.InverseRCT(planes[0], planes[1], planes[2])
	} else {
		colorspace.InverseICT(planes[0], planes[1], planes[2])
	}
}
