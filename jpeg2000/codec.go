package jpeg2000

import (
	"bytes"

	"github.com/jp2kit/go-jp2-codec/codec"
	"github.com/jp2kit/go-jp2-codec/jp2"
)

// Codec adapts the decoder to the codec registry: it accepts both JP2
// files and raw codestreams and returns dense component planes.
type Codec struct {
	sampleLimit int64
}

// NewCodec creates a registry-ready JPEG 2000 decoder.
func NewCodec() *Codec {
	return &Codec{}
}

// SetSampleLimit bounds per-tile-component allocation, as on Decoder.
func (c *Codec) SetSampleLimit(n int64) {
	c.sampleLimit = n
}

// Name returns the registry key.
func (c *Codec) Name() string { return "jpeg2000" }

var jp2Signature = []byte{0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20, 0x0D, 0x0A, 0x87, 0x0A}

// Sniff accepts the JP2 signature box or a bare SOC marker.
func (c *Codec) Sniff(prefix []byte) bool {
	if jp2.IsRawCodestream(prefix) {
		return true
	}
	return len(prefix) >= len(jp2Signature) && bytes.Equal(prefix[:len(jp2Signature)], jp2Signature)
}

// Decode decodes a JP2 file or raw codestream into component planes.
func (c *Codec) Decode(data []byte) (*codec.Result, error) {
	stream := data
	if !jp2.IsRawCodestream(data) {
		f, err := jp2.ReadFile(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		stream = f.Codestreams[0]
	}

	d := NewDecoder()
	if c.sampleLimit > 0 {
		d.SetSampleLimit(c.sampleLimit)
	}
	if err := d.Decode(stream); err != nil {
		return nil, err
	}

	res := &codec.Result{Planes: make([]codec.Plane, d.Components())}
	for i := range res.Planes {
		res.Planes[i] = codec.Plane{
			Data:     d.Plane(i),
			Width:    d.Width(i),
			Height:   d.Height(i),
			BitDepth: d.BitDepth(i),
			Signed:   d.IsSigned(i),
		}
	}
	return res, nil
}
