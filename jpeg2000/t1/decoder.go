package t1

import (
	"errors"
	"fmt"

	"github.com/jp2kit/go-jp2-codec/jpeg2000/mqc"
)

// Decoder reconstructs one code-block's quantized coefficients from its
// compressed byte segment. Coefficients are signed magnitudes; the
// significance state lives in a flag word per coefficient. The flag plane
// is padded by one on each side so neighbour updates never bounds-check.
type Decoder struct {
	width  int
	height int

	data  []int32  // padded coefficient plane
	flags []uint32 // padded state plane

	mq       *mqc.Decoder
	bitplane int
	orient   int

	style   int
	reset   bool
	segSym  bool
}

// NewDecoder creates a decoder for a width x height code-block with the
// given code-block style flags. Styles the decoder cannot honour
// (bypass, per-pass termination, vertically causal contexts) are rejected
// by Decode.
func NewDecoder(width, height, style int) *Decoder {
	pw, ph := width+2, height+2
	return &Decoder{
		width:  width,
		height: height,
		data:   make([]int32, pw*ph),
		flags:  make([]uint32, pw*ph),
		style:  style,
		reset:  style&StyleReset != 0,
		segSym: style&StyleSegSym != 0,
	}
}

// ErrUnsupportedStyle marks code-block styles outside this decoder's scope.
var ErrUnsupportedStyle = errors.New("unsupported code-block style")

// SetOrientation selects the zero-coding context table variant for the
// subband the code-block belongs to (0=LL, 1=HL, 2=LH, 3=HH).
func (d *Decoder) SetOrientation(orient int) {
	d.orient = orient
}

// Decode runs numPasses coding passes over the byte segment, starting with
// a cleanup pass on maxBitplane (the most significant non-zero bit-plane).
// All numPasses passes run (while bit-planes remain). If the input ends
// mid-pass the MQ decoder synthesizes 1-bits and the remaining passes
// decode from them; truncation is not detected and the later coefficient
// bits are not forced to zero.
func (d *Decoder) Decode(data []byte, numPasses, maxBitplane int) error {
	if d.style&(StyleLazy|StyleTermAll|StyleVSC) != 0 {
		return fmt.Errorf("%w: 0x%02x", ErrUnsupportedStyle, d.style)
	}
	if numPasses <= 0 || maxBitplane < 0 {
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	d.mq = mqc.NewDecoder(data, NumContexts)
	d.initContexts()

	passIdx := 0
	passType := 2 // the first pass on the first plane is cleanup
	for d.bitplane = maxBitplane; d.bitplane >= 0 && passIdx < numPasses; {
		if passType == 0 || passIdx == 0 {
			d.clearVisited()
		}

		switch passType {
		case 0:
			d.sigPropPass()
		case 1:
			d.magRefPass()
		case 2:
			d.cleanupPass()
			if d.segSym {
				// Segmentation symbol: four uniform-context bits.
				for i := 0; i < 4; i++ {
					d.mq.Decode(ctxUNI)
				}
			}
		}
		passIdx++

		if d.reset && passIdx < numPasses {
			d.mq.ResetContexts()
			d.initContexts()
		}

		if passType == 2 {
			passType = 0
			d.bitplane--
		} else {
			passType++
		}
	}
	return nil
}

// initContexts applies the Annex C initial states: uniform 46, run-length
// 3, first zero-coding context 4, everything else 0.
func (d *Decoder) initContexts() {
	d.mq.SetContextState(ctxUNI, 46)
	d.mq.SetContextState(ctxRL, 3)
	d.mq.SetContextState(ctxZCStart, 4)
}

func (d *Decoder) clearVisited() {
	for i := range d.flags {
		d.flags[i] &^= flagVisit
	}
}

// Coefficients returns the decoded plane without padding.
func (d *Decoder) Coefficients() []int32 {
	out := make([]int32, d.width*d.height)
	pw := d.width + 2
	for y := 0; y < d.height; y++ {
		copy(out[y*d.width:(y+1)*d.width], d.data[(y+1)*pw+1:(y+1)*pw+1+d.width])
	}
	return out
}

// sigPropPass decodes the significance-propagation pass: insignificant
// coefficients with at least one significant neighbour.
func (d *Decoder) sigPropPass() {
	pw := d.width + 2
	for k := 0; k < d.height; k += 4 {
		for x := 0; x < d.width; x++ {
			for dy := 0; dy < 4 && k+dy < d.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := d.flags[idx]
				if flags&flagSig != 0 || flags&flagSigAll == 0 {
					continue
				}

				bit := d.mq.Decode(zcContext(flags, d.orient))
				d.flags[idx] |= flagVisit
				if bit != 0 {
					d.becomeSignificant(x, y, idx, flags)
				}
			}
		}
	}
}

// magRefPass decodes the magnitude-refinement pass: significant
// coefficients not already handled at this bit-plane.
func (d *Decoder) magRefPass() {
	pw := d.width + 2
	for k := 0; k < d.height; k += 4 {
		for x := 0; x < d.width; x++ {
			for dy := 0; dy < 4 && k+dy < d.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := d.flags[idx]
				if flags&flagSig == 0 || flags&flagVisit != 0 {
					continue
				}

				bit := d.mq.Decode(mrContext(flags))
				if bit != 0 {
					if d.data[idx] >= 0 {
						d.data[idx] += 1 << uint(d.bitplane)
					} else {
						d.data[idx] -= 1 << uint(d.bitplane)
					}
				}
				d.flags[idx] |= flagRefine
			}
		}
	}
}

// cleanupPass decodes the cleanup pass with the column run-length
// shortcut: a full 4-high column of untouched, neighbour-free
// coefficients costs one run-length bit, plus two uniform bits locating
// the first significant row when the run breaks.
func (d *Decoder) cleanupPass() {
	pw := d.width + 2
	for k := 0; k < d.height; k += 4 {
		for x := 0; x < d.width; x++ {
			runStart := 0
			if k+3 < d.height && d.columnIsQuiet(x, k) {
				if d.mq.Decode(ctxRL) == 0 {
					continue
				}
				r := d.mq.Decode(ctxUNI) << 1
				r |= d.mq.Decode(ctxUNI)
				y := k + r
				idx := (y+1)*pw + x + 1
				// The located coefficient is significant by definition;
				// only its sign is coded.
				d.becomeSignificant(x, y, idx, d.flags[idx])
				d.flags[idx] &^= flagVisit
				runStart = r + 1
			}

			for dy := runStart; dy < 4 && k+dy < d.height; dy++ {
				y := k + dy
				idx := (y+1)*pw + x + 1
				flags := d.flags[idx]
				if flags&(flagVisit|flagSig) != 0 {
					d.flags[idx] &^= flagVisit
					continue
				}
				if d.mq.Decode(zcContext(flags, d.orient)) != 0 {
					d.becomeSignificant(x, y, idx, flags)
				}
				d.flags[idx] &^= flagVisit
			}
		}
	}
}

// columnIsQuiet reports whether the 4-high column at (x, k) qualifies for
// run-length coding: nothing visited, nothing significant, no significant
// neighbours.
func (d *Decoder) columnIsQuiet(x, k int) bool {
	pw := d.width + 2
	for dy := 0; dy < 4; dy++ {
		f := d.flags[(k+dy+1)*pw+x+1]
		if f&(flagVisit|flagSig|flagSigAll) != 0 {
			return false
		}
	}
	return true
}

// becomeSignificant decodes the sign for a newly significant coefficient,
// sets its magnitude to 2^bitplane and propagates the neighbour flags.
// Each coefficient passes through here exactly once per code-block.
func (d *Decoder) becomeSignificant(x, y, idx int, flags uint32) {
	signBit := d.mq.Decode(scContext(flags))
	sign := signBit ^ scPrediction(flags)

	val := int32(1) << uint(d.bitplane)
	if sign != 0 {
		d.flags[idx] |= flagSign
		d.data[idx] = -val
	} else {
		d.data[idx] = val
	}
	d.flags[idx] |= flagSig

	pw := d.width + 2
	neg := sign != 0

	// Horizontal and vertical neighbours learn both significance and sign.
	n := idx - pw
	d.flags[n] |= flagSigS
	if neg {
		d.flags[n] |= flagSignS
	}
	s := idx + pw
	d.flags[s] |= flagSigN
	if neg {
		d.flags[s] |= flagSignN
	}
	w := idx - 1
	d.flags[w] |= flagSigE
	if neg {
		d.flags[w] |= flagSignE
	}
	e := idx + 1
	d.flags[e] |= flagSigW
	if neg {
		d.flags[e] |= flagSignW
	}

	// Diagonals learn significance only.
	d.flags[idx-pw-1] |= flagSigSE
	d.flags[idx-pw+1] |= flagSigSW
	d.flags[idx+pw-1] |= flagSigNE
	d.flags[idx+pw+1] |= flagSigNW
}
