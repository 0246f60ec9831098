package jpeg2000

import (
	"math"

	"github.com/jp2kit/go-jp2-codec/jpeg2000/codestream"
	"github.com/jp2kit/go-jp2-codec/jpeg2000/t2"
)

// Quantization parameter derivation and dequantization.
// Reference: ISO/IEC 15444-1:2019 Annex E

// bandQuant holds the derived quantization parameters of one subband.
type bandQuant struct {
	exponent int     // epsilon_b
	mantissa int     // mu_b (irreversible styles only)
	step     float64 // delta_b
	numBPS   int     // Mb = guard bits + epsilon_b - 1
}

// bandGain returns log2 of the subband gain: 0 for LL, 1 for HL/LH, 2 for HH.
func bandGain(b t2.Band) int {
	switch b {
	case t2.BandHL, t2.BandLH:
		return 1
	case t2.BandHH:
		return 2
	}
	return 0
}

// subbandIndex maps (resolution, band) to the SPqcd entry order:
// LL, HL1, LH1, HH1, HL2, ...
func subbandIndex(res int, b t2.Band) int {
	if res == 0 {
		return 0
	}
	return 1 + 3*(res-1) + int(b-t2.BandHL)
}

// deriveBandQuant computes a subband's quantization parameters from the
// resolved QCD/QCC segment. bitDepth is the component precision; levels the
// decomposition count of the tile-component.
func deriveBandQuant(qcd *codestream.QCDSegment, bitDepth, levels, res int, b t2.Band) (bandQuant, error) {
	guard := qcd.GuardBits()
	var q bandQuant

	switch qcd.QuantizationType() {
	case codestream.QuantNone:
		// Reversible: one exponent byte per subband.
		idx := subbandIndex(res, b)
		if idx >= len(qcd.SPqcd) {
			return q, codestreamError("QCD", "missing reversible step for subband %d", idx)
		}
		q.exponent = int(qcd.SPqcd[idx] >> 3)
		q.step = 1
		q.numBPS = guard + q.exponent - 1

	case codestream.QuantScalarDerived:
		// One 16-bit step; deeper subbands derive by exponent scaling.
		if len(qcd.SPqcd) < 2 {
			return q, codestreamError("QCD", "missing derived step size")
		}
		raw := int(qcd.SPqcd[0])<<8 | int(qcd.SPqcd[1])
		e0 := raw >> 11
		mu := raw & 0x7FF
		// epsilon_b = epsilon_0 - N_L + n_b: the deepest LL and the
		// resolution-1 bands keep the signalled exponent, each higher
		// resolution loses one more.
		q.exponent = e0 - nbFromRes(levels, res)
		q.mantissa = mu
		q.numBPS = guard + q.exponent - 1
		q.step = stepSize(q.exponent, mu, bitDepth, bandGain(b))

	case codestream.QuantScalarExpounded:
		idx := subbandIndex(res, b)
		if 2*idx+1 >= len(qcd.SPqcd) {
			return q, codestreamError("QCD", "missing expounded step for subband %d", idx)
		}
		raw := int(qcd.SPqcd[2*idx])<<8 | int(qcd.SPqcd[2*idx+1])
		q.exponent = raw >> 11
		q.mantissa = raw & 0x7FF
		q.numBPS = guard + q.exponent - 1
		q.step = stepSize(q.exponent, q.mantissa, bitDepth, bandGain(b))

	default:
		return q, codestreamError("QCD", "reserved quantization style %d", qcd.QuantizationType())
	}
	return q, nil
}

// nbFromRes returns N - n_b for the scalar-derived exponent rule: zero for
// the deepest LL, growing with resolution.
func nbFromRes(levels, res int) int {
	if res == 0 {
		return 0
	}
	return res - 1
}

// stepSize computes delta_b = 2^(Rb - eps) * (1 + mu/2^11) with
// Rb = bitDepth + gain.
func stepSize(exponent, mantissa, bitDepth, gain int) float64 {
	rb := bitDepth + gain
	return math.Ldexp(1+float64(mantissa)/2048, rb-exponent)
}

// dequantize maps a decoded signed magnitude back to a reconstruction
// value. For reversible coding the magnitude is the coefficient. For
// irreversible coding the value is (|m| + r*2^shift) * step with the
// reconstruction bias r = 0.5, zero staying zero; shift covers bit-planes
// the code-block never decoded.
func dequantize(m int32, q bandQuant, reversible bool, undecodedPlanes int) float64 {
	if m == 0 {
		return 0
	}
	if reversible {
		return float64(m)
	}
	mag := float64(m)
	neg := false
	if mag < 0 {
		mag = -mag
		neg = true
	}
	v := (mag + 0.5*math.Ldexp(1, undecodedPlanes)) * q.step
	if neg {
		return -v
	}
	return v
}
