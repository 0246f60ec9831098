// Package t1 implements the EBCOT Tier-1 bit-plane coder.
// Reference: ISO/IEC 15444-1:2019 Annex D
package t1

// Context labels for the 19 adaptive MQ contexts used by the three coding
// passes.
const (
	// Zero-coding contexts (significance propagation and cleanup).
	ctxZCStart = 0

	// Sign-coding contexts.
	ctxSCStart = 9

	// Magnitude-refinement contexts.
	ctxMRStart = 14

	// Run-length context (cleanup column runs).
	ctxRL = 17

	// Uniform context (run position bits, segmentation symbols).
	ctxUNI = 18

	// NumContexts is the size of the MQ context table.
	NumContexts = 19
)

// Code-block style flags (Table A.19).
const (
	StyleLazy    = 0x01 // selective arithmetic coding bypass
	StyleReset   = 0x02 // context reset on each pass boundary
	StyleTermAll = 0x04 // termination on each pass
	StyleVSC     = 0x08 // vertically causal context formation
	StylePTerm   = 0x10 // predictable termination
	StyleSegSym  = 0x20 // segmentation symbols after each cleanup
)

// Per-coefficient state flags. Neighbour significance and sign bits are
// mirrored into the neighbours' words when a coefficient becomes
// significant, so context formation is a single flag-word lookup.
const (
	flagSig    = 0x0001
	flagRefine = 0x0002
	flagVisit  = 0x0004

	flagSigN  = 0x0010
	flagSigS  = 0x0020
	flagSigW  = 0x0040
	flagSigE  = 0x0080
	flagSigNW = 0x0100
	flagSigNE = 0x0200
	flagSigSW = 0x0400
	flagSigSE = 0x0800

	flagSigAll = flagSigN | flagSigS | flagSigW | flagSigE |
		flagSigNW | flagSigNE | flagSigSW | flagSigSE

	flagSign  = 0x1000
	flagSignN = 0x2000
	flagSignS = 0x4000
	flagSignW = 0x8000
	flagSignE = 0x10000
)

// zcContext returns the zero-coding context for a coefficient from its
// neighbour significance and the subband orientation (0=LL, 1=HL, 2=LH,
// 3=HH; HL transposes the LH table). 9-bit index layout: NW N NE W - E SW
// S SE.
func zcContext(flags uint32, orient int) int {
	idx := 0
	if flags&flagSigNW != 0 {
		idx |= 1 << 0
	}
	if flags&flagSigN != 0 {
		idx |= 1 << 1
	}
	if flags&flagSigNE != 0 {
		idx |= 1 << 2
	}
	if flags&flagSigW != 0 {
		idx |= 1 << 3
	}
	if flags&flagSigE != 0 {
		idx |= 1 << 5
	}
	if flags&flagSigSW != 0 {
		idx |= 1 << 6
	}
	if flags&flagSigS != 0 {
		idx |= 1 << 7
	}
	if flags&flagSigSE != 0 {
		idx |= 1 << 8
	}
	if orient < 0 || orient > 3 {
		orient = 0
	}
	return int(zcLUT[orient*512+idx])
}

// scIndex builds the shared index for the sign context and sign
// prediction tables from the horizontal and vertical neighbour states.
func scIndex(flags uint32) int {
	idx := 0
	if flags&flagSigW != 0 {
		idx |= 1 << 3
		if flags&flagSignW != 0 {
			idx |= 1 << 0
		}
	}
	if flags&flagSigN != 0 {
		idx |= 1 << 1
		if flags&flagSignN != 0 {
			idx |= 1 << 4
		}
	}
	if flags&flagSigE != 0 {
		idx |= 1 << 5
		if flags&flagSignE != 0 {
			idx |= 1 << 2
		}
	}
	if flags&flagSigS != 0 {
		idx |= 1 << 7
		if flags&flagSignS != 0 {
			idx |= 1 << 6
		}
	}
	return idx
}

// scContext returns the sign-coding context.
func scContext(flags uint32) int {
	return int(scLUT[scIndex(flags)])
}

// scPrediction returns the predicted sign bit, XORed with the decoded bit.
func scPrediction(flags uint32) int {
	return spbLUT[scIndex(flags)]
}

// mrContext returns the magnitude-refinement context: first refinement
// with/without significant neighbours, or any later refinement.
func mrContext(flags uint32) int {
	switch {
	case flags&flagRefine != 0:
		return ctxMRStart + 2
	case flags&flagSigAll != 0:
		return ctxMRStart + 1
	default:
		return ctxMRStart
	}
}
