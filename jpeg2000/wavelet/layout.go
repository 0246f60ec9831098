// Package wavelet implements the lifting-based discrete wavelet transforms
// of JPEG 2000: reversible 5-3 and irreversible 9-7, both directions.
// Reference: ISO/IEC 15444-1:2019 Annex F
package wavelet

// Subband lengths follow the ceiling rule: with an even start offset the
// low-pass side takes ceil(n/2) samples, with an odd start floor(n/2).
// Using floor division on the low side instead is off by one for odd
// lengths.

// LowpassLen returns the low-pass sample count of a length-n signal whose
// first sample sits at an even (even=true) or odd coordinate.
func LowpassLen(n int, even bool) int {
	if even {
		return (n + 1) / 2
	}
	return n / 2
}

func isEven(v int) bool { return v&1 == 0 }

// NextWindow maps a (width, height, x0, y0) window to the window of its LL
// subband after one decomposition.
func NextWindow(width, height, x0, y0 int) (w, h, nx0, ny0 int) {
	w = LowpassLen(width, isEven(x0))
	h = LowpassLen(height, isEven(y0))
	nx0 = (x0 + 1) >> 1
	ny0 = (y0 + 1) >> 1
	return w, h, nx0, ny0
}

// LLDimensions returns the LL subband size after `levels` decompositions of
// a window anchored at (x0, y0).
func LLDimensions(width, height, levels, x0, y0 int) (llWidth, llHeight int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	for level := 0; level < levels; level++ {
		if width <= 1 && height <= 1 {
			break
		}
		width, height, x0, y0 = NextWindow(width, height, x0, y0)
	}
	return width, height
}
