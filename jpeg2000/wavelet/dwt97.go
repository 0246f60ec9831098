package wavelet

// Irreversible 9-7 filter (Cohen-Daubechies-Feauveau), four lifting steps
// plus scaling, applied on interleaved samples. Same packed [low | high]
// signal convention and parity rules as the 5-3 filter.

// Lifting constants (Table F.4) and the normalization factor K.
const (
	alpha = -1.586134342
	beta  = -0.052980118
	gamma = 0.882911075
	delta = 0.443506852

	scaleK    = 1.230174105
	scaleInvK = 0.812893066
)

// Forward97 decomposes one packed 1-D signal in place.
func Forward97(data []float64, even bool) {
	n := len(data)
	if n <= 1 {
		return
	}
	sn, dn, a, b := split97(n, even)

	// The forward direction lifts the natural sample order in place and
	// packs the two phases afterwards.
	lift97(data, a, b+1, dn, minI32(dn, sn-b), alpha)
	lift97(data, b, a+1, sn, minI32(sn, dn-a), beta)
	lift97(data, a, b+1, dn, minI32(dn, sn-b), gamma)
	lift97(data, b, a+1, sn, minI32(sn, dn-a), delta)
	if a == 0 {
		scale97(data, sn, dn, scaleInvK, scaleK, false)
	} else {
		scale97(data, dn, sn, scaleK, scaleInvK, false)
	}

	deinterleave(data, dn, sn, even)
}

// Inverse97 reconstructs one packed 1-D signal in place by running the
// lifting steps in reverse with opposite signs and the scales swapped.
func Inverse97(data []float64, even bool) {
	n := len(data)
	if n <= 1 {
		return
	}
	sn, dn, a, b := split97(n, even)

	interleave(data, dn, sn, even)

	if a == 0 {
		scale97(data, sn, dn, scaleInvK, scaleK, true)
	} else {
		scale97(data, dn, sn, scaleK, scaleInvK, true)
	}
	lift97(data, b, a+1, sn, minI32(sn, dn-a), -delta)
	lift97(data, a, b+1, dn, minI32(dn, sn-b), -gamma)
	lift97(data, b, a+1, sn, minI32(sn, dn-a), -beta)
	lift97(data, a, b+1, dn, minI32(dn, sn-b), -alpha)
}

// split97 returns the low/high sample counts and the interleave phases:
// a is the low-pass phase, b the high-pass phase.
func split97(n int, even bool) (sn, dn, a, b int32) {
	if even {
		sn = int32((n + 1) >> 1)
		a, b = 0, 1
	} else {
		sn = int32(n >> 1)
		a, b = 1, 0
	}
	dn = int32(n) - sn
	return sn, dn, a, b
}

// lift97 applies one lifting step on interleaved samples. The first and
// past-the-end iterations mirror their missing neighbour, realizing the
// symmetric extension.
func lift97(data []float64, flStart, fwStart, end, m int32, c float64) {
	imax := minI32(end, m)
	if imax > 0 {
		fw := fwStart
		data[fw-1] += (data[flStart] + data[fw]) * c
		fw += 2
		for i := int32(1); i < imax; i++ {
			data[fw-1] += (data[fw-2] + data[fw]) * c
			fw += 2
		}
	}
	if m < end {
		fw := fwStart + 2*m
		data[fw-1] += 2 * data[fw-2] * c
	}
}

// scale97 multiplies (or divides, for the inverse) the two interleaved
// phases by their normalization factors.
func scale97(data []float64, itersC1, itersC2 int32, c1, c2 float64, invert bool) {
	if invert {
		c1, c2 = 1/c1, 1/c2
	}
	common := minI32(itersC1, itersC2)
	var i int32
	fw := int32(0)
	for i = 0; i < common; i++ {
		data[fw] *= c1
		data[fw+1] *= c2
		fw += 2
	}
	if i < itersC1 {
		data[fw] *= c1
	} else if i < itersC2 {
		data[fw+1] *= c2
	}
}

// interleave converts packed [low | high] to interleaved phase order.
func interleave(data []float64, dn, sn int32, even bool) {
	tmp := make([]float64, int(dn+sn))
	if even {
		for i := int32(0); i < sn; i++ {
			tmp[2*i] = data[i]
		}
		for i := int32(0); i < dn; i++ {
			tmp[2*i+1] = data[sn+i]
		}
	} else {
		for i := int32(0); i < sn; i++ {
			tmp[2*i+1] = data[i]
		}
		for i := int32(0); i < dn; i++ {
			tmp[2*i] = data[sn+i]
		}
	}
	copy(data, tmp)
}

// deinterleave converts interleaved phase order back to packed [low | high].
func deinterleave(data []float64, dn, sn int32, even bool) {
	tmp := make([]float64, int(dn+sn))
	if even {
		for i := int32(0); i < sn; i++ {
			tmp[i] = data[2*i]
		}
		for i := int32(0); i < dn; i++ {
			tmp[sn+i] = data[2*i+1]
		}
	} else {
		for i := int32(0); i < sn; i++ {
			tmp[i] = data[2*i+1]
		}
		for i := int32(0); i < dn; i++ {
			tmp[sn+i] = data[2*i]
		}
	}
	copy(data, tmp)
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func forward97Level(data []float64, width, height, stride int, evenX, evenY bool) {
	if height > 1 {
		col := make([]float64, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			Forward97(col, evenY)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}
	if width > 1 {
		for y := 0; y < height; y++ {
			Forward97(data[y*stride:y*stride+width], evenX)
		}
	}
}

func inverse97Level(data []float64, width, height, stride int, evenX, evenY bool) {
	if width > 1 {
		for y := 0; y < height; y++ {
			Inverse97(data[y*stride:y*stride+width], evenX)
		}
	}
	if height > 1 {
		col := make([]float64, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			Inverse97(col, evenY)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}
}

// Forward97Tile decomposes a tile-component plane `levels` times; the LL of
// each level stays in the top-left window.
func Forward97Tile(data []float64, width, height, stride, levels, x0, y0 int) {
	w, h := width, height
	for level := 0; level < levels; level++ {
		if w <= 1 && h <= 1 {
			break
		}
		forward97Level(data, w, h, stride, isEven(x0), isEven(y0))
		w, h, x0, y0 = NextWindow(w, h, x0, y0)
	}
}

// Inverse97Tile reconstructs a tile-component plane, coarsest window first.
func Inverse97Tile(data []float64, width, height, stride, levels, x0, y0 int) {
	ws := make([]int, levels+1)
	hs := make([]int, levels+1)
	xs := make([]int, levels+1)
	ys := make([]int, levels+1)
	ws[0], hs[0], xs[0], ys[0] = width, height, x0, y0
	for i := 1; i <= levels; i++ {
		ws[i], hs[i], xs[i], ys[i] = NextWindow(ws[i-1], hs[i-1], xs[i-1], ys[i-1])
	}
	for level := levels - 1; level >= 0; level-- {
		inverse97Level(data, ws[level], hs[level], stride, isEven(xs[level]), isEven(ys[level]))
	}
}
