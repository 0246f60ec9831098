package wavelet

// Reversible 5-3 filter, integer lifting. 1-D signals are kept in packed
// form: low-pass samples first, high-pass samples after. even=true means
// the signal's first sample sits at an even coordinate (the low-pass side
// starts the interleave); even=false the reverse. The boundary-specialized
// first and last lifting steps realize whole-sample symmetric extension.

// Forward53 decomposes one packed 1-D signal in place.
func Forward53(data []int32, even bool) {
	n := len(data)
	if even {
		if n <= 1 {
			return
		}
		sn := int32((n + 1) >> 1)
		dn := int32(n) - sn
		tmp := make([]int32, n)

		// Predict: h[i] = x[2i+1] - (x[2i] + x[2i+2])>>1, mirrored at the end.
		var i int32
		for i = 0; i < sn-1; i++ {
			tmp[sn+i] = data[2*i+1] - ((data[2*i] + data[2*i+2]) >> 1)
		}
		if n%2 == 0 {
			tmp[sn+i] = data[2*i+1] - data[2*i]
		}

		// Update: l[i] = x[2i] + (h[i-1] + h[i] + 2)>>2, mirrored at both ends.
		data[0] += (tmp[sn] + tmp[sn] + 2) >> 2
		for i = 1; i < dn; i++ {
			data[i] = data[2*i] + ((tmp[sn+i-1] + tmp[sn+i] + 2) >> 2)
		}
		if n%2 == 1 {
			data[i] = data[2*i] + ((tmp[sn+i-1] + tmp[sn+i-1] + 2) >> 2)
		}
		copy(data[sn:], tmp[sn:sn+dn])
		return
	}

	// Odd start: the high-pass side leads the interleave.
	if n == 1 {
		data[0] *= 2
		return
	}
	sn := int32(n >> 1)
	dn := int32(n) - sn
	tmp := make([]int32, n)

	tmp[sn+0] = data[0] - data[1]
	var i int32
	for i = 1; i < sn; i++ {
		tmp[sn+i] = data[2*i] - ((data[2*i+1] + data[2*i-1]) >> 1)
	}
	if n%2 == 1 {
		tmp[sn+i] = data[2*i] - data[2*i-1]
	}

	for i = 0; i < dn-1; i++ {
		data[i] = data[2*i+1] + ((tmp[sn+i] + tmp[sn+i+1] + 2) >> 2)
	}
	if n%2 == 0 {
		data[i] = data[2*i+1] + ((tmp[sn+i] + tmp[sn+i] + 2) >> 2)
	}
	copy(data[sn:], tmp[sn:sn+dn])
}

// Inverse53 reconstructs one packed 1-D signal in place:
//
//	x[2n]   = l[n] - (h[n-1] + h[n] + 2)>>2
//	x[2n+1] = h[n] + (x[2n] + x[2n+2])>>1
func Inverse53(data []int32, even bool) {
	n := len(data)
	if even {
		if n <= 1 {
			return
		}
		sn := int32((n + 1) >> 1)
		tmp := make([]int32, n)

		var dPrev, dCur, sCur, xPrev, xCur int32
		sCur = data[0]
		dCur = data[sn]
		xCur = sCur - ((dCur + 1) >> 1)

		var i, j int32
		for i, j = 0, 1; i < int32(n)-3; i, j = i+2, j+1 {
			dPrev = dCur
			xPrev = xCur
			sCur = data[j]
			dCur = data[sn+j]
			xCur = sCur - ((dPrev + dCur + 2) >> 2)
			tmp[i] = xPrev
			tmp[i+1] = dPrev + ((xPrev + xCur) >> 1)
		}
		tmp[i] = xCur

		if n&1 != 0 {
			tmp[n-1] = data[(n-1)/2] - ((dCur + 1) >> 1)
			tmp[n-2] = dCur + ((xCur + tmp[n-1]) >> 1)
		} else {
			tmp[n-1] = dCur + xCur
		}
		copy(data, tmp)
		return
	}

	// Odd start: high-pass samples occupy the packed head.
	if n == 1 {
		data[0] /= 2
		return
	}
	if n == 2 {
		out1 := data[0] - ((data[1] + 1) >> 1)
		data[0] = data[1] + out1
		data[1] = out1
		return
	}
	sn := int32(n >> 1)
	tmp := make([]int32, n)

	var s1, s2, dc, dn int32
	s1 = data[sn+1]
	dc = data[0] - ((data[sn] + s1 + 2) >> 2)
	tmp[0] = data[sn] + dc

	limit := int32(n) - 2
	if n&1 == 0 {
		limit--
	}
	var i, j int32
	for i, j = 1, 1; i < limit; i, j = i+2, j+1 {
		s2 = data[sn+j+1]
		dn = data[j] - ((s1 + s2 + 2) >> 2)
		tmp[i] = dc
		tmp[i+1] = s1 + ((dn + dc) >> 1)
		dc = dn
		s1 = s2
	}
	tmp[i] = dc

	if n&1 == 0 {
		dn = data[n/2-1] - ((s1 + 1) >> 1)
		tmp[n-2] = s1 + ((dn + dc) >> 1)
		tmp[n-1] = dn
	} else {
		tmp[n-1] = s1 + dc
	}
	copy(data, tmp)
}

// forward53Level decomposes one window of a 2-D plane: columns first, then
// rows, matching the inverse order reversed.
func forward53Level(data []int32, width, height, stride int, evenX, evenY bool) {
	if height > 1 {
		col := make([]int32, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			Forward53(col, evenY)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}
	if width > 1 {
		for y := 0; y < height; y++ {
			Forward53(data[y*stride:y*stride+width], evenX)
		}
	}
}

// inverse53Level reconstructs one window: rows first, then columns.
func inverse53Level(data []int32, width, height, stride int, evenX, evenY bool) {
	if width > 1 {
		for y := 0; y < height; y++ {
			Inverse53(data[y*stride:y*stride+width], evenX)
		}
	}
	if height > 1 {
		col := make([]int32, height)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				col[y] = data[y*stride+x]
			}
			Inverse53(col, evenY)
			for y := 0; y < height; y++ {
				data[y*stride+x] = col[y]
			}
		}
	}
}

// Forward53Tile decomposes a tile-component plane `levels` times. The LL of
// each level stays in the top-left window; stride is the full plane width.
// (x0, y0) anchor the plane on the reference grid and decide lifting parity.
func Forward53Tile(data []int32, width, height, stride, levels, x0, y0 int) {
	w, h := width, height
	for level := 0; level < levels; level++ {
		if w <= 1 && h <= 1 {
			break
		}
		forward53Level(data, w, h, stride, isEven(x0), isEven(y0))
		w, h, x0, y0 = NextWindow(w, h, x0, y0)
	}
}

// Inverse53Tile reconstructs a tile-component plane from its `levels`-deep
// subband decomposition, coarsest window first.
func Inverse53Tile(data []int32, width, height, stride, levels, x0, y0 int) {
	ws := make([]int, levels+1)
	hs := make([]int, levels+1)
	xs := make([]int, levels+1)
	ys := make([]int, levels+1)
	ws[0], hs[0], xs[0], ys[0] = width, height, x0, y0
	for i := 1; i <= levels; i++ {
		ws[i], hs[i], xs[i], ys[i] = NextWindow(ws[i-1], hs[i-1], xs[i-1], ys[i-1])
	}
	for level := levels - 1; level >= 0; level-- {
		inverse53Level(data, ws[level], hs[level], stride, isEven(xs[level]), isEven(ys[level]))
	}
}
