// Package colorspace implements the Part 1 multiple-component transforms.
// Reference: ISO/IEC 15444-1:2019 Annex G
package colorspace

import "math"

// InverseRCT undoes the reversible colour transform in place on the first
// three component planes. Used with the 5-3 filter.
func InverseRCT(c0, c1, c2 []int32) {
	for i := range c0 {
		y, cb, cr := c0[i], c1[i], c2[i]
		g := y - ((cb + cr) >> 2)
		c0[i] = cr + g // red
		c1[i] = g
		c2[i] = cb + g // blue
	}
}

// ForwardRCT applies the reversible colour transform in place:
// Y = (R + 2G + B)>>2, Cb = B - G, Cr = R - G.
func ForwardRCT(c0, c1, c2 []int32) {
	for i := range c0 {
		r, g, b := c0[i], c1[i], c2[i]
		c0[i] = (r + 2*g + b) >> 2
		c1[i] = b - g
		c2[i] = r - g
	}
}

// InverseICT undoes the irreversible colour transform in place. Used with
// the 9-7 filter; samples are level-shifted already.
func InverseICT(c0, c1, c2 []int32) {
	for i := range c0 {
		y := float64(c0[i])
		cb := float64(c1[i])
		cr := float64(c2[i])
		c0[i] = int32(math.Round(y + 1.402*cr))
		c1[i] = int32(math.Round(y - 0.34413*cb - 0.71414*cr))
		c2[i] = int32(math.Round(y + 1.772*cb))
	}
}

// ForwardICT applies the irreversible colour transform in place.
func ForwardICT(c0, c1, c2 []int32) {
	for i := range c0 {
		r := float64(c0[i])
		g := float64(c1[i])
		b := float64(c2[i])
		c0[i] = int32(math.Round(0.299*r + 0.587*g + 0.114*b))
		c1[i] = int32(math.Round(-0.16875*r - 0.33126*g + 0.5*b))
		c2[i] = int32(math.Round(0.5*r - 0.41869*g - 0.08131*b))
	}
}
