package t2

// Progression orders define the nesting of the (layer, resolution,
// component, precinct) packet iteration. Packet parsing itself is
// orthogonal to the order.
// Reference: ISO/IEC 15444-1:2019 B.12

// ProgressionOrder enumerates the five Part 1 progression orders.
type ProgressionOrder uint8

// Progression order values as carried by COD/POC.
const (
	ProgressionLRCP ProgressionOrder = 0
	ProgressionRLCP ProgressionOrder = 1
	ProgressionRPCL ProgressionOrder = 2
	ProgressionPCRL ProgressionOrder = 3
	ProgressionCPRL ProgressionOrder = 4
)

// String returns the progression order name.
func (p ProgressionOrder) String() string {
	switch p {
	case ProgressionLRCP:
		return "LRCP"
	case ProgressionRLCP:
		return "RLCP"
	case ProgressionRPCL:
		return "RPCL"
	case ProgressionPCRL:
		return "PCRL"
	case ProgressionCPRL:
		return "CPRL"
	}
	return "UNKNOWN"
}

// PacketCoord addresses one packet within a tile.
type PacketCoord struct {
	Layer    int
	Res      int
	Comp     int
	Precinct int
}

// ProgressionChange is one POC entry: a sub-range of the packet space
// iterated with its own order. Entries apply in sequence.
type ProgressionChange struct {
	ResStart  int
	CompStart int
	LayerEnd  int
	ResEnd    int
	CompEnd   int
	Order     ProgressionOrder
}

// PacketSequence expands the tile's packet iteration into an explicit
// sequence. When POC entries are present they replace the COD order.
func PacketSequence(geos []*Geometry, numLayers int, order ProgressionOrder, changes []ProgressionChange) []PacketCoord {
	maxRes := 0
	for _, g := range geos {
		if n := g.NumResolutions(); n > maxRes {
			maxRes = n
		}
	}
	if len(changes) == 0 {
		return appendRange(nil, geos, order, 0, numLayers, 0, maxRes, 0, len(geos))
	}
	var seq []PacketCoord
	for _, ch := range changes {
		r1 := min(ch.ResEnd, maxRes)
		c1 := min(ch.CompEnd, len(geos))
		l1 := min(ch.LayerEnd, numLayers)
		seq = appendRange(seq, geos, ch.Order, 0, l1, ch.ResStart, r1, ch.CompStart, c1)
	}
	return seq
}

func numPrecincts(g *Geometry, r int) int {
	if r >= g.NumResolutions() {
		return 0
	}
	npx, npy := g.NumPrecincts(r)
	return npx * npy
}

// appendRange emits the packets of one (layer, res, comp) sub-range in the
// given order. Precinct position iteration is by precinct index in raster
// order, which coincides with the positional scan whenever the components
// share a precinct grid (unit subsampling or the single-precinct default).
func appendRange(seq []PacketCoord, geos []*Geometry, order ProgressionOrder, l0, l1, r0, r1, c0, c1 int) []PacketCoord {
	maxPrec := func(r int) int {
		n := 0
		for c := c0; c < c1; c++ {
			if np := numPrecincts(geos[c], r); np > n {
				n = np
			}
		}
		return n
	}

	emit := func(l, r, c, p int) []PacketCoord {
		if r < geos[c].NumResolutions() && p < numPrecincts(geos[c], r) {
			seq = append(seq, PacketCoord{Layer: l, Res: r, Comp: c, Precinct: p})
		}
		return seq
	}

	switch order {
	case ProgressionRLCP:
		for r := r0; r < r1; r++ {
			for l := l0; l < l1; l++ {
				for c := c0; c < c1; c++ {
					for p := 0; p < numPrecincts(geos[c], r); p++ {
						seq = emit(l, r, c, p)
					}
				}
			}
		}
	case ProgressionRPCL:
		for r := r0; r < r1; r++ {
			for p := 0; p < maxPrec(r); p++ {
				for c := c0; c < c1; c++ {
					for l := l0; l < l1; l++ {
						seq = emit(l, r, c, p)
					}
				}
			}
		}
	case ProgressionPCRL:
		mp := 0
		for r := r0; r < r1; r++ {
			if n := maxPrec(r); n > mp {
				mp = n
			}
		}
		for p := 0; p < mp; p++ {
			for c := c0; c < c1; c++ {
				for r := r0; r < r1; r++ {
					for l := l0; l < l1; l++ {
						seq = emit(l, r, c, p)
					}
				}
			}
		}
	case ProgressionCPRL:
		for c := c0; c < c1; c++ {
			mp := 0
			for r := r0; r < r1; r++ {
				if n := numPrecincts(geos[c], r); n > mp {
					mp = n
				}
			}
			for p := 0; p < mp; p++ {
				for r := r0; r < r1; r++ {
					for l := l0; l < l1; l++ {
						seq = emit(l, r, c, p)
					}
				}
			}
		}
	default: // LRCP
		for l := l0; l < l1; l++ {
			for r := r0; r < r1; r++ {
				for c := c0; c < c1; c++ {
					for p := 0; p < numPrecincts(geos[c], r); p++ {
						seq = emit(l, r, c, p)
					}
				}
			}
		}
	}
	return seq
}
