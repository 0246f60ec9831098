package t2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketSequenceLRCP(t *testing.T) {
	g := &Geometry{
		TileComp:   Rect{0, 0, 64, 64},
		NumLevels:  2,
		CodeBlockW: 6,
		CodeBlockH: 6,
	}
	geos := []*Geometry{g, g}

	seq := PacketSequence(geos, 3, ProgressionLRCP, nil)
	// 3 layers x 3 resolutions x 2 components x 1 precinct.
	require.Len(t, seq, 18)

	// Layer is the slowest axis, component the fastest before precinct.
	assert.Equal(t, PacketCoord{Layer: 0, Res: 0, Comp: 0}, seq[0])
	assert.Equal(t, PacketCoord{Layer: 0, Res: 0, Comp: 1}, seq[1])
	assert.Equal(t, PacketCoord{Layer: 0, Res: 1, Comp: 0}, seq[2])
	assert.Equal(t, PacketCoord{Layer: 1, Res: 0, Comp: 0}, seq[6])
}

func TestPacketSequenceRLCP(t *testing.T) {
	g := &Geometry{
		TileComp:   Rect{0, 0, 32, 32},
		NumLevels:  1,
		CodeBlockW: 6,
		CodeBlockH: 6,
	}
	seq := PacketSequence([]*Geometry{g}, 2, ProgressionRLCP, nil)
	require.Len(t, seq, 4)
	assert.Equal(t, PacketCoord{Layer: 0, Res: 0}, seq[0])
	assert.Equal(t, PacketCoord{Layer: 1, Res: 0}, seq[1])
	assert.Equal(t, PacketCoord{Layer: 0, Res: 1}, seq[2])
	assert.Equal(t, PacketCoord{Layer: 1, Res: 1}, seq[3])
}

func TestPacketSequencePOC(t *testing.T) {
	g := &Geometry{
		TileComp:   Rect{0, 0, 32, 32},
		NumLevels:  1,
		CodeBlockW: 6,
		CodeBlockH: 6,
	}
	// Two POC segments: resolution 0 first across both layers, then
	// resolution 1.
	changes := []ProgressionChange{
		{ResStart: 0, ResEnd: 1, CompStart: 0, CompEnd: 1, LayerEnd: 2, Order: ProgressionLRCP},
		{ResStart: 1, ResEnd: 2, CompStart: 0, CompEnd: 1, LayerEnd: 2, Order: ProgressionLRCP},
	}
	seq := PacketSequence([]*Geometry{g}, 2, ProgressionLRCP, changes)
	require.Len(t, seq, 4)
	assert.Equal(t, PacketCoord{Layer: 0, Res: 0}, seq[0])
	assert.Equal(t, PacketCoord{Layer: 1, Res: 0}, seq[1])
	assert.Equal(t, PacketCoord{Layer: 0, Res: 1}, seq[2])
	assert.Equal(t, PacketCoord{Layer: 1, Res: 1}, seq[3])
}

func TestPacketSequenceComponentsDiffer(t *testing.T) {
	// Components with different decomposition depths: resolutions a
	// component lacks contribute no packets.
	g2 := &Geometry{TileComp: Rect{0, 0, 32, 32}, NumLevels: 2, CodeBlockW: 6, CodeBlockH: 6}
	g0 := &Geometry{TileComp: Rect{0, 0, 32, 32}, NumLevels: 0, CodeBlockW: 6, CodeBlockH: 6}

	seq := PacketSequence([]*Geometry{g2, g0}, 1, ProgressionLRCP, nil)
	// comp0: 3 resolutions, comp1: 1 resolution.
	require.Len(t, seq, 4)
}
