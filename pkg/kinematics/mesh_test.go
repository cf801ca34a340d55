package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/origami/pkg/tension"
)

func TestMesh_Shape(t *testing.T) {
	g := DefaultGeometry()
	a := NewActuator(g)

	mesh := a.Mesh()
	require.Len(t, mesh, g.Segments)
	for i, seg := range mesh {
		require.Len(t, seg, 2*g.Panels, "segment %d", i)
	}

	// at rest every bottom vertex of the first segment lies on the base ring
	for _, tri := range mesh[0] {
		for _, v := range tri[:2] {
			if v.Y != 0 {
				continue
			}
			assert.InDelta(t, g.Radius, math.Hypot(v.X, v.Z), eps)
		}
	}
}

func TestMesh_CompressionWidensAndStaysAboveGround(t *testing.T) {
	g := steepGeometry()
	a := NewActuator(g)
	a.Advance(tension.Vector{Up: 1, Down: 1, Left: 1, Right: 1})

	wantR := g.Radius + (g.Radius*g.MinRadiusRatio-g.Radius)*MaxCompression
	first := a.Mesh()[0][0][0]
	assert.InDelta(t, wantR, math.Hypot(first.X, first.Z), eps)

	a.Advance(tension.Vector{Up: 1, Right: 0.8})
	for _, seg := range a.Mesh() {
		for _, tri := range seg {
			for _, v := range tri {
				assert.GreaterOrEqual(t, v.Y, 0.0)
			}
		}
	}
}

func TestWireLines_AtRest(t *testing.T) {
	g := DefaultGeometry()
	a := NewActuator(g)
	a.Advance(tension.Vector{})

	lines := a.WireLines()
	require.Len(t, lines, 4)
	assert.Equal(t, tension.Up, lines[0].Wire)

	up := lines[0]
	assert.InDelta(t, 0, up.Base.X, eps)
	assert.InDelta(t, g.Radius*g.WireBaseScale, up.Base.Z, eps)
	assert.InDelta(t, 400, up.Head.Y, eps)
	assert.InDelta(t, g.Radius*g.WireHeadScale, up.Head.Z, eps)

	right := lines[3]
	assert.InDelta(t, g.Radius*g.WireBaseScale, right.Base.X, eps)
}

func TestWireLines_CarryTension(t *testing.T) {
	a := NewActuator(DefaultGeometry())
	a.Advance(tension.Vector{Up: 0.2, Down: 0.4, Left: 0.6, Right: 0.8})

	for i, l := range a.WireLines() {
		assert.InDelta(t, 0.2*float64(i+1), l.Tension, eps)
	}
}
