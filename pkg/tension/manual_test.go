package tension

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_PressAppliesOnce(t *testing.T) {
	m := NewManual(0.015, 0)
	now := time.Unix(100, 0)

	assert.True(t, m.Press("q", now))
	assert.False(t, m.Press("z", now))

	var v Vector
	assert.True(t, m.Apply(&v, now))
	assert.InDelta(t, 0.015, v.Up, 1e-12)

	assert.False(t, m.Apply(&v, now.Add(time.Millisecond)))
	assert.InDelta(t, 0.015, v.Up, 1e-12)
}

func TestManual_HoldRepeatsUntilExpiry(t *testing.T) {
	m := NewManual(0.1, 50*time.Millisecond)
	start := time.Unix(100, 0)
	m.Press("w", start)

	var v Vector
	for i := 0; i < 3; i++ {
		m.Apply(&v, start.Add(time.Duration(i*16)*time.Millisecond))
	}
	assert.InDelta(t, 0.3, v.Down, 1e-9)

	assert.False(t, m.Apply(&v, start.Add(60*time.Millisecond)))
	assert.InDelta(t, 0.3, v.Down, 1e-9)
}

func TestManual_ClampsAndOpposes(t *testing.T) {
	m := NewManual(0.5, time.Second)
	now := time.Unix(0, 0)

	v := Vector{Left: 0.9, Right: 0.1}
	m.Press("e", now)
	m.Press("f", now)
	m.Apply(&v, now)
	assert.Equal(t, 1.0, v.Left)
	assert.Equal(t, 0.0, v.Right)

	// winding and unwinding the same wire cancels out
	v = Vector{Up: 0.4}
	m.Release()
	m.Press("q", now)
	m.Press("a", now)
	m.Apply(&v, now)
	assert.InDelta(t, 0.4, v.Up, 1e-12)
}

func TestVector_Clamp(t *testing.T) {
	v := Vector{Up: -0.2, Down: 0.5, Left: 1.7, Right: 1}
	assert.Equal(t, Vector{Up: 0, Down: 0.5, Left: 1, Right: 1}, v.Clamp())

	v = Vector{Up: math.NaN(), Down: math.Inf(1), Left: math.Inf(-1), Right: 0.25}
	assert.Equal(t, Vector{Up: 0, Down: 1, Left: 0, Right: 0.25}, v.Clamp())
}

func TestVector_GetSet(t *testing.T) {
	var v Vector
	for i, w := range AllWires() {
		v.Set(w, float64(i)/10)
	}
	assert.Equal(t, Vector{Up: 0, Down: 0.1, Left: 0.2, Right: 0.3}, v)
	assert.Equal(t, 0.2, v.Get(Left))
	assert.Equal(t, 0.0, v.Get(Wire("bogus")))
}
