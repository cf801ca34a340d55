package tension

import "math"

// Vector holds the four wire tensions, each in [0,1]:
// 0 is a slack wire (open finger), 1 a fully wound wire (curled finger).
type Vector struct {
	Up    float64 `json:"up"`
	Down  float64 `json:"down"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Get returns the tension of w.
func (v Vector) Get(w Wire) float64 {
	switch w {
	case Up:
		return v.Up
	case Down:
		return v.Down
	case Left:
		return v.Left
	case Right:
		return v.Right
	}
	return 0
}

// Set stores the tension of w without clamping.
func (v *Vector) Set(w Wire, t float64) {
	switch w {
	case Up:
		v.Up = t
	case Down:
		v.Down = t
	case Left:
		v.Left = t
	case Right:
		v.Right = t
	}
}

// Clamp returns v with every component limited to [0,1].
func (v Vector) Clamp() Vector {
	return Vector{
		Up:    Clamp01(v.Up),
		Down:  Clamp01(v.Down),
		Left:  Clamp01(v.Left),
		Right: Clamp01(v.Right),
	}
}

// Clamp01 limits x to [0,1]. NaN maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return min(max(x, 0), 1)
}
