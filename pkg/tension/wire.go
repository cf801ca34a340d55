// Package tension turns hand landmarks and manual input into the four
// normalized wire tensions that drive the actuator.
package tension

import "github.com/gwillem/origami/pkg/handtrack"

// Wire identifies one control wire of the actuator.
type Wire string

// Wire names. Each is driven by one finger.
const (
	Up    Wire = "up"
	Down  Wire = "down"
	Left  Wire = "left"
	Right Wire = "right"
)

// AllWires returns all wires in command order (matching the wire format).
func AllWires() []Wire {
	return []Wire{
		Up,
		Down,
		Left,
		Right,
	}
}

// Fingertip returns the landmark index of the finger driving w.
func (w Wire) Fingertip() int {
	switch w {
	case Up:
		return handtrack.IndexTip
	case Down:
		return handtrack.MiddleTip
	case Left:
		return handtrack.RingTip
	case Right:
		return handtrack.PinkyTip
	}
	return -1
}

// Finger returns the name of the finger driving w.
func (w Wire) Finger() string {
	switch w {
	case Up:
		return "index"
	case Down:
		return "middle"
	case Left:
		return "ring"
	case Right:
		return "pinky"
	}
	return ""
}
