// Package handtrack receives hand landmarks from an external detector.
//
// The landmark model itself (MediaPipe, ml5 handPose, ...) runs in another
// process and streams one JSON frame per detection. Sources in this package
// decode those frames and hand the newest one to the simulation through a
// single-slot Slot.
package handtrack

import (
	"context"
	"math"
	"time"
)

// Landmark indices used by the rig.
const (
	Wrist        = 0
	IndexTip     = 8
	MiddleBase   = 9
	MiddleTip    = 12
	RingTip      = 16
	PinkyTip     = 20
	NumKeypoints = 21
)

// Point is one landmark in source-video pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Dist2D returns the image-plane distance between two landmarks.
func (p Point) Dist2D(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Hand is one detected hand.
type Hand struct {
	Keypoints  []Point `json:"keypoints"`
	Handedness string  `json:"handedness,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// Complete reports whether the hand carries the full 21-point skeleton.
func (h Hand) Complete() bool {
	return len(h.Keypoints) >= NumKeypoints
}

// Frame is the complete detector output for one video frame.
type Frame struct {
	Hands    []Hand    `json:"hands"`
	Received time.Time `json:"-"`
}

// Detector runs continuous detection and publishes every frame into a Slot.
type Detector interface {
	// Run blocks until ctx is done or the source fails.
	Run(ctx context.Context, out *Slot) error
	// Ready reports whether the detector has finished initializing.
	Ready() bool
}
