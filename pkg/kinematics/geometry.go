// Package kinematics models a segmented Kresling-origami actuator bent and
// compressed by four control wires.
package kinematics

import (
	"fmt"
	"math"
)

// Geometry holds the fixed construction constants of the actuator.
// Lengths are in model units (millimetres on the prototype).
type Geometry struct {
	Segments        int     `json:"segments" mapstructure:"segments"`
	SegmentHeight   float64 `json:"segment_height" mapstructure:"segment_height"`
	Radius          float64 `json:"radius" mapstructure:"radius"`
	Panels          int     `json:"panels" mapstructure:"panels"`
	BendSensitivity float64 `json:"bend_sensitivity" mapstructure:"bend_sensitivity"`
	MaxTwistDeg     float64 `json:"max_twist_deg" mapstructure:"max_twist_deg"`
	MaxBendDeg      float64 `json:"max_bend_deg" mapstructure:"max_bend_deg"`
	MinHeightRatio  float64 `json:"min_height_ratio" mapstructure:"min_height_ratio"`
	MinRadiusRatio  float64 `json:"min_radius_ratio" mapstructure:"min_radius_ratio"`
	WireBaseScale   float64 `json:"wire_base_scale" mapstructure:"wire_base_scale"`
	WireHeadScale   float64 `json:"wire_head_scale" mapstructure:"wire_head_scale"`
}

// DefaultGeometry returns the geometry of the eight-segment hexagonal prototype.
func DefaultGeometry() Geometry {
	return Geometry{
		Segments:        8,
		SegmentHeight:   50,
		Radius:          30,
		Panels:          6,
		BendSensitivity: 0.8,
		MaxTwistDeg:     30,
		MaxBendDeg:      10,
		MinHeightRatio:  0.15,
		MinRadiusRatio:  1.2,
		WireBaseScale:   3.5,
		WireHeadScale:   1.3,
	}
}

// Validate checks that the geometry describes a buildable actuator.
func (g Geometry) Validate() error {
	if g.Segments < 1 {
		return fmt.Errorf("segments must be at least 1, got %d", g.Segments)
	}
	if g.SegmentHeight <= 0 {
		return fmt.Errorf("segment height must be positive, got %g", g.SegmentHeight)
	}
	if g.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %g", g.Radius)
	}
	if g.Panels < 3 {
		return fmt.Errorf("panels must be at least 3, got %d", g.Panels)
	}
	if g.MinHeightRatio <= 0 || g.MinHeightRatio >= 1 {
		return fmt.Errorf("min height ratio must be in (0,1), got %g", g.MinHeightRatio)
	}
	if g.MaxBendDeg < 0 {
		return fmt.Errorf("max bend must not be negative, got %g", g.MaxBendDeg)
	}
	if g.BendSensitivity < 0 {
		return fmt.Errorf("bend sensitivity must not be negative, got %g", g.BendSensitivity)
	}
	if g.MaxTwistDeg < 0 {
		return fmt.Errorf("max twist must not be negative, got %g", g.MaxTwistDeg)
	}
	if g.MinRadiusRatio <= 0 {
		return fmt.Errorf("min radius ratio must be positive, got %g", g.MinRadiusRatio)
	}
	if g.WireBaseScale <= 0 || g.WireHeadScale <= 0 {
		return fmt.Errorf("wire anchor scales must be positive, got %g and %g", g.WireBaseScale, g.WireHeadScale)
	}
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
