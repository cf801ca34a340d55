package kinematics

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/gwillem/origami/pkg/tension"
)

// MaxCompression caps the compression factor short of a zero-length segment.
const MaxCompression = 0.99

// Rotation is an accumulated bend, applied about Z first and then about X.
type Rotation struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Joint is one frame of the centerline: the base, every segment boundary and the head.
type Joint struct {
	Position r3.Vector `json:"position"`
	Rotation Rotation  `json:"rotation"`
}

// Actuator recomputes the joint chain from the wire tensions. Every Advance
// rebuilds the chain from the base, so the result depends only on the
// tensions and the geometry.
type Actuator struct {
	geom Geometry
	base r3.Vector

	tensions    tension.Vector
	joints      []Joint
	segHeight   float64
	bendX       float64
	bendZ       float64
	compression float64
	twist       float64
}

// NewActuator creates an actuator at rest: fully extended and straight.
// g must pass Validate.
func NewActuator(g Geometry) *Actuator {
	a := &Actuator{
		geom:   g,
		joints: make([]Joint, g.Segments+1),
	}
	a.Advance(tension.Vector{})
	return a
}

// Advance recomputes the actuator from the four tensions.
func (a *Actuator) Advance(v tension.Vector) {
	v = v.Clamp()
	a.tensions = v

	hMax := a.geom.SegmentHeight
	hMin := a.geom.SegmentHeight * a.geom.MinHeightRatio

	// tension 0 leaves a wire at full length, tension 1 pulls it to hMin
	length := func(t float64) float64 {
		return hMax + t*(hMin-hMax)
	}
	lenUp := length(v.Up)
	lenDown := length(v.Down)
	lenLeft := length(v.Left)
	lenRight := length(v.Right)

	avg := (lenUp + lenDown + lenLeft + lenRight) / 4

	angleX := (lenDown - lenUp) / (a.geom.Radius * 2) * a.geom.BendSensitivity
	angleZ := (lenRight - lenLeft) / (a.geom.Radius * 2) * a.geom.BendSensitivity

	limit := radians(a.geom.MaxBendDeg)
	if mag := math.Hypot(angleX, angleZ); mag > limit {
		scale := limit / mag
		angleX *= scale
		angleZ *= scale
	}

	a.segHeight = avg
	a.bendX = angleX
	a.bendZ = angleZ

	a.compression = min(max((avg-hMax)/(hMin-hMax), 0), MaxCompression)
	a.twist = radians(a.geom.MaxTwistDeg) * a.compression

	a.computeCenterline()
}

// computeCenterline walks the chain from the base. Each segment points along
// its midpoint direction (half of its own bend on top of the accumulated
// bend), which approximates the arc of a uniformly bending segment.
func (a *Actuator) computeCenterline() {
	pos := a.base
	var acc Rotation
	a.joints[0] = Joint{Position: pos}

	segment := r3.Vector{Y: a.segHeight}
	for i := 0; i < a.geom.Segments; i++ {
		half := Rotation{
			X: acc.X + a.bendX/2,
			Z: acc.Z + a.bendZ/2,
		}
		pos = pos.Add(rotateZX(segment, half))
		pos.Y = math.Max(pos.Y, 0)

		acc.X += a.bendX
		acc.Z += a.bendZ
		a.joints[i+1] = Joint{Position: pos, Rotation: acc}
	}
}

// rotateZX rotates v about Z by r.Z and then about X by r.X.
func rotateZX(v r3.Vector, r Rotation) r3.Vector {
	sz, cz := math.Sincos(r.Z)
	x1 := v.X*cz - v.Y*sz
	y1 := v.X*sz + v.Y*cz
	z1 := v.Z

	sx, cx := math.Sincos(r.X)
	return r3.Vector{
		X: x1,
		Y: y1*cx - z1*sx,
		Z: y1*sx + z1*cx,
	}
}

// Joints returns a copy of the joint chain, base first.
func (a *Actuator) Joints() []Joint {
	out := make([]Joint, len(a.joints))
	copy(out, a.joints)
	return out
}

// HeadPosition returns the position of the last joint.
func (a *Actuator) HeadPosition() r3.Vector {
	return a.joints[len(a.joints)-1].Position
}

// HeadRotation returns the accumulated rotation at the head.
func (a *Actuator) HeadRotation() Rotation {
	return a.joints[len(a.joints)-1].Rotation
}

// Tensions returns the tensions of the last Advance.
func (a *Actuator) Tensions() tension.Vector {
	return a.tensions
}

// SegmentHeight returns the current uniform segment height.
func (a *Actuator) SegmentHeight() float64 {
	return a.segHeight
}

// Bend returns the per-segment bend angles in radians.
func (a *Actuator) Bend() (x, z float64) {
	return a.bendX, a.bendZ
}

// Compression returns the compression factor in [0, MaxCompression].
func (a *Actuator) Compression() float64 {
	return a.compression
}

// Twist returns the per-segment twist in radians.
func (a *Actuator) Twist() float64 {
	return a.twist
}
