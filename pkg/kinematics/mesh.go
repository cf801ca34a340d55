package kinematics

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/gwillem/origami/pkg/tension"
)

// Triangle is one facet of a Kresling panel.
type Triangle [3]r3.Vector

// WireLine is a control wire from its base anchor to its head anchor.
type WireLine struct {
	Wire    tension.Wire
	Tension float64
	Base    r3.Vector
	Head    r3.Vector
}

// Anchor angles of the wires around the body axis.
var wireAngles = map[tension.Wire]float64{
	tension.Up:    math.Pi / 2,
	tension.Down:  -math.Pi / 2,
	tension.Left:  math.Pi,
	tension.Right: 0,
}

// Mesh returns the panel triangles of every segment, base segment first.
// Each panel contributes two triangles between the twisted bottom and top
// rings. Rings widen toward radius*MinRadiusRatio as the body compresses.
func (a *Actuator) Mesh() [][]Triangle {
	n := a.geom.Panels
	r := a.geom.Radius + (a.geom.Radius*a.geom.MinRadiusRatio-a.geom.Radius)*a.compression

	segments := make([][]Triangle, a.geom.Segments)
	for i := range segments {
		bottom, top := a.joints[i], a.joints[i+1]
		twistBottom := a.twist * float64(i)
		twistTop := a.twist * float64(i+1)

		tris := make([]Triangle, 0, 2*n)
		for p := 0; p < n; p++ {
			t1 := 2 * math.Pi / float64(n) * float64(p)
			t2 := 2 * math.Pi / float64(n) * float64((p+1)%n)

			v1 := ringVertex(bottom, r, t1+twistBottom)
			v2 := ringVertex(bottom, r, t2+twistBottom)
			v3 := ringVertex(top, r, t1+twistTop)
			v4 := ringVertex(top, r, t2+twistTop)

			tris = append(tris, Triangle{v1, v2, v3}, Triangle{v2, v4, v3})
		}
		segments[i] = tris
	}
	return segments
}

// WireLines returns the four wires in command order.
func (a *Actuator) WireLines() []WireLine {
	head := a.joints[len(a.joints)-1]
	baseR := a.geom.Radius * a.geom.WireBaseScale
	headR := a.geom.Radius * a.geom.WireHeadScale

	lines := make([]WireLine, 0, 4)
	for _, w := range tension.AllWires() {
		angle := wireAngles[w]
		s, c := math.Sincos(angle)
		lines = append(lines, WireLine{
			Wire:    w,
			Tension: a.tensions.Get(w),
			Base:    r3.Vector{X: baseR * c, Z: baseR * s},
			Head:    ringVertex(head, headR, angle),
		})
	}
	return lines
}

// ringVertex places a point at angle theta on a ring of radius r around the
// joint, in the joint's rotated frame, never below the ground plane.
func ringVertex(j Joint, r, theta float64) r3.Vector {
	s, c := math.Sincos(theta)
	local := rotateZX(r3.Vector{X: r * c, Z: r * s}, j.Rotation)
	v := j.Position.Add(local)
	v.Y = math.Max(v.Y, 0)
	return v
}
