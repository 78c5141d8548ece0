// internal/motion/spline.go
//
// Centripetal Catmull-Rom splines for camera paths. Centripetal
// parameterization avoids the loops and cusps the uniform variant produces
// on unevenly spaced control points, which matters because shot generators
// hand us arbitrary waypoints.
package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Spline interpolates a sequence of control points. The curve passes through
// every control point; Sample(0) is exactly the first point and Sample(1)
// exactly the last (or the first again when closed).
type Spline struct {
	points []mgl32.Vec3
	closed bool
}

// NewCatmullRom builds a centripetal Catmull-Rom spline through the given
// control points. With closed=true the curve wraps from the last point back
// to the first. Fewer than two points yields a degenerate spline that
// samples to the sole point (or the origin when empty).
func NewCatmullRom(points []mgl32.Vec3, closed bool) *Spline {
	cp := make([]mgl32.Vec3, len(points))
	copy(cp, points)
	return &Spline{points: cp, closed: closed}
}

// Points returns a copy of the control points the spline was built from.
func (s *Spline) Points() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(s.points))
	copy(out, s.points)
	return out
}

// Closed reports whether the spline wraps around.
func (s *Spline) Closed() bool {
	return s.closed
}

// Sample evaluates the curve at t in [0,1]. t is distributed uniformly over
// the segments between control points; values outside [0,1] are clamped for
// open splines and wrapped for closed ones.
func (s *Spline) Sample(t float32) mgl32.Vec3 {
	n := len(s.points)
	switch n {
	case 0:
		return mgl32.Vec3{}
	case 1:
		return s.points[0]
	}

	segments := n - 1
	if s.closed {
		segments = n
		t -= float32(math.Floor(float64(t)))
	} else {
		t = Clamp(t, 0, 1)
	}

	scaled := t * float32(segments)
	seg := int(scaled)
	if seg >= segments {
		seg = segments - 1
	}
	u := scaled - float32(seg)

	p0 := s.point(seg - 1)
	p1 := s.point(seg)
	p2 := s.point(seg + 1)
	p3 := s.point(seg + 2)

	return catmullRomPoint(p0, p1, p2, p3, u)
}

// point resolves a control-point index, wrapping for closed splines and
// reflecting past the ends for open ones so the first and last segments
// have well-defined neighbors.
func (s *Spline) point(i int) mgl32.Vec3 {
	n := len(s.points)
	if s.closed {
		return s.points[((i%n)+n)%n]
	}
	if i < 0 {
		return s.points[0].Mul(2).Sub(s.points[1])
	}
	if i >= n {
		return s.points[n-1].Mul(2).Sub(s.points[n-2])
	}
	return s.points[i]
}

// catmullRomPoint evaluates one centripetal Catmull-Rom segment between p1
// and p2 at local parameter u in [0,1], with p0 and p3 as neighbors.
func catmullRomPoint(p0, p1, p2, p3 mgl32.Vec3, u float32) mgl32.Vec3 {
	t0 := float32(0)
	t1 := t0 + knotInterval(p0, p1)
	t2 := t1 + knotInterval(p1, p2)
	t3 := t2 + knotInterval(p2, p3)

	tt := t1 + u*(t2-t1)

	a1 := LerpVec3(p0, p1, safeRatio(tt-t0, t1-t0))
	a2 := LerpVec3(p1, p2, safeRatio(tt-t1, t2-t1))
	a3 := LerpVec3(p2, p3, safeRatio(tt-t2, t3-t2))

	b1 := LerpVec3(a1, a2, safeRatio(tt-t0, t2-t0))
	b2 := LerpVec3(a2, a3, safeRatio(tt-t1, t3-t1))

	return LerpVec3(b1, b2, safeRatio(tt-t1, t2-t1))
}

// knotInterval is the centripetal (alpha = 0.5) knot spacing between two
// control points, floored so coincident points cannot collapse an interval.
func knotInterval(a, b mgl32.Vec3) float32 {
	d := float32(math.Sqrt(float64(b.Sub(a).Len())))
	if d < 1e-4 {
		return 1e-4
	}
	return d
}

func safeRatio(num, den float32) float32 {
	if den == 0 {
		return 0
	}
	return num / den
}
