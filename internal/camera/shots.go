package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitShot synthesizes control points for a circling reveal around center.
// It returns segments+1 positions evenly spaced in angle starting from
// startAngle, with a sine lift that returns to zero at both ends so the loop
// closes cleanly, plus matching look points carrying a small deterministic
// jitter around the center so the framing does not feel locked.
func OrbitShot(center mgl32.Vec3, radius, height float32, segments int, startAngle, lift, jitter float32) (positions, looks []mgl32.Vec3) {
	if segments < 1 {
		segments = 1
	}
	positions = make([]mgl32.Vec3, 0, segments+1)
	looks = make([]mgl32.Vec3, 0, segments+1)

	for i := 0; i <= segments; i++ {
		f := float32(i) / float32(segments)
		angle := startAngle + f*2*math.Pi

		positions = append(positions, center.Add(mgl32.Vec3{
			radius * cos32(angle),
			height + lift*sin32(f*math.Pi),
			radius * sin32(angle),
		}))

		looks = append(looks, center.Add(mgl32.Vec3{
			jitter * sin32(2*angle),
			jitter * 0.4 * sin32(3*angle+1.3),
			jitter * cos32(2*angle),
		}))
	}
	return positions, looks
}

// BearingAround returns the planar angle of pos around center in the
// parameterization OrbitShot uses, so a shot can start from the camera's
// current bearing and keep visual continuity.
func BearingAround(center, pos mgl32.Vec3) float32 {
	dx := pos.X() - center.X()
	dz := pos.Z() - center.Z()
	if dx*dx+dz*dz < 1e-8 {
		return 0
	}
	return float32(math.Atan2(float64(dz), float64(dx)))
}

func sin32(v float32) float32 {
	return float32(math.Sin(float64(v)))
}

func cos32(v float32) float32 {
	return float32(math.Cos(float64(v)))
}
