// internal/motion/easing.go
//
// Easing and interpolation helpers shared by the avatar and camera
// controllers. Everything here is pure and frame-rate agnostic.
package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Smoothstep is the classic cubic 3t²-2t³ ease.
func Smoothstep(t float32) float32 {
	t = Clamp(t, 0, 1)
	return t * t * (3 - 2*t)
}

func EaseInOutCubic(t float32) float32 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - float32(math.Pow(float64(-2*t+2), 3))/2
}

// EaseOutCubic decelerates into the endpoint; settling shots use it so they
// hold rather than re-accelerate.
func EaseOutCubic(t float32) float32 {
	return 1 - float32(math.Pow(float64(1-t), 3))
}

// SmoothFactor converts an exponential approach rate into a per-frame lerp
// factor that is independent of frame timing: applying it every frame moves
// a value toward its target along the same curve regardless of dt.
func SmoothFactor(rate, dt float32) float32 {
	return 1 - float32(math.Exp(float64(-rate*dt)))
}

func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func Clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
