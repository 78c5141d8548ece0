// internal/motion/damp.go
//
// Exponentially damped angular motion with guaranteed finite-time
// convergence, used for the avatar's turn states and camera aim.
package motion

import "math"

const (
	// AngleTolerance is the angular error below which a damped rotation
	// counts as settled.
	AngleTolerance = 0.004

	// minAngularStep is the smallest angular speed (rad/s) a damped
	// rotation is allowed to decay to before it has settled.
	minAngularStep = 0.1
)

// WrapAngle wraps an angle to the (-π, π] interval.
func WrapAngle(a float32) float32 {
	wrapped := math.Mod(float64(a), 2*math.Pi)
	if wrapped > math.Pi {
		wrapped -= 2 * math.Pi
	} else if wrapped <= -math.Pi {
		wrapped += 2 * math.Pi
	}
	return float32(wrapped)
}

// DampAngle advances current toward target along the shortest arc using an
// exponential step, and reports whether the rotation has settled.
//
// The exponential step alone approaches the target asymptotically, so once
// it falls below a floor of minAngularStep·dt the floor step is forced in
// the correct sign. A step is never allowed to overshoot the remaining
// difference. Once within AngleTolerance the value is returned unchanged
// with finished=true, so the function is idempotent at the fixed point.
func DampAngle(current, target, speed, dt float32) (float32, bool) {
	diff := WrapAngle(target - current)
	if abs32(diff) < AngleTolerance {
		return current, true
	}

	step := diff * SmoothFactor(speed*2, dt)
	floor := minAngularStep * dt
	if abs32(step) < floor {
		if diff > 0 {
			step = floor
		} else {
			step = -floor
		}
	}
	if abs32(step) > abs32(diff) {
		step = diff
	}

	return WrapAngle(current + step), false
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
