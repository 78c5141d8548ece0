// internal/stage/lights.go
//
// Showroom lighting rig. The key light over the stage is the one shared
// mutable: the guide brightens and flickers it while speaking, and its
// intensity is streamed to the browser every frame.
package stage

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Light is one point light in the rig.
type Light struct {
	Name      string
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// Rig holds the showroom lights.
type Rig struct {
	mu      sync.RWMutex
	lights  []Light
	ambient mgl32.Vec3
}

// NewShowroomRig creates the default rig: a warm key light over the stage,
// a cool fill from the entrance side, and a soft ambient term.
func NewShowroomRig() *Rig {
	return &Rig{
		lights: []Light{
			{
				Name:      "key",
				Position:  mgl32.Vec3{0, 4.0, -4.0},
				Color:     mgl32.Vec3{1.0, 0.96, 0.9},
				Intensity: 1.0,
			},
			{
				Name:      "fill",
				Position:  mgl32.Vec3{5.0, 3.0, 6.0},
				Color:     mgl32.Vec3{0.92, 0.95, 1.0},
				Intensity: 0.4,
			},
		},
		ambient: mgl32.Vec3{0.16, 0.16, 0.19},
	}
}

// KeyIntensity returns the key light's current intensity.
func (r *Rig) KeyIntensity() float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lights[0].Intensity
}

// SetKeyIntensity updates the key light's intensity.
func (r *Rig) SetKeyIntensity(v float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lights[0].Intensity = v
}

// Lights returns a snapshot of the rig.
func (r *Rig) Lights() []Light {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Light, len(r.lights))
	copy(out, r.lights)
	return out
}

// Ambient returns the ambient light color.
func (r *Rig) Ambient() mgl32.Vec3 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ambient
}
