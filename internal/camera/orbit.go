package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/normanking/ariashowroom/internal/config"
	"github.com/normanking/ariashowroom/internal/motion"
)

// phiFloor keeps the polar angle away from the poles.
const phiFloor = 0.1

// orbitControl is a drag/zoom orbit around a fixed pivot in spherical
// coordinates. The polar angle is clamped to a band around the angle the
// camera had when the orbit was activated, so entering orbit never snaps
// the view.
type orbitControl struct {
	target mgl32.Vec3
	dist   float32
	theta  float32 // azimuth
	phi    float32 // polar, from +Y

	minDist, maxDist float32
	minPhi, maxPhi   float32

	sensitivity float32
	zoomSpeed   float32

	pendingDragX float32
	pendingDragY float32
	pendingZoom  float32
}

func newOrbitControl(target, cameraPos mgl32.Vec3, opts OrbitOptions, cfg config.CameraConfig) *orbitControl {
	o := &orbitControl{
		target:      target,
		sensitivity: cfg.OrbitSensitivity,
		zoomSpeed:   cfg.ZoomSensitivity,
	}

	radius := opts.Radius
	if radius <= 0 {
		radius = 1
	}
	o.minDist = opts.MinDistance
	if o.minDist <= 0 {
		o.minDist = radius * cfg.OrbitMinScale
	}
	o.maxDist = opts.MaxDistance
	if o.maxDist <= 0 {
		o.maxDist = radius * cfg.OrbitMaxScale
	}

	offset := cameraPos.Sub(target)
	length := offset.Len()
	if length < 1e-5 {
		offset = mgl32.Vec3{0, 0, 1}
		length = 1
	}
	o.dist = motion.Clamp(length, o.minDist, o.maxDist)
	o.theta = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
	o.phi = float32(math.Acos(float64(motion.Clamp(offset.Y()/length, -1, 1))))
	o.phi = motion.Clamp(o.phi, phiFloor, math.Pi-phiFloor)

	band := opts.PolarRange
	if band <= 0 {
		band = cfg.PolarBand
	}
	o.minPhi = motion.Clamp(o.phi-band/2, phiFloor, math.Pi-phiFloor)
	o.maxPhi = motion.Clamp(o.phi+band/2, phiFloor, math.Pi-phiFloor)

	return o
}

func (o *orbitControl) addDrag(dx, dy float32) {
	o.pendingDragX += dx
	o.pendingDragY += dy
}

func (o *orbitControl) addZoom(delta float32) {
	o.pendingZoom += delta
}

// step consumes pending input and returns the new camera position.
func (o *orbitControl) step() mgl32.Vec3 {
	o.theta -= o.pendingDragX * o.sensitivity
	o.phi = motion.Clamp(o.phi-o.pendingDragY*o.sensitivity, o.minPhi, o.maxPhi)
	o.dist = motion.Clamp(o.dist-o.pendingZoom*o.zoomSpeed, o.minDist, o.maxDist)
	o.pendingDragX, o.pendingDragY, o.pendingZoom = 0, 0, 0

	sinPhi := sin32(o.phi)
	return o.target.Add(mgl32.Vec3{
		o.dist * sinPhi * sin32(o.theta),
		o.dist * cos32(o.phi),
		o.dist * sinPhi * cos32(o.theta),
	})
}
