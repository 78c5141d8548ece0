package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrbitShotPointCountAndStart(t *testing.T) {
	positions, looks := OrbitShot(mgl32.Vec3{0, 0, -5}, 3, 1.5, 4, 0, 0, 0)

	require.Len(t, positions, 5)
	require.Len(t, looks, 5)
	assert.Equal(t, mgl32.Vec3{3, 1.5, -5}, positions[0], "first point sits at the start bearing")
}

func TestOrbitShotClosesTheCircle(t *testing.T) {
	positions, _ := OrbitShot(mgl32.Vec3{0, 0, -5}, 3, 1.5, 4, 0, 0, 0)

	first, last := positions[0], positions[len(positions)-1]
	assert.InDelta(t, first.X(), last.X(), 1e-5)
	assert.InDelta(t, first.Y(), last.Y(), 1e-5)
	assert.InDelta(t, first.Z(), last.Z(), 1e-5)
}

func TestOrbitShotLiftReturnsToZeroAtEnds(t *testing.T) {
	positions, _ := OrbitShot(mgl32.Vec3{0, 0, -5}, 3, 1.5, 8, 0, 0.5, 0)

	assert.InDelta(t, 1.5, positions[0].Y(), 1e-5)
	assert.InDelta(t, 1.5, positions[len(positions)-1].Y(), 1e-5)
	assert.Greater(t, positions[4].Y(), float32(1.8), "mid-arc rides the sine lift")
}

func TestOrbitShotKeepsPlanarRadius(t *testing.T) {
	center := mgl32.Vec3{1, 0.2, -4}
	positions, _ := OrbitShot(center, 2.5, 1.2, 6, 0.7, 0.3, 0)

	for i, p := range positions {
		dx := float64(p.X() - center.X())
		dz := float64(p.Z() - center.Z())
		assert.InDelta(t, 2.5, math.Hypot(dx, dz), 1e-4, "point %d", i)
	}
}

func TestOrbitShotLookJitterStaysNearCenter(t *testing.T) {
	center := mgl32.Vec3{0.5, 0.4, -5}
	_, looks := OrbitShot(center, 3, 1.5, 12, 0, 0.18, 0.12)
	for i, look := range looks {
		assert.InDelta(t, center.X(), look.X(), 0.12+1e-6, "point %d", i)
		assert.InDelta(t, center.Y(), look.Y(), 0.4*0.12+1e-6, "point %d", i)
		assert.InDelta(t, center.Z(), look.Z(), 0.12+1e-6, "point %d", i)
	}

	_, plain := OrbitShot(center, 3, 1.5, 4, 0, 0.18, 0)
	for _, look := range plain {
		assert.Equal(t, center, look, "zero jitter aims dead at the center")
	}
}

func TestOrbitShotDeterministic(t *testing.T) {
	p1, l1 := OrbitShot(mgl32.Vec3{0, 0, -5}, 3, 1.5, 6, 0.3, 0.18, 0.12)
	p2, l2 := OrbitShot(mgl32.Vec3{0, 0, -5}, 3, 1.5, 6, 0.3, 0.18, 0.12)

	assert.Equal(t, p1, p2)
	assert.Equal(t, l1, l2)
}

func TestOrbitShotClampsDegenerateSegments(t *testing.T) {
	positions, looks := OrbitShot(mgl32.Vec3{}, 2, 1, 0, 0, 0, 0)

	assert.Len(t, positions, 2)
	assert.Len(t, looks, 2)
}

func TestBearingAroundMatchesShotParameterization(t *testing.T) {
	center := mgl32.Vec3{0, 0, -5}

	assert.InDelta(t, 0, BearingAround(center, mgl32.Vec3{3, 1.5, -5}), 1e-6)
	assert.InDelta(t, math.Pi/2, BearingAround(center, mgl32.Vec3{0, 0.3, -2}), 1e-6)
	assert.Zero(t, BearingAround(center, center), "degenerate offset defaults to zero")

	start := BearingAround(center, mgl32.Vec3{-2, 1, -3})
	positions, _ := OrbitShot(center, 3, 1.5, 6, start, 0, 0)
	assert.InDelta(t, start, BearingAround(center, positions[0]), 1e-5, "shot starts on the camera's bearing")
}
