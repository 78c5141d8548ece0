package stage

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsFromExtents(t *testing.T) {
	b := BoundsFromExtents(mgl32.Vec3{-1, 0, -2}, mgl32.Vec3{1, 2, 2})

	assert.Equal(t, mgl32.Vec3{0, 1, 0}, b.Center)
	assert.Equal(t, mgl32.Vec3{2, 2, 4}, b.Size)
	assert.InDelta(t, mgl32.Vec3{2, 2, 4}.Len()/2, b.Radius, 1e-5)
}

func TestPlaceholderBoundsSitsOnFloor(t *testing.T) {
	b := PlaceholderBounds([3]float32{2, 1, 1})

	assert.Equal(t, mgl32.Vec3{0, 0.5, 0}, b.Center)
	assert.Equal(t, mgl32.Vec3{2, 1, 1}, b.Size)
	assert.Greater(t, b.Radius, float32(0))
}

func TestLoadBoundsMissingFile(t *testing.T) {
	_, err := LoadBounds("does/not/exist.glb")
	require.Error(t, err)
}
