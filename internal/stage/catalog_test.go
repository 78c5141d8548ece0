package stage

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/ariashowroom/internal/config"
)

func testStageConfig() config.StageConfig {
	return config.StageConfig{
		RoomSize:      [3]float32{16, 5, 18},
		AnchorPoint:   [3]float32{0, 0, 2},
		ApproachScale: 1.4,
		Collections: []config.CollectionConfig{
			{
				ID:           "meridian-sofa",
				Name:         "Meridian Sofa",
				ModelPath:    "missing/meridian.glb",
				StagePoint:   [3]float32{0, 0, -5},
				FallbackSize: [3]float32{2.4, 0.9, 1.1},
				Colors:       []string{"charcoal", "sand"},
			},
			{
				ID:           "halo-lounge",
				Name:         "Halo Lounge Chair",
				ModelPath:    "missing/halo.glb",
				StagePoint:   [3]float32{-4.5, 0, -3.5},
				FallbackSize: [3]float32{0.9, 1.0, 0.95},
				Colors:       []string{"oxblood"},
			},
		},
	}
}

func TestCatalogFallsBackToPlaceholderBounds(t *testing.T) {
	c := NewCatalog(testStageConfig(), zerolog.Nop())

	p, ok := c.Product("meridian-sofa")
	require.True(t, ok)

	// Placeholder bounds, staged at the configured floor point.
	assert.Equal(t, mgl32.Vec3{0, 0.45, -5}, p.Bounds.Center)
	assert.Equal(t, mgl32.Vec3{2.4, 0.9, 1.1}, p.Bounds.Size)
	assert.Greater(t, p.Bounds.Radius, float32(0))
}

func TestCatalogLookupAndOrder(t *testing.T) {
	c := NewCatalog(testStageConfig(), zerolog.Nop())

	_, ok := c.Product("no-such")
	assert.False(t, ok)

	products := c.Products()
	require.Len(t, products, 2)
	assert.Equal(t, "meridian-sofa", products[0].ID)
	assert.Equal(t, "halo-lounge", products[1].ID)

	assert.Equal(t, mgl32.Vec3{0, 0, 2}, c.Anchor())
	assert.Equal(t, mgl32.Vec3{16, 5, 18}, c.RoomSize())
}

func TestCatalogReloadReplacesContents(t *testing.T) {
	c := NewCatalog(testStageConfig(), zerolog.Nop())

	cfg := testStageConfig()
	cfg.Collections = cfg.Collections[:1]
	c.Reload(cfg)

	assert.Len(t, c.Products(), 1)
	_, ok := c.Product("halo-lounge")
	assert.False(t, ok)
}

func TestProductHasColor(t *testing.T) {
	c := NewCatalog(testStageConfig(), zerolog.Nop())

	p, _ := c.Product("meridian-sofa")
	assert.True(t, p.HasColor("sand"))
	assert.False(t, p.HasColor("neon"))
}

func TestCatalogApproachPointUsesScale(t *testing.T) {
	c := NewCatalog(testStageConfig(), zerolog.Nop())

	p, _ := c.Product("meridian-sofa")
	point := c.ApproachPoint(p, mgl32.Vec3{0, 0, 2})

	assert.Equal(t, float32(0), point.Y())
	assert.InDelta(t, float64(-5+p.Bounds.Radius*1.4), float64(point.Z()), 1e-4)
}
