// internal/stage/catalog.go
package stage

import (
	"errors"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/config"
)

// ErrUnknownCollection is returned for requests naming a collection that is
// not in the catalog.
var ErrUnknownCollection = errors.New("unknown collection")

// Product is one collection on the showroom floor. Immutable after load.
type Product struct {
	ID             string
	Name           string
	StagePoint     mgl32.Vec3
	Bounds         ProductBounds // world space
	NarrationTrack string
	Colors         []string
}

// HasColor reports whether the product offers the given color variant.
func (p *Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}

// Catalog holds the loaded products. It is rebuilt wholesale on config
// reload; readers always see a consistent snapshot.
type Catalog struct {
	log zerolog.Logger

	mu       sync.RWMutex
	products map[string]*Product
	order    []string
	anchor   mgl32.Vec3
	room     mgl32.Vec3
	approach float32
}

// NewCatalog loads every configured collection's bounds. A collection whose
// model cannot be read gets placeholder bounds and the showroom continues.
func NewCatalog(cfg config.StageConfig, log zerolog.Logger) *Catalog {
	c := &Catalog{log: log}
	c.Reload(cfg)
	return c
}

// Reload replaces the catalog contents from a freshly parsed config.
func (c *Catalog) Reload(cfg config.StageConfig) {
	products := make(map[string]*Product, len(cfg.Collections))
	order := make([]string, 0, len(cfg.Collections))

	for _, col := range cfg.Collections {
		stagePoint := mgl32.Vec3(col.StagePoint)

		bounds, err := LoadBounds(col.ModelPath)
		if err != nil {
			c.log.Warn().Err(err).
				Str("collection", col.ID).
				Str("model", col.ModelPath).
				Msg("Model bounds unavailable, using placeholder")
			bounds = PlaceholderBounds(col.FallbackSize)
		}

		// Model space to world space: products are staged at their
		// configured floor point.
		bounds.Center = bounds.Center.Add(stagePoint)

		products[col.ID] = &Product{
			ID:             col.ID,
			Name:           col.Name,
			StagePoint:     stagePoint,
			Bounds:         bounds,
			NarrationTrack: col.NarrationTrack,
			Colors:         append([]string(nil), col.Colors...),
		}
		order = append(order, col.ID)
	}

	c.mu.Lock()
	c.products = products
	c.order = order
	c.anchor = mgl32.Vec3(cfg.AnchorPoint)
	c.room = mgl32.Vec3(cfg.RoomSize)
	c.approach = cfg.ApproachScale
	c.mu.Unlock()

	c.log.Info().Int("collections", len(order)).Msg("Catalog loaded")
}

// Product returns the catalog entry with the given id.
func (c *Catalog) Product(id string) (*Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	return p, ok
}

// Products returns the catalog entries in configuration order.
func (c *Catalog) Products() []*Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Product, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.products[id])
	}
	return result
}

// Anchor returns the avatar's home point in the room.
func (c *Catalog) Anchor() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.anchor
}

// RoomSize returns the showroom's width, height and depth.
func (c *Catalog) RoomSize() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

// ApproachPoint returns where the guide should stand to present a product:
// on the floor, between the room and the product, stood off proportionally
// to the product's bounding radius.
func (c *Catalog) ApproachPoint(p *Product, from mgl32.Vec3) mgl32.Vec3 {
	c.mu.RLock()
	scale := c.approach
	c.mu.RUnlock()

	return ApproachPoint(p.Bounds, from, scale)
}
