package web

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gofiber/fiber/v2"

	"github.com/normanking/ariashowroom/internal/hub"
	"github.com/normanking/ariashowroom/internal/voice"
)

// uiSource tags requests that originate from a connected browser.
const uiSource = string(voice.SourceUI)

// collectionDTO is the REST shape for a catalog entry. Geometry is reduced to
// what the browser needs for pickers and minimap dots.
type collectionDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Colors     []string   `json:"colors"`
	StagePoint mgl32.Vec3 `json:"stagePoint"`
	Radius     float32    `json:"radius"`
}

// lightDTO is the REST shape for one rig light.
type lightDTO struct {
	Name      string     `json:"name"`
	Position  mgl32.Vec3 `json:"position"`
	Color     mgl32.Vec3 `json:"color"`
	Intensity float32    `json:"intensity"`
}

// handleScene describes the static showroom: room geometry and the lighting
// rig. The browser builds its scene from this once; after that the frame
// stream only animates the key light's intensity.
func (s *Server) handleScene(c *fiber.Ctx) error {
	lights := s.rig.Lights()
	out := make([]lightDTO, 0, len(lights))
	for _, l := range lights {
		out = append(out, lightDTO{Name: l.Name, Position: l.Position, Color: l.Color, Intensity: l.Intensity})
	}
	return c.JSON(fiber.Map{
		"roomSize": s.catalog.RoomSize(),
		"anchor":   s.catalog.Anchor(),
		"ambient":  s.rig.Ambient(),
		"lights":   out,
	})
}

func (s *Server) handleCollections(c *fiber.Ctx) error {
	products := s.catalog.Products()
	out := make([]collectionDTO, 0, len(products))
	for _, p := range products {
		out = append(out, collectionDTO{
			ID:         p.ID,
			Name:       p.Name,
			Colors:     p.Colors,
			StagePoint: p.StagePoint,
			Radius:     p.Bounds.Radius,
		})
	}
	return c.JSON(fiber.Map{
		"collections": out,
		"anchor":      s.catalog.Anchor(),
	})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"showroom": s.director.Status(),
		"clients":  s.uiHub.ClientCount(),
	})
}

// handleIntent dispatches a parsed browser intent. Orbit input goes straight
// to the camera; everything else routes through the director.
func (s *Server) handleIntent(client *hub.Client, data []byte) {
	clientID := ""
	if client != nil {
		clientID = client.ID
	}

	var intent hub.Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		s.log.Warn().Err(err).Str("client", clientID).Msg("Dropping malformed intent")
		return
	}

	switch intent.Type {
	case hub.IntentStart:
		s.director.RequestStart(uiSource)
	case hub.IntentSelectCollection:
		if err := s.director.RequestCollection(intent.Collection, uiSource); err != nil {
			s.log.Warn().Err(err).Str("client", clientID).Msg("Collection request rejected")
		}
	case hub.IntentBack:
		s.director.RequestBack(uiSource)
	case hub.IntentColor:
		if err := s.director.ChangeColor(intent.Collection, intent.Color); err != nil {
			s.log.Warn().Err(err).Str("client", clientID).Msg("Color change rejected")
		}
	case hub.IntentStopCinematic:
		s.director.StopCinematic()
	case hub.IntentSay:
		// The detector owns routing: a matched phrase fires the same
		// callback the voice feed uses.
		if s.detector != nil {
			s.detector.Detect(intent.Text, voice.SourceUI)
		}
	case hub.IntentOrbitDrag:
		s.cam.ApplyOrbitDrag(intent.DX, intent.DY)
	case hub.IntentOrbitZoom:
		s.cam.ApplyOrbitZoom(intent.Delta)
	case hub.IntentAvatarReady:
		s.guide.SetReady(intent.Ready)
	default:
		s.log.Warn().Str("client", clientID).Str("type", intent.Type).Msg("Unknown intent type")
	}
}
