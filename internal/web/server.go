// Package web serves the showroom shell: static assets, REST endpoints, and
// the websocket pair carrying frame state out and user intents in. It also
// implements the director's Presenter so UI commands reach every client.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/avatar"
	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/camera"
	"github.com/normanking/ariashowroom/internal/config"
	"github.com/normanking/ariashowroom/internal/director"
	"github.com/normanking/ariashowroom/internal/hub"
	"github.com/normanking/ariashowroom/internal/logging"
	"github.com/normanking/ariashowroom/internal/stage"
	"github.com/normanking/ariashowroom/internal/voice"
)

// Server hosts the browser-facing surface.
type Server struct {
	log zerolog.Logger
	cfg config.ServerConfig

	app    *fiber.App
	uiHub  *hub.Hub
	logHub *hub.Hub

	director *director.Director
	cam      *camera.Choreographer
	guide    *avatar.Guide
	catalog  *stage.Catalog
	rig      *stage.Rig
	detector *voice.IntentDetector
	events   *bus.EventBus
	logs     *logging.Logger

	mu         sync.Mutex
	tick       uint64
	panelShown bool
	stopShown  bool
	subtitle   string
}

func NewServer(cfg config.ServerConfig, dir *director.Director, cam *camera.Choreographer, guide *avatar.Guide, catalog *stage.Catalog, rig *stage.Rig, detector *voice.IntentDetector, events *bus.EventBus, logs *logging.Logger, log zerolog.Logger) *Server {
	s := &Server{
		log:      log,
		cfg:      cfg,
		uiHub:    hub.New("ui", log),
		logHub:   hub.New("logs", log),
		director: dir,
		cam:      cam,
		guide:    guide,
		catalog:  catalog,
		rig:      rig,
		detector: detector,
		events:   events,
		logs:     logs,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Aria Showroom",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/scene", s.handleScene)
	api.Get("/collections", s.handleCollections)
	api.Get("/status", s.handleStatus)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/ui", websocket.New(s.handleUIWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	s.uiHub.SetOnMessage(s.handleIntent)
	return s
}

// Start runs the hubs, binds event forwarding, and listens. Blocks until the
// listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.uiHub.Run(ctx)
	go s.logHub.Run(ctx)
	s.bindEvents()
	if s.logs != nil {
		s.logs.SetOnLog(func(entry logging.LogEntry) {
			s.logHub.BroadcastJSON(entry)
		})
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info().Str("addr", addr).Msg("Web server listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// bindEvents forwards the bus events the browser acts on: narration cues
// drive client-side audio, the rest feed the dev console.
func (s *Server) bindEvents() {
	forward := []bus.EventType{
		bus.EventTypeNarrationPrepare,
		bus.EventTypeNarrationStarted,
		bus.EventTypeNarrationEnded,
		bus.EventTypeCinematicStarted,
		bus.EventTypeCinematicStopped,
		bus.EventTypeIntroStarted,
		bus.EventTypeIntroSkipped,
		bus.EventTypeIntroDone,
		bus.EventTypeVoiceTranscript,
		bus.EventTypeCatalogReloaded,
	}
	s.events.SubscribeMultiple(forward, func(e bus.Event) {
		s.uiHub.BroadcastJSON(hub.EventNote{Type: "event", Event: string(e.Type), Data: e.Data})
	})
	s.events.Subscribe(bus.EventTypeColorChanged, func(e bus.Event) {
		cmd := hub.UICommand{Type: "ui", Action: hub.UIColor, Visible: true}
		if v, ok := e.Data["collection"].(string); ok {
			cmd.Collection = v
		}
		if v, ok := e.Data["color"].(string); ok {
			cmd.Color = v
		}
		s.uiHub.BroadcastJSON(cmd)
	})
}

// BroadcastFrame publishes the current showroom snapshot. The render loop
// calls this every few ticks.
func (s *Server) BroadcastFrame(tick uint64) {
	s.mu.Lock()
	s.tick = tick
	s.mu.Unlock()
	s.uiHub.BroadcastJSON(s.frameState(tick))
}

func (s *Server) frameState(tick uint64) hub.FrameState {
	s.mu.Lock()
	panelShown, stopShown, subtitle := s.panelShown, s.stopShown, s.subtitle
	s.mu.Unlock()

	return hub.FrameState{
		Type:       "frame",
		Tick:       tick,
		Camera:     s.cam.Frame(),
		Avatar:     s.guide.Pose(),
		Collection: s.director.ActiveCollection(),
		PanelShown: panelShown,
		StopShown:  stopShown,
		Subtitle:   subtitle,
	}
}

// ShowProductPanel implements director.Presenter.
func (s *Server) ShowProductPanel(collectionID string) {
	s.mu.Lock()
	s.panelShown = true
	s.mu.Unlock()
	s.uiHub.BroadcastJSON(hub.UICommand{Type: "ui", Action: hub.UIShowPanel, Collection: collectionID, Visible: true})
}

// HideProductPanel implements director.Presenter.
func (s *Server) HideProductPanel() {
	s.mu.Lock()
	s.panelShown = false
	s.mu.Unlock()
	s.uiHub.BroadcastJSON(hub.UICommand{Type: "ui", Action: hub.UIHidePanel})
}

// ShowSubtitle implements director.Presenter.
func (s *Server) ShowSubtitle(text string) {
	s.mu.Lock()
	s.subtitle = text
	s.mu.Unlock()
	s.uiHub.BroadcastJSON(hub.UICommand{Type: "ui", Action: hub.UISubtitle, Text: text, Visible: true})
}

// ClearSubtitle implements director.Presenter.
func (s *Server) ClearSubtitle() {
	s.mu.Lock()
	s.subtitle = ""
	s.mu.Unlock()
	s.uiHub.BroadcastJSON(hub.UICommand{Type: "ui", Action: hub.UISubtitle})
}

// SetStopVisible implements director.Presenter.
func (s *Server) SetStopVisible(visible bool) {
	s.mu.Lock()
	s.stopShown = visible
	s.mu.Unlock()
	s.uiHub.BroadcastJSON(hub.UICommand{Type: "ui", Action: hub.UIStopButton, Visible: visible})
}

// IntroDone implements director.Presenter.
func (s *Server) IntroDone() {
	s.uiHub.BroadcastJSON(hub.UICommand{Type: "ui", Action: hub.UIIntroDone})
}

func (s *Server) handleUIWS(c *websocket.Conn) {
	client := hub.NewClient(s.uiHub, c)

	// Snapshot first so a late joiner renders without waiting a tick.
	s.mu.Lock()
	tick := s.tick
	s.mu.Unlock()
	if data, err := json.Marshal(s.frameState(tick)); err == nil {
		c.WriteMessage(websocket.TextMessage, data)
	}

	client.Run()
}

func (s *Server) handleLogsWS(c *websocket.Conn) {
	client := hub.NewClient(s.logHub, c)

	if s.logs != nil {
		for _, entry := range s.logs.History(100) {
			data, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			c.WriteMessage(websocket.TextMessage, data)
		}
	}

	client.Run()
}
