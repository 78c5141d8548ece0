// ARIA Showroom - interactive 3D furniture atelier with a guided avatar
package main

import (
	"context"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/normanking/ariashowroom/internal/avatar"
	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/camera"
	"github.com/normanking/ariashowroom/internal/config"
	"github.com/normanking/ariashowroom/internal/director"
	"github.com/normanking/ariashowroom/internal/logging"
	"github.com/normanking/ariashowroom/internal/loop"
	"github.com/normanking/ariashowroom/internal/narration"
	"github.com/normanking/ariashowroom/internal/stage"
	"github.com/normanking/ariashowroom/internal/voice"
	"github.com/normanking/ariashowroom/internal/web"
)

func main() {
	syslog, err := logging.New(nil)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer syslog.Close()

	mainLog := syslog.Component("main")
	mainLog.Info().Msg("========================================")
	mainLog.Info().Msg("ARIA Showroom starting...")
	mainLog.Info().Msg("========================================")

	cfg, err := config.Load()
	if err != nil {
		mainLog.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}
	mainLog.Info().
		Int("port", cfg.Server.Port).
		Int("collections", len(cfg.Stage.Collections)).
		Str("logFile", syslog.Path()).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := bus.NewEventBus()

	catalog := stage.NewCatalog(cfg.Stage, syslog.Component("stage"))
	rig := stage.NewShowroomRig()

	guide := avatar.NewGuide(cfg.Avatar, cfg.Stage.Light, rig, events, syslog.Component("avatar"))
	guide.PlaceAt(catalog.Anchor(), float32(math.Pi))

	cam := camera.NewChoreographer(cfg.Camera, events, syslog.Component("camera"))
	cam.SetAvatarTracker(guide.Position)

	player := narration.NewTrackPlayer(cfg.Narration, events, syslog.Component("narration"))

	dir := director.NewDirector(*cfg, guide, cam, player, catalog, events, syslog.Component("director"))

	// The detector serves both inputs: voice transcripts and free text typed
	// in the browser. Matched phrases land on the same callback.
	voiceLog := syslog.Component("voice")
	for id := range cfg.Voice.Aliases {
		if _, ok := cfg.Stage.Collection(id); !ok {
			voiceLog.Warn().Str("collection", id).Msg("Alias entry names a collection missing from the stage")
		}
	}
	detector := voice.NewIntentDetector(cfg.Voice, events, voiceLog)
	detector.SetOnIntent(func(in voice.CollectionIntent) {
		if err := dir.RequestCollection(in.CollectionID, string(in.Source)); err != nil {
			voiceLog.Warn().Err(err).Str("collection", in.CollectionID).Str("source", string(in.Source)).Msg("Collection intent rejected")
		}
	})

	server := web.NewServer(cfg.Server, dir, cam, guide, catalog, rig, detector, events, syslog, syslog.Component("web"))
	dir.SetPresenter(server)

	// Voice is optional; without a transcript feed the showroom is UI-only.
	feed := voice.NewTranscriptFeed(cfg.Voice, voiceLog)
	defer feed.Close()
	if feed.Available() {
		transcripts, err := feed.Start(ctx)
		if err != nil {
			mainLog.Warn().Err(err).Msg("Transcript feed unavailable")
		} else {
			go detector.Consume(ctx, transcripts)
		}
	} else {
		mainLog.Info().Msg("No transcript feed configured, voice intents disabled")
	}

	// Catalog edits apply without a restart; in-flight presentations keep
	// the product they resolved at start.
	watcher, err := config.NewWatcher(syslog.Component("config"))
	if err != nil {
		mainLog.Warn().Err(err).Msg("Config watcher unavailable")
	} else {
		defer watcher.Close()
		watcher.OnReload(func(next *config.Config) {
			catalog.Reload(next.Stage)
			player.SetTracks(next.Narration)
			events.Publish(bus.Event{Type: bus.EventTypeCatalogReloaded, Data: map[string]any{
				"collections": len(next.Stage.Collections),
			}})
		})
	}

	sim := loop.NewLoop(cfg.Server, guide, cam, player, syslog.Component("loop"))
	sim.SetOnFrame(server.BroadcastFrame)
	go sim.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		mainLog.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			mainLog.Error().Err(err).Msg("Web server failed")
		}
	}

	if err := server.Shutdown(); err != nil {
		mainLog.Warn().Err(err).Msg("Server shutdown error")
	}
	mainLog.Info().Msg("ARIA Showroom shutdown complete")
}
