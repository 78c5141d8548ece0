package web

import (
	"context"
	"encoding/json"
	"math"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/ariashowroom/internal/avatar"
	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/camera"
	"github.com/normanking/ariashowroom/internal/config"
	"github.com/normanking/ariashowroom/internal/director"
	"github.com/normanking/ariashowroom/internal/hub"
	"github.com/normanking/ariashowroom/internal/narration"
	"github.com/normanking/ariashowroom/internal/stage"
	"github.com/normanking/ariashowroom/internal/voice"
)

// rig wires a server to a simulated world pumped at accelerated time, the
// same drive the director tests use.
type rig struct {
	cfg    config.Config
	srv    *Server
	dir    *director.Director
	guide  *avatar.Guide
	cam    *camera.Choreographer
	player *narration.TrackPlayer
	events *bus.EventBus

	stopCh chan struct{}
	done   chan struct{}
}

func newRig(t *testing.T) *rig {
	t.Helper()

	cfg := *config.DefaultConfig()
	cfg.Avatar.MinWalkDuration = 0.2
	cfg.Avatar.WalkSpeed = 40
	cfg.Avatar.TurnSpeed = 50
	cfg.Avatar.IdleTurnSpeed = 10
	cfg.Cinematic.OrbitDuration = 0.3
	cfg.Cinematic.RevealDuration = 0.1
	cfg.Cinematic.SettleDuration = 0.1
	for id, track := range cfg.Narration.Tracks {
		track.Duration = 0.25
		cfg.Narration.Tracks[id] = track
	}

	events := bus.NewEventBus()
	catalog := stage.NewCatalog(cfg.Stage, zerolog.Nop())
	lights := stage.NewShowroomRig()

	guide := avatar.NewGuide(cfg.Avatar, cfg.Stage.Light, lights, events, zerolog.Nop())
	guide.PlaceAt(catalog.Anchor(), float32(math.Pi))
	guide.SetReady(true)

	cam := camera.NewChoreographer(cfg.Camera, events, zerolog.Nop())
	cam.SetAvatarTracker(guide.Position)

	player := narration.NewTrackPlayer(cfg.Narration, events, zerolog.Nop())
	dir := director.NewDirector(cfg, guide, cam, player, catalog, events, zerolog.Nop())

	detector := voice.NewIntentDetector(cfg.Voice, events, zerolog.Nop())
	detector.SetOnIntent(func(in voice.CollectionIntent) {
		_ = dir.RequestCollection(in.CollectionID, string(in.Source))
	})

	srv := NewServer(cfg.Server, dir, cam, guide, catalog, lights, detector, events, nil, zerolog.Nop())
	dir.SetPresenter(srv)

	r := &rig{
		cfg:    cfg,
		srv:    srv,
		dir:    dir,
		guide:  guide,
		cam:    cam,
		player: player,
		events: events,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go r.pump()
	t.Cleanup(func() {
		close(r.stopCh)
		<-r.done
	})
	return r
}

func (r *rig) pump() {
	defer close(r.done)
	const dt = float32(1.0 / 60.0)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.guide.Update(dt, r.cam.Position(), r.player.IsSpeaking())
			r.cam.Update(dt)
		}
	}
}

func (r *rig) waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for " + msg)
}

func TestCollectionsEndpoint(t *testing.T) {
	r := newRig(t)

	req := httptest.NewRequest("GET", "/api/collections", nil)
	resp, err := r.srv.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var body struct {
		Collections []collectionDTO `json:"collections"`
		Anchor      mgl32.Vec3      `json:"anchor"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Collections, 3)
	assert.Equal(t, "meridian-sofa", body.Collections[0].ID)
	assert.Equal(t, "Meridian Sofa", body.Collections[0].Name)
	assert.NotEmpty(t, body.Collections[0].Colors)
	assert.Greater(t, body.Collections[0].Radius, float32(0))
	assert.Equal(t, mgl32.Vec3(r.cfg.Stage.AnchorPoint), body.Anchor)
}

func TestSceneEndpoint(t *testing.T) {
	r := newRig(t)

	req := httptest.NewRequest("GET", "/api/scene", nil)
	resp, err := r.srv.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var body struct {
		RoomSize mgl32.Vec3 `json:"roomSize"`
		Anchor   mgl32.Vec3 `json:"anchor"`
		Ambient  mgl32.Vec3 `json:"ambient"`
		Lights   []lightDTO `json:"lights"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, mgl32.Vec3(r.cfg.Stage.RoomSize), body.RoomSize)
	assert.Equal(t, mgl32.Vec3(r.cfg.Stage.AnchorPoint), body.Anchor)
	assert.Greater(t, body.Ambient.X(), float32(0))

	require.Len(t, body.Lights, 2)
	assert.Equal(t, "key", body.Lights[0].Name)
	assert.Equal(t, "fill", body.Lights[1].Name)
	assert.Greater(t, body.Lights[0].Intensity, float32(0))
}

func TestStatusEndpoint(t *testing.T) {
	r := newRig(t)

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := r.srv.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var body struct {
		Showroom director.Status `json:"showroom"`
		Clients  int             `json:"clients"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, director.StateIdle, body.Showroom.State)
	assert.False(t, body.Showroom.IntroPlayed)
	assert.Equal(t, string(camera.ModeIdle), body.Showroom.CameraMode)
	assert.Equal(t, 0, body.Clients)
}

func TestIntentSelectCollection(t *testing.T) {
	r := newRig(t)

	r.srv.handleIntent(nil, []byte(`{"type":"select_collection","collection":"halo-lounge"}`))
	assert.Equal(t, director.StateProcessingRequest, r.dir.State())

	r.waitFor(t, func() bool {
		return r.dir.State() == director.StateIdle && r.dir.ActiveCollection() == "halo-lounge"
	}, "presentation to complete")
}

func TestIntentSayRoutesThroughDetector(t *testing.T) {
	r := newRig(t)

	// Free text with no product phrase is dropped by the detector.
	r.srv.handleIntent(nil, []byte(`{"type":"say","text":"what time is it"}`))
	assert.Equal(t, director.StateIdle, r.dir.State())

	r.srv.handleIntent(nil, []byte(`{"type":"say","text":"show me the halo lounge"}`))
	r.waitFor(t, func() bool {
		return r.dir.State() == director.StateIdle && r.dir.ActiveCollection() == "halo-lounge"
	}, "spoken-style request to complete")
}

func TestIntentIgnoresBadInput(t *testing.T) {
	r := newRig(t)

	r.srv.handleIntent(nil, []byte(`{not json`))
	r.srv.handleIntent(nil, []byte(`{"type":"teleport"}`))
	r.srv.handleIntent(nil, []byte(`{"type":"select_collection","collection":"no-such-piece"}`))

	assert.Equal(t, director.StateIdle, r.dir.State())
}

func TestIntentAvatarReady(t *testing.T) {
	r := newRig(t)

	require.True(t, r.guide.Ready())
	r.srv.handleIntent(nil, []byte(`{"type":"avatar_ready","ready":false}`))
	assert.False(t, r.guide.Ready())

	r.srv.handleIntent(nil, []byte(`{"type":"avatar_ready","ready":true}`))
	assert.True(t, r.guide.Ready())
}

func TestIntentColorChange(t *testing.T) {
	r := newRig(t)

	changed := make(chan bus.Event, 1)
	r.events.Subscribe(bus.EventTypeColorChanged, func(e bus.Event) {
		select {
		case changed <- e:
		default:
		}
	})

	r.srv.handleIntent(nil, []byte(`{"type":"color","collection":"meridian-sofa","color":"sand"}`))

	select {
	case e := <-changed:
		assert.Equal(t, "meridian-sofa", e.Data["collection"])
		assert.Equal(t, "sand", e.Data["color"])
	case <-time.After(2 * time.Second):
		t.Fatal("color change event not published")
	}
}

func TestIntentOrbitInput(t *testing.T) {
	r := newRig(t)

	center := mgl32.Vec3{4, 0.4, -3}
	r.cam.EnableOrbit(center, camera.OrbitOptions{Radius: 1.5})
	r.waitFor(t, func() bool { return r.cam.Mode() == camera.ModeOrbiting }, "orbit mode")

	// Let the entry easing finish before sampling.
	var before mgl32.Vec3
	r.waitFor(t, func() bool {
		pos := r.cam.Position()
		settled := pos.Sub(before).Len() < 0.0005
		before = pos
		return settled
	}, "orbit to settle")

	r.srv.handleIntent(nil, []byte(`{"type":"orbit_drag","dx":300,"dy":0}`))
	r.waitFor(t, func() bool {
		return r.cam.Position().Sub(before).Len() > 0.01
	}, "drag to move the camera")

	assert.Equal(t, camera.ModeOrbiting, r.cam.Mode())
}

func TestPresenterDrivesFrameState(t *testing.T) {
	r := newRig(t)

	r.srv.ShowProductPanel("tide-dining")
	r.srv.ShowSubtitle("Welcome to the atelier.")
	r.srv.SetStopVisible(true)

	frame := r.srv.frameState(42)
	assert.Equal(t, "frame", frame.Type)
	assert.Equal(t, uint64(42), frame.Tick)
	assert.True(t, frame.PanelShown)
	assert.True(t, frame.StopShown)
	assert.Equal(t, "Welcome to the atelier.", frame.Subtitle)
	assert.Equal(t, avatar.StateIdle, frame.Avatar.State)

	r.srv.HideProductPanel()
	r.srv.ClearSubtitle()
	r.srv.SetStopVisible(false)

	frame = r.srv.frameState(43)
	assert.False(t, frame.PanelShown)
	assert.False(t, frame.StopShown)
	assert.Empty(t, frame.Subtitle)
}

func TestUIWebSocketSession(t *testing.T) {
	r := newRig(t)
	r.srv.cfg.Port = 18090

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.srv.Start(ctx)
	defer r.srv.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18090/ws/ui", nil)
	require.NoError(t, err)
	defer ws.Close()

	// The connect snapshot arrives before any broadcast.
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snapshot hub.FrameState
	require.NoError(t, ws.ReadJSON(&snapshot))
	assert.Equal(t, "frame", snapshot.Type)
	assert.Equal(t, uint64(0), snapshot.Tick)

	r.waitFor(t, func() bool { return r.srv.uiHub.ClientCount() == 1 }, "client registration")

	r.srv.BroadcastFrame(7)
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame hub.FrameState
	require.NoError(t, ws.ReadJSON(&frame))
	assert.Equal(t, uint64(7), frame.Tick)

	// Intents sent over the socket reach the director.
	require.NoError(t, ws.WriteJSON(hub.Intent{Type: hub.IntentSelectCollection, Collection: "tide-dining"}))
	r.waitFor(t, func() bool {
		return r.dir.State() == director.StateIdle && r.dir.ActiveCollection() == "tide-dining"
	}, "socket intent to complete")
}

func TestRejectsPlainHTTPOnWS(t *testing.T) {
	r := newRig(t)

	req := httptest.NewRequest("GET", "/ws/ui", nil)
	resp, err := r.srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}
