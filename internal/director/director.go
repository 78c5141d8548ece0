// Package director sequences showroom requests. At most one collection
// workflow runs at a time; a newer request coalesces into a single pending
// slot and cancels the active request's cinematic pieces while an in-flight
// walk finishes to a safe state. The director never mutates the camera or
// the guide directly, it only invokes their methods and waits on their
// completion signals.
package director

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/async"
	"github.com/normanking/ariashowroom/internal/avatar"
	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/camera"
	"github.com/normanking/ariashowroom/internal/config"
	"github.com/normanking/ariashowroom/internal/narration"
	"github.com/normanking/ariashowroom/internal/stage"
)

// State is the director's top-level mode.
type State string

const (
	StateIdle              State = "idle"
	StateIntroPlaying      State = "intro_playing"
	StateProcessingRequest State = "processing_request"
)

// introSkipDuration is the brisk transition used to jump to the closing shot
// when the intro is skipped.
const introSkipDuration = 0.8

// CollectionRequest is one "show this collection" command. An empty
// CollectionID means return to the overview.
type CollectionRequest struct {
	CollectionID string `json:"collectionId"`
	Source       string `json:"source"`
	ID           uint64 `json:"requestId"`
}

// CinematicSession pairs a narration track with an orbit tour so a manual
// stop can name what it interrupted.
type CinematicSession struct {
	ID           string
	CollectionID string
	stop         *async.Signal
}

// Presenter is the UI surface the director drives at defined workflow
// points. The web layer implements it by broadcasting commands to connected
// clients; a nil presenter is skipped.
type Presenter interface {
	ShowProductPanel(collectionID string)
	HideProductPanel()
	ShowSubtitle(text string)
	ClearSubtitle()
	SetStopVisible(visible bool)
	IntroDone()
}

// Status is the diagnostic snapshot served by the status endpoint.
type Status struct {
	State            State  `json:"state"`
	ActiveCollection string `json:"activeCollection,omitempty"`
	ActiveRequestID  uint64 `json:"activeRequestId,omitempty"`
	PendingRequestID uint64 `json:"pendingRequestId,omitempty"`
	CameraMode       string `json:"cameraMode"`
	AvatarState      string `json:"avatarState"`
	IntroPlayed      bool   `json:"introPlayed"`
}

// Director owns the request lifecycle.
type Director struct {
	log    zerolog.Logger
	cfg    config.Config
	events *bus.EventBus

	guide   *avatar.Guide
	cam     *camera.Choreographer
	player  narration.Player
	catalog *stage.Catalog

	mu               sync.Mutex
	presenter        Presenter
	state            State
	active           *CollectionRequest
	pending          *CollectionRequest
	token            *async.Token
	session          *CinematicSession
	skipIntro        *async.Signal
	introPlayed      bool
	activeCollection string
	lastRequestID    uint64
}

func NewDirector(cfg config.Config, guide *avatar.Guide, cam *camera.Choreographer, player narration.Player, catalog *stage.Catalog, events *bus.EventBus, log zerolog.Logger) *Director {
	return &Director{
		log:     log,
		cfg:     cfg,
		events:  events,
		guide:   guide,
		cam:     cam,
		player:  player,
		catalog: catalog,
		state:   StateIdle,
	}
}

// SetPresenter wires the UI surface. May be called after construction, once
// the web layer exists.
func (d *Director) SetPresenter(p Presenter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presenter = p
}

// State returns the director's current mode.
func (d *Director) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// ActiveCollection returns the collection currently presented, or "".
func (d *Director) ActiveCollection() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeCollection
}

// Status reports the director, camera, and guide state in one snapshot.
func (d *Director) Status() Status {
	d.mu.Lock()
	s := Status{
		State:            d.state,
		ActiveCollection: d.activeCollection,
		IntroPlayed:      d.introPlayed,
	}
	if d.active != nil {
		s.ActiveRequestID = d.active.ID
	}
	if d.pending != nil {
		s.PendingRequestID = d.pending.ID
	}
	d.mu.Unlock()

	s.CameraMode = string(d.cam.Mode())
	s.AvatarState = string(d.guide.State())
	return s
}

// RequestStart handles the UI start intent: the first one plays the intro, a
// start during the intro skips it, anything later is a no-op.
func (d *Director) RequestStart(source string) {
	d.mu.Lock()
	if d.state == StateIntroPlaying {
		skip := d.skipIntro
		d.mu.Unlock()
		if skip != nil && skip.Resolve(async.Skipped) {
			d.log.Info().Str("source", source).Msg("Intro skip requested")
		}
		return
	}
	if d.introPlayed || d.state != StateIdle || len(d.cfg.Intro.Shots) == 0 {
		d.mu.Unlock()
		return
	}
	d.introPlayed = true
	d.state = StateIntroPlaying
	d.skipIntro = async.NewSignal()
	skip := d.skipIntro
	d.mu.Unlock()

	go d.runIntro(skip)
}

// RequestCollection queues a presentation of the given collection.
func (d *Director) RequestCollection(collectionID, source string) error {
	d.mu.Lock()
	catalog := d.catalog
	d.mu.Unlock()

	if _, ok := catalog.Product(collectionID); !ok {
		return fmt.Errorf("%w: %s", stage.ErrUnknownCollection, collectionID)
	}
	d.enqueue(CollectionRequest{CollectionID: collectionID, Source: source})
	return nil
}

// RequestBack walks the guide home and returns the camera to its start pose.
func (d *Director) RequestBack(source string) {
	d.enqueue(CollectionRequest{Source: source})
}

// StopCinematic ends the active narration+tour pairing early. The workflow
// settles into its closing shot instead of being abandoned.
func (d *Director) StopCinematic() {
	d.mu.Lock()
	session := d.session
	d.mu.Unlock()

	if session == nil {
		return
	}
	if session.stop.Resolve(async.Stopped) {
		d.log.Info().Str("session", session.ID).Msg("Cinematic stop requested")
		d.publish(bus.EventTypeCinematicStopped, map[string]any{
			"session":    session.ID,
			"collection": session.CollectionID,
			"reason":     "user",
		})
	}
}

// ChangeColor validates a color variant and broadcasts it to the UI. No
// camera motion is involved. An empty collectionID targets the collection
// currently presented.
func (d *Director) ChangeColor(collectionID, color string) error {
	if collectionID == "" {
		collectionID = d.ActiveCollection()
	}

	d.mu.Lock()
	catalog := d.catalog
	d.mu.Unlock()

	product, ok := catalog.Product(collectionID)
	if !ok {
		return fmt.Errorf("%w: %s", stage.ErrUnknownCollection, collectionID)
	}
	if !product.HasColor(color) {
		return fmt.Errorf("collection %s has no %q variant", collectionID, color)
	}

	d.log.Info().Str("collection", collectionID).Str("color", color).Msg("Color variant selected")
	d.publish(bus.EventTypeColorChanged, map[string]any{
		"collection": collectionID,
		"color":      color,
	})
	return nil
}

// enqueue routes a request by the director's current state: run it now, park
// it as the single pending request, or skip the intro first. Only the newest
// pending request survives a burst.
func (d *Director) enqueue(req CollectionRequest) {
	d.mu.Lock()
	d.lastRequestID++
	req.ID = d.lastRequestID

	switch d.state {
	case StateIntroPlaying:
		overwritten := d.pending
		d.pending = &req
		skip := d.skipIntro
		d.mu.Unlock()

		d.publishSync(bus.EventTypeRequestAccepted, requestData(req))
		if overwritten != nil {
			d.publishSync(bus.EventTypeRequestSuperseded, supersededData(*overwritten, req.ID))
		}
		if skip != nil {
			skip.Resolve(async.Skipped)
		}

	case StateProcessingRequest:
		overwritten := d.pending
		d.pending = &req
		token := d.token
		active := d.active
		d.mu.Unlock()

		d.publishSync(bus.EventTypeRequestAccepted, requestData(req))
		if overwritten != nil {
			d.publishSync(bus.EventTypeRequestSuperseded, supersededData(*overwritten, req.ID))
		}
		if token != nil && token.Cancel(async.Superseded) && active != nil {
			d.log.Info().
				Uint64("request", active.ID).
				Uint64("by", req.ID).
				Msg("Active request superseded")
			d.publishSync(bus.EventTypeRequestSuperseded, supersededData(*active, req.ID))
		}
		// Cut the active cinematic pieces loose. A walk in flight finishes
		// to its safe state before the queued request starts.
		d.player.Stop()
		d.cam.CancelScripted(async.Superseded)

	default:
		token := d.startLocked(&req)
		d.mu.Unlock()

		d.publishSync(bus.EventTypeRequestAccepted, requestData(req))
		go d.runWorkflow(req, token)
	}
}

// startLocked installs req as the active request. Caller holds d.mu.
func (d *Director) startLocked(req *CollectionRequest) *async.Token {
	d.state = StateProcessingRequest
	d.active = req
	d.token = async.NewToken()
	return d.token
}

// finishWorkflow is every workflow's final step: release the active slot and
// hand the stage to the queued request, if any.
func (d *Director) finishWorkflow() {
	d.mu.Lock()
	d.active = nil
	d.session = nil
	next := d.pending
	d.pending = nil
	if next == nil {
		d.state = StateIdle
		d.mu.Unlock()
		return
	}
	token := d.startLocked(next)
	d.mu.Unlock()

	d.log.Debug().Uint64("request", next.ID).Msg("Starting queued request")
	go d.runWorkflow(*next, token)
}

func (d *Director) ui() Presenter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presenter
}

func (d *Director) hidePanels() {
	if p := d.ui(); p != nil {
		p.HideProductPanel()
		p.ClearSubtitle()
	}
	d.publish(bus.EventTypePanelVisibility, map[string]any{"visible": false})
}

func (d *Director) showPanel(collectionID string) {
	if p := d.ui(); p != nil {
		p.ShowProductPanel(collectionID)
	}
	d.publish(bus.EventTypePanelVisibility, map[string]any{
		"visible":    true,
		"collection": collectionID,
	})
}

func (d *Director) showSubtitle(trackID string) {
	track, ok := d.cfg.Narration.Tracks[trackID]
	if !ok || track.Subtitle == "" {
		return
	}
	if p := d.ui(); p != nil {
		p.ShowSubtitle(track.Subtitle)
	}
	d.publish(bus.EventTypeSubtitle, map[string]any{"text": track.Subtitle})
}

func (d *Director) clearSubtitle() {
	if p := d.ui(); p != nil {
		p.ClearSubtitle()
	}
	d.publish(bus.EventTypeSubtitle, map[string]any{"text": ""})
}

func (d *Director) setStopVisible(visible bool) {
	if p := d.ui(); p != nil {
		p.SetStopVisible(visible)
	}
}

// step publishes a workflow breadcrumb. Synchronous so subscribers observe
// steps in execution order.
func (d *Director) step(req CollectionRequest, name string) {
	d.log.Debug().Uint64("request", req.ID).Str("step", name).Msg("Workflow step")
	d.publishSync(bus.EventTypeWorkflowStep, map[string]any{
		"requestId": req.ID,
		"step":      name,
	})
}

func (d *Director) publish(t bus.EventType, data map[string]any) {
	if d.events != nil {
		d.events.Publish(bus.Event{Type: t, Data: data})
	}
}

func (d *Director) publishSync(t bus.EventType, data map[string]any) {
	if d.events != nil {
		d.events.PublishSync(bus.Event{Type: t, Data: data})
	}
}

func requestData(req CollectionRequest) map[string]any {
	return map[string]any{
		"requestId":  req.ID,
		"collection": req.CollectionID,
		"source":     req.Source,
	}
}

func supersededData(req CollectionRequest, by uint64) map[string]any {
	return map[string]any{
		"requestId":  req.ID,
		"collection": req.CollectionID,
		"by":         by,
	}
}
