// Package camera owns the showroom camera: its position, its aim, and five
// mutually exclusive movement modes (idle, orbit, tour, transition, follow).
// Exactly one mode is active at a time. Entering a mode tears down the
// previous one and resolves its pending completion through the same path
// natural completion uses, so callers waiting on a tour or transition never
// hang.
package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/async"
	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/config"
	"github.com/normanking/ariashowroom/internal/motion"
)

// Mode identifies the active camera behavior.
type Mode string

const (
	ModeIdle          Mode = "idle"
	ModeOrbiting      Mode = "orbiting"
	ModeTouring       Mode = "touring"
	ModeTransitioning Mode = "transitioning"
	ModeFollowing     Mode = "following"
)

// followLookHeight aims follow shots at the guide's chest rather than feet.
const followLookHeight = 1.0

// Frame is the camera snapshot broadcast to clients each frame.
type Frame struct {
	Position mgl32.Vec3 `json:"position"`
	Look     mgl32.Vec3 `json:"look"`
	FOV      float32    `json:"fov"`
	Mode     Mode       `json:"mode"`
}

// OrbitOptions configures orbit activation. Zero min/max distances derive
// from Radius; a zero PolarRange uses the configured band.
type OrbitOptions struct {
	Radius      float32
	MinDistance float32
	MaxDistance float32
	PolarRange  float32
}

// TourOptions configures a scripted tour. A zero BlendRate uses the
// configured tour blend.
type TourOptions struct {
	Duration  float32
	Loop      bool
	BlendRate float32
}

type tourState struct {
	path      *motion.Spline
	look      *motion.Spline
	duration  float32
	clock     float32
	loop      bool
	blendRate float32
	signal    *async.Signal
}

type transitionState struct {
	posCurve  *motion.Spline
	lookCurve *motion.Spline
	duration  float32
	clock     float32

	// direct transitions skip the arc and ease straight home while
	// re-aiming at a stabilized ground point near the guide.
	direct      bool
	startPos    mgl32.Vec3
	endPos      mgl32.Vec3
	endLook     mgl32.Vec3
	groundPoint mgl32.Vec3

	signal *async.Signal
}

type followState struct {
	offset      mgl32.Vec3
	lastPos     mgl32.Vec3
	velocity    mgl32.Vec3
	initialized bool
}

// Choreographer owns the camera transform. The simulation loop drives it
// through Update; the director switches modes through the public operations.
type Choreographer struct {
	mu     sync.RWMutex
	log    zerolog.Logger
	cfg    config.CameraConfig
	events *bus.EventBus

	mode     Mode
	position mgl32.Vec3
	look     mgl32.Vec3
	fov      float32

	orbit  *orbitControl
	tour   *tourState
	trans  *transitionState
	follow *followState

	avatarPos func() mgl32.Vec3
}

// NewChoreographer creates an idle camera at the configured home framing.
func NewChoreographer(cfg config.CameraConfig, events *bus.EventBus, log zerolog.Logger) *Choreographer {
	return &Choreographer{
		log:      log,
		cfg:      cfg,
		events:   events,
		mode:     ModeIdle,
		position: mgl32.Vec3(cfg.HomePosition),
		look:     mgl32.Vec3(cfg.HomeLook),
		fov:      cfg.FOV,
	}
}

// SetAvatarTracker wires the follow and return modes to the guide's ground
// position. Without a tracker those modes fall back to fixed aims.
func (c *Choreographer) SetAvatarTracker(fn func() mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.avatarPos = fn
}

// EnableOrbit switches to user-controlled orbit around target.
func (c *Choreographer) EnableOrbit(target mgl32.Vec3, opts OrbitOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown(async.Superseded)
	c.orbit = newOrbitControl(target, c.position, opts, c.cfg)
	c.look = target
	c.setMode(ModeOrbiting)
	c.log.Debug().Float32("radius", opts.Radius).Msg("Orbit enabled")
}

// DisableOrbit leaves orbit mode, keeping the orbit pivot as the idle look
// target so the cut is seamless.
func (c *Choreographer) DisableOrbit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeOrbiting || c.orbit == nil {
		return
	}
	c.look = c.orbit.target
	c.orbit = nil
	c.setMode(ModeIdle)
}

// ApplyOrbitDrag queues pointer-drag input, consumed on the next update.
// Ignored outside orbit mode.
func (c *Choreographer) ApplyOrbitDrag(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.orbit != nil {
		c.orbit.addDrag(dx, dy)
	}
}

// ApplyOrbitZoom queues wheel input, consumed on the next update.
func (c *Choreographer) ApplyOrbitZoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.orbit != nil {
		c.orbit.addZoom(delta)
	}
}

// StartTour replaces the active mode with a scripted tour through the given
// control points. Looping tours run until stopped.
func (c *Choreographer) StartTour(path, looks []mgl32.Vec3, opts TourOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTour(path, looks, opts, nil)
}

// PlayTour runs a single tour pass and returns a signal that resolves when
// the pass completes, is stopped, or is superseded by another mode.
func (c *Choreographer) PlayTour(path, looks []mgl32.Vec3, duration float32) *async.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig := async.NewSignal()
	if !c.startTour(path, looks, TourOptions{Duration: duration}, sig) {
		sig.Resolve(async.Skipped)
	}
	return sig
}

func (c *Choreographer) startTour(path, looks []mgl32.Vec3, opts TourOptions, sig *async.Signal) bool {
	if len(path) < 2 || len(looks) < 1 || opts.Duration <= 0 {
		return false
	}
	c.teardown(async.Superseded)

	blend := opts.BlendRate
	if blend <= 0 {
		blend = c.cfg.TourBlendRate
	}
	c.tour = &tourState{
		path:      motion.NewCatmullRom(path, false),
		look:      motion.NewCatmullRom(looks, false),
		duration:  opts.Duration,
		loop:      opts.Loop,
		blendRate: blend,
		signal:    sig,
	}
	c.setMode(ModeTouring)
	c.log.Debug().Int("points", len(path)).Bool("loop", opts.Loop).Msg("Tour started")
	return true
}

// StopTour ends the active tour. A pending PlayTour signal resolves as
// stopped, so awaiting callers observe manual stops as completions.
func (c *Choreographer) StopTour() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeTouring {
		return
	}
	if c.tour != nil && c.tour.signal != nil {
		c.tour.signal.Resolve(async.Stopped)
	}
	c.tour = nil
	c.setMode(ModeIdle)
}

// TransitionTo eases the camera to pos while swinging the aim to look. The
// path bows sideways and lifts slightly, scaled by the travel distance, so
// the move reads as a camera move rather than a linear dolly. A transition
// already in flight resolves as superseded first.
func (c *Choreographer) TransitionTo(pos, look mgl32.Vec3, duration float32) *async.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown(async.Superseded)

	if duration <= 0 {
		c.position = pos
		c.look = look
		c.setMode(ModeIdle)
		return async.Resolved(async.Done)
	}

	chord := pos.Sub(c.position)
	arc := chord.Len() * c.cfg.TransitionArcRatio
	if arc > c.cfg.TransitionArcMax {
		arc = c.cfg.TransitionArcMax
	}

	side := chord.Cross(mgl32.Vec3{0, 1, 0})
	if side.Len() < 1e-5 {
		side = mgl32.Vec3{1, 0, 0}
	} else {
		side = side.Normalize()
	}

	mid := c.position.Add(chord.Mul(0.5)).Add(side.Mul(arc))
	mid[1] += c.cfg.TransitionLift

	c.trans = &transitionState{
		posCurve:  motion.NewCatmullRom([]mgl32.Vec3{c.position, mid, pos}, false),
		lookCurve: motion.NewCatmullRom([]mgl32.Vec3{c.look, motion.LerpVec3(c.look, look, 0.5), look}, false),
		duration:  duration,
		endPos:    pos,
		endLook:   look,
		signal:    async.NewSignal(),
	}
	c.setMode(ModeTransitioning)
	return c.trans.signal
}

// TransitionHome eases the camera straight back to the home position while
// continuously re-aiming at a stabilized ground point near the guide: a
// walk-away shot rather than a curved cinematic.
func (c *Choreographer) TransitionHome(duration float32) *async.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown(async.Superseded)

	home := mgl32.Vec3(c.cfg.HomePosition)
	if duration <= 0 {
		c.position = home
		c.look = mgl32.Vec3(c.cfg.HomeLook)
		c.setMode(ModeIdle)
		return async.Resolved(async.Done)
	}

	ground := mgl32.Vec3(c.cfg.HomeLook)
	if c.avatarPos != nil {
		a := c.avatarPos()
		ground = mgl32.Vec3{a.X(), c.cfg.ReturnGroundHeight, a.Z()}
	}

	c.trans = &transitionState{
		direct:      true,
		startPos:    c.position,
		endPos:      home,
		endLook:     ground,
		groundPoint: ground,
		duration:    duration,
		signal:      async.NewSignal(),
	}
	c.setMode(ModeTransitioning)
	return c.trans.signal
}

// FollowAvatar toggles reactive follow: the camera keeps its offset from the
// guide at enable time and leads both position and aim by the guide's
// smoothed velocity, framing the direction of travel.
func (c *Choreographer) FollowAvatar(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !enable {
		if c.mode == ModeFollowing {
			c.follow = nil
			c.setMode(ModeIdle)
		}
		return
	}
	if c.avatarPos == nil {
		c.log.Warn().Msg("No avatar tracker, follow ignored")
		return
	}

	c.teardown(async.Superseded)
	c.follow = &followState{offset: c.position.Sub(c.avatarPos())}
	c.setMode(ModeFollowing)
}

// Interrupt tears down whatever mode is active, resolving its pending
// completion with the given outcome, and idles the camera in place.
func (c *Choreographer) Interrupt(outcome async.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown(outcome)
	c.setMode(ModeIdle)
}

// CancelScripted tears down an active tour or transition, resolving its
// pending completion with the given outcome. Interactive modes (orbit,
// follow) are left running.
func (c *Choreographer) CancelScripted(outcome async.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tour == nil && c.trans == nil {
		return
	}
	c.teardown(outcome)
	c.setMode(ModeIdle)
}

// Update advances the active mode by dt seconds.
func (c *Choreographer) Update(dt float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeOrbiting:
		if c.orbit != nil {
			c.position = c.orbit.step()
			c.look = c.orbit.target
		}
	case ModeTouring:
		c.updateTour(dt)
	case ModeTransitioning:
		c.updateTransition(dt)
	case ModeFollowing:
		c.updateFollow(dt)
	}
}

// Mode returns the active camera mode.
func (c *Choreographer) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Position returns the camera position.
func (c *Choreographer) Position() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

// Look returns the camera aim point.
func (c *Choreographer) Look() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.look
}

// FOV returns the vertical field of view in degrees.
func (c *Choreographer) FOV() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fov
}

// Frame returns the broadcast snapshot for the current frame.
func (c *Choreographer) Frame() Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Frame{
		Position: c.position,
		Look:     c.look,
		FOV:      c.fov,
		Mode:     c.mode,
	}
}

func (c *Choreographer) updateTour(dt float32) {
	tr := c.tour
	if tr == nil {
		return
	}
	tr.clock += dt

	t := tr.clock / tr.duration
	if tr.loop {
		t -= float32(math.Floor(float64(t)))
	} else if t > 1 {
		t = 1
	}

	k := motion.SmoothFactor(tr.blendRate, dt)
	c.position = motion.LerpVec3(c.position, tr.path.Sample(t), k)
	c.look = motion.LerpVec3(c.look, tr.look.Sample(t), k)

	if !tr.loop && tr.clock >= tr.duration {
		if tr.signal != nil {
			tr.signal.Resolve(async.Done)
		}
		c.tour = nil
		c.setMode(ModeIdle)
	}
}

func (c *Choreographer) updateTransition(dt float32) {
	tr := c.trans
	if tr == nil {
		return
	}
	tr.clock += dt
	t := motion.Clamp(tr.clock/tr.duration, 0, 1)

	if tr.direct {
		if c.avatarPos != nil {
			a := c.avatarPos()
			target := mgl32.Vec3{a.X(), c.cfg.ReturnGroundHeight, a.Z()}
			tr.groundPoint = motion.LerpVec3(tr.groundPoint, target, motion.SmoothFactor(c.cfg.MoveRate, dt))
		}
		c.position = motion.LerpVec3(tr.startPos, tr.endPos, motion.EaseOutCubic(t))
		c.look = motion.LerpVec3(c.look, tr.groundPoint, motion.SmoothFactor(c.cfg.MoveRate, dt))
	} else {
		eased := motion.EaseInOutCubic(t)
		c.position = tr.posCurve.Sample(eased)
		c.look = tr.lookCurve.Sample(eased)
	}

	if t >= 1 {
		c.position = tr.endPos
		if !tr.direct {
			c.look = tr.endLook
		}
		if tr.signal != nil {
			tr.signal.Resolve(async.Done)
		}
		c.trans = nil
		c.setMode(ModeIdle)
	}
}

func (c *Choreographer) updateFollow(dt float32) {
	f := c.follow
	if f == nil || c.avatarPos == nil {
		return
	}

	p := c.avatarPos()
	if !f.initialized {
		f.lastPos = p
		f.initialized = true
	}
	if dt > 1e-6 {
		raw := p.Sub(f.lastPos).Mul(1 / dt)
		// Velocity filter factor is applied per frame, as tuned.
		f.velocity = motion.LerpVec3(f.velocity, raw, c.cfg.FollowSmoothing)
	}
	f.lastPos = p

	lead := f.velocity.Mul(c.cfg.FollowLead)
	desiredPos := p.Add(f.offset).Add(lead)
	desiredLook := p.Add(lead)
	desiredLook[1] += followLookHeight

	k := motion.SmoothFactor(c.cfg.MoveRate, dt)
	c.position = motion.LerpVec3(c.position, desiredPos, k)
	c.look = motion.LerpVec3(c.look, desiredLook, k)
}

// teardown releases the active mode, resolving any pending completion
// through the same path natural completion uses.
func (c *Choreographer) teardown(outcome async.Outcome) {
	if c.trans != nil {
		if c.trans.signal != nil {
			c.trans.signal.Resolve(outcome)
		}
		c.trans = nil
	}
	if c.tour != nil {
		if c.tour.signal != nil {
			c.tour.signal.Resolve(outcome)
		}
		c.tour = nil
	}
	c.orbit = nil
	c.follow = nil
}

func (c *Choreographer) setMode(next Mode) {
	if c.mode == next {
		return
	}
	prev := c.mode
	c.mode = next
	c.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("Camera mode changed")
	if c.events != nil {
		c.events.Publish(bus.Event{Type: bus.EventTypeCameraModeChanged, Data: map[string]any{
			"from": string(prev),
			"to":   string(next),
		}})
	}
}
