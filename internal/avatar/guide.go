// Package avatar drives the showroom guide: a five-state locomotion machine
// that walks the guide between stage points, turns it back toward the camera,
// and modulates the key light while it narrates.
package avatar

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/async"
	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/config"
	"github.com/normanking/ariashowroom/internal/motion"
	"github.com/normanking/ariashowroom/internal/stage"
)

// State is the guide's locomotion state.
type State string

const (
	StateIdle            State = "idle"
	StateTurningToTarget State = "turning_to_target"
	StateWalking         State = "walking"
	StateTurningToCamera State = "turning_to_camera"
	StateSpeaking        State = "speaking"
)

const (
	// speakLeanRate drives the torso oscillation while narrating, rad/s.
	speakLeanRate = 2.4
	// relaxRate eases sway and lean back to rest between walks.
	relaxRate = 5.0
)

// Pose is a read-only snapshot of the guide for broadcasting to clients.
// Position includes the breathing and stride bob; Pitch carries the forward
// lean and Roll the hip sway.
type Pose struct {
	Position mgl32.Vec3 `json:"position"`
	Yaw      float32    `json:"yaw"`
	Pitch    float32    `json:"pitch"`
	Roll     float32    `json:"roll"`
	State    State      `json:"state"`
	Speaking bool       `json:"speaking"`
	Light    float32    `json:"light"`
}

// Guide owns the avatar's position, heading and walk cycle. All motion
// happens inside Update, driven by the simulation loop; WalkTo only records
// the goal and hands back a completion signal.
type Guide struct {
	mu  sync.RWMutex
	log zerolog.Logger

	cfg   config.AvatarConfig
	light config.LightConfig

	rig    *stage.Rig
	events *bus.EventBus

	ready bool
	state State

	position mgl32.Vec3
	yaw      float32

	// clock accumulates Update deltas; walk deadlines are measured on it so
	// the whole machine stays deterministic under a driven loop.
	clock float32

	walkStart    mgl32.Vec3
	walkEnd      mgl32.Vec3
	walkElapsed  float32
	walkDuration float32
	walkDeadline float32
	walkSignal   *async.Signal
	targetYaw    float32

	stridePhase float32
	bob         float32
	sway        float32
	lean        float32

	speaking   bool
	lightLevel float32

	onStateChange func(from, to State)
}

// NewGuide creates a guide at the origin in the idle state. The rig and
// event bus are optional; pass nil to run the machine standalone.
func NewGuide(cfg config.AvatarConfig, light config.LightConfig, rig *stage.Rig, events *bus.EventBus, log zerolog.Logger) *Guide {
	return &Guide{
		log:        log,
		cfg:        cfg,
		light:      light,
		rig:        rig,
		events:     events,
		ready:      true,
		state:      StateIdle,
		lightLevel: light.IdleIntensity,
	}
}

// PlaceAt teleports the guide, used at startup to put it on the anchor point.
func (g *Guide) PlaceAt(position mgl32.Vec3, yaw float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = position
	g.yaw = yaw
}

// SetOnStateChange registers a callback invoked on every state transition.
func (g *Guide) SetOnStateChange(fn func(from, to State)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onStateChange = fn
}

// SetReady marks whether the client managed to load the guide model. While
// not ready, walk requests resolve immediately as skipped and the machine
// stays idle.
func (g *Guide) SetReady(ready bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready == ready {
		return
	}
	g.ready = ready
	if !ready {
		g.finishWalk(async.Skipped)
		g.setState(StateIdle)
	}
}

// Ready reports whether the guide model is available.
func (g *Guide) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ready
}

// WalkTo starts a walk cycle toward target. Any in-flight walk is superseded
// and its signal resolved immediately. The returned signal fires once the
// guide has arrived and turned back to the camera, or when the safety
// timeout forces completion.
func (g *Guide) WalkTo(target mgl32.Vec3) *async.Signal {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ready {
		g.log.Warn().Msg("Guide model not ready, skipping walk")
		return async.Resolved(async.Skipped)
	}

	g.resolveWalk(async.Superseded)

	g.walkStart = g.position
	g.walkEnd = target
	g.walkElapsed = 0
	g.stridePhase = 0

	dist := target.Sub(g.position).Len()
	g.walkDuration = g.cfg.MinWalkDuration
	if byspeed := dist / g.cfg.WalkSpeed; byspeed > g.walkDuration {
		g.walkDuration = byspeed
	}

	g.targetYaw = g.bearingTo(target)

	timeout := g.cfg.SafetyTimeoutFloor
	if scaled := g.walkDuration * g.cfg.SafetyTimeoutFactor; scaled > timeout {
		timeout = scaled
	}
	g.walkDeadline = g.clock + timeout

	g.walkSignal = async.NewSignal()
	g.setState(StateTurningToTarget)

	g.log.Debug().
		Float32("distance", dist).
		Float32("duration", g.walkDuration).
		Float32("timeout", timeout).
		Msg("Walk started")

	return g.walkSignal
}

// Update advances the machine by dt seconds. cameraPos is the current camera
// position the guide orients toward; speaking reports whether narration
// audio is playing this frame.
func (g *Guide) Update(dt float32, cameraPos mgl32.Vec3, speaking bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clock += dt
	g.speaking = speaking
	g.updateLight(speaking)

	if !g.ready {
		return
	}

	switch g.state {
	case StateIdle:
		g.faceCamera(cameraPos, g.cfg.IdleTurnSpeed, dt)
		g.breathe()
		g.relax(dt)

	case StateTurningToTarget:
		var finished bool
		g.yaw, finished = motion.DampAngle(g.yaw, g.targetYaw, g.cfg.TurnSpeed, dt)
		if finished {
			g.setState(StateWalking)
			// The freed frame advances the walk so the travel duration is
			// measured in walking time only.
			g.stepWalk(dt)
		}

	case StateWalking:
		g.stepWalk(dt)

	case StateTurningToCamera:
		g.breathe()
		var finished bool
		g.yaw, finished = motion.DampAngle(g.yaw, g.bearingTo(cameraPos), g.cfg.TurnSpeed, dt)
		if finished {
			g.setState(StateSpeaking)
			g.finishWalk(async.Done)
		}

	case StateSpeaking:
		g.faceCamera(cameraPos, g.cfg.IdleTurnSpeed, dt)
		g.breathe()
		g.sway += (0 - g.sway) * motion.SmoothFactor(relaxRate, dt)
		if speaking {
			g.lean = sin32(g.clock*speakLeanRate) * g.cfg.SpeakLeanAmplitude
		} else {
			g.lean += (0 - g.lean) * motion.SmoothFactor(relaxRate, dt)
		}
	}

	g.checkWatchdog()
}

// Reset aborts any walk and returns the guide to idle in place.
func (g *Guide) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.finishWalk(async.Stopped)
	g.bob = 0
	g.sway = 0
	g.lean = 0
	g.stridePhase = 0
	g.setState(StateIdle)
}

// State returns the current locomotion state.
func (g *Guide) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Position returns the guide's ground position, without pose offsets.
func (g *Guide) Position() mgl32.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position
}

// Yaw returns the guide's heading in radians.
func (g *Guide) Yaw() float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.yaw
}

// Pose returns the full render snapshot for the current frame.
func (g *Guide) Pose() Pose {
	g.mu.RLock()
	defer g.mu.RUnlock()

	pos := g.position
	pos[1] += g.bob
	return Pose{
		Position: pos,
		Yaw:      g.yaw,
		Pitch:    g.lean,
		Roll:     g.sway,
		State:    g.state,
		Speaking: g.speaking,
		Light:    g.lightLevel,
	}
}

// stepWalk advances the eased travel and the stride-driven pose offsets.
func (g *Guide) stepWalk(dt float32) {
	g.walkElapsed += dt
	t := motion.Clamp(g.walkElapsed/g.walkDuration, 0, 1)
	g.position = motion.LerpVec3(g.walkStart, g.walkEnd, motion.Smoothstep(t))

	g.stridePhase += dt * g.cfg.StrideFrequency * 2 * math.Pi
	g.bob = sin32(g.stridePhase) * g.cfg.WalkBobAmplitude
	g.sway = sin32(g.stridePhase*0.5) * g.cfg.SwayAmplitude
	g.lean += (g.cfg.LeanAmplitude - g.lean) * motion.SmoothFactor(relaxRate, dt)

	if t >= 1 {
		g.position = g.walkEnd
		g.bob = 0
		g.sway = 0
		g.lean = 0
		g.setState(StateTurningToCamera)
	}
}

// checkWatchdog force-completes a walk that missed its safety deadline. The
// position snap is skipped when the machine already settled; the resolve-once
// signal keeps a later natural completion from firing twice.
func (g *Guide) checkWatchdog() {
	if g.walkSignal == nil || g.walkDeadline <= 0 || g.clock < g.walkDeadline {
		return
	}
	g.walkDeadline = 0

	if g.state == StateIdle || g.state == StateSpeaking {
		return
	}

	g.log.Warn().
		Str("state", string(g.state)).
		Msg("Walk safety timeout, snapping to target")

	g.position = g.walkEnd
	g.bob = 0
	g.sway = 0
	g.lean = 0
	g.setState(StateTurningToCamera)
	g.resolveWalk(async.Done)
	g.publish(bus.EventTypeAvatarWalkTimeout, map[string]any{
		"target": g.walkEnd,
	})
}

// resolveWalk fires the pending walk signal if one exists. Repeat calls are
// harmless; only the first resolution of a signal counts.
func (g *Guide) resolveWalk(outcome async.Outcome) {
	if g.walkSignal != nil && g.walkSignal.Resolve(outcome) {
		g.log.Debug().Str("outcome", outcome.String()).Msg("Walk resolved")
	}
}

// finishWalk resolves the pending signal and clears walk bookkeeping.
func (g *Guide) finishWalk(outcome async.Outcome) {
	g.resolveWalk(outcome)
	g.walkSignal = nil
	g.walkDeadline = 0
}

func (g *Guide) faceCamera(cameraPos mgl32.Vec3, speed, dt float32) {
	g.yaw, _ = motion.DampAngle(g.yaw, g.bearingTo(cameraPos), speed, dt)
}

func (g *Guide) breathe() {
	g.bob = sin32(g.clock*g.cfg.BreathFrequency*2*math.Pi) * g.cfg.BreathAmplitude
}

func (g *Guide) relax(dt float32) {
	k := motion.SmoothFactor(relaxRate, dt)
	g.sway += (0 - g.sway) * k
	g.lean += (0 - g.lean) * k
}

// updateLight eases the key light toward its idle or speaking target. The
// smoothing factor is applied per frame, as tuned.
func (g *Guide) updateLight(speaking bool) {
	target := g.light.IdleIntensity
	if speaking {
		target = g.light.SpeakingIntensity + sin32(g.clock*g.light.FlickerSpeed)*g.light.FlickerAmplitude
	}
	g.lightLevel += (target - g.lightLevel) * g.light.Smoothing
	if g.rig != nil {
		g.rig.SetKeyIntensity(g.lightLevel)
	}
}

// bearingTo returns the yaw that faces p from the guide's position, keeping
// the current heading when the target is directly underfoot.
func (g *Guide) bearingTo(p mgl32.Vec3) float32 {
	dx := p.X() - g.position.X()
	dz := p.Z() - g.position.Z()
	if dx*dx+dz*dz < 1e-8 {
		return g.yaw
	}
	return float32(math.Atan2(float64(dx), float64(dz)))
}

func (g *Guide) setState(next State) {
	if g.state == next {
		return
	}
	prev := g.state
	g.state = next
	g.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("Guide state changed")
	if g.onStateChange != nil {
		g.onStateChange(prev, next)
	}
	g.publish(bus.EventTypeAvatarStateChanged, map[string]any{
		"from": string(prev),
		"to":   string(next),
	})
}

func (g *Guide) publish(t bus.EventType, data map[string]any) {
	if g.events != nil {
		g.events.Publish(bus.Event{Type: t, Data: data})
	}
}

func sin32(v float32) float32 {
	return float32(math.Sin(float64(v)))
}
