// Package loop drives the showroom simulation at a fixed tick rate. Every
// tick advances the guide and camera by the measured frame delta; every Nth
// tick the frame callback fires so the web layer can broadcast state.
package loop

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/avatar"
	"github.com/normanking/ariashowroom/internal/camera"
	"github.com/normanking/ariashowroom/internal/config"
	"github.com/normanking/ariashowroom/internal/narration"
)

// maxFrameDelta caps the simulation step after stalls (debugger pauses, GC,
// laptop sleep) so the world never teleports.
const maxFrameDelta = 0.25

// Loop owns the tick goroutine.
type Loop struct {
	log    zerolog.Logger
	guide  *avatar.Guide
	cam    *camera.Choreographer
	player narration.Player

	tickHz       int
	frameDivisor int

	tick    atomic.Uint64
	onFrame func(tick uint64)
}

func NewLoop(cfg config.ServerConfig, guide *avatar.Guide, cam *camera.Choreographer, player narration.Player, log zerolog.Logger) *Loop {
	tickHz := cfg.TickHz
	if tickHz <= 0 {
		tickHz = 60
	}
	divisor := cfg.FrameDivisor
	if divisor <= 0 {
		divisor = 1
	}
	return &Loop{
		log:          log,
		guide:        guide,
		cam:          cam,
		player:       player,
		tickHz:       tickHz,
		frameDivisor: divisor,
	}
}

// SetOnFrame installs the broadcast callback. Call before Run.
func (l *Loop) SetOnFrame(fn func(tick uint64)) {
	l.onFrame = fn
}

// Run ticks the simulation until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	interval := time.Second / time.Duration(l.tickHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.log.Info().Int("tick_hz", l.tickHz).Int("frame_divisor", l.frameDivisor).Msg("Simulation loop started")

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.log.Info().Uint64("ticks", l.tick.Load()).Msg("Simulation loop stopped")
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if dt > maxFrameDelta {
				dt = maxFrameDelta
			}
			l.Step(dt)
		}
	}
}

// Step advances the world one tick. Exposed so tests can drive the
// simulation deterministically without the wall clock.
func (l *Loop) Step(dt float32) {
	l.guide.Update(dt, l.cam.Position(), l.player.IsSpeaking())
	l.cam.Update(dt)

	tick := l.tick.Add(1)
	if l.onFrame != nil && tick%uint64(l.frameDivisor) == 0 {
		l.onFrame(tick)
	}
}

// Tick returns the number of steps taken so far.
func (l *Loop) Tick() uint64 {
	return l.tick.Load()
}

