// Package narration times voice-over tracks. Audio decoding and playback
// happen in the browser; this package owns which track is active, for how
// long, and the completion signal the director waits on. Track metadata
// comes from the narration table in config.
package narration

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/async"
	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/config"
)

// ErrUnknownTrack is returned when a track id is missing from the table.
var ErrUnknownTrack = errors.New("unknown narration track")

// Player is the narration interface the director drives. A nil Player is a
// valid degraded configuration; call sites treat it as an immediate no-op.
type Player interface {
	// Prepare validates a track and hints the client to preload its audio.
	Prepare(id string) error
	// Play starts a track and returns a signal resolving when it ends or is
	// stopped. Unknown tracks resolve immediately as skipped.
	Play(id string) *async.Signal
	// Stop ends the active track early, resolving its signal as stopped.
	Stop()
	// IsSpeaking reports whether a track is currently playing.
	IsSpeaking() bool
	// Duration returns a track's length in seconds.
	Duration(id string) (float32, bool)
}

// TrackPlayer implements Player from the config track table. Playback timing
// uses a wall-clock timer since the browser plays the audio in real time.
type TrackPlayer struct {
	mu     sync.Mutex
	log    zerolog.Logger
	cfg    config.NarrationConfig
	events *bus.EventBus

	current string
	signal  *async.Signal
	timer   *time.Timer
	gen     int
}

var _ Player = (*TrackPlayer)(nil)

func NewTrackPlayer(cfg config.NarrationConfig, events *bus.EventBus, log zerolog.Logger) *TrackPlayer {
	return &TrackPlayer{
		log:    log,
		cfg:    cfg,
		events: events,
	}
}

// SetTracks swaps the track table, used on catalog hot-reload. The active
// track keeps playing on its original timing.
func (p *TrackPlayer) SetTracks(cfg config.NarrationConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}

func (p *TrackPlayer) Prepare(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	track, ok := p.cfg.Tracks[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTrack, id)
	}
	p.publish(bus.EventTypeNarrationPrepare, map[string]any{
		"track":    id,
		"duration": track.Duration,
	})
	return nil
}

func (p *TrackPlayer) Play(id string) *async.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()

	track, ok := p.cfg.Tracks[id]
	if !ok {
		p.log.Warn().Str("track", id).Msg("Unknown narration track, skipping")
		return async.Resolved(async.Skipped)
	}

	p.stopLocked(async.Superseded)

	p.current = id
	p.signal = async.NewSignal()
	p.gen++
	gen := p.gen

	p.publish(bus.EventTypeNarrationStarted, map[string]any{
		"track":    id,
		"duration": track.Duration,
		"subtitle": track.Subtitle,
	})
	p.log.Debug().Str("track", id).Float64("duration", track.Duration).Msg("Narration started")

	p.timer = time.AfterFunc(time.Duration(track.Duration*float64(time.Second)), func() {
		p.complete(gen)
	})

	return p.signal
}

func (p *TrackPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked(async.Stopped)
}

func (p *TrackPlayer) IsSpeaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != ""
}

func (p *TrackPlayer) Duration(id string) (float32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	track, ok := p.cfg.Tracks[id]
	if !ok {
		return 0, false
	}
	return float32(track.Duration), true
}

// complete fires when a track's timer elapses. The generation guard drops
// timers that were superseded or stopped after being armed.
func (p *TrackPlayer) complete(gen int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen || p.signal == nil {
		return
	}
	p.signal.Resolve(async.Done)
	p.publish(bus.EventTypeNarrationEnded, map[string]any{
		"track":   p.current,
		"outcome": async.Done.String(),
	})
	p.log.Debug().Str("track", p.current).Msg("Narration finished")
	p.current = ""
	p.signal = nil
	p.timer = nil
}

func (p *TrackPlayer) stopLocked(outcome async.Outcome) {
	if p.signal == nil {
		return
	}
	p.signal.Resolve(outcome)
	p.publish(bus.EventTypeNarrationEnded, map[string]any{
		"track":   p.current,
		"outcome": outcome.String(),
	})
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.current = ""
	p.signal = nil
	p.gen++
}

func (p *TrackPlayer) publish(t bus.EventType, data map[string]any) {
	if p.events != nil {
		p.events.Publish(bus.Event{Type: t, Data: data})
	}
}
