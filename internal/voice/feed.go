// Package voice turns a streaming transcript feed into debounced showroom
// intents. Speech recognition itself is external; this package dials the
// transcript websocket and matches what comes back against the catalog
// aliases.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/config"
)

const (
	dialTimeout    = 10 * time.Second
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// ErrNotConfigured is returned by Start when no feed URL is set. The
// showroom runs UI-only in that case.
var ErrNotConfigured = errors.New("transcript feed not configured")

// Transcript is one recognized utterance from the feed.
type Transcript struct {
	Text       string
	Confidence float64
	IsFinal    bool
}

// feedMessage mirrors the streaming-STT result envelope.
type feedMessage struct {
	Type        string      `json:"type"`
	IsFinal     bool        `json:"is_final,omitempty"`
	SpeechFinal bool        `json:"speech_final,omitempty"`
	Channel     feedChannel `json:"channel,omitempty"`
}

type feedChannel struct {
	Alternatives []feedAlternative `json:"alternatives,omitempty"`
}

type feedAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// TranscriptFeed maintains a websocket connection to the transcript service,
// reconnecting with backoff when it drops. The feed is optional: without a
// configured URL the showroom still runs on UI intents alone.
type TranscriptFeed struct {
	url    string
	apiKey string
	log    zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	out       chan Transcript
	closeCh   chan struct{}
	closeOnce sync.Once
}

func NewTranscriptFeed(cfg config.VoiceConfig, log zerolog.Logger) *TranscriptFeed {
	return &TranscriptFeed{
		url:     cfg.FeedURL,
		apiKey:  cfg.APIKey,
		log:     log,
		out:     make(chan Transcript, 32),
		closeCh: make(chan struct{}),
	}
}

// Available reports whether a feed URL is configured.
func (f *TranscriptFeed) Available() bool {
	return f.url != ""
}

// Start begins dialing the feed and returns the transcript channel. The
// channel closes when ctx is cancelled or Close is called.
func (f *TranscriptFeed) Start(ctx context.Context) (<-chan Transcript, error) {
	if f.url == "" {
		return nil, ErrNotConfigured
	}
	go f.run(ctx)
	return f.out, nil
}

func (f *TranscriptFeed) run(ctx context.Context) {
	defer close(f.out)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.closeCh:
			return
		default:
		}

		if err := f.dial(ctx); err != nil {
			f.log.Warn().Err(err).Dur("retry_in", backoff).Msg("Transcript feed dial failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			case <-f.closeCh:
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		f.readPump(ctx)
	}
}

func (f *TranscriptFeed) dial(ctx context.Context) error {
	header := http.Header{}
	if f.apiKey != "" {
		header.Set("Authorization", "Token "+f.apiKey)
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, f.url, header)
	if err != nil {
		if resp != nil {
			f.log.Error().Int("status", resp.StatusCode).Err(err).Msg("Transcript feed connection refused")
		}
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	f.log.Info().Str("url", f.url).Msg("Connected to transcript feed")
	return nil
}

func (f *TranscriptFeed) readPump(ctx context.Context) {
	defer func() {
		f.mu.Lock()
		if f.conn != nil {
			f.conn.Close()
			f.conn = nil
		}
		f.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.closeCh:
			return
		default:
		}

		f.mu.Lock()
		conn := f.conn
		f.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.log.Debug().Msg("Transcript feed closed normally")
			} else {
				f.log.Warn().Err(err).Msg("Transcript feed read error")
			}
			return
		}

		var msg feedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			f.log.Warn().Err(err).Str("message", string(message)).Msg("Failed to parse transcript message")
			continue
		}
		if msg.Type != "Results" || len(msg.Channel.Alternatives) == 0 {
			continue
		}
		alt := msg.Channel.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}

		t := Transcript{
			Text:       alt.Transcript,
			Confidence: alt.Confidence,
			IsFinal:    msg.IsFinal || msg.SpeechFinal,
		}
		select {
		case f.out <- t:
		default:
			f.log.Warn().Msg("Transcript channel full, dropping")
		}
	}
}

// Close tears the feed down. Safe to call more than once.
func (f *TranscriptFeed) Close() error {
	f.closeOnce.Do(func() {
		close(f.closeCh)
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	return nil
}
