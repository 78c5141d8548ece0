package voice

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/ariashowroom/internal/bus"
	"github.com/normanking/ariashowroom/internal/config"
)

// Source tags where an intent originated.
type Source string

const (
	SourceUI    Source = "ui"
	SourceVoice Source = "voice"
)

// CollectionIntent is a normalized "show this collection" request.
type CollectionIntent struct {
	CollectionID string
	Source       Source
	Transcript   string
}

var (
	nonWordPattern = regexp.MustCompile(`[^a-z0-9\s]+`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

type collectionMatcher struct {
	id      string
	pattern *regexp.Regexp
}

// IntentDetector matches normalized transcripts against collection aliases.
// Repeat triggers for the same collection inside the debounce window are
// suppressed so that a rambling sentence cannot restart a presentation that
// was just requested.
type IntentDetector struct {
	mu        sync.Mutex
	log       zerolog.Logger
	events    *bus.EventBus
	debounce  time.Duration
	matchers  []collectionMatcher
	lastFired map[string]time.Time

	// now is swapped out by tests to control the debounce window.
	now func() time.Time

	onIntent func(CollectionIntent)
}

func NewIntentDetector(cfg config.VoiceConfig, events *bus.EventBus, log zerolog.Logger) *IntentDetector {
	d := &IntentDetector{
		log:       log,
		events:    events,
		debounce:  cfg.Debounce,
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}

	ids := make([]string, 0, len(cfg.Aliases))
	for id := range cfg.Aliases {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		phrases := []string{normalize(id)}
		for _, alias := range cfg.Aliases[id] {
			if n := normalize(alias); n != "" {
				phrases = append(phrases, n)
			}
		}
		quoted := make([]string, len(phrases))
		for i, ph := range phrases {
			quoted[i] = regexp.QuoteMeta(ph)
		}
		d.matchers = append(d.matchers, collectionMatcher{
			id:      id,
			pattern: regexp.MustCompile(`\b(` + strings.Join(quoted, `|`) + `)\b`),
		})
	}
	return d
}

// SetOnIntent registers the callback invoked when a transcript fires an
// intent. The callback runs synchronously on the detecting goroutine.
func (d *IntentDetector) SetOnIntent(fn func(CollectionIntent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onIntent = fn
}

// Detect runs one piece of text through the alias table. It returns the
// matched intent and whether it fired.
func (d *IntentDetector) Detect(text string, source Source) (CollectionIntent, bool) {
	cleaned := normalize(text)
	if cleaned == "" {
		return CollectionIntent{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, m := range d.matchers {
		if !m.pattern.MatchString(cleaned) {
			continue
		}

		now := d.now()
		if last, ok := d.lastFired[m.id]; ok && now.Sub(last) < d.debounce {
			d.log.Debug().Str("collection", m.id).Msg("Intent debounced")
			return CollectionIntent{}, false
		}
		d.lastFired[m.id] = now

		intent := CollectionIntent{CollectionID: m.id, Source: source, Transcript: text}
		d.log.Info().
			Str("collection", m.id).
			Str("source", string(source)).
			Msg("Collection intent detected")

		if d.events != nil {
			d.events.Publish(bus.Event{Type: bus.EventTypeVoiceIntent, Data: map[string]any{
				"collection": m.id,
				"source":     string(source),
				"transcript": text,
			}})
		}
		if d.onIntent != nil {
			d.onIntent(intent)
		}
		return intent, true
	}
	return CollectionIntent{}, false
}

// Consume pumps feed transcripts through the detector until the channel
// closes or ctx is cancelled. Interim results are ignored.
func (d *IntentDetector) Consume(ctx context.Context, transcripts <-chan Transcript) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-transcripts:
			if !ok {
				return
			}
			if !t.IsFinal {
				continue
			}
			if d.events != nil {
				d.events.Publish(bus.Event{Type: bus.EventTypeVoiceTranscript, Data: map[string]any{
					"text":       t.Text,
					"confidence": t.Confidence,
				}})
			}
			d.Detect(t.Text, SourceVoice)
		}
	}
}

// normalize lowercases the text, strips punctuation, and collapses runs of
// whitespace so alias matching sees a canonical form.
func normalize(text string) string {
	cleaned := strings.ToLower(text)
	cleaned = nonWordPattern.ReplaceAllString(cleaned, " ")
	cleaned = spacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
