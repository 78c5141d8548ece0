package voice

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/ariashowroom/internal/config"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestDetector() *IntentDetector {
	return NewIntentDetector(config.DefaultConfig().Voice, nil, zerolog.Nop())
}

func TestDetectMatchesAlias(t *testing.T) {
	d := newTestDetector()

	intent, ok := d.Detect("Could you show me the sofa, please?", SourceVoice)
	require.True(t, ok)
	assert.Equal(t, "meridian-sofa", intent.CollectionID)
	assert.Equal(t, SourceVoice, intent.Source)
	assert.Equal(t, "Could you show me the sofa, please?", intent.Transcript)
}

func TestDetectMatchesHyphenatedID(t *testing.T) {
	d := newTestDetector()

	intent, ok := d.Detect("let's revisit the meridian sofa", SourceUI)
	require.True(t, ok)
	assert.Equal(t, "meridian-sofa", intent.CollectionID)
	assert.Equal(t, SourceUI, intent.Source)
}

func TestDetectMatchesMultiWordAlias(t *testing.T) {
	d := newTestDetector()

	intent, ok := d.Detect("I'd like to see the DINING SET now", SourceVoice)
	require.True(t, ok)
	assert.Equal(t, "tide-dining", intent.CollectionID)
}

func TestDetectRespectsWordBoundaries(t *testing.T) {
	d := newTestDetector()

	_, ok := d.Detect("the sofanatic convention was wild", SourceVoice)
	assert.False(t, ok)
}

func TestDetectNoMatch(t *testing.T) {
	d := newTestDetector()

	_, ok := d.Detect("tell me about shipping and returns", SourceVoice)
	assert.False(t, ok)

	_, ok = d.Detect("", SourceVoice)
	assert.False(t, ok)

	_, ok = d.Detect("?!...", SourceVoice)
	assert.False(t, ok)
}

func TestDebounceSuppressesRepeat(t *testing.T) {
	d := newTestDetector()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	d.now = clock.Now

	_, ok := d.Detect("show the couch", SourceVoice)
	require.True(t, ok)

	clock.Advance(time.Second)
	_, ok = d.Detect("that couch again", SourceVoice)
	assert.False(t, ok, "repeat inside the debounce window should be suppressed")

	clock.Advance(2 * time.Second)
	_, ok = d.Detect("back to the couch", SourceVoice)
	assert.True(t, ok, "repeat after the window should fire")
}

func TestDebounceIsPerCollection(t *testing.T) {
	d := newTestDetector()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	d.now = clock.Now

	_, ok := d.Detect("show the couch", SourceVoice)
	require.True(t, ok)

	intent, ok := d.Detect("and now the halo lounge", SourceVoice)
	require.True(t, ok, "a different collection is not debounced")
	assert.Equal(t, "halo-lounge", intent.CollectionID)
}

func TestOnIntentCallback(t *testing.T) {
	d := newTestDetector()

	var got []CollectionIntent
	d.SetOnIntent(func(intent CollectionIntent) {
		got = append(got, intent)
	})

	_, ok := d.Detect("walk over to the armchair", SourceVoice)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "halo-lounge", got[0].CollectionID)
}

func TestConsumeSkipsInterimResults(t *testing.T) {
	d := newTestDetector()

	var got []CollectionIntent
	d.SetOnIntent(func(intent CollectionIntent) {
		got = append(got, intent)
	})

	transcripts := make(chan Transcript, 3)
	transcripts <- Transcript{Text: "show me the sofa", IsFinal: false}
	transcripts <- Transcript{Text: "show me the lounge", IsFinal: true}
	transcripts <- Transcript{Text: "uh", IsFinal: true}
	close(transcripts)

	d.Consume(context.Background(), transcripts)

	require.Len(t, got, 1)
	assert.Equal(t, "halo-lounge", got[0].CollectionID)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "show me the sofa", normalize("  Show me, the SOFA!  "))
	assert.Equal(t, "whats next", normalize("what's next?"))
	assert.Equal(t, "", normalize("?!..."))
}
