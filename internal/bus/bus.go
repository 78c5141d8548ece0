// Package bus provides an internal event bus for component communication
package bus

import (
	"sync"
)

// EventType identifies different event types
type EventType string

// Event types for the showroom
const (
	// Request lifecycle events
	EventTypeRequestAccepted   EventType = "request.accepted"
	EventTypeRequestSuperseded EventType = "request.superseded"
	EventTypeRequestCompleted  EventType = "request.completed"

	// Workflow events
	EventTypeWorkflowStep EventType = "workflow.step"

	// Cinematic events
	EventTypeCinematicStarted EventType = "cinematic.started"
	EventTypeCinematicStopped EventType = "cinematic.stopped"

	// Narration events
	EventTypeNarrationPrepare EventType = "narration.prepare"
	EventTypeNarrationStarted EventType = "narration.started"
	EventTypeNarrationEnded   EventType = "narration.ended"

	// Intro events
	EventTypeIntroStarted EventType = "intro.started"
	EventTypeIntroSkipped EventType = "intro.skipped"
	EventTypeIntroDone    EventType = "intro.done"

	// Avatar events
	EventTypeAvatarStateChanged EventType = "avatar.state_changed"
	EventTypeAvatarWalkTimeout  EventType = "avatar.walk_timeout"

	// Camera events
	EventTypeCameraModeChanged EventType = "camera.mode_changed"

	// UI events
	EventTypePanelVisibility EventType = "ui.panel_visibility"
	EventTypeSubtitle        EventType = "ui.subtitle"
	EventTypeColorChanged    EventType = "ui.color_changed"

	// Voice events
	EventTypeVoiceTranscript EventType = "voice.transcript"
	EventTypeVoiceIntent     EventType = "voice.intent"

	// Catalog events
	EventTypeCatalogReloaded EventType = "catalog.reloaded"
)

// Event represents a bus event
type Event struct {
	Type EventType
	Data map[string]any
}

// Handler is a function that handles events
type Handler func(Event)

// EventBus is a simple pub/sub event bus
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for an event type
func (b *EventBus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeMultiple adds a handler for multiple event types
func (b *EventBus) SubscribeMultiple(eventTypes []EventType, handler Handler) {
	for _, et := range eventTypes {
		b.Subscribe(et, handler)
	}
}

// Publish sends an event to all subscribed handlers
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		// Call handlers in goroutines to avoid blocking
		go handler(event)
	}
}

// PublishSync sends an event and waits for all handlers to complete
func (b *EventBus) PublishSync(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			h(event)
		}(handler)
	}
	wg.Wait()
}

// Clear removes all handlers
func (b *EventBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[EventType][]Handler)
}
