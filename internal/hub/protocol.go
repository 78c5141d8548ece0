package hub

import (
	"github.com/normanking/ariashowroom/internal/avatar"
	"github.com/normanking/ariashowroom/internal/camera"
)

// Wire messages. Every payload carries a "type" discriminator so the browser
// can route it.

// Intent is a user action sent by the browser.
type Intent struct {
	Type       string  `json:"type"`
	Collection string  `json:"collection,omitempty"`
	Color      string  `json:"color,omitempty"`
	Text       string  `json:"text,omitempty"`
	DX         float32 `json:"dx,omitempty"`
	DY         float32 `json:"dy,omitempty"`
	Delta      float32 `json:"delta,omitempty"`
	Ready      bool    `json:"ready"`
}

// Intent types accepted from clients.
const (
	IntentStart            = "start"
	IntentSelectCollection = "select_collection"
	IntentBack             = "back"
	IntentColor            = "color"
	IntentStopCinematic    = "stop_cinematic"
	IntentOrbitDrag        = "orbit_drag"
	IntentOrbitZoom        = "orbit_zoom"
	// IntentSay carries free text typed into the chat box. It runs through
	// the same phrase detector as voice transcripts.
	IntentSay = "say"
	// IntentAvatarReady reports whether the browser loaded the guide model.
	// While not ready, walks are skipped and presentations run camera-only.
	IntentAvatarReady = "avatar_ready"
)

// FrameState is the per-tick showroom snapshot the browser renders from.
type FrameState struct {
	Type       string       `json:"type"` // "frame"
	Tick       uint64       `json:"tick"`
	Camera     camera.Frame `json:"camera"`
	Avatar     avatar.Pose  `json:"avatar"`
	Collection string       `json:"collection,omitempty"`
	PanelShown bool         `json:"panelShown"`
	StopShown  bool         `json:"stopShown"`
	Subtitle   string       `json:"subtitle,omitempty"`
}

// UICommand tells the browser to change chrome outside the 3D canvas.
type UICommand struct {
	Type       string `json:"type"` // "ui"
	Action     string `json:"action"`
	Collection string `json:"collection,omitempty"`
	Color      string `json:"color,omitempty"`
	Text       string `json:"text,omitempty"`
	Visible    bool   `json:"visible"`
}

// UICommand actions.
const (
	UIShowPanel  = "show_panel"
	UIHidePanel  = "hide_panel"
	UISubtitle   = "subtitle"
	UIStopButton = "stop_button"
	UIIntroDone  = "intro_done"
	UIColor      = "color"
)

// EventNote forwards selected bus events to the browser, carrying narration
// cues (the browser owns audio playback) and diagnostics.
type EventNote struct {
	Type  string         `json:"type"` // "event"
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}
