// Package models holds the persisted record types.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes journal events.
type EventType string

const (
	// Worker acknowledgments relayed to the host
	EventTypeInitialized EventType = "cros-lottie-initialized"
	EventTypePlaying     EventType = "cros-lottie-playing"
	EventTypePaused      EventType = "cros-lottie-paused"
	EventTypeStopped     EventType = "cros-lottie-stopped"
	EventTypeResized     EventType = "cros-lottie-resized"

	// Controller lifecycle
	EventTypeSessionStarted EventType = "session.started"
	EventTypeSessionEnded   EventType = "session.ended"
	EventTypeLoadFailed     EventType = "load.failed"
	EventTypeRecolored      EventType = "animation.recolored"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeSession EntityType = "session"
	EntityTypeSystem  EntityType = "system"
)

// Event represents an append-only journal entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// ResizedPayload is the payload for cros-lottie-resized events.
type ResizedPayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ControlPayload is the payload for playing, paused and stopped events.
type ControlPayload struct {
	RequestID uint64 `json:"request_id,omitempty"`
}

// LoadFailedPayload is the payload for load.failed events.
type LoadFailedPayload struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// RecoloredPayload is the payload for animation.recolored events.
type RecoloredPayload struct {
	Tokens    int `json:"tokens"`
	Shapes    int `json:"shapes"`
	Gradients int `json:"gradients"`
	Skipped   int `json:"skipped"`
}

// SessionPayload is the payload for session.started and session.ended
// events.
type SessionPayload struct {
	Source string `json:"source,omitempty"`
	Worker string `json:"worker,omitempty"`
}
