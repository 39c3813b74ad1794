// Package events records renderer events in the journal.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencode-ai/illo/internal/models"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// Record appends a session event with an optional JSON payload.
func Record(ctx context.Context, repo Repository, sessionID string, eventType models.EventType, at time.Time, payload any, metadata map[string]string) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		raw = data
	}

	event := &models.Event{
		Timestamp:  at,
		Type:       eventType,
		EntityType: models.EntityTypeSession,
		EntityID:   sessionID,
		Payload:    raw,
		Metadata:   metadata,
	}

	return repo.Create(ctx, event)
}
