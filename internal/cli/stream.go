package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/opencode-ai/illo/internal/db"
	"github.com/opencode-ai/illo/internal/models"
)

// StreamConfig configures event streaming.
type StreamConfig struct {
	// PollInterval is how often the journal is polled for new events.
	PollInterval time.Duration

	// BatchSize is the maximum number of events fetched per poll.
	BatchSize int

	// IncludeExisting replays events already in the journal before following.
	IncludeExisting bool

	// Since limits the stream to events at or after this time.
	Since *time.Time

	Types    []models.EventType
	Sessions []string
}

// DefaultStreamConfig returns the default streaming configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		PollInterval: 500 * time.Millisecond,
		BatchSize:    100,
	}
}

type eventQuerier interface {
	Query(ctx context.Context, q db.EventQuery) (*db.EventPage, error)
}

// EventStreamer follows the event journal and writes new events as JSON lines.
type EventStreamer struct {
	repo    eventQuerier
	out     io.Writer
	encoder *json.Encoder
	config  StreamConfig
}

// NewEventStreamer creates a streamer over repo.
func NewEventStreamer(repo eventQuerier, out io.Writer, config StreamConfig) *EventStreamer {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultStreamConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultStreamConfig().BatchSize
	}
	return &EventStreamer{
		repo:    repo,
		out:     out,
		encoder: json.NewEncoder(out),
		config:  config,
	}
}

// Stream writes events until ctx is canceled. Cancellation is not an error.
func (s *EventStreamer) Stream(ctx context.Context) error {
	since := s.config.Since
	if !s.config.IncludeExisting && since == nil {
		now := time.Now().UTC()
		since = &now
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	cursor := ""
	for {
		for {
			events, next, err := s.poll(ctx, cursor, since)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			for _, event := range events {
				if err := s.writeEvent(event); err != nil {
					return err
				}
			}
			if next == cursor {
				break
			}
			cursor = next
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// poll fetches one batch after cursor. The returned cursor is the last event
// read, including events dropped by the session and type filters.
func (s *EventStreamer) poll(ctx context.Context, cursor string, since *time.Time) ([]*models.Event, string, error) {
	query := db.EventQuery{
		Since:  since,
		Cursor: cursor,
		Limit:  s.config.BatchSize,
	}
	if len(s.config.Types) == 1 {
		eventType := s.config.Types[0]
		query.Type = &eventType
	}
	if len(s.config.Sessions) == 1 {
		entityType := models.EntityTypeSession
		query.EntityType = &entityType
		query.EntityID = &s.config.Sessions[0]
	}

	page, err := s.repo.Query(ctx, query)
	if err != nil {
		return nil, cursor, err
	}
	if len(page.Events) == 0 {
		return nil, cursor, nil
	}

	matched := make([]*models.Event, 0, len(page.Events))
	for _, event := range page.Events {
		if s.matches(event) {
			matched = append(matched, event)
		}
	}
	return matched, page.Events[len(page.Events)-1].ID, nil
}

func (s *EventStreamer) matches(event *models.Event) bool {
	if len(s.config.Types) > 0 && !containsType(s.config.Types, event.Type) {
		return false
	}
	if len(s.config.Sessions) > 0 && !containsString(s.config.Sessions, event.EntityID) {
		return false
	}
	return true
}

func (s *EventStreamer) writeEvent(event *models.Event) error {
	return s.encoder.Encode(event)
}

func containsType(list []models.EventType, value models.EventType) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// ParseSince parses a relative duration ("1h", "7d") or an absolute time
// (RFC3339, "2006-01-02T15:04:05" or "2006-01-02"). An empty string returns nil.
func ParseSince(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if d, err := parseDurationWithDays(value); err == nil {
		t := time.Now().UTC().Add(-d)
		return &t, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.Local); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}

	return nil, fmt.Errorf("invalid time %q: use a duration like 1h or 7d, or a timestamp like 2024-01-15T10:30:00Z", value)
}

// parseDurationWithDays extends time.ParseDuration with a "d" suffix.
func parseDurationWithDays(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		if days < 0 {
			return 0, fmt.Errorf("negative duration %q", value)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}
