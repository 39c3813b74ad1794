package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/opencode-ai/illo/internal/db"
	"github.com/opencode-ai/illo/internal/events"
	"github.com/opencode-ai/illo/internal/models"
)

// ErrSinkFull indicates a ChannelSink dropped an event.
var ErrSinkFull = errors.New("event channel full")

// Event is delivered to the host for every worker acknowledgment and for
// controller lifecycle changes.
type Event struct {
	Type      models.EventType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Session   string           `json:"session,omitempty"`
	Data      any              `json:"data,omitempty"`
}

// EventSink receives controller events.
type EventSink interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// NoopSink drops all events.
type NoopSink struct{}

// Emit ignores events.
func (NoopSink) Emit(ctx context.Context, event Event) error {
	return nil
}

// Close is a no-op.
func (NoopSink) Close() error {
	return nil
}

// ChannelSink delivers events on a buffered channel. Events are dropped
// rather than blocking the controller when the buffer is full.
type ChannelSink struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewChannelSink returns a sink buffering up to size events.
func NewChannelSink(size int) *ChannelSink {
	if size <= 0 {
		size = 1
	}
	return &ChannelSink{ch: make(chan Event, size)}
}

// Events returns the delivery channel. It is closed by Close.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// Emit delivers an event without blocking.
func (s *ChannelSink) Emit(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("event channel closed")
	}
	select {
	case s.ch <- event:
		return nil
	default:
		return ErrSinkFull
	}
}

// Close closes the delivery channel.
func (s *ChannelSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

// StreamSink writes events as JSON lines.
type StreamSink struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	encoder *json.Encoder
	closed  bool
}

// NewStreamSink writes events to w. If w is an io.Closer it is closed by
// Close.
func NewStreamSink(w io.Writer) *StreamSink {
	s := &StreamSink{w: w, encoder: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// NewSocketSink connects to the unix socket at the given path.
func NewSocketSink(path string) (*StreamSink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("event socket path is required")
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	return NewStreamSink(conn), nil
}

// Emit writes one event line.
func (s *StreamSink) Emit(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("event stream closed")
	}
	return s.encoder.Encode(event)
}

// Close closes the underlying writer when it is closable.
func (s *StreamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// JournalSink persists events in the SQLite journal.
type JournalSink struct {
	mu       sync.Mutex
	repo     events.Repository
	database *db.DB
	metadata map[string]string
}

// NewJournalSink creates a journal-backed sink. metadata is attached to
// every stored event.
func NewJournalSink(database *db.DB, metadata map[string]string) *JournalSink {
	var repo events.Repository
	if database != nil {
		repo = db.NewEventRepository(database)
	}
	return &JournalSink{repo: repo, database: database, metadata: metadata}
}

// Emit persists an event.
func (s *JournalSink) Emit(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		return errors.New("event repository is required")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return events.Record(ctx, s.repo, event.Session, event.Type, event.Timestamp, event.Data, s.metadata)
}

// Close closes the underlying database connection if present.
func (s *JournalSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.database != nil {
		return s.database.Close()
	}
	return nil
}

// MultiSink fans events out to several sinks.
type MultiSink []EventSink

// Emit delivers to every sink and joins their errors.
func (m MultiSink) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m MultiSink) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
