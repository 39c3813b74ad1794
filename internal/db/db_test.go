package db

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencode-ai/illo/internal/models"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	_, err = database.MigrateUp(context.Background())
	require.NoError(t, err)
	return database
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database, err := Open(Config{Path: filepath.Join(t.TempDir(), "nested", "journal.db")})
	require.NoError(t, err)
	defer database.Close()

	applied, err := database.MigrateUp(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	applied, err = database.MigrateUp(ctx)
	require.NoError(t, err)
	require.Zero(t, applied)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}

func TestEventRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(setupTestDB(t))

	payload, err := json.Marshal(models.ResizedPayload{Width: 100, Height: 50})
	require.NoError(t, err)

	event := &models.Event{
		Type:       models.EventTypeResized,
		EntityType: models.EntityTypeSession,
		EntityID:   "session-1",
		Payload:    payload,
		Metadata:   map[string]string{"source": "welcome.json"},
	}
	require.NoError(t, repo.Create(ctx, event))
	require.NotEmpty(t, event.ID)
	require.False(t, event.Timestamp.IsZero())

	got, err := repo.Get(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, models.EventTypeResized, got.Type)
	require.Equal(t, "session-1", got.EntityID)
	require.JSONEq(t, `{"width":100,"height":50}`, string(got.Payload))
	require.Equal(t, "welcome.json", got.Metadata["source"])
	require.True(t, event.Timestamp.Equal(got.Timestamp))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventRepositoryRejectsInvalid(t *testing.T) {
	repo := NewEventRepository(setupTestDB(t))
	err := repo.Create(context.Background(), &models.Event{Type: models.EventTypePlaying})
	require.ErrorIs(t, err, ErrInvalidEvent)
}

func TestEventRepositoryQuery(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(setupTestDB(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	types := []models.EventType{
		models.EventTypeInitialized,
		models.EventTypePlaying,
		models.EventTypePaused,
		models.EventTypePlaying,
		models.EventTypeStopped,
	}
	for i, eventType := range types {
		entity := "session-a"
		if i == 4 {
			entity = "session-b"
		}
		require.NoError(t, repo.Create(ctx, &models.Event{
			Timestamp:  base.Add(time.Duration(i) * time.Millisecond),
			Type:       eventType,
			EntityType: models.EntityTypeSession,
			EntityID:   entity,
		}))
	}

	page, err := repo.Query(ctx, EventQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.Equal(t, models.EventTypeInitialized, page.Events[0].Type)
	require.NotEmpty(t, page.NextCursor)

	page, err = repo.Query(ctx, EventQuery{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.Equal(t, models.EventTypePaused, page.Events[0].Type)

	page, err = repo.Query(ctx, EventQuery{Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	require.Empty(t, page.NextCursor)

	playing := models.EventTypePlaying
	page, err = repo.Query(ctx, EventQuery{Type: &playing})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)

	since := base.Add(3 * time.Millisecond)
	page, err = repo.Query(ctx, EventQuery{Since: &since})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)

	events, err := repo.ListByEntity(ctx, models.EntityTypeSession, "session-b", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventTypeStopped, events[0].Type)
}

func TestEventRepositoryPrune(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(setupTestDB(t))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Create(ctx, &models.Event{Timestamp: old, Type: models.EventTypePlaying, EntityType: models.EntityTypeSession, EntityID: "s"}))
	require.NoError(t, repo.Create(ctx, &models.Event{Type: models.EventTypePaused, EntityType: models.EntityTypeSession, EntityID: "s"}))

	removed, err := repo.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	events, err := repo.ListByEntity(ctx, models.EntityTypeSession, "s", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
}
