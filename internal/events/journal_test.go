package events

import (
	"context"
	"testing"
	"time"

	"github.com/opencode-ai/illo/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	last *models.Event
}

func (r *fakeRepo) Create(ctx context.Context, event *models.Event) error {
	r.last = event
	return nil
}

func TestRecord(t *testing.T) {
	repo := &fakeRepo{}

	err := Record(context.Background(), repo, "session-1", models.EventTypeResized, time.Time{}, models.ResizedPayload{Width: 4, Height: 2}, map[string]string{"k": "v"})
	require.NoError(t, err)
	require.NotNil(t, repo.last)
	require.Equal(t, models.EventTypeResized, repo.last.Type)
	require.Equal(t, models.EntityTypeSession, repo.last.EntityType)
	require.Equal(t, "session-1", repo.last.EntityID)
	require.JSONEq(t, `{"width":4,"height":2}`, string(repo.last.Payload))
	require.Equal(t, "v", repo.last.Metadata["k"])

	require.NoError(t, Record(context.Background(), repo, "session-1", models.EventTypeInitialized, time.Time{}, nil, nil))
	require.Nil(t, repo.last.Payload)
}

func TestRecordValidation(t *testing.T) {
	require.Error(t, Record(context.Background(), nil, "s", models.EventTypePlaying, time.Time{}, nil, nil))
	require.Error(t, Record(context.Background(), &fakeRepo{}, "", models.EventTypePlaying, time.Time{}, nil, nil))
}
