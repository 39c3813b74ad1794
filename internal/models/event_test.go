package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventValidate(t *testing.T) {
	event := &Event{}
	err := event.Validate()
	require.ErrorIs(t, err, ErrValidation)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs.Errors, 3)
	require.Contains(t, err.Error(), "entity_id")

	event = &Event{Type: EventTypePlaying, EntityType: EntityTypeSession, EntityID: "s-1"}
	require.NoError(t, event.Validate())
}
