package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/records/internal/models"
)

func TestMessage_KeyedByUser(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	msg, err := message(Event{Type: UserDeleted, UserID: "u-1", Role: models.RoleStudent, At: at})
	require.NoError(t, err)

	assert.Equal(t, []byte("u-1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "user.deleted", string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "user.deleted", decoded["type"])
	assert.Equal(t, "student", decoded["role"])
}

func TestRecorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := &Recorder{}
	require.NoError(t, r.Publish(ctx, Event{Type: UserCreated}))
	require.NoError(t, r.Publish(ctx, Event{Type: ProfileArchived}))
	assert.Equal(t, []Type{UserCreated, ProfileArchived}, r.Types())

	r.Err = errors.New("down")
	assert.Error(t, r.Publish(ctx, Event{Type: UserDeleted}))
	assert.Len(t, r.Events(), 2)
}
