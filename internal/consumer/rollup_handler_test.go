package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/daywell/internal/events"
)

type rollupCall struct {
	key, user, date, activity string
	delta                     int
}

type fakeRollupStore struct {
	seen  map[string]bool
	calls []rollupCall
}

func (s *fakeRollupStore) ApplyRollup(_ context.Context, eventKey, userID, date, activity string, delta int) (bool, error) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[eventKey] {
		return false, nil
	}
	s.seen[eventKey] = true
	s.calls = append(s.calls, rollupCall{eventKey, userID, date, activity, delta})
	return true, nil
}

func eventMessage(t *testing.T, eventType, key string, payload any) Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return Message{Topic: events.TopicActivityLog, EventType: eventType, EventKey: key, Payload: body}
}

func TestRollupHandlerAppliesSignedDeltasOnce(t *testing.T) {
	ctx := context.Background()
	store := &fakeRollupStore{}
	handler := NewRollupHandler(store, zaptest.NewLogger(t))

	logged := eventMessage(t, events.TypeActivityLogged, "e1:activity.logged", events.ActivityLogged{
		EntryID: "e1", UserID: "u1", Activity: "work", Date: "2025-06-02", Hour: 9, DurationMin: 45,
	})
	deleted := eventMessage(t, events.TypeActivityDeleted, "e1:activity.deleted", events.ActivityDeleted{
		EntryID: "e1", UserID: "u1", Activity: "work", Date: "2025-06-02", Hour: 9, DurationMin: 45,
	})

	require.NoError(t, handler.Handle(ctx, logged))
	require.NoError(t, handler.Handle(ctx, logged))
	require.NoError(t, handler.Handle(ctx, deleted))

	require.Equal(t, []rollupCall{
		{"e1:activity.logged", "u1", "2025-06-02", "work", 45},
		{"e1:activity.deleted", "u1", "2025-06-02", "work", -45},
	}, store.calls)
}

func TestRollupHandlerIgnoresFreezeEvents(t *testing.T) {
	store := &fakeRollupStore{}
	handler := NewRollupHandler(store, nil)

	msg := eventMessage(t, events.TypeFreezeChanged, "u1:freeze.changed", events.FreezeChanged{UserID: "u1", Frozen: true})
	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Empty(t, store.calls)
}

func TestRollupHandlerRejectsIncompletePayload(t *testing.T) {
	handler := NewRollupHandler(&fakeRollupStore{}, nil)

	msg := eventMessage(t, events.TypeActivityLogged, "k", map[string]any{"entry_id": "e1"})
	require.Error(t, handler.Handle(context.Background(), msg))

	msg.Payload = []byte(`not json`)
	require.Error(t, handler.Handle(context.Background(), msg))
}
