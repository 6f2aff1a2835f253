package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []Event
	d.Subscribe(EventLoginSucceeded, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	ev := NewEvent(EventLoginSucceeded, "alice", time.Now(), nil)
	require.NoError(t, d.Publish(context.Background(), ev))
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventLoggedOut, "alice", time.Now(), nil)))

	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)
	assert.Equal(t, "alice", got[0].Subject)
}

func TestDispatcherKeepsGoingAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventLoginFailed, "bob", time.Now(), LoginFailedPayload{Reason: "bad_password"}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestNewEventAssignsUniqueIDs(t *testing.T) {
	at := time.Date(2025, 9, 1, 9, 30, 0, 0, time.FixedZone("KST", 9*3600))
	a := NewEvent(EventLoggedOut, "alice", at, nil)
	b := NewEvent(EventLoggedOut, "alice", at, nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.Timestamp.Location())
	assert.True(t, a.Timestamp.Equal(at))
}
