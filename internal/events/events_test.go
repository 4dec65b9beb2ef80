package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var got []Event
	bus.Subscribe(BookingCreated, func(e Event) error {
		got = append(got, e)
		return nil
	})
	bus.Subscribe(BookingCancelled, func(Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	require.NoError(t, bus.PublishJSON(BookingCreated, map[string]string{"id": "BKG1"}))
	require.NoError(t, bus.PublishJSON(BookingCreated, map[string]string{"id": "BKG2"}))

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload struct{ ID string }
	require.NoError(t, got[1].Decode(&payload))
	assert.Equal(t, "BKG2", payload.ID)
}

func TestPublishJSONMarshalError(t *testing.T) {
	bus := NewEventBus()
	err := bus.PublishJSON(BookingCreated, make(chan int))
	assert.Error(t, err)
}

func TestHandlerErrorsReachHook(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")

	var hooked error
	bus.OnError(func(_ Event, err error) { hooked = err })
	bus.Subscribe(BookingDeleted, func(Event) error { return boom })

	calledSecond := false
	bus.Subscribe(BookingDeleted, func(Event) error {
		calledSecond = true
		return nil
	})

	bus.Publish(Event{Type: BookingDeleted})
	assert.ErrorIs(t, hooked, boom)
	assert.True(t, calledSecond)
}
