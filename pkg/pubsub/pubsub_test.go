package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeUnknownEvent(t *testing.T) {
	bus := New("KNOWN")

	sub, err := bus.Subscribe("UNKNOWN", func(any) {})
	require.ErrorIs(t, err, ErrUnknownEvent)
	assert.Nil(t, sub)
}

func TestBroadcastDeliversInSubscriptionOrder(t *testing.T) {
	bus := New("EVT")

	var order []int
	for n := 0; n < 3; n++ {
		n := n
		_, err := bus.Subscribe("EVT", func(any) {
			order = append(order, n)
		})
		require.NoError(t, err)
	}

	bus.Broadcast("EVT", nil)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestBroadcastIsSynchronous(t *testing.T) {
	bus := New("EVT")

	var got any
	_, err := bus.Subscribe("EVT", func(payload any) {
		got = payload
	})
	require.NoError(t, err)

	bus.Broadcast("EVT", "payload")
	// Delivery completes before Broadcast returns.
	assert.Equal(t, "payload", got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New("EVT")

	calls := 0
	sub, err := bus.Subscribe("EVT", func(any) { calls++ })
	require.NoError(t, err)

	bus.Broadcast("EVT", nil)
	require.Equal(t, 1, calls)

	sub.Unsubscribe()
	bus.Broadcast("EVT", nil)
	assert.Equal(t, 1, calls)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := New("EVT")

	sub, err := bus.Subscribe("EVT", func(any) {})
	require.NoError(t, err)

	sub.Unsubscribe()
	assert.NotPanics(t, func() {
		sub.Unsubscribe()
		sub.Unsubscribe()
	})
}

func TestUnsubscribeRemovesOnlyThatSubscriber(t *testing.T) {
	bus := New("EVT")

	first, second := 0, 0
	subFirst, err := bus.Subscribe("EVT", func(any) { first++ })
	require.NoError(t, err)
	_, err = bus.Subscribe("EVT", func(any) { second++ })
	require.NoError(t, err)

	subFirst.Unsubscribe()
	bus.Broadcast("EVT", nil)

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	bus := New("EVT")
	assert.NotPanics(t, func() {
		bus.Broadcast("EVT", struct{}{})
	})
}
