package events_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renatrack/renatrack-client/events"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := events.NewBus()

	first, second := 0, 0
	bus.SubscribeSessionExpired(func() { first++ })
	bus.SubscribeSessionExpired(func() { second++ })

	bus.PublishSessionExpired()
	bus.PublishSessionExpired()

	require.Equal(t, 2, first)
	require.Equal(t, 2, second)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := events.NewBus()

	calls := 0
	unsubscribe := bus.SubscribeSessionExpired(func() { calls++ })

	bus.PublishSessionExpired()
	unsubscribe()
	bus.PublishSessionExpired()

	require.Equal(t, 1, calls)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := events.NewBus()
	bus.PublishSessionExpired() // must not panic
}

func TestBus_SubscriberMayReenter(t *testing.T) {
	bus := events.NewBus()

	var unsubscribe func()
	calls := 0
	unsubscribe = bus.SubscribeSessionExpired(func() {
		calls++
		unsubscribe() // re-entering the bus from a callback must not deadlock
	})

	bus.PublishSessionExpired()
	bus.PublishSessionExpired()

	require.Equal(t, 1, calls)
}
