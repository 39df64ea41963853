package events

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeReceivesEmissions(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	bus.Emit(RunCreated, "payload")

	e := <-sub.Events()
	assert.Equal(t, RunCreated, e.Type)
	assert.Equal(t, "payload", e.Payload)
	assert.False(t, e.Time.IsZero())
}

func TestBus_CatchUpPrelude(t *testing.T) {
	bus := NewBus()
	for i := 0; i < 60; i++ {
		bus.Emit(Log, i)
	}

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	// Only the last 50 events arrive as the prelude, oldest first.
	first := <-sub.Events()
	assert.Equal(t, 10, first.Payload)

	got := 1
	for len(sub.Events()) > 0 {
		<-sub.Events()
		got++
	}
	assert.Equal(t, 50, got)
}

func TestBus_PerSubscriberFIFO(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	for i := 0; i < 100; i++ {
		bus.Emit(Log, i)
	}
	for i := 0; i < 100; i++ {
		e := <-sub.Events()
		require.Equal(t, i, e.Payload)
	}
}

func TestBus_RingEviction(t *testing.T) {
	bus := NewBus()
	for i := 0; i < 1500; i++ {
		bus.Emit(Log, i)
	}

	recent := bus.Recent(0)
	require.Len(t, recent, 1000)
	assert.Equal(t, 500, recent[0].Payload)
	assert.Equal(t, 1499, recent[len(recent)-1].Payload)
}

func TestBus_SlowSubscriberDropped(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	// Overflow the subscriber buffer without draining.
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Emit(Log, i)
	}

	assert.Equal(t, 0, bus.SubscriberCount())

	// Channel was closed after the buffered events.
	n := 0
	for range sub.Events() {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
}

func TestBus_UnsubscribeIdempotent(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub) // second call is a no-op

	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestBus_ConcurrentEmit(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				bus.Emit(Log, fmt.Sprintf("g%d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, bus.Recent(0), 400)
}

func TestBus_CloseClosesSubscribers(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	bus.Close()
	_, open := <-sub.Events()
	assert.False(t, open)

	// Emissions after close are discarded.
	bus.Emit(Log, "late")
	assert.Empty(t, bus.Recent(0))
}
