package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSubscriber struct {
	id    string
	kinds []EventKind

	mu     sync.Mutex
	events []*Event
}

func (c *captureSubscriber) ID() string {
	return c.id
}

func (c *captureSubscriber) Kinds() []EventKind {
	return c.kinds
}

func (c *captureSubscriber) OnEvent(event *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureSubscriber) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestBusDeliversToKindSubscriber(t *testing.T) {
	bus := NewBus(10)
	bus.Start()
	defer bus.Close()

	sub := &captureSubscriber{id: "sub-1", kinds: []EventKind{KindAgentActivated}}
	bus.Subscribe(sub)

	bus.Publish(NewEvent(KindAgentActivated, "test"))
	bus.Publish(NewEvent(KindPatternDetected, "test"))

	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, KindAgentActivated, sub.events[0].Kind)
}

func TestBusWildcardReceivesEverything(t *testing.T) {
	bus := NewBus(10)
	bus.Start()
	defer bus.Close()

	sub := &captureSubscriber{id: "wild"}
	bus.Subscribe(sub)

	bus.Publish(NewEvent(KindAgentActivated, "test"))
	bus.Publish(NewEvent(KindMemoryStored, "test"))

	require.Eventually(t, func() bool { return sub.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(10)
	bus.Start()
	defer bus.Close()

	sub := &captureSubscriber{id: "gone", kinds: []EventKind{KindCacheHit}}
	bus.Subscribe(sub)
	bus.Unsubscribe("gone")

	bus.Publish(NewEvent(KindCacheHit, "test"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, sub.count())
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(1)
	// Not started: nothing drains the buffer.

	bus.Publish(NewEvent(KindCacheHit, "test"))
	bus.Publish(NewEvent(KindCacheHit, "test"))
	bus.Publish(NewEvent(KindCacheHit, "test"))

	assert.Equal(t, int64(2), bus.Dropped())
	assert.Equal(t, 1, bus.Pending())

	bus.Close()
}

func TestBusPublishAfterCloseIsNoop(t *testing.T) {
	bus := NewBus(10)
	bus.Start()
	bus.Close()

	bus.Publish(NewEvent(KindCacheHit, "test"))
	assert.Equal(t, int64(0), bus.Dropped())
}

func TestEventKindRoundTrip(t *testing.T) {
	for _, kind := range ValidEventKinds() {
		parsed, ok := ParseEventKind(kind.String())
		require.True(t, ok, kind.String())
		assert.Equal(t, kind, parsed)
	}
}
