package workflow

import (
	"testing"

	"github.com/skillsmith/skillsmith/internal/sidecar"
)

func TestBus_ForwardsToDownstreamSinkAlways(t *testing.T) {
	var forwarded []sidecar.Event
	bus := NewBus(sidecar.SinkFunc(func(e sidecar.Event) {
		forwarded = append(forwarded, e)
	}))

	bus.Publish(sidecar.Event{Type: sidecar.EventMessage, AgentID: "a1", Line: "hello"})
	if len(forwarded) != 1 {
		t.Fatalf("expected the downstream sink to see every event, got %d", len(forwarded))
	}
}

func TestBus_WatchOnlyReceivesMatchingAgentID(t *testing.T) {
	bus := NewBus(nil)

	var gotForA1, gotForA2 int
	bus.Watch("a1", func(sidecar.Event) { gotForA1++ })
	bus.Watch("a2", func(sidecar.Event) { gotForA2++ })

	bus.Publish(sidecar.Event{Type: sidecar.EventExit, AgentID: "a1", Success: true})
	bus.Publish(sidecar.Event{Type: sidecar.EventExit, AgentID: "a2", Success: true})
	bus.Publish(sidecar.Event{Type: sidecar.EventExit, AgentID: "a1", Success: true})

	if gotForA1 != 2 {
		t.Errorf("a1 watcher fired %d times, want 2", gotForA1)
	}
	if gotForA2 != 1 {
		t.Errorf("a2 watcher fired %d times, want 1", gotForA2)
	}
}

func TestBus_UnwatchStopsDelivery(t *testing.T) {
	bus := NewBus(nil)

	var count int
	bus.Watch("a1", func(sidecar.Event) { count++ })
	bus.Publish(sidecar.Event{Type: sidecar.EventExit, AgentID: "a1"})
	bus.Unwatch("a1")
	bus.Publish(sidecar.Event{Type: sidecar.EventExit, AgentID: "a1"})

	if count != 1 {
		t.Errorf("expected exactly one delivery before Unwatch, got %d", count)
	}
}
