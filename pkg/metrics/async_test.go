package metrics

import (
	"testing"
	"time"
)

func TestAsyncObserverDelivers(t *testing.T) {
	mem := NewMemoryObserver()
	async := NewAsyncObserver(mem, 8)
	async.RecordEvent(Event{Name: EventProbeSkip, Time: time.Now()})
	async.RecordEvent(Event{Name: EventSynthesisSuccess, Time: time.Now()})
	async.Close()

	events := mem.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Name != EventProbeSkip || events[1].Name != EventSynthesisSuccess {
		t.Fatalf("unexpected order: %s, %s", events[0].Name, events[1].Name)
	}
}

func TestAsyncObserverDropsAfterClose(t *testing.T) {
	async := NewAsyncObserver(NewMemoryObserver(), 1)
	async.Close()
	// Must not panic or block.
	async.RecordEvent(Event{Name: EventAttemptFailed})
}
