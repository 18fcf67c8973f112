package metrics

import "time"

// Event names emitted by the fallback orchestrator.
const (
	EventProbeSkip           = "probe_skip"
	EventAttemptFailed       = "attempt_failed"
	EventSynthesisSuccess    = "synthesis_success"
	EventGenerationExhausted = "generation_exhausted"
)

type Event struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev Event)
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(Event) {}
