package speech

import (
	"context"
	"testing"
	"time"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/errorsx"
	"github.com/echoverse/narrate/pkg/resilience"
)

func attemptReq(format audio.Format) Request {
	return NewRequest("Hello world", "en", "", format)
}

var testCandidate = Candidate{Provider: "alpha", Voice: "alpha-default", Language: "en"}

func TestAttemptSuccess(t *testing.T) {
	a := NewAttempter(time.Second, nil)
	s := &fakeSynth{name: "alpha", output: testWAV()}

	data, outcome := a.Attempt(context.Background(), attemptReq(audio.FormatWAV), testCandidate, s)
	if outcome.Status != OutcomeSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if len(data) == 0 {
		t.Fatalf("success must carry audio bytes")
	}
}

func TestAttemptEmptyAudioIsFailed(t *testing.T) {
	a := NewAttempter(time.Second, nil)
	s := &fakeSynth{name: "alpha", output: nil}

	data, outcome := a.Attempt(context.Background(), attemptReq(audio.FormatWAV), testCandidate, s)
	if data != nil || outcome.Status != OutcomeFailed {
		t.Fatalf("empty audio must be a failure, got %+v", outcome)
	}
	if outcome.Reason != errorsx.ReasonSynthEmptyAudio {
		t.Fatalf("expected synth_empty_audio, got %s", outcome.Reason)
	}
}

func TestAttemptFormatMismatchIsFailed(t *testing.T) {
	a := NewAttempter(time.Second, nil)
	s := &fakeSynth{name: "alpha", output: testWAV()}

	_, outcome := a.Attempt(context.Background(), attemptReq(audio.FormatMP3), testCandidate, s)
	if outcome.Status != OutcomeFailed || outcome.Reason != errorsx.ReasonSynthBadAudio {
		t.Fatalf("wav bytes for an mp3 request must fail, got %+v", outcome)
	}
}

func TestAttemptTimeout(t *testing.T) {
	a := NewAttempter(30*time.Millisecond, nil)
	s := &fakeSynth{name: "alpha", output: testWAV(), block: make(chan struct{})}

	start := time.Now()
	_, outcome := a.Attempt(context.Background(), attemptReq(audio.FormatWAV), testCandidate, s)
	if outcome.Status != OutcomeFailed || outcome.Reason != errorsx.ReasonSynthTimeout {
		t.Fatalf("expected synth_timeout, got %+v", outcome)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("attempt was not bounded: %s", elapsed)
	}
}

func TestAttemptClassifiesRateLimit(t *testing.T) {
	a := NewAttempter(time.Second, nil)
	s := &fakeSynth{name: "alpha", synthErr: resilience.RateLimitError{Provider: "alpha", Message: "429"}}

	_, outcome := a.Attempt(context.Background(), attemptReq(audio.FormatWAV), testCandidate, s)
	if outcome.Reason != errorsx.ReasonSynthRateLimit {
		t.Fatalf("expected synth_rate_limit, got %s", outcome.Reason)
	}
}

func TestAttemptNetworkErrorIsFailed(t *testing.T) {
	a := NewAttempter(time.Second, nil)
	s := &fakeSynth{name: "alpha", synthErr: errNetwork}

	_, outcome := a.Attempt(context.Background(), attemptReq(audio.FormatWAV), testCandidate, s)
	if outcome.Status != OutcomeFailed || outcome.Reason != errorsx.ReasonSynthCall {
		t.Fatalf("expected synth_call failure, got %+v", outcome)
	}
	if outcome.Detail == "" {
		t.Fatalf("failure detail must carry the provider error")
	}
}
