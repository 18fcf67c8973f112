package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/errorsx"
	"github.com/echoverse/narrate/pkg/resilience"
	"github.com/echoverse/narrate/pkg/synth"
)

// DefaultAttemptTimeout bounds one synthesis call when unconfigured.
const DefaultAttemptTimeout = 30 * time.Second

// Attempter performs exactly one bounded synthesis call per candidate.
// Retry and fallback policy belong to the orchestrator, never here.
type Attempter struct {
	timeout time.Duration
	logger  *slog.Logger
}

func NewAttempter(timeout time.Duration, logger *slog.Logger) *Attempter {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Attempter{timeout: timeout, logger: logger}
}

type synthResult struct {
	data []byte
	err  error
}

// Attempt runs one synthesis call for the candidate. The returned audio is
// non-nil exactly when the outcome is OutcomeSuccess: empty bytes and
// container mismatches are failures, never passed through.
func (a *Attempter) Attempt(ctx context.Context, req Request, cand Candidate, s synth.Synthesizer) ([]byte, Outcome) {
	attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	in := synth.Input{
		Text:     req.Text,
		Language: cand.Language,
		VoiceID:  cand.Voice,
		Format:   req.Format,
	}

	// The call runs in its own goroutine so a vendor that ignores context
	// cancellation can be abandoned instead of blocking the fallback loop.
	done := make(chan synthResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- synthResult{err: fmt.Errorf("synthesizer panic: %v", r)}
			}
		}()
		data, err := s.Synthesize(attemptCtx, in)
		done <- synthResult{data: data, err: err}
	}()

	var res synthResult
	select {
	case res = <-done:
	case <-attemptCtx.Done():
		a.logger.Warn("synthesis attempt abandoned",
			slog.String("provider", cand.Provider),
			slog.String("voice", cand.Voice),
			slog.Duration("timeout", a.timeout))
		return nil, a.failed(cand, errorsx.ReasonSynthTimeout,
			fmt.Sprintf("attempt exceeded %s", a.timeout))
	}

	if res.err != nil {
		return nil, a.failed(cand, classifySynthError(attemptCtx, res.err), res.err.Error())
	}
	if len(res.data) == 0 {
		return nil, a.failed(cand, errorsx.ReasonSynthEmptyAudio,
			"provider returned empty audio")
	}
	if !audio.Matches(res.data, req.Format) {
		got := audio.Sniff(res.data)
		return nil, a.failed(cand, errorsx.ReasonSynthBadAudio,
			fmt.Sprintf("requested %s, provider returned %q", req.Format, got))
	}

	return res.data, Outcome{
		Provider: cand.Provider,
		Voice:    cand.Voice,
		Status:   OutcomeSuccess,
	}
}

func (a *Attempter) failed(cand Candidate, reason errorsx.ReasonCode, detail string) Outcome {
	return Outcome{
		Provider: cand.Provider,
		Voice:    cand.Voice,
		Status:   OutcomeFailed,
		Reason:   reason,
		Detail:   detail,
	}
}

func classifySynthError(ctx context.Context, err error) errorsx.ReasonCode {
	switch {
	case resilience.IsRateLimit(err):
		return errorsx.ReasonSynthRateLimit
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errorsx.ReasonSynthTimeout
	default:
		return errorsx.ReasonSynthCall
	}
}
