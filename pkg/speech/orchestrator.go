package speech

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/echoverse/narrate/pkg/errorsx"
	"github.com/echoverse/narrate/pkg/metrics"
)

// DefaultProbeTimeout bounds one capability probe. Probes are local checks,
// so the bound is a backstop, not a latency budget.
const DefaultProbeTimeout = 2 * time.Second

// OutputWriter persists accepted audio and returns a stable reference.
type OutputWriter interface {
	Store(ctx context.Context, data []byte, suggestedName string) (string, error)
}

type phase string

const (
	phaseProbing    phase = "probing"
	phaseAttempting phase = "attempting"
	phaseSucceeded  phase = "succeeded"
	phaseExhausted  phase = "exhausted"
)

// Orchestrator walks the ranked candidate list in order: probe, attempt,
// accept the first success, record every outcome. Availability is a property
// of the runtime environment and synthesis success a property of the call,
// so providers are probed fresh on every run; nothing is cached across
// requests.
type Orchestrator struct {
	catalog      *Catalog
	attempter    *Attempter
	writer       OutputWriter
	obs          metrics.Observer
	logger       *slog.Logger
	maxTextRunes int
	probeTimeout time.Duration
}

type OrchestratorOptions struct {
	Catalog   *Catalog
	Attempter *Attempter
	// Writer is optional; without one the audio is returned unpersisted.
	Writer       OutputWriter
	Observer     metrics.Observer
	Logger       *slog.Logger
	MaxTextRunes int
	ProbeTimeout time.Duration
}

func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Attempter == nil {
		opts.Attempter = NewAttempter(0, opts.Logger)
	}
	if opts.Observer == nil {
		opts.Observer = metrics.NoopObserver{}
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	return &Orchestrator{
		catalog:      opts.Catalog,
		attempter:    opts.Attempter,
		writer:       opts.Writer,
		obs:          opts.Observer,
		logger:       opts.Logger,
		maxTextRunes: opts.MaxTextRunes,
		probeTimeout: opts.ProbeTimeout,
	}
}

// Generate runs one orchestration. It returns a Result whose attempt log
// ends with the accepted success, or an error: InvalidRequest before any
// candidate is considered, UnsupportedLanguage when the ranked list is
// empty, or an ExhaustedError embedding the full attempt log.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(o.maxTextRunes); err != nil {
		return nil, err
	}

	candidates := o.catalog.RankCandidates(req.Language, req.VoicePreference)
	if len(candidates) == 0 {
		return nil, errorsx.Wrap(
			fmt.Errorf("language %q is not supported by any provider", req.Language),
			errorsx.ReasonUnsupportedLanguage)
	}

	runID := uuid.NewString()
	log := o.logger.With(slog.String("run_id", runID), slog.String("language", req.Language))
	log.Info("generation started",
		slog.Int("candidates", len(candidates)),
		slog.String("format", req.Format.String()),
		slog.String("voice_preference", req.VoicePreference))

	attempts := make([]Outcome, 0, len(candidates))
	for _, cand := range candidates {
		// Cancellation is coarse: honored between candidates, never
		// interrupting the bookkeeping of a finished attempt.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := o.probe(ctx, cand); err != nil {
			outcome := Outcome{
				Provider: cand.Provider,
				Voice:    cand.Voice,
				Status:   OutcomeUnavailable,
				Reason:   errorsx.ReasonProbeUnavailable,
				Detail:   err.Error(),
			}
			attempts = append(attempts, outcome)
			o.record(metrics.EventProbeSkip, runID, req, cand, outcome)
			log.Info("provider skipped",
				slog.String("phase", string(phaseProbing)),
				slog.String("provider", cand.Provider),
				slog.String("reason", err.Error()))
			continue
		}

		data, outcome := o.attempter.Attempt(ctx, req, cand, o.catalog.Synthesizer(cand.Provider))
		attempts = append(attempts, outcome)
		if outcome.Status != OutcomeSuccess {
			o.record(metrics.EventAttemptFailed, runID, req, cand, outcome)
			log.Warn("attempt failed",
				slog.String("phase", string(phaseAttempting)),
				slog.String("provider", cand.Provider),
				slog.String("voice", cand.Voice),
				slog.String("reason", string(outcome.Reason)),
				slog.String("detail", outcome.Detail))
			continue
		}

		o.record(metrics.EventSynthesisSuccess, runID, req, cand, outcome)
		log.Info("synthesis succeeded",
			slog.String("phase", string(phaseSucceeded)),
			slog.String("provider", cand.Provider),
			slog.String("voice", cand.Voice),
			slog.Int("bytes", len(data)),
			slog.Int("attempts", len(attempts)))

		result := &Result{
			RunID:    runID,
			Audio:    data,
			Provider: cand.Provider,
			Voice:    cand.Voice,
			Attempts: attempts,
		}
		if o.writer != nil {
			name := fmt.Sprintf("narration_%s_%s.%s", req.Language, shortID(runID), req.Format.Extension())
			ref, err := o.writer.Store(ctx, data, name)
			if err != nil {
				return nil, errorsx.Wrap(
					fmt.Errorf("persisting synthesized audio: %w", err),
					errorsx.ReasonStoreWrite)
			}
			result.Reference = ref
		}
		return result, nil
	}

	o.obs.RecordEvent(metrics.Event{
		Name: metrics.EventGenerationExhausted,
		Time: time.Now(),
		Tags: map[string]string{"run_id": runID, "language": req.Language},
		Fields: map[string]any{
			"candidates": len(candidates),
			"attempts":   len(attempts),
		},
	})
	log.Error("generation exhausted",
		slog.String("phase", string(phaseExhausted)),
		slog.Int("attempts", len(attempts)))
	return nil, errorsx.Wrap(&ExhaustedError{Attempts: attempts}, errorsx.ReasonExhausted)
}

// probe re-checks a provider's availability for this run. It never panics;
// anything thrown inside a vendor probe becomes an unavailable reason.
func (o *Orchestrator) probe(ctx context.Context, cand Candidate) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()
	s := o.catalog.Synthesizer(cand.Provider)
	if s == nil {
		return fmt.Errorf("provider not registered: %s", cand.Provider)
	}
	probeCtx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()
	return s.Probe(probeCtx)
}

func (o *Orchestrator) record(event, runID string, req Request, cand Candidate, outcome Outcome) {
	o.obs.RecordEvent(metrics.Event{
		Name: event,
		Time: time.Now(),
		Tags: map[string]string{
			"run_id":   runID,
			"provider": cand.Provider,
			"voice":    cand.Voice,
			"language": req.Language,
		},
		Fields: map[string]any{
			"reason": string(outcome.Reason),
			"detail": outcome.Detail,
		},
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
