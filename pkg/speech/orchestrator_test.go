package speech

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/errorsx"
	"github.com/echoverse/narrate/pkg/metrics"
)

type captureWriter struct {
	names []string
	data  [][]byte
}

func (w *captureWriter) Store(_ context.Context, data []byte, suggestedName string) (string, error) {
	w.names = append(w.names, suggestedName)
	w.data = append(w.data, data)
	return "stored/" + suggestedName, nil
}

func newTestOrchestrator(c *Catalog, w OutputWriter, obs metrics.Observer) *Orchestrator {
	return NewOrchestrator(OrchestratorOptions{
		Catalog:   c,
		Writer:    w,
		Observer:  obs,
		Attempter: NewAttempter(0, nil),
	})
}

func TestGenerateFallsBackToWorkingProvider(t *testing.T) {
	// A unavailable, B available but failing, C available and working.
	a := &fakeSynth{name: "a", probeErr: errors.New("engine not installed")}
	b := &fakeSynth{name: "b", synthErr: errNetwork}
	c := &fakeSynth{name: "c", output: testMP3()}

	cat := NewCatalog()
	mustRegister(cat,
		englishProvider("a", 0, a),
		englishProvider("b", 1, b),
		englishProvider("c", 2, c),
	)
	mem := metrics.NewMemoryObserver()
	orch := newTestOrchestrator(cat, nil, mem)

	res, err := orch.Generate(context.Background(), NewRequest("Hello world", "en", "", audio.FormatMP3))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Provider != "c" {
		t.Fatalf("expected provider c, got %s", res.Provider)
	}
	if len(res.Attempts) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(res.Attempts))
	}
	if res.Attempts[0].Status != OutcomeUnavailable ||
		res.Attempts[1].Status != OutcomeFailed ||
		res.Attempts[2].Status != OutcomeSuccess {
		t.Fatalf("unexpected log: %+v", res.Attempts)
	}
	if got := res.Attempts[len(res.Attempts)-1].Status; got != OutcomeSuccess {
		t.Fatalf("final entry must be the success, got %s", got)
	}

	var names []string
	for _, ev := range mem.Events() {
		names = append(names, ev.Name)
	}
	want := []string{metrics.EventProbeSkip, metrics.EventAttemptFailed, metrics.EventSynthesisSuccess}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("unexpected metric events: %v", names)
	}
}

func TestGenerateAllUnavailableIsExhausted(t *testing.T) {
	cat := NewCatalog()
	var fakes []*fakeSynth
	for i := 0; i < 3; i++ {
		f := &fakeSynth{name: fmt.Sprintf("p%d", i), probeErr: errors.New("not reachable")}
		fakes = append(fakes, f)
		mustRegister(cat, englishProvider(fmt.Sprintf("p%d", i), i, f))
	}
	orch := newTestOrchestrator(cat, nil, nil)

	_, err := orch.Generate(context.Background(), NewRequest("Hello world", "en", "", audio.FormatMP3))
	if !errorsx.HasReason(err, errorsx.ReasonExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExhaustedError, got %T", err)
	}
	if len(ex.Attempts) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(ex.Attempts))
	}
	for _, a := range ex.Attempts {
		if a.Status != OutcomeUnavailable {
			t.Fatalf("expected only unavailable entries, got %+v", a)
		}
	}
	// No synthesis call may have been invoked.
	for _, f := range fakes {
		if _, synths := f.calls(); synths != 0 {
			t.Fatalf("provider %s was attempted despite failing probe", f.name)
		}
	}
}

func TestGenerateUnsupportedLanguageFailsBeforeProbing(t *testing.T) {
	f := &fakeSynth{name: "alpha", output: testMP3()}
	cat := NewCatalog()
	mustRegister(cat, englishProvider("alpha", 0, f))
	orch := newTestOrchestrator(cat, nil, nil)

	_, err := orch.Generate(context.Background(), NewRequest("Hello world", "xx-nonexistent", "", audio.FormatMP3))
	if !errorsx.HasReason(err, errorsx.ReasonUnsupportedLanguage) {
		t.Fatalf("expected unsupported_language, got %v", err)
	}
	if probes, _ := f.calls(); probes != 0 {
		t.Fatalf("no probe may run for an unsupported language")
	}
}

func TestGenerateInvalidRequestSkipsCandidates(t *testing.T) {
	f := &fakeSynth{name: "alpha", output: testMP3()}
	cat := NewCatalog()
	mustRegister(cat, englishProvider("alpha", 0, f))
	orch := newTestOrchestrator(cat, nil, nil)

	_, err := orch.Generate(context.Background(), NewRequest("", "en", "", audio.FormatMP3))
	if !errorsx.HasReason(err, errorsx.ReasonInvalidRequest) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
	if probes, synths := f.calls(); probes != 0 || synths != 0 {
		t.Fatalf("invalid request must not touch providers")
	}
}

func TestGenerateIsDeterministicAcrossCalls(t *testing.T) {
	a := &fakeSynth{name: "a", probeErr: errors.New("down")}
	b := &fakeSynth{name: "b", output: testMP3()}
	cat := NewCatalog()
	mustRegister(cat, englishProvider("a", 0, a), englishProvider("b", 1, b))
	orch := newTestOrchestrator(cat, nil, nil)

	req := NewRequest("Hello world", "en", "", audio.FormatMP3)
	first, err := orch.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := orch.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if first.Provider != second.Provider || first.Voice != second.Voice {
		t.Fatalf("provider selection changed between identical calls")
	}
	if len(first.Attempts) != len(second.Attempts) {
		t.Fatalf("attempt logs differ in length")
	}
	for i := range first.Attempts {
		if first.Attempts[i].Status != second.Attempts[i].Status ||
			first.Attempts[i].Provider != second.Attempts[i].Provider {
			t.Fatalf("attempt logs diverge at %d", i)
		}
	}
}

func TestGenerateReprobesEveryCall(t *testing.T) {
	f := &fakeSynth{name: "alpha", output: testMP3()}
	cat := NewCatalog()
	mustRegister(cat, englishProvider("alpha", 0, f))
	orch := newTestOrchestrator(cat, nil, nil)

	req := NewRequest("Hello world", "en", "", audio.FormatMP3)
	if _, err := orch.Generate(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := orch.Generate(context.Background(), req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if probes, _ := f.calls(); probes != 2 {
		t.Fatalf("expected one probe per call, got %d", probes)
	}
}

func TestGeneratePersistsThroughWriter(t *testing.T) {
	f := &fakeSynth{name: "alpha", output: testWAV()}
	cat := NewCatalog()
	mustRegister(cat, englishProvider("alpha", 0, f))
	w := &captureWriter{}
	orch := newTestOrchestrator(cat, w, nil)

	res, err := orch.Generate(context.Background(), NewRequest("Hello world", "en", "", audio.FormatWAV))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Reference == "" || len(w.names) != 1 {
		t.Fatalf("expected a stored reference, got %q", res.Reference)
	}
	if string(w.data[0]) != string(res.Audio) {
		t.Fatalf("stored bytes differ from result audio")
	}
}

func TestGenerateHonorsCancellationBetweenCandidates(t *testing.T) {
	f := &fakeSynth{name: "alpha", output: testMP3()}
	cat := NewCatalog()
	mustRegister(cat, englishProvider("alpha", 0, f))
	orch := newTestOrchestrator(cat, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orch.Generate(ctx, NewRequest("Hello world", "en", "", audio.FormatMP3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if probes, _ := f.calls(); probes != 0 {
		t.Fatalf("cancelled run must not probe")
	}
}

func TestGeneratePanicInProbeBecomesUnavailable(t *testing.T) {
	panicky := &panicProbe{fakeSynth{name: "bad"}}
	good := &fakeSynth{name: "good", output: testMP3()}
	cat := NewCatalog()
	mustRegister(cat, englishProvider("bad", 0, panicky), englishProvider("good", 1, good))
	orch := newTestOrchestrator(cat, nil, nil)

	res, err := orch.Generate(context.Background(), NewRequest("Hello world", "en", "", audio.FormatMP3))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Attempts[0].Status != OutcomeUnavailable {
		t.Fatalf("panicking probe must become unavailable, got %+v", res.Attempts[0])
	}
	if res.Provider != "good" {
		t.Fatalf("expected fallback to good, got %s", res.Provider)
	}
}

type panicProbe struct{ fakeSynth }

func (p *panicProbe) Probe(ctx context.Context) error { panic("probe exploded") }
