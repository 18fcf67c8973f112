package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/synth"
)

// Config scripts the behavior of a mock synthesizer. Zero value is an
// always-available provider that emits placeholder audio in the requested
// container.
type Config struct {
	Name     string
	ProbeErr error
	SynthErr error
	// Audio overrides the generated placeholder when set.
	Audio []byte
}

// Synthesizer is a deterministic in-memory TTS vendor for tests and local
// development.
type Synthesizer struct {
	mu  sync.Mutex
	cfg Config

	probeCalls int
	synthCalls int
	lastInput  synth.Input
}

func New(cfg Config) *Synthesizer {
	if cfg.Name == "" {
		cfg.Name = "mock_tts"
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Name() string { return s.cfg.Name }

func (s *Synthesizer) Probe(ctx context.Context) error {
	s.mu.Lock()
	s.probeCalls++
	s.mu.Unlock()
	return s.cfg.ProbeErr
}

func (s *Synthesizer) Synthesize(ctx context.Context, in synth.Input) ([]byte, error) {
	s.mu.Lock()
	s.synthCalls++
	s.lastInput = in
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cfg.SynthErr != nil {
		return nil, s.cfg.SynthErr
	}
	if s.cfg.Audio != nil {
		return s.cfg.Audio, nil
	}
	return PlaceholderAudio(in.Format)
}

// Calls reports how often the mock was probed and attempted.
func (s *Synthesizer) Calls() (probes, synths int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probeCalls, s.synthCalls
}

// LastInput returns the most recent synthesis input.
func (s *Synthesizer) LastInput() synth.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInput
}

// PlaceholderAudio builds a small payload that passes container sniffing
// for the requested format.
func PlaceholderAudio(format audio.Format) ([]byte, error) {
	switch format {
	case audio.FormatWAV:
		header := []byte("RIFF\x24\x08\x00\x00WAVEfmt ")
		return append(header, make([]byte, 2048)...), nil
	case audio.FormatMP3:
		frame := []byte{0xFF, 0xFB, 0x90, 0x00}
		return append(frame, make([]byte, 2048)...), nil
	default:
		return nil, errors.New("mock: unsupported audio format")
	}
}

// Voices declares a compact multilingual voice table so the mock can stand
// in for any real provider in catalogs.
func Voices() []speech.Voice {
	return []speech.Voice{
		{ID: "mock-en-lisa", Language: "en", Persona: "lisa", Tier: TierOf("neural")},
		{ID: "mock-en", Language: "en", Persona: "narrator", Tier: TierOf("standard"), Default: true},
		{ID: "mock-es", Language: "es", Tier: TierOf("standard"), Default: true},
		{ID: "mock-fr", Language: "fr", Tier: TierOf("standard"), Default: true},
		{ID: "mock-ta", Language: "ta", Tier: TierOf("standard"), Default: true},
	}
}

// TierOf maps a tier name to a catalog quality tier, defaulting to standard.
func TierOf(name string) speech.QualityTier {
	switch name {
	case "neural":
		return speech.TierNeural
	case "premium":
		return speech.TierPremium
	default:
		return speech.TierStandard
	}
}

var _ synth.Synthesizer = (*Synthesizer)(nil)
