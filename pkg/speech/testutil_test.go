package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/echoverse/narrate/pkg/synth"
)

// fakeSynth is a scriptable synthesizer for orchestration tests.
type fakeSynth struct {
	mu         sync.Mutex
	name       string
	probeErr   error
	synthErr   error
	output     []byte
	probeCalls int
	synthCalls int
	block      chan struct{} // when set, Synthesize waits on it
}

func (f *fakeSynth) Name() string { return f.name }

func (f *fakeSynth) Probe(ctx context.Context) error {
	f.mu.Lock()
	f.probeCalls++
	f.mu.Unlock()
	return f.probeErr
}

func (f *fakeSynth) Synthesize(ctx context.Context, in synth.Input) ([]byte, error) {
	f.mu.Lock()
	f.synthCalls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return f.output, nil
}

func (f *fakeSynth) calls() (probes, synths int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeCalls, f.synthCalls
}

var _ synth.Synthesizer = (*fakeSynth)(nil)

var errNetwork = errors.New("connection refused")

// testWAV is a minimal RIFF/WAVE payload that passes container sniffing.
func testWAV() []byte {
	b := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	return append(b, make([]byte, 64)...)
}

// testMP3 starts with a valid MPEG1 Layer III frame header.
func testMP3() []byte {
	return append([]byte{0xFF, 0xFB, 0x90, 0x00}, make([]byte, 64)...)
}

func englishProvider(id string, priority int, s synth.Synthesizer) Provider {
	return Provider{
		ID:       id,
		Priority: priority,
		Synth:    s,
		Voices: []Voice{
			{ID: id + "-lisa", Language: "en", Persona: "lisa", Tier: TierNeural},
			{ID: id + "-default", Language: "en", Tier: TierStandard, Default: true},
		},
	}
}

func mustRegister(c *Catalog, ps ...Provider) {
	for _, p := range ps {
		if err := c.Register(p); err != nil {
			panic(err)
		}
	}
}
