package synth

import (
	"context"

	"github.com/echoverse/narrate/pkg/audio"
)

// Input carries everything a vendor needs for one synthesis call.
type Input struct {
	Text     string
	Language string
	VoiceID  string
	Format   audio.Format
}

// Synthesizer defines the contract for any TTS vendor implementation.
//
// Probe is re-evaluated on every generation run and must stay cheap and
// local: configuration presence, binary lookup, client construction.
// Network reachability is the attempt's problem, bounded by its context.
type Synthesizer interface {
	// Name returns the adapter name for logging/metrics.
	Name() string
	// Probe reports whether the vendor is usable right now.
	// A nil error means available.
	Probe(ctx context.Context) error
	// Synthesize performs exactly one synthesis call and returns raw audio
	// bytes in the requested container. It must honor ctx cancellation.
	Synthesize(ctx context.Context, in Input) ([]byte, error)
}
