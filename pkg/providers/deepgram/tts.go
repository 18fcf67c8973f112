package deepgram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speakapi "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/speak/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	speakclient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/speak"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/resilience"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/synth"
)

const defaultModel = "aura-asteria-en"

type Config struct {
	APIKey string
	// Model overrides the voice id carried in the request.
	Model string
}

// Synthesizer wraps the Deepgram speak REST client. Aura voices are bound
// to a language, so the catalog only routes English to this provider.
type Synthesizer struct {
	cfg Config
	api *speakapi.Client
}

func New(cfg Config) *Synthesizer {
	c := speakclient.NewREST(cfg.APIKey, &interfaces.ClientOptions{})
	return &Synthesizer{cfg: cfg, api: speakapi.New(c)}
}

func (s *Synthesizer) Name() string { return "deepgram_tts" }

func (s *Synthesizer) Probe(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return errors.New("deepgram api key not configured")
	}
	return nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, in synth.Input) ([]byte, error) {
	options := &interfaces.SpeakOptions{
		Model: auraModel(s.cfg, in),
	}
	switch in.Format {
	case audio.FormatMP3:
		options.Encoding = "mp3"
	case audio.FormatWAV:
		options.Encoding = "linear16"
		options.Container = "wav"
	default:
		return nil, fmt.Errorf("deepgram: unsupported audio format %s", in.Format)
	}

	buf := &interfaces.RawResponse{}
	if _, err := s.api.ToStream(ctx, in.Text, options, buf); err != nil {
		if strings.Contains(err.Error(), "429") {
			return nil, resilience.RateLimitError{Provider: "deepgram", Message: err.Error()}
		}
		return nil, fmt.Errorf("deepgram speak: %w", err)
	}
	return buf.Bytes(), nil
}

// auraModel resolves the aura voice id. Catalog ids carry a "dg-" prefix;
// an explicit Model in config wins over both.
func auraModel(cfg Config, in synth.Input) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	if v, ok := strings.CutPrefix(in.VoiceID, "dg-"); ok && v != "" {
		return v
	}
	return defaultModel
}

// Voices lists the English aura voice set mapped onto personas.
func Voices() []speech.Voice {
	return []speech.Voice{
		{ID: "dg-aura-asteria-en", Language: "en", Persona: "lisa", Tier: speech.TierNeural, Default: true},
		{ID: "dg-aura-orion-en", Language: "en", Persona: "michael", Tier: speech.TierNeural},
		{ID: "dg-aura-helios-en", Language: "en", Persona: "narrator", Tier: speech.TierNeural},
		{ID: "dg-aura-luna-en", Language: "en", Tier: speech.TierNeural},
	}
}

var _ synth.Synthesizer = (*Synthesizer)(nil)
