package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/echoverse/narrate/pkg/resilience"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/synth"
)

const defaultEndpoint = "https://api.openai.com/v1/audio/speech"

type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	// Speed is the playback rate multiplier, 0.25 to 4.0.
	Speed float64
}

// Synthesizer calls the OpenAI speech endpoint. One HTTP POST per attempt,
// bounded entirely by the caller's context.
type Synthesizer struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Synthesizer {
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}
	return &Synthesizer{
		cfg:    cfg,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (s *Synthesizer) Name() string { return "openai_tts" }

func (s *Synthesizer) Probe(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return errors.New("openai api key not configured")
	}
	return nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, in synth.Input) ([]byte, error) {
	payload := map[string]any{
		"model":           s.cfg.Model,
		"input":           in.Text,
		"voice":           openaiVoice(in.VoiceID),
		"speed":           s.cfg.Speed,
		"response_format": string(in.Format),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.RateLimitError{Provider: "openai", Message: resp.Status}
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return io.ReadAll(resp.Body)
}

// openaiVoice strips the catalog prefix; the endpoint expects bare names
// like "alloy" or "nova".
func openaiVoice(voiceID string) string {
	if v, ok := strings.CutPrefix(voiceID, "openai-"); ok && v != "" {
		return v
	}
	return "alloy"
}

// Voices maps the fixed OpenAI voice set onto personas. The endpoint speaks
// many languages with every voice; the table lists the ones this service
// routes to it.
func Voices() []speech.Voice {
	var voices []speech.Voice
	for _, lang := range []string{"en", "es", "fr", "de", "it", "pt", "ja", "ko", "zh", "hi"} {
		voices = append(voices,
			speech.Voice{ID: "openai-nova", Language: lang, Persona: "lisa", Tier: speech.TierNeural},
			speech.Voice{ID: "openai-onyx", Language: lang, Persona: "michael", Tier: speech.TierNeural},
			speech.Voice{ID: "openai-alloy", Language: lang, Persona: "narrator", Tier: speech.TierNeural, Default: true},
		)
	}
	return voices
}

var _ synth.Synthesizer = (*Synthesizer)(nil)
