package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/resilience"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/synth"
)

const wsBase = "wss://api.elevenlabs.io/v1/text-to-speech"

type Config struct {
	APIKey  string
	ModelID string
}

// Synthesizer speaks to the ElevenLabs stream-input websocket and collects
// the full utterance into one buffer. One connection per attempt; the
// orchestrator's timeout bounds the whole exchange through ctx.
type Synthesizer struct {
	cfg Config
}

func New(cfg Config) *Synthesizer {
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Name() string { return "elevenlabs_tts" }

func (s *Synthesizer) Probe(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return errors.New("elevenlabs api key not configured")
	}
	return nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, in synth.Input) ([]byte, error) {
	if in.Format != audio.FormatMP3 {
		return nil, fmt.Errorf("elevenlabs stream-input produces mp3 only, not %s", in.Format)
	}

	endpoint := s.buildURL(in)
	dialer := websocket.Dialer{Proxy: http.ProxyFromEnvironment}
	conn, resp, err := dialer.DialContext(ctx, endpoint, http.Header{
		"xi-api-key": []string{s.cfg.APIKey},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return nil, resilience.RateLimitError{Provider: "elevenlabs", Message: resp.Status}
		}
		return nil, fmt.Errorf("elevenlabs dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	init := map[string]any{
		"text": " ",
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.8,
		},
	}
	text := in.Text
	if !strings.HasSuffix(text, " ") {
		text += " "
	}
	for _, payload := range []map[string]any{
		init,
		{"text": text, "try_trigger_generation": true},
		{"text": ""}, // end of input
	} {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return nil, fmt.Errorf("elevenlabs send: %w", err)
		}
	}

	return collectAudio(ctx, conn)
}

func (s *Synthesizer) buildURL(in synth.Input) string {
	q := url.Values{}
	q.Set("model_id", s.cfg.ModelID)
	q.Set("output_format", "mp3_44100_128")
	return wsBase + "/" + elevenVoice(in.VoiceID) + "/stream-input?" + q.Encode()
}

func collectAudio(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	var out []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Normal closure after the final chunk still yields the audio.
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && len(out) > 0 {
				return out, nil
			}
			return nil, fmt.Errorf("elevenlabs read: %w", err)
		}
		var msg struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Error != "" {
			return nil, fmt.Errorf("elevenlabs: %s", msg.Error)
		}
		if msg.Audio != "" {
			raw, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return nil, fmt.Errorf("elevenlabs audio decode: %w", err)
			}
			out = append(out, raw...)
		}
		if msg.IsFinal {
			return out, nil
		}
	}
}

func elevenVoice(voiceID string) string {
	if v, ok := strings.CutPrefix(voiceID, "eleven-"); ok && v != "" {
		return v
	}
	return voiceID
}

// Voices lists the stock multilingual voices mapped onto service personas.
// The multilingual model speaks every listed language with each voice.
func Voices() []speech.Voice {
	var voices []speech.Voice
	for _, lang := range []string{"en", "es", "fr", "de", "it", "pt", "pl", "hi", "ar", "zh", "ja", "ko", "nl", "tr", "sv", "id", "cs", "ro", "uk", "el", "fi", "da", "ta"} {
		voices = append(voices,
			speech.Voice{ID: "eleven-21m00tcm4tlvdq8ikwam", Language: lang, Persona: "lisa", Tier: speech.TierPremium},
			speech.Voice{ID: "eleven-tx3loypqx57y3mrgn0bz", Language: lang, Persona: "michael", Tier: speech.TierPremium},
			speech.Voice{ID: "eleven-onwk4e9zaislyevekw7o", Language: lang, Persona: "narrator", Tier: speech.TierPremium, Default: true},
		)
	}
	return voices
}

var _ synth.Synthesizer = (*Synthesizer)(nil)
