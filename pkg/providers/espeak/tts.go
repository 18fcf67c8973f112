package espeak

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/synth"
)

const defaultBinary = "espeak-ng"

type Config struct {
	// Binary is the espeak executable name or path.
	Binary string
	// WordsPerMinute sets speaking rate; espeak's default is 175.
	WordsPerMinute int
}

// Synthesizer drives a local espeak-ng binary. It is the offline fallback
// at the bottom of the provider chain: no credentials, no network, wav only.
type Synthesizer struct {
	cfg Config
}

func New(cfg Config) *Synthesizer {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = 175
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Name() string { return "espeak_tts" }

// Probe checks that the binary exists on PATH. Whether the engine can
// actually speak the text is the attempt's problem.
func (s *Synthesizer) Probe(ctx context.Context) error {
	if _, err := exec.LookPath(s.cfg.Binary); err != nil {
		return fmt.Errorf("%s not installed: %w", s.cfg.Binary, err)
	}
	return nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, in synth.Input) ([]byte, error) {
	if in.Format != audio.FormatWAV {
		return nil, fmt.Errorf("espeak produces wav only, not %s", in.Format)
	}

	tmp, err := os.CreateTemp("", "espeak-*.wav")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{
		"-v", espeakVoice(in),
		"-s", strconv.Itoa(s.cfg.WordsPerMinute),
		"-w", tmpPath,
		"--", in.Text,
	}
	cmd := exec.CommandContext(ctx, s.cfg.Binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", s.cfg.Binary, err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(filepath.Clean(tmpPath))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// espeakVoice maps catalog voice ids like "espeak-en" back to the engine's
// language voice names.
func espeakVoice(in synth.Input) string {
	if v, ok := strings.CutPrefix(in.VoiceID, "espeak-"); ok && v != "" {
		return v
	}
	if in.Language != "" {
		return in.Language
	}
	return "en"
}

// Voices lists the language voices the bundled espeak-ng data ships with
// that this service cares about. All standard tier, wav only.
func Voices() []speech.Voice {
	langs := []string{"en", "es", "fr", "de", "it", "pt", "ru", "hi", "ta", "tr", "pl", "nl", "sv", "cs", "el"}
	voices := make([]speech.Voice, 0, len(langs))
	for _, l := range langs {
		voices = append(voices, speech.Voice{
			ID:       "espeak-" + l,
			Language: l,
			Tier:     speech.TierStandard,
			Default:  true,
		})
	}
	return voices
}

var _ synth.Synthesizer = (*Synthesizer)(nil)
