package narrate

import (
	"fmt"
	"strings"

	"github.com/echoverse/narrate/pkg/configutil"
	"github.com/echoverse/narrate/pkg/providers/deepgram"
	"github.com/echoverse/narrate/pkg/providers/elevenlabs"
	"github.com/echoverse/narrate/pkg/providers/espeak"
	"github.com/echoverse/narrate/pkg/providers/mock"
	"github.com/echoverse/narrate/pkg/providers/openai"
	"github.com/echoverse/narrate/pkg/providers/yandex"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/synth"
)

// Factory builds a synthesizer and its voice table from a validated
// settings block.
type Factory func(settings map[string]any) (synth.Synthesizer, []speech.Voice, error)

type factoryEntry struct {
	schema  configutil.Schema
	factory Factory
}

// ProviderRegistry maps config provider names to adapter factories.
// Settings are validated against the provider's schema before decoding,
// so a typo in a config key fails at startup.
type ProviderRegistry struct {
	entries map[string]factoryEntry
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{entries: make(map[string]factoryEntry)}
}

func (r *ProviderRegistry) Register(name string, schema configutil.Schema, f Factory) {
	r.entries[strings.ToLower(strings.TrimSpace(name))] = factoryEntry{schema: schema, factory: f}
}

func (r *ProviderRegistry) Names() []string {
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	return out
}

// Build turns one config entry into a catalog provider.
func (r *ProviderRegistry) Build(cfg ProviderConfig) (speech.Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	entry, ok := r.entries[name]
	if !ok {
		return speech.Provider{}, fmt.Errorf("unknown provider: %s", cfg.Name)
	}
	if err := configutil.ValidateSettings(cfg.Settings, entry.schema); err != nil {
		return speech.Provider{}, fmt.Errorf("provider %s settings: %w", name, err)
	}
	s, voices, err := entry.factory(cfg.Settings)
	if err != nil {
		return speech.Provider{}, fmt.Errorf("provider %s: %w", name, err)
	}
	return speech.Provider{
		ID:       name,
		Priority: cfg.Priority,
		Synth:    s,
		Voices:   voices,
	}, nil
}

// DefaultRegistry registers every adapter this build ships with.
func DefaultRegistry() *ProviderRegistry {
	r := NewProviderRegistry()

	r.Register("openai", configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model", "endpoint", "speed"},
	}, func(settings map[string]any) (synth.Synthesizer, []speech.Voice, error) {
		var cfg struct {
			APIKey   string  `mapstructure:"api_key"`
			Model    string  `mapstructure:"model"`
			Endpoint string  `mapstructure:"endpoint"`
			Speed    float64 `mapstructure:"speed"`
		}
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, nil, err
		}
		return openai.New(openai.Config{
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Endpoint: cfg.Endpoint,
			Speed:    cfg.Speed,
		}), openai.Voices(), nil
	})

	r.Register("elevenlabs", configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model_id"},
	}, func(settings map[string]any) (synth.Synthesizer, []speech.Voice, error) {
		var cfg struct {
			APIKey  string `mapstructure:"api_key"`
			ModelID string `mapstructure:"model_id"`
		}
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, nil, err
		}
		return elevenlabs.New(elevenlabs.Config{
			APIKey:  cfg.APIKey,
			ModelID: cfg.ModelID,
		}), elevenlabs.Voices(), nil
	})

	r.Register("deepgram", configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model"},
	}, func(settings map[string]any) (synth.Synthesizer, []speech.Voice, error) {
		var cfg struct {
			APIKey string `mapstructure:"api_key"`
			Model  string `mapstructure:"model"`
		}
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, nil, err
		}
		return deepgram.New(deepgram.Config{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}), deepgram.Voices(), nil
	})

	r.Register("yandex", configutil.Schema{
		Required: []string{"api_key", "folder_id"},
		Optional: []string{"model", "speed"},
	}, func(settings map[string]any) (synth.Synthesizer, []speech.Voice, error) {
		var cfg struct {
			APIKey   string  `mapstructure:"api_key"`
			FolderID string  `mapstructure:"folder_id"`
			Model    string  `mapstructure:"model"`
			Speed    float64 `mapstructure:"speed"`
		}
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, nil, err
		}
		return yandex.New(yandex.Config{
			APIKey:   cfg.APIKey,
			FolderID: cfg.FolderID,
			Model:    cfg.Model,
			Speed:    cfg.Speed,
		}), yandex.Voices(), nil
	})

	r.Register("espeak", configutil.Schema{
		Optional: []string{"binary", "words_per_minute"},
	}, func(settings map[string]any) (synth.Synthesizer, []speech.Voice, error) {
		var cfg struct {
			Binary         string `mapstructure:"binary"`
			WordsPerMinute int    `mapstructure:"words_per_minute"`
		}
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, nil, err
		}
		return espeak.New(espeak.Config{
			Binary:         cfg.Binary,
			WordsPerMinute: cfg.WordsPerMinute,
		}), espeak.Voices(), nil
	})

	r.Register("mock", configutil.Schema{
		Optional: []string{"name"},
	}, func(settings map[string]any) (synth.Synthesizer, []speech.Voice, error) {
		var cfg struct {
			Name string `mapstructure:"name"`
		}
		if err := configutil.DecodeSettings(settings, &cfg); err != nil {
			return nil, nil, err
		}
		return mock.New(mock.Config{Name: cfg.Name}), mock.Voices(), nil
	})

	return r
}
