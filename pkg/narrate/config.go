package narrate

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/echoverse/narrate/pkg/configutil"
)

type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Server        ServerConfig        `mapstructure:"server"`
	Synthesis     SynthesisConfig     `mapstructure:"synthesis"`
	Providers     []ProviderConfig    `mapstructure:"providers"`
	Translation   TranslationConfig   `mapstructure:"translation"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SynthesisConfig struct {
	DefaultLanguage  string `mapstructure:"default_language"`
	DefaultFormat    string `mapstructure:"default_format"`
	MaxTextRunes     int    `mapstructure:"max_text_runes"`
	AttemptTimeoutMS int    `mapstructure:"attempt_timeout_ms"`
	ProbeTimeoutMS   int    `mapstructure:"probe_timeout_ms"`
}

// ProviderConfig declares one synthesis vendor in the fallback chain.
// List order breaks priority ties, matching catalog registration order.
type ProviderConfig struct {
	Name     string         `mapstructure:"name"`
	Priority int            `mapstructure:"priority"`
	Settings map[string]any `mapstructure:"settings"`
}

type TranslationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// MinConfidence below which a translation is discarded and the
	// original text synthesized instead.
	MinConfidence float64        `mapstructure:"min_confidence"`
	Settings      map[string]any `mapstructure:"settings"`
}

type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

type ObservabilityConfig struct {
	// MetricsPath is a JSONL file for engine events; empty disables it.
	MetricsPath string `mapstructure:"metrics_path"`
	EventBuffer int    `mapstructure:"event_buffer"`
}

// LoadConfig reads a YAML config file. ${VAR} references in string values
// are expanded from the environment so credentials stay out of the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("NARRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("synthesis.default_language", "en")
	v.SetDefault("synthesis.default_format", "mp3")
	v.SetDefault("synthesis.max_text_runes", 20000)
	v.SetDefault("synthesis.attempt_timeout_ms", 30000)
	v.SetDefault("synthesis.probe_timeout_ms", 2000)
	v.SetDefault("translation.enabled", false)
	v.SetDefault("translation.min_confidence", 0.6)
	v.SetDefault("storage.dir", "")
	v.SetDefault("observability.metrics_path", "")
	v.SetDefault("observability.event_buffer", 256)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}
	seen := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return fmt.Errorf("providers[%d].name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("provider listed twice: %s", name)
		}
		seen[name] = struct{}{}
	}
	if err := configutil.RequireString(c.Synthesis.DefaultLanguage, "synthesis.default_language"); err != nil {
		return err
	}
	switch strings.ToLower(c.Synthesis.DefaultFormat) {
	case "mp3", "wav":
	default:
		return fmt.Errorf("synthesis.default_format must be mp3 or wav, got %q", c.Synthesis.DefaultFormat)
	}
	if c.Translation.MinConfidence < 0 || c.Translation.MinConfidence > 1 {
		return fmt.Errorf("translation.min_confidence must be within [0, 1]")
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	cfg.Storage.Dir = os.ExpandEnv(cfg.Storage.Dir)
	cfg.Observability.MetricsPath = os.ExpandEnv(cfg.Observability.MetricsPath)
	for i := range cfg.Providers {
		cfg.Providers[i].Settings = expandSettings(cfg.Providers[i].Settings)
	}
	cfg.Translation.Settings = expandSettings(cfg.Translation.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}
