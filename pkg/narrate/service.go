package narrate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/configutil"
	"github.com/echoverse/narrate/pkg/errorsx"
	"github.com/echoverse/narrate/pkg/logging"
	"github.com/echoverse/narrate/pkg/metrics"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/storage"
	"github.com/echoverse/narrate/pkg/translate"
)

// Service wires the catalog, orchestrator, translator and storage into one
// facade. It is safe for concurrent use; all mutable state lives per-call.
type Service struct {
	cfg        Config
	catalog    *speech.Catalog
	orch       *speech.Orchestrator
	store      *storage.FileStore
	translator translate.Translator
	async      *metrics.AsyncObserver
	metricsOut io.Closer
	closers    []io.Closer
	logger     *slog.Logger
}

// GenerateInput is one caller-facing narration request.
type GenerateInput struct {
	Text string `json:"text"`
	// Language is the language the narration should be spoken in.
	Language string `json:"language"`
	// SourceLanguage marks the language the text is written in when it
	// differs from Language; the text is translated first.
	SourceLanguage string `json:"source_language,omitempty"`
	Voice          string `json:"voice,omitempty"`
	// Format is "mp3" or "wav"; empty uses the configured default.
	Format string `json:"format,omitempty"`
}

// GenerateOutput reports the accepted narration plus the full attempt log.
type GenerateOutput struct {
	RunID     string           `json:"run_id"`
	Provider  string           `json:"provider"`
	Voice     string           `json:"voice"`
	Reference string           `json:"reference,omitempty"`
	// DurationMS is decoded playing time, only reported for mp3 output.
	DurationMS int64            `json:"duration_ms,omitempty"`
	Attempts   []speech.Outcome `json:"attempts"`
	Audio      []byte           `json:"-"`
}

func NewService(ctx context.Context, cfg Config, reg *ProviderRegistry, logger *slog.Logger) (*Service, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}

	catalog := speech.NewCatalog()
	var closers []io.Closer
	for _, pc := range cfg.Providers {
		p, err := reg.Build(pc)
		if err != nil {
			return nil, err
		}
		if err := catalog.Register(p); err != nil {
			return nil, err
		}
		if c, ok := p.Synth.(io.Closer); ok {
			closers = append(closers, c)
		}
		logger.Info("provider registered",
			slog.String("provider", p.ID),
			slog.Int("priority", p.Priority),
			slog.Int("voices", len(p.Voices)))
	}

	store, err := storage.NewFileStore(cfg.Storage.Dir, logging.NewComponentLogger(logger, "storage"))
	if err != nil {
		return nil, err
	}

	var inner metrics.Observer = metrics.NoopObserver{}
	var metricsOut io.Closer
	if cfg.Observability.MetricsPath != "" {
		f, err := os.OpenFile(cfg.Observability.MetricsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open metrics file: %w", err)
		}
		inner = metrics.NewJSONLObserver(f)
		metricsOut = f
	}
	async := metrics.NewAsyncObserver(inner, cfg.Observability.EventBuffer)

	translator, err := buildTranslator(ctx, cfg.Translation, logger)
	if err != nil {
		return nil, err
	}

	orch := speech.NewOrchestrator(speech.OrchestratorOptions{
		Catalog:      catalog,
		Attempter:    speech.NewAttempter(msDuration(cfg.Synthesis.AttemptTimeoutMS), logging.NewComponentLogger(logger, "attempter")),
		Writer:       store,
		Observer:     async,
		Logger:       logging.NewComponentLogger(logger, "orchestrator"),
		MaxTextRunes: cfg.Synthesis.MaxTextRunes,
		ProbeTimeout: msDuration(cfg.Synthesis.ProbeTimeoutMS),
	})

	return &Service{
		cfg:        cfg,
		catalog:    catalog,
		orch:       orch,
		store:      store,
		translator: translator,
		async:      async,
		metricsOut: metricsOut,
		closers:    closers,
		logger:     logger,
	}, nil
}

// Generate translates when needed and runs one orchestration.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	language := in.Language
	if language == "" {
		language = s.cfg.Synthesis.DefaultLanguage
	}
	formatName := in.Format
	if formatName == "" {
		formatName = s.cfg.Synthesis.DefaultFormat
	}
	format, err := audio.ParseFormat(formatName)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonInvalidRequest)
	}

	text := in.Text
	if s.cfg.Translation.Enabled && translate.NeedsTranslation(in.SourceLanguage, language) {
		res, err := s.translator.Translate(ctx, text, in.SourceLanguage, language)
		switch {
		case err != nil:
			// Translation is best effort; synthesis of the original text
			// is better than no narration at all.
			s.logger.Warn("translation failed, synthesizing original text",
				slog.String("source", in.SourceLanguage),
				slog.String("target", language),
				slog.String("error", err.Error()))
		case res.Confidence < s.cfg.Translation.MinConfidence:
			s.logger.Warn("translation confidence too low, synthesizing original text",
				slog.Float64("confidence", res.Confidence),
				slog.Float64("min_confidence", s.cfg.Translation.MinConfidence))
		default:
			text = res.Text
		}
	}

	req := speech.NewRequest(text, language, in.Voice, format)
	result, err := s.orch.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &GenerateOutput{
		RunID:     result.RunID,
		Provider:  result.Provider,
		Voice:     result.Voice,
		Reference: result.Reference,
		Attempts:  result.Attempts,
		Audio:     result.Audio,
	}
	if format == audio.FormatMP3 {
		if d, err := audio.MP3Duration(result.Audio); err == nil {
			out.DurationMS = d.Milliseconds()
		}
	}
	return out, nil
}

// Voices lists the catalog voices available for a language.
func (s *Service) Voices(language string) []speech.CatalogVoice {
	return s.catalog.VoicesFor(language)
}

// Languages lists every language at least one provider serves.
func (s *Service) Languages() []string {
	return s.catalog.Languages()
}

// Close drains the metrics pipeline and releases provider connections.
func (s *Service) Close() error {
	s.async.Close()
	if s.metricsOut != nil {
		_ = s.metricsOut.Close()
	}
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildTranslator(ctx context.Context, cfg TranslationConfig, logger *slog.Logger) (translate.Translator, error) {
	if !cfg.Enabled {
		return translate.Noop{}, nil
	}
	schema := configutil.Schema{
		Required: []string{"api_key"},
		Optional: []string{"model", "base_url"},
	}
	if err := configutil.ValidateSettings(cfg.Settings, schema); err != nil {
		return nil, fmt.Errorf("translation settings: %w", err)
	}
	var settings struct {
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		BaseURL string `mapstructure:"base_url"`
	}
	if err := configutil.DecodeSettings(cfg.Settings, &settings); err != nil {
		return nil, err
	}
	if settings.Model == "" {
		settings.Model = "gpt-4o-mini"
	}
	chatModel, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		APIKey:  settings.APIKey,
		Model:   settings.Model,
		BaseURL: settings.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("translation model: %w", err)
	}
	return translate.NewChatTranslator(chatModel, logging.NewComponentLogger(logger, "translator")), nil
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
