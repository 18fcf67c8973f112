package speech

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/errorsx"
)

// DefaultMaxTextRunes caps request text when no limit is configured.
// Mirrors the upload ceiling of the web layer feeding this engine.
const DefaultMaxTextRunes = 20000

// Request is one synthesis job. Construct with NewRequest and treat as
// immutable afterwards; the orchestrator never mutates it.
type Request struct {
	Text string
	// Language is an ISO-639-ish code such as "en" or "pt".
	Language string
	// VoicePreference is an optional persona tag ("lisa", "narrator") or an
	// explicit provider voice id.
	VoicePreference string
	Format          audio.Format
}

// NewRequest normalizes the free-text fields of a request.
func NewRequest(text, language, voicePreference string, format audio.Format) Request {
	return Request{
		Text:            text,
		Language:        normalizeLanguage(language),
		VoicePreference: strings.ToLower(strings.TrimSpace(voicePreference)),
		Format:          format,
	}
}

// Validate rejects requests before any candidate is considered.
func (r Request) Validate(maxRunes int) error {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxTextRunes
	}
	if strings.TrimSpace(r.Text) == "" {
		return errorsx.New("request text is empty", errorsx.ReasonInvalidRequest)
	}
	if n := utf8.RuneCountInString(r.Text); n > maxRunes {
		return errorsx.Wrap(
			fmt.Errorf("request text is %d runes, limit is %d", n, maxRunes),
			errorsx.ReasonInvalidRequest)
	}
	if r.Language == "" {
		return errorsx.New("request language is empty", errorsx.ReasonInvalidRequest)
	}
	if r.Format != audio.FormatMP3 && r.Format != audio.FormatWAV {
		return errorsx.Wrap(
			fmt.Errorf("unrecognized audio format: %q", r.Format),
			errorsx.ReasonInvalidRequest)
	}
	return nil
}

func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	// "pt-BR" and "pt_br" collapse to their base code for catalog lookup.
	for i, r := range lang {
		if r == '-' || r == '_' {
			return lang[:i]
		}
	}
	return lang
}
