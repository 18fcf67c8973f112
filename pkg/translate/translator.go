package translate

import (
	"context"
	"strings"
)

// Result is a translation with the provider's confidence in it.
type Result struct {
	Text       string
	Confidence float64
}

// Translator converts text between languages before synthesis. The
// orchestration engine only ever consumes Result.Text as the new request
// text; everything else is advisory.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (Result, error)
}

// Noop passes text through untouched. Used when translation is disabled or
// when source and target language already match.
type Noop struct{}

func (Noop) Translate(_ context.Context, text, _, _ string) (Result, error) {
	return Result{Text: text, Confidence: 1}, nil
}

// NeedsTranslation reports whether a source/target pair requires work at
// all; empty or equal codes do not.
func NeedsTranslation(sourceLang, targetLang string) bool {
	src := strings.ToLower(strings.TrimSpace(sourceLang))
	dst := strings.ToLower(strings.TrimSpace(targetLang))
	return src != "" && dst != "" && src != dst
}
