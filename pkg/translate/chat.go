package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/echoverse/narrate/pkg/errorsx"
	"github.com/echoverse/narrate/pkg/resilience"
)

const translatePrompt = `You are a translation engine. Translate the user text from %s to %s.
Respond with JSON only: {"translation": "<translated text>", "confidence": <0.0-1.0>}.
Do not add commentary.`

// ChatModel is the slice of the eino model surface the translator needs.
// model.BaseChatModel satisfies it.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ChatTranslator translates through a chat completion model. It retries
// transient failures with a small bounded policy because, unlike synthesis,
// translation has no provider fallback chain behind it.
type ChatTranslator struct {
	model  ChatModel
	retry  resilience.RetryPolicy
	logger *slog.Logger
}

func NewChatTranslator(m ChatModel, logger *slog.Logger) *ChatTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatTranslator{
		model:  m,
		retry:  resilience.NewRetryPolicy(2, 300*time.Millisecond),
		logger: logger,
	}
}

func (t *ChatTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (Result, error) {
	if !NeedsTranslation(sourceLang, targetLang) {
		return Result{Text: text, Confidence: 1}, nil
	}

	messages := []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(translatePrompt, sourceLang, targetLang)),
		schema.UserMessage(text),
	}

	var reply *schema.Message
	err := t.retry.Do(func() error {
		var genErr error
		reply, genErr = t.model.Generate(ctx, messages)
		return genErr
	})
	if err != nil {
		return Result{}, errorsx.Wrap(fmt.Errorf("translation call: %w", err), errorsx.ReasonTranslateCall)
	}
	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return Result{}, errorsx.New("translation model returned empty content", errorsx.ReasonTranslateCall)
	}

	return parseReply(reply.Content, t.logger), nil
}

// parseReply reads the JSON contract, falling back to the raw content with
// reduced confidence when the model ignored the format.
func parseReply(content string, logger *slog.Logger) Result {
	content = strings.TrimSpace(content)
	var parsed struct {
		Translation string  `json:"translation"`
		Confidence  float64 `json:"confidence"`
	}
	jsonPart := content
	if i := strings.Index(jsonPart, "{"); i >= 0 {
		if j := strings.LastIndex(jsonPart, "}"); j > i {
			jsonPart = jsonPart[i : j+1]
		}
	}
	if err := json.Unmarshal([]byte(jsonPart), &parsed); err == nil && strings.TrimSpace(parsed.Translation) != "" {
		conf := parsed.Confidence
		if conf <= 0 || conf > 1 {
			conf = 0.5
		}
		return Result{Text: parsed.Translation, Confidence: conf}
	}
	logger.Warn("translation reply was not JSON, using raw content")
	return Result{Text: content, Confidence: 0.5}
}

var _ Translator = (*ChatTranslator)(nil)
