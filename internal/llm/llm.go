// Package llm treats the language model as a single capability — prompt in,
// text out — with one implementation per provider selected by
// configuration. Model responses are parsed strictly as JSON where a
// structured answer is expected; they are never evaluated or executed.
package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/config"
)

// Request is a single generation request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int64
}

// Client generates text from a prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// New creates the provider selected by cfg.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropic(cfg.Anthropic), nil
	case "gemini":
		return NewGemini(ctx, cfg.Gemini)
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// CleanJSON strips markdown fences and surrounding prose from a model
// response, keeping the outermost JSON object or array.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimPrefix(text, fence)
			if idx := strings.LastIndex(text, "```"); idx >= 0 {
				text = text[:idx]
			}
			break
		}
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return strings.TrimSpace(text[arrStart : end+1])
		}
	}
	if objStart >= 0 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			return strings.TrimSpace(text[objStart : end+1])
		}
	}
	return strings.TrimSpace(text)
}
