package thumbs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/llm"
	"github.com/envisage-news/envisage-cli/internal/model"
)

// phraseCount is how many search phrases the model is asked for.
const phraseCount = 5

const phraseSystem = "You suggest stock-photo search phrases. " +
	"Respond with a JSON array of strings only."

// searchPhrases asks the model for five short image-search phrases for a
// news item. On any failure the fallback is the item's title and category.
func (t *Processor) searchPhrases(ctx context.Context, item model.NewsItem) []string {
	fallback := []string{item.Title, item.Category}

	prompt := fmt.Sprintf(
		"Suggest %d short search phrases for a stock photo illustrating "+
			"this news item.\nCategory: %s\nHeadline: %s\n"+
			"Respond with a JSON array of %d strings.",
		phraseCount, item.Category, item.Title, phraseCount,
	)
	resp, err := t.llm.Generate(ctx, llm.Request{
		System:    phraseSystem,
		Prompt:    prompt,
		MaxTokens: 256,
	})
	if err != nil {
		zap.L().Warn("search phrase generation failed, using fallback",
			zap.String("category", item.Category),
			zap.Error(err),
		)
		return fallback
	}

	var phrases []string
	if err := json.Unmarshal([]byte(llm.CleanJSON(resp)), &phrases); err != nil {
		zap.L().Warn("search phrase parse failed, using fallback",
			zap.String("category", item.Category),
			zap.Error(err),
		)
		return fallback
	}

	var cleaned []string
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return fallback
	}
	return cleaned
}
