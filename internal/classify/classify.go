// Package classify assigns relevance-filtered articles to the fixed
// category vocabulary, via embeddings or a language model.
package classify

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/embed"
	"github.com/envisage-news/envisage-cli/internal/llm"
	"github.com/envisage-news/envisage-cli/internal/model"
)

// titlePrefixChars is how much article body accompanies the title when
// embedding for category assignment.
const titlePrefixChars = 1000

// Classifier assigns each relevant article to categories. Output is always
// cleaned: no empty seed buckets, no empty categories.
type Classifier interface {
	Classify(ctx context.Context, seedMap model.ScrapeMap, mask model.Mask) (model.Categorized, error)
}

// New creates the strategy selected by cfg.
func New(cfg config.ClassifyConfig, embedder embed.Client, generator llm.Client) (Classifier, error) {
	switch cfg.Strategy {
	case "", "embedding":
		if embedder == nil {
			return nil, eris.New("classify: embedding strategy needs an embedder")
		}
		return &EmbeddingClassifier{embedder: embedder}, nil
	case "llm":
		if generator == nil {
			return nil, eris.New("classify: llm strategy needs a language model client")
		}
		return &LLMClassifier{
			llm:          generator,
			maxBatchSize: cfg.MaxBatchSize,
			maxRetries:   cfg.MaxRetries,
		}, nil
	default:
		return nil, eris.Errorf("classify: unknown strategy %q", cfg.Strategy)
	}
}

// candidate is one relevant article flattened out of the scrape map.
type candidate struct {
	seed    string
	url     string
	article model.Article
}

// candidates flattens the relevant articles: usable items whose mask bit
// is 1. Iteration order is not guaranteed.
func candidates(seedMap model.ScrapeMap, mask model.Mask) []candidate {
	var out []candidate
	for seed, articles := range seedMap {
		for u, item := range articles {
			if !item.OK() || mask[seed][u] != 1 {
				continue
			}
			out = append(out, candidate{seed: seed, url: u, article: *item.Article})
		}
	}
	return out
}

// embeddingText is the text embedded per article: title plus the first
// 1000 characters of the body.
func embeddingText(a model.Article) string {
	body := a.Body
	if len(body) > titlePrefixChars {
		body = body[:titlePrefixChars]
	}
	return a.Title + " " + body
}

// excerpt truncates s to at most n bytes for prompt construction.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func assign(out model.Categorized, category string, c candidate) {
	if out[category] == nil {
		out[category] = make(map[string]map[string]model.Article)
	}
	if out[category][c.seed] == nil {
		out[category][c.seed] = make(map[string]model.Article)
	}
	out[category][c.seed][c.url] = c.article
}
