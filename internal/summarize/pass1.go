// Package summarize turns categorized articles into per-article summaries
// and then into a per-window structured summary document, in two passes.
package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/envisage-news/envisage-cli/internal/llm"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/resilience"
)

// minContentChars is the shortest article body pass 1 will summarize.
const minContentChars = 50

const articleSystem = "You are a news summarizer. Respond with the summary " +
	"text only, no preamble and no markdown."

// Summarizer runs both passes against one language model client.
type Summarizer struct {
	llm llm.Client
}

// New creates a Summarizer.
func New(client llm.Client) *Summarizer {
	return &Summarizer{llm: client}
}

// Pass1 produces the per-article summary document for one window's
// categorized articles. One worker runs per category; a failed article is
// logged and omitted rather than failing the pass.
func (s *Summarizer) Pass1(ctx context.Context, categorized model.Categorized) (model.ResultDoc, error) {
	result := make(model.ResultDoc, len(categorized))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for category, seeds := range categorized {
		g.Go(func() error {
			bySeeds := make(map[string][]model.ArticleSummary, len(seeds))
			for seed, articles := range seeds {
				for articleURL, article := range sortedArticles(articles) {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					if len(article.Body) < minContentChars {
						continue
					}
					summary, err := s.summarizeArticle(ctx, article)
					if err != nil {
						zap.L().Warn("article summary failed, omitting",
							zap.String("category", category),
							zap.String("article", articleURL),
							zap.Error(err),
						)
						continue
					}
					bySeeds[seed] = append(bySeeds[seed], model.ArticleSummary{
						Link:    articleURL,
						Title:   article.Title,
						Content: article.Body,
						Summary: summary,
					})
				}
			}
			mu.Lock()
			result[category] = bySeeds
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Summarizer) summarizeArticle(ctx context.Context, article model.Article) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize the following news article in about 100 words. "+
			"Keep the key facts, names, and numbers.\n\nTitle: %s\n\n%s",
		article.Title, article.Body,
	)

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("summarize", "article")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		text, err := s.llm.Generate(ctx, llm.Request{
			System:    articleSystem,
			Prompt:    prompt,
			MaxTokens: 512,
		})
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	})
}

// sortedArticles yields articles in URL order so pass 1 output is stable
// across runs.
func sortedArticles(articles map[string]model.Article) func(func(string, model.Article) bool) {
	urls := make([]string, 0, len(articles))
	for u := range articles {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return func(yield func(string, model.Article) bool) {
		for _, u := range urls {
			if !yield(u, articles[u]) {
				return
			}
		}
	}
}
