package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/llm"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/resilience"
	"github.com/envisage-news/envisage-cli/internal/window"
)

// maxJoinedSummaries bounds how many per-article summaries feed one
// category synthesis.
const maxJoinedSummaries = 20

// maxTitleWords bounds the generated category title.
const maxTitleWords = 10

// Pass2 synthesizes the structured summary document for one window from
// its pass-1 result. An empty result yields the no-content sentinel.
func (s *Summarizer) Pass2(ctx context.Context, w window.ID, result model.ResultDoc) (model.SummaryDoc, error) {
	categories := nonEmptyCategories(result)
	if len(categories) == 0 {
		return model.SummaryDoc{
			OverallIntroduction: model.NoContentIntroduction,
			Categories:          map[string]model.CategorySummary{},
		}, nil
	}

	doc := model.SummaryDoc{Categories: make(map[string]model.CategorySummary, len(categories))}
	for _, category := range categories {
		if ctx.Err() != nil {
			return model.SummaryDoc{}, ctx.Err()
		}
		cs, err := s.summarizeCategory(ctx, category, result)
		if err != nil {
			zap.L().Warn("category synthesis failed, omitting",
				zap.String("category", category),
				zap.Error(err),
			)
			continue
		}
		doc.Categories[category] = cs
	}
	if len(doc.Categories) == 0 {
		return model.SummaryDoc{}, eris.New("summarize: every category synthesis failed")
	}

	intro, err := s.introduction(ctx, w, doc.Categories)
	if err != nil {
		return model.SummaryDoc{}, eris.Wrap(err, "summarize: introduction")
	}
	doc.OverallIntroduction = intro

	if len(doc.Categories) > 1 {
		conclusion, err := s.conclusion(ctx, doc.Categories)
		if err != nil {
			return model.SummaryDoc{}, eris.Wrap(err, "summarize: conclusion")
		}
		doc.OverallConclusion = conclusion
	}
	return doc, nil
}

// summarizeCategory synthesizes one category from at most 20 joined
// per-article summaries, falling back to a titles-and-sources prompt when
// no article summaries exist.
func (s *Summarizer) summarizeCategory(ctx context.Context, category string, result model.ResultDoc) (model.CategorySummary, error) {
	articleCount, sourceCount := result.CategoryCounts(category)
	summaries := collectSummaries(result[category])

	var prompt string
	if len(summaries) > 0 {
		if len(summaries) > maxJoinedSummaries {
			summaries = summaries[:maxJoinedSummaries]
		}
		prompt = fmt.Sprintf(
			"Write a 600-800 word synthesis of today's %s news from these "+
				"article summaries. Weave them into a coherent narrative.\n\n%s",
			category, strings.Join(summaries, "\n\n"),
		)
	} else {
		prompt = fmt.Sprintf(
			"Write a 400-500 word overview of today's %s news given only "+
				"these article titles and their sources.\n\n%s",
			category, strings.Join(collectTitles(result[category]), "\n"),
		)
	}

	body, err := s.generate(ctx, "category", prompt, 2048)
	if err != nil {
		return model.CategorySummary{}, err
	}

	title, err := s.categoryTitle(ctx, category, body)
	if err != nil || countWords(title) > maxTitleWords || title == "" {
		title = category + " News Roundup"
	}

	return model.CategorySummary{
		Title:        title,
		Summary:      body,
		ArticleCount: articleCount,
		SourceCount:  sourceCount,
	}, nil
}

func (s *Summarizer) categoryTitle(ctx context.Context, category, synthesis string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a headline of at most %d words for this %s news summary. "+
			"Respond with the headline only.\n\n%s",
		maxTitleWords, category, excerpt(synthesis, 1500),
	)
	title, err := s.generate(ctx, "title", prompt, 64)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(title), `"`), nil
}

// introduction writes the 200-250 word window introduction naming the
// date, the covered period, and the busiest categories.
func (s *Summarizer) introduction(ctx context.Context, w window.ID, categories map[string]model.CategorySummary) (string, error) {
	names := sortedByArticleCount(categories)
	top := names
	if len(top) > 3 {
		top = top[:3]
	}
	prompt := fmt.Sprintf(
		"Write a 200-250 word introduction for a news digest dated %s "+
			"covering the %s period. Categories covered: %s. The most active "+
			"categories were: %s. Do not use headings.",
		w.Date(), w.PeriodPhrase(),
		strings.Join(names, ", "), strings.Join(top, ", "),
	)
	return s.generate(ctx, "introduction", prompt, 1024)
}

// conclusion writes the 150-200 word cross-category wrap-up.
func (s *Summarizer) conclusion(ctx context.Context, categories map[string]model.CategorySummary) (string, error) {
	var lines []string
	for _, name := range sortedByArticleCount(categories) {
		lines = append(lines, fmt.Sprintf("%s: %s", name, categories[name].Title))
	}
	prompt := fmt.Sprintf(
		"Write a 150-200 word conclusion connecting the threads across "+
			"these news categories:\n\n%s",
		strings.Join(lines, "\n"),
	)
	return s.generate(ctx, "conclusion", prompt, 1024)
}

func (s *Summarizer) generate(ctx context.Context, operation, prompt string, maxTokens int64) (string, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("summarize", operation)

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		text, err := s.llm.Generate(ctx, llm.Request{
			System:    articleSystem,
			Prompt:    prompt,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	})
}

// nonEmptyCategories returns the categories that still hold at least one
// article record, sorted for deterministic processing order.
func nonEmptyCategories(result model.ResultDoc) []string {
	var out []string
	for category, seeds := range result {
		n := 0
		for _, summaries := range seeds {
			n += len(summaries)
		}
		if n > 0 {
			out = append(out, category)
		}
	}
	sort.Strings(out)
	return out
}

func collectSummaries(seeds map[string][]model.ArticleSummary) []string {
	var out []string
	for _, seed := range sortedKeys(seeds) {
		for _, as := range seeds[seed] {
			if as.Summary != "" {
				out = append(out, as.Summary)
			}
		}
	}
	return out
}

func collectTitles(seeds map[string][]model.ArticleSummary) []string {
	var out []string
	for _, seed := range sortedKeys(seeds) {
		for _, as := range seeds[seed] {
			out = append(out, fmt.Sprintf("%s (%s)", as.Title, seed))
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedByArticleCount orders category names by descending article count,
// ties broken alphabetically.
func sortedByArticleCount(categories map[string]model.CategorySummary) []string {
	names := sortedKeys(categories)
	sort.SliceStable(names, func(i, j int) bool {
		return categories[names[i]].ArticleCount > categories[names[j]].ArticleCount
	})
	return names
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
