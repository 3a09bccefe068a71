package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/llm"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/resilience"
)

const (
	defaultMaxBatchSize = 10
	defaultMaxRetries   = 5
)

const classifySystem = "You are a news categorization engine. " +
	"Respond with strict JSON only, no prose and no markdown."

// LLMClassifier batches articles through the language model and parses a
// strict JSON index mapping back out of the response. An article may land
// in more than one category.
type LLMClassifier struct {
	llm          llm.Client
	maxBatchSize int
	maxRetries   int
}

// Classify sends relevant articles in batches. A batch whose response does
// not parse is split in half and both halves retried; a single article that
// keeps failing is retried with backoff up to maxRetries, then dropped.
func (l *LLMClassifier) Classify(ctx context.Context, seedMap model.ScrapeMap, mask model.Mask) (model.Categorized, error) {
	batchSize := l.maxBatchSize
	if batchSize <= 0 {
		batchSize = defaultMaxBatchSize
	}

	out := make(model.Categorized)
	cands := candidates(seedMap, mask)
	for start := 0; start < len(cands); start += batchSize {
		end := min(start+batchSize, len(cands))
		if err := l.classifyBatch(ctx, cands[start:end], out); err != nil {
			return nil, err
		}
	}
	return out.Clean(), nil
}

// classifyBatch recursively halves on parse failure.
func (l *LLMClassifier) classifyBatch(ctx context.Context, batch []candidate, out model.Categorized) error {
	if len(batch) == 0 {
		return nil
	}
	if len(batch) == 1 {
		return l.classifySingle(ctx, batch[0], out)
	}

	assignments, err := l.request(ctx, batch)
	if err != nil {
		zap.L().Warn("batch classification failed, splitting",
			zap.Int("batch_size", len(batch)),
			zap.Error(err),
		)
		mid := len(batch) / 2
		if err := l.classifyBatch(ctx, batch[:mid], out); err != nil {
			return err
		}
		return l.classifyBatch(ctx, batch[mid:], out)
	}

	l.apply(assignments, batch, out)
	return nil
}

// classifySingle retries one stubborn article with backoff, then drops it.
func (l *LLMClassifier) classifySingle(ctx context.Context, c candidate, out model.Categorized) error {
	retries := l.maxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = retries
	cfg.ShouldRetry = func(error) bool { return true }
	cfg.OnRetry = resilience.RetryLogger("classify", "single")

	assignments, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (map[int][]int, error) {
		return l.request(ctx, []candidate{c})
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		zap.L().Warn("article classification failed, dropping",
			zap.String("article", c.url),
			zap.Error(err),
		)
		return nil
	}
	l.apply(assignments, []candidate{c}, out)
	return nil
}

// request sends one batch and parses {categoryIndex: [articleIndices]}.
func (l *LLMClassifier) request(ctx context.Context, batch []candidate) (map[int][]int, error) {
	resp, err := l.llm.Generate(ctx, llm.Request{
		System:    classifySystem,
		Prompt:    l.prompt(batch),
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, err
	}
	return parseAssignments(resp, len(batch))
}

func (l *LLMClassifier) prompt(batch []candidate) string {
	var b strings.Builder
	b.WriteString("Categories (index: name):\n")
	for i, name := range model.Categories {
		fmt.Fprintf(&b, "%d: %s\n", i, name)
	}
	b.WriteString("\nArticles (index: title / excerpt):\n")
	for i, c := range batch {
		fmt.Fprintf(&b, "%d: %s / %s\n", i, c.article.Title, excerpt(c.article.Body, 300))
	}
	b.WriteString("\nAssign every article to one or more categories. " +
		"Respond with a JSON object mapping category index to the list of " +
		"article indices, e.g. {\"0\": [1, 3], \"7\": [0]}. " +
		"Use only the indices listed above.")
	return b.String()
}

func (l *LLMClassifier) apply(assignments map[int][]int, batch []candidate, out model.Categorized) {
	for catIdx, articleIdxs := range assignments {
		for _, i := range articleIdxs {
			assign(out, model.Categories[catIdx], batch[i])
		}
	}
}

// parseAssignments strictly parses the model response and bounds-checks
// every index. Any violation fails the whole batch.
func parseAssignments(resp string, batchLen int) (map[int][]int, error) {
	var raw map[string][]int
	if err := json.Unmarshal([]byte(llm.CleanJSON(resp)), &raw); err != nil {
		return nil, eris.Wrap(err, "classify: parse response")
	}
	out := make(map[int][]int, len(raw))
	for key, idxs := range raw {
		catIdx, err := strconv.Atoi(key)
		if err != nil {
			return nil, eris.Errorf("classify: non-integer category key %q", key)
		}
		if catIdx < 0 || catIdx >= len(model.Categories) {
			return nil, eris.Errorf("classify: category index %d out of range", catIdx)
		}
		for _, i := range idxs {
			if i < 0 || i >= batchLen {
				return nil, eris.Errorf("classify: article index %d out of range", i)
			}
		}
		out[catIdx] = idxs
	}
	return out, nil
}
