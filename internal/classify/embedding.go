package classify

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/embed"
	"github.com/envisage-news/envisage-cli/internal/model"
)

// EmbeddingClassifier assigns each article to the single category whose
// name embedding is closest by cosine similarity.
type EmbeddingClassifier struct {
	embedder embed.Client

	// categoryVecs is computed once per Classify call; the vocabulary is
	// fixed so there is no invalidation concern.
	categoryVecs [][]float64
}

// Classify embeds the vocabulary once, then each relevant article, and
// picks the argmax category. Articles whose embedding fails are dropped
// with a warning.
func (e *EmbeddingClassifier) Classify(ctx context.Context, seedMap model.ScrapeMap, mask model.Mask) (model.Categorized, error) {
	if err := e.embedCategories(ctx); err != nil {
		return nil, err
	}

	out := make(model.Categorized)
	for _, c := range candidates(seedMap, mask) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		vec, err := e.embedder.Embed(ctx, embeddingText(c.article))
		if err != nil {
			zap.L().Warn("article embedding failed, dropping",
				zap.String("article", c.url),
				zap.Error(err),
			)
			continue
		}
		if best := e.argmax(vec); best >= 0 {
			assign(out, model.Categories[best], c)
		}
	}
	return out.Clean(), nil
}

func (e *EmbeddingClassifier) embedCategories(ctx context.Context) error {
	if e.categoryVecs != nil {
		return nil
	}
	vecs := make([][]float64, len(model.Categories))
	for i, name := range model.Categories {
		vec, err := e.embedder.Embed(ctx, name)
		if err != nil {
			return eris.Wrapf(err, "classify: embed category %q", name)
		}
		vecs[i] = vec
	}
	e.categoryVecs = vecs
	return nil
}

func (e *EmbeddingClassifier) argmax(vec []float64) int {
	best, bestScore := -1, -2.0
	for i, catVec := range e.categoryVecs {
		if score := embed.Cosine(vec, catVec); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
