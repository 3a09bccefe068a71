// Package embed provides the text-to-fixed-length-vector function used for
// relevance scoring and category assignment.
package embed

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/config"
)

// Client converts text into a fixed-length vector.
type Client interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// New creates the embedder selected by cfg.
func New(ctx context.Context, cfg config.EmbedConfig) (Client, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg)
	case "http":
		return NewHTTP(cfg), nil
	default:
		return nil, eris.Errorf("embed: unknown provider %q", cfg.Provider)
	}
}

// Cosine returns the cosine similarity of two vectors, or 0 when either is
// empty, zero-length, or the dimensions differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
