package embed

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/resilience"
)

// GeminiEmbedder implements Client on the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed embedder.
func NewGemini(ctx context.Context, cfg config.EmbedConfig) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "embed: create gemini client")
	}
	return &GeminiEmbedder{client: client, model: cfg.Model}, nil
}

// Embed returns the embedding vector for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: text}}},
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("gemini", "embed")

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*genai.EmbedContentResponse, error) {
		return e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	})
	if err != nil {
		return nil, eris.Wrap(err, "embed: gemini embed")
	}
	if len(resp.Embeddings) == 0 {
		return nil, eris.New("embed: gemini returned no embeddings")
	}

	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}
