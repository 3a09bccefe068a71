package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/resilience"
)

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed client.
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Generate sends the prompt and returns the response text. Transient
// provider failures are retried with backoff.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: req.Prompt}}, Role: genai.RoleUser},
	}

	var genCfg *genai.GenerateContentConfig
	if req.System != "" || req.MaxTokens > 0 {
		genCfg = &genai.GenerateContentConfig{}
		if req.System != "" {
			genCfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: req.System}},
			}
		}
		if req.MaxTokens > 0 {
			genCfg.MaxOutputTokens = int32(req.MaxTokens)
		}
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("gemini", "generate")

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	})
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate")
	}
	return resp.Text(), nil
}
