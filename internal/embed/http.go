package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/resilience"
)

// HTTPEmbedder implements Client against an OpenAI-compatible embeddings
// endpoint, for self-hosted sentence-embedding services.
type HTTPEmbedder struct {
	endpoint string
	model    string
	key      string
	http     *http.Client
}

// NewHTTP creates an embedder that POSTs to cfg.Endpoint.
func NewHTTP(cfg config.EmbedConfig) *HTTPEmbedder {
	return &HTTPEmbedder{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		key:      cfg.Key,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Embed returns the embedding vector for text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	payload, err := json.Marshal(map[string]any{
		"model": e.model,
		"input": text,
	})
	if err != nil {
		return nil, eris.Wrap(err, "embed: marshal request")
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("embed_http", "embed")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]float64, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "embed: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		if e.key != "" {
			req.Header.Set("Authorization", "Bearer "+e.key)
		}

		resp, err := e.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "embed: post")
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
		if err != nil {
			return nil, eris.Wrap(err, "embed: read body")
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(
				eris.Errorf("embed: status %d", resp.StatusCode), resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("embed: status %d", resp.StatusCode)
		}

		var parsed struct {
			Data []struct {
				Embedding []float64 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, eris.Wrap(err, "embed: decode response")
		}
		if len(parsed.Data) == 0 {
			return nil, eris.New("embed: empty response")
		}
		return parsed.Data[0].Embedding, nil
	})
}
