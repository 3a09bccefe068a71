// Package unsplash provides a client for the Unsplash photo search API.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Unsplash search operations.
type Client interface {
	// SearchPhotos returns regular-size photo URLs for a query.
	SearchPhotos(ctx context.Context, query string, perPage int) ([]string, error)
}

// Option configures the Unsplash client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the request rate limit.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	accessKey string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates an Unsplash search client. The default limiter stays
// well under the demo-tier 50 requests/hour.
func NewClient(accessKey string, opts ...Option) Client {
	c := &httpClient{
		accessKey: accessKey,
		baseURL:   "https://api.unsplash.com",
		http:      &http.Client{Timeout: 20 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(90*time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// SearchPhotos queries the search endpoint and returns the regular-size
// URL of each hit.
func (c *httpClient) SearchPhotos(ctx context.Context, query string, perPage int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "unsplash: rate limit wait")
	}

	endpoint := fmt.Sprintf("%s/search/photos?query=%s&per_page=%d",
		c.baseURL, url.QueryEscape(query), perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "unsplash: create request")
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "unsplash: search request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "unsplash: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("unsplash: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "unsplash: decode response")
	}

	urls := make([]string, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URLs.Regular != "" {
			urls = append(urls, r.URLs.Regular)
		}
	}
	return urls, nil
}
