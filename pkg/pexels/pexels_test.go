package pexels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSearchPhotos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"photos":[
			{"src":{"large":"https://images.pexels.com/a"}},
			{"src":{"large":""}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL), WithRateLimit(rate.NewLimiter(rate.Inf, 1)))
	urls, err := c.SearchPhotos(context.Background(), "harbor", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://images.pexels.com/a"}, urls)
}

func TestSearchPhotos_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL), WithRateLimit(rate.NewLimiter(rate.Inf, 1)))
	_, err := c.SearchPhotos(context.Background(), "q", 1)
	assert.Error(t, err)
}
