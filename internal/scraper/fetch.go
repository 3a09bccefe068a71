package scraper

import (
	"context"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/resilience"
)

const maxPageBytes = 2 * 1024 * 1024

// userAgents is the rotating pool for ordinary requests.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36 Edg/121.0.0.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

const googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

// Strategy names for the anti-blocking ladder, tried in order after the
// standard attempt (with retries) has failed.
const (
	strategyStandard  = "standard"
	strategyProxy     = "proxy_stripped_query"
	strategyBare      = "bare_headers"
	strategyGooglebot = "googlebot"
)

var ladder = []string{strategyStandard, strategyProxy, strategyBare, strategyGooglebot}

// strategyStats counts request outcomes per ladder strategy.
type strategyStats struct {
	Success int
	Failure int
}

// Fetcher performs outbound page fetches with a rotating user-agent,
// optional proxies, pre-request delays, and a multi-strategy fallback
// ladder. Outcome counts per strategy are kept in memory and dumped
// periodically for observability.
type Fetcher struct {
	cfg     config.ScrapeConfig
	client  *http.Client
	proxies []string

	mu        sync.Mutex
	nextProxy int
	stats     map[string]*strategyStats
}

// NewFetcher creates a Fetcher from scrape configuration.
func NewFetcher(cfg config.ScrapeConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	stats := make(map[string]*strategyStats, len(ladder))
	for _, s := range ladder {
		stats[s] = &strategyStats{}
	}
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		proxies: cfg.Proxies,
		stats:   stats,
	}
}

// Fetch retrieves targetURL. The standard strategy is retried with
// exponential backoff; if it still fails, the remaining ladder strategies
// are attempted once each.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	f.sleep(ctx)

	retryCfg := resilience.ScrapeRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("scraper", "fetch")

	body, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]byte, error) {
		return f.attempt(ctx, strategyStandard, targetURL)
	})
	if err == nil {
		return body, nil
	}

	for _, strategy := range ladder[1:] {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.sleep(ctx)
		if body, err = f.attempt(ctx, strategy, targetURL); err == nil {
			return body, nil
		}
	}
	return nil, eris.Wrapf(err, "scraper: all strategies failed for %s", targetURL)
}

// attempt performs one request under the named strategy and records the
// outcome.
func (f *Fetcher) attempt(ctx context.Context, strategy, targetURL string) ([]byte, error) {
	client := f.client
	reqURL := targetURL

	switch strategy {
	case strategyProxy:
		proxy := f.pickProxy()
		if proxy == "" {
			return nil, eris.New("scraper: no proxies configured")
		}
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, eris.Wrapf(err, "scraper: bad proxy %s", proxy)
		}
		client = &http.Client{
			Timeout:   f.client.Timeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
		reqURL = stripQuery(targetURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scraper: create request")
	}
	f.setHeaders(req, strategy)

	resp, err := client.Do(req)
	if err != nil {
		f.record(strategy, false)
		return nil, eris.Wrapf(err, "scraper: %s fetch", strategy)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		f.record(strategy, false)
		return nil, eris.Wrapf(err, "scraper: %s read body", strategy)
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		f.record(strategy, false)
		return nil, resilience.NewTransientError(
			eris.Errorf("scraper: %s status %d", strategy, resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		f.record(strategy, false)
		return nil, eris.Errorf("scraper: %s status %d", strategy, resp.StatusCode)
	}

	f.record(strategy, true)
	return body, nil
}

func (f *Fetcher) setHeaders(req *http.Request, strategy string) {
	switch strategy {
	case strategyGooglebot:
		req.Header.Set("User-Agent", googlebotUA)
	case strategyBare:
		// Hand-built header set mimicking a plain browser session.
		req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	default:
		req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
	}
}

// sleep pauses for a random interval in [delay_min, delay_max] before a
// request, respecting cancellation.
func (f *Fetcher) sleep(ctx context.Context) {
	lo, hi := f.cfg.DelayMinMS, f.cfg.DelayMaxMS
	if hi <= lo {
		return
	}
	d := time.Duration(lo+rand.IntN(hi-lo)) * time.Millisecond
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (f *Fetcher) pickProxy() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.proxies) == 0 {
		return ""
	}
	p := f.proxies[f.nextProxy%len(f.proxies)]
	f.nextProxy++
	return p
}

func (f *Fetcher) record(strategy string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stats[strategy]
	if s == nil {
		s = &strategyStats{}
		f.stats[strategy] = s
	}
	if ok {
		s.Success++
	} else {
		s.Failure++
	}
}

// DumpStats logs the per-strategy outcome table.
func (f *Fetcher) DumpStats() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, strategy := range ladder {
		s := f.stats[strategy]
		if s == nil || (s.Success == 0 && s.Failure == 0) {
			continue
		}
		zap.L().Info("scraper strategy stats",
			zap.String("strategy", strategy),
			zap.Int("success", s.Success),
			zap.Int("failure", s.Failure),
		)
	}
}

// StartStatsDump dumps the strategy table on an interval until ctx ends.
func (f *Fetcher) StartStatsDump(ctx context.Context) {
	interval := time.Duration(f.cfg.StatsIntervalSecs) * time.Second
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.DumpStats()
			}
		}
	}()
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
