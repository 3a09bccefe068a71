// Package scraper fetches news seed pages, discovers outbound article links,
// and extracts dated article content for a half-day window.
package scraper

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/window"
)

// Scraper turns seed URLs into per-seed article maps for one window.
type Scraper struct {
	fetcher *Fetcher
}

// New creates a Scraper from scrape configuration.
func New(cfg config.ScrapeConfig) *Scraper {
	return &Scraper{fetcher: NewFetcher(cfg)}
}

// Fetcher exposes the underlying fetcher, for stats dumping.
func (s *Scraper) Fetcher() *Fetcher { return s.fetcher }

// ScrapeSeed fetches one seed page and every dated outbound article on it
// that falls inside w. Per-article failures are recorded as error strings
// in the returned map; only a seed-level failure returns an error.
func (s *Scraper) ScrapeSeed(ctx context.Context, seedURL string, w window.ID) (map[string]model.ScrapeItem, error) {
	body, err := s.fetcher.Fetch(ctx, seedURL)
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: fetch seed %s", seedURL)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "scraper: parse seed %s", seedURL)
	}

	links := extractLinks(doc, seedURL)
	zap.L().Debug("seed links discovered",
		zap.String("seed", seedURL),
		zap.Int("count", len(links)),
	)

	items := make(map[string]model.ScrapeItem)
	for _, link := range links {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}
		item, include := s.scrapeArticle(ctx, link, w)
		if include {
			items[link] = item
		}
	}
	return items, nil
}

// scrapeArticle fetches one candidate link, checks its publication date
// against the window's inclusive bounds, and extracts the article. Links
// with no detectable date or a date outside the window are silently
// dropped; other failures are recorded as error strings.
func (s *Scraper) scrapeArticle(ctx context.Context, link string, w window.ID) (model.ScrapeItem, bool) {
	body, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return model.ScrapeItem{Error: err.Error()}, true
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.ScrapeItem{Error: eris.Wrap(err, "scraper: parse article").Error()}, true
	}

	published := publicationDate(doc)
	if published.IsZero() || !w.Contains(published) {
		return model.ScrapeItem{}, false
	}

	article, err := extractArticle(doc)
	if err != nil {
		return model.ScrapeItem{Error: err.Error()}, true
	}
	return model.ScrapeItem{Article: article}, true
}

// extractLinks collects deduplicated absolute http(s) links from anchors,
// resolved against the seed URL. The seed itself and pure fragments are
// skipped.
func extractLinks(doc *goquery.Document, seedURL string) []string {
	base, err := url.Parse(seedURL)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""
		full := resolved.String()
		if full == seedURL {
			return
		}
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		links = append(links, full)
	})
	return links
}
