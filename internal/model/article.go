// Package model holds the data shapes persisted between pipeline stages.
package model

import "strings"

// Article is a scraped news article.
type Article struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// WordCount counts whitespace-separated tokens in the body.
func (a Article) WordCount() int {
	return len(strings.Fields(a.Body))
}

// ScrapeItem is one entry of a scrape map: either a scraped article or the
// error string recorded for a failed article URL. Errors are retained so
// downstream stages can skip them without re-attempting the fetch.
type ScrapeItem struct {
	Article *Article `json:"article,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// OK reports whether the item holds a usable article.
func (s ScrapeItem) OK() bool {
	return s.Error == "" && s.Article != nil
}

// ScrapeMap maps seed URL -> article URL -> scrape item.
type ScrapeMap map[string]map[string]ScrapeItem

// Merge folds other into m, seed by seed.
func (m ScrapeMap) Merge(other ScrapeMap) {
	for seed, articles := range other {
		if m[seed] == nil {
			m[seed] = make(map[string]ScrapeItem, len(articles))
		}
		for u, item := range articles {
			m[seed][u] = item
		}
	}
}

// Mask maps seed URL -> article URL -> 0/1 relevance flag.
type Mask map[string]map[string]int

// Categorized maps category -> seed URL -> article URL -> article.
// An article may appear under more than one category.
type Categorized map[string]map[string]map[string]Article

// Clean repeatedly removes empty seed buckets and then empty categories,
// returning the receiver for chaining. The cleaned map is the one persisted.
func (c Categorized) Clean() Categorized {
	for cat, seeds := range c {
		for seed, articles := range seeds {
			if len(articles) == 0 {
				delete(seeds, seed)
			}
		}
		if len(seeds) == 0 {
			delete(c, cat)
		}
	}
	return c
}

// ArticleCount counts all articles under one category across seeds.
func (c Categorized) ArticleCount(category string) int {
	n := 0
	for _, articles := range c[category] {
		n += len(articles)
	}
	return n
}
