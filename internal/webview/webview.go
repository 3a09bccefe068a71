// Package webview flattens a window's structured summary into the display
// document consumed by the front-end.
package webview

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/window"
)

// ErrEmptySummary is returned when the input is the no-content sentinel; a
// web document must never be materialized for such a window.
var ErrEmptySummary = eris.New("webview: summary has no categories")

var titleAllowed = regexp.MustCompile(`[^A-Za-z0-9 .,!?-]+`)

const (
	viewsMin = 1000
	viewsMax = 5000
)

// Build transforms a summary document into a web document. It is a pure
// transform except for the randomized view counts.
func Build(w window.ID, summary model.SummaryDoc) (model.WebDoc, error) {
	if summary.Empty() {
		return model.WebDoc{}, ErrEmptySummary
	}

	categories := make([]string, 0, len(summary.Categories))
	for c := range summary.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	items := make([]model.NewsItem, 0, len(categories))
	for i, category := range categories {
		cs := summary.Categories[category]
		items = append(items, model.NewsItem{
			ID:           i + 1,
			Title:        SanitizeTitle(cs.Title),
			Summary:      cs.Summary,
			Image:        placeholderImage(category),
			Category:     category,
			Date:         w.Date(),
			Views:        viewsMin + rand.IntN(viewsMax-viewsMin+1),
			IsRead:       false,
			ArticleCount: cs.ArticleCount,
			SourceCount:  cs.SourceCount,
		})
	}

	return model.WebDoc{
		Date:                w.Date(),
		OverallIntroduction: summary.OverallIntroduction,
		OverallConclusion:   summary.OverallConclusion,
		NewsItems:           items,
	}, nil
}

// SanitizeTitle strips characters outside [A-Za-z0-9 .,!?-] and collapses
// runs of whitespace.
func SanitizeTitle(title string) string {
	cleaned := titleAllowed.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// placeholderImage keeps the category name verbatim, spaces included; the
// front-end matches on the literal query value.
func placeholderImage(category string) string {
	return fmt.Sprintf("/placeholder.svg?height=400&width=600&category=%s", category)
}
