package model

// NoContentIntroduction is the sentinel introduction written when a window
// produced no articles at all. The web view builder refuses to materialize
// a document for such a summary.
const NoContentIntroduction = "No news content available for summarization."

// ArticleSummary is one per-article summary record in the Result slot.
type ArticleSummary struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary"`
}

// ResultDoc maps category -> seed URL -> per-article summaries.
type ResultDoc map[string]map[string][]ArticleSummary

// CategoryCounts returns the article and distinct-source counts for one
// category of a Result document.
func (r ResultDoc) CategoryCounts(category string) (articles, sources int) {
	for _, summaries := range r[category] {
		if len(summaries) == 0 {
			continue
		}
		sources++
		articles += len(summaries)
	}
	return articles, sources
}

// CategorySummary is the synthesized record for one category in one window.
type CategorySummary struct {
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	ArticleCount int    `json:"article_count"`
	SourceCount  int    `json:"source_count"`
}

// SummaryDoc is the structured per-window summary (the Summary slot).
type SummaryDoc struct {
	OverallIntroduction string                     `json:"overall_introduction"`
	Categories          map[string]CategorySummary `json:"categories"`
	OverallConclusion   string                     `json:"overall_conclusion"`
}

// Empty reports whether the document is the no-content sentinel.
func (s SummaryDoc) Empty() bool {
	return len(s.Categories) == 0
}

// NewsItem is the display-level record for one category within one window.
// Images is set only by the thumbnail stage; a nil pointer means the stage
// has not run for this item yet, while a pointer to an empty slice means it
// ran and found nothing.
type NewsItem struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	Date         string    `json:"date"`
	Views        int       `json:"views"`
	IsRead       bool      `json:"isRead"`
	ArticleCount int       `json:"articleCount"`
	SourceCount  int       `json:"sourceCount"`
	Images       *[]string `json:"images,omitempty"`
}

// NeedsImages reports whether the thumbnail stage still has to process this
// item.
func (n NewsItem) NeedsImages() bool {
	return n.Images == nil
}

// WebDoc is the flat web-display document (the envisage_web slot).
type WebDoc struct {
	Date                string     `json:"date"`
	OverallIntroduction string     `json:"overall_introduction"`
	OverallConclusion   string     `json:"overall_conclusion"`
	NewsItems           []NewsItem `json:"newsItems"`
}
