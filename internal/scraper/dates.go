package scraper

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ldJSONDateKeys are probed in order inside ld+json blocks.
var ldJSONDateKeys = []string{"datePublished", "dateModified", "dateCreated", "uploadDate"}

// metaDateKeys match the property or name attribute of <meta> tags.
var metaDateKeys = []string{
	"article:published_time", "pubdate", "publishdate", "timestamp", "date",
}

// textDatePatterns scan visible page text as a last resort.
var textDatePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\b(\d{1,2} (?:January|February|March|April|May|June|July|August|September|October|November|December) \d{4})\b`), "2 January 2006"},
	{regexp.MustCompile(`\b((?:January|February|March|April|May|June|July|August|September|October|November|December) \d{1,2}, \d{4})\b`), "January 2, 2006"},
	{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})`), "2006-01-02T15:04:05"},
	{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), "2006-01-02"},
	{regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`), "01/02/2006"},
	{regexp.MustCompile(`\b(\d{4}/\d{2}/\d{2})\b`), "2006/01/02"},
}

// publicationDate probes an article page for its publication time. Probing
// order: ld+json structured data, meta tags, <time datetime>, then regex
// scans of the page text. Returns the zero time when nothing parses.
func publicationDate(doc *goquery.Document) time.Time {
	if t, ok := dateFromLDJSON(doc); ok {
		return t
	}
	if t, ok := dateFromMeta(doc); ok {
		return t
	}
	if t, ok := dateFromTimeTag(doc); ok {
		return t
	}
	if t, ok := dateFromText(doc); ok {
		return t
	}
	return time.Time{}
}

func dateFromLDJSON(doc *goquery.Document) (time.Time, bool) {
	var found time.Time
	var ok bool
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		if raw := findDateField(payload); raw != "" {
			if t, perr := parseDateString(raw); perr == nil {
				found, ok = t, true
				return false
			}
		}
		return true
	})
	return found, ok
}

// findDateField walks decoded JSON looking for the first known date key.
func findDateField(v any) string {
	switch node := v.(type) {
	case map[string]any:
		for _, key := range ldJSONDateKeys {
			if raw, present := node[key].(string); present && raw != "" {
				return raw
			}
		}
		for _, child := range node {
			if raw := findDateField(child); raw != "" {
				return raw
			}
		}
	case []any:
		for _, child := range node {
			if raw := findDateField(child); raw != "" {
				return raw
			}
		}
	}
	return ""
}

func dateFromMeta(doc *goquery.Document) (time.Time, bool) {
	var found time.Time
	var ok bool
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := strings.ToLower(s.AttrOr("property", s.AttrOr("name", "")))
		for _, key := range metaDateKeys {
			if name != key {
				continue
			}
			if t, err := parseDateString(s.AttrOr("content", "")); err == nil {
				found, ok = t, true
				return false
			}
		}
		return true
	})
	return found, ok
}

func dateFromTimeTag(doc *goquery.Document) (time.Time, bool) {
	var found time.Time
	var ok bool
	doc.Find("time[datetime]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t, err := parseDateString(s.AttrOr("datetime", "")); err == nil {
			found, ok = t, true
			return false
		}
		return true
	})
	return found, ok
}

func dateFromText(doc *goquery.Document) (time.Time, bool) {
	text := doc.Text()
	for _, p := range textDatePatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			if t, err := time.Parse(p.layout, m[1]); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// parseDateString parses machine-readable date strings. Timezone offsets
// are dropped so that all comparisons stay naive wall-clock.
func parseDateString(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	raw = stripZone(raw)
	layouts := []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"2 January 2006",
		"January 2, 2006",
		"01/02/2006",
		"2006/01/02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// stripZone removes a trailing Z or ±HH:MM offset from an ISO timestamp.
func stripZone(raw string) string {
	if len(raw) < 11 || raw[10] != 'T' && raw[10] != ' ' {
		return raw
	}
	if i := strings.IndexAny(raw[11:], "Z+"); i >= 0 {
		return raw[:11+i]
	}
	// A '-' after the time portion is an offset, not a date separator.
	if i := strings.LastIndex(raw, "-"); i > 10 {
		return raw[:i]
	}
	return raw
}
