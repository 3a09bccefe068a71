package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticle_WordCount(t *testing.T) {
	assert.Equal(t, 0, Article{}.WordCount())
	assert.Equal(t, 3, Article{Body: "one  two\nthree"}.WordCount())
}

func TestScrapeItem_OK(t *testing.T) {
	assert.True(t, ScrapeItem{Article: &Article{Title: "t", Body: "b"}}.OK())
	assert.False(t, ScrapeItem{Error: "boom"}.OK())
	assert.False(t, ScrapeItem{}.OK())
}

func TestScrapeMap_Merge(t *testing.T) {
	a := ScrapeMap{"s1": {"u1": {Article: &Article{Title: "a"}}}}
	b := ScrapeMap{
		"s1": {"u2": {Error: "nope"}},
		"s2": {"u3": {Article: &Article{Title: "c"}}},
	}
	a.Merge(b)
	assert.Len(t, a["s1"], 2)
	assert.Len(t, a["s2"], 1)
}

func TestCategorized_Clean(t *testing.T) {
	c := Categorized{
		"Politics": {
			"seed1": {"u1": {Title: "t", Body: "b"}},
			"seed2": {},
		},
		"Business": {
			"seed3": {},
		},
		"Health": {},
	}
	c.Clean()

	assert.Len(t, c, 1)
	assert.Contains(t, c, "Politics")
	assert.Len(t, c["Politics"], 1)
}

func TestCategorized_ArticleCount(t *testing.T) {
	c := Categorized{
		"Politics": {
			"seed1": {"u1": {}, "u2": {}},
			"seed2": {"u3": {}},
		},
	}
	assert.Equal(t, 3, c.ArticleCount("Politics"))
	assert.Equal(t, 0, c.ArticleCount("Business"))
}

func TestResultDoc_CategoryCounts(t *testing.T) {
	r := ResultDoc{
		"Politics": {
			"seed1": {{Link: "u1"}, {Link: "u2"}},
			"seed2": {{Link: "u3"}},
			"seed3": {},
		},
	}
	articles, sources := r.CategoryCounts("Politics")
	assert.Equal(t, 3, articles)
	assert.Equal(t, 2, sources)
}

func TestNewsItem_NeedsImages(t *testing.T) {
	assert.True(t, NewsItem{}.NeedsImages())
	empty := []string{}
	assert.False(t, NewsItem{Images: &empty}.NeedsImages())
}

func TestVocabulary(t *testing.T) {
	assert.Len(t, Categories, 50)
	assert.True(t, IsCategory("Politics"))
	assert.True(t, IsCategory("Obituaries"))
	assert.False(t, IsCategory("politics"))
	assert.False(t, IsCategory("Astrology"))
}
