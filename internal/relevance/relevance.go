// Package relevance scores scraped articles against the keywords implied by
// their own URLs and masks out the ones that do not match.
package relevance

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/embed"
	"github.com/envisage-news/envisage-cli/internal/model"
)

// bodyPrefixChars is how much of the body joins the title in the embedded
// comparison text.
const bodyPrefixChars = 500

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Filter scores every usable article in seedMap and returns a 0/1 mask with
// the same seed and article keys. The mask is 1 only when the cosine
// similarity between the URL keywords and the article text strictly exceeds
// threshold. Error items and embedding failures score 0.
type Filter struct {
	embedder  embed.Client
	threshold float64
}

// New creates a Filter with the given embedder and similarity threshold.
func New(embedder embed.Client, threshold float64) *Filter {
	return &Filter{embedder: embedder, threshold: threshold}
}

// Apply computes the relevance mask for a scrape map.
func (f *Filter) Apply(ctx context.Context, seedMap model.ScrapeMap) (model.Mask, error) {
	mask := make(model.Mask, len(seedMap))
	for seed, articles := range seedMap {
		mask[seed] = make(map[string]int, len(articles))
		for articleURL, item := range articles {
			mask[seed][articleURL] = 0
			if !item.OK() {
				continue
			}
			if ctx.Err() != nil {
				return mask, ctx.Err()
			}
			score, err := f.score(ctx, articleURL, item.Article)
			if err != nil {
				zap.L().Warn("relevance scoring failed",
					zap.String("article", articleURL),
					zap.Error(err),
				)
				continue
			}
			if score > f.threshold {
				mask[seed][articleURL] = 1
			}
		}
	}
	return mask, nil
}

func (f *Filter) score(ctx context.Context, articleURL string, article *model.Article) (float64, error) {
	keywords := Keywords(articleURL)
	if len(keywords) == 0 {
		return 0, nil
	}

	keyVec, err := f.embedder.Embed(ctx, strings.Join(keywords, " "))
	if err != nil {
		return 0, err
	}
	textVec, err := f.embedder.Embed(ctx, ComparisonText(article))
	if err != nil {
		return 0, err
	}
	return embed.Cosine(keyVec, textVec), nil
}

// ComparisonText is the article side of the similarity pair: the title plus
// the first 500 characters of the body.
func ComparisonText(article *model.Article) string {
	body := article.Body
	if len(body) > bodyPrefixChars {
		body = body[:bodyPrefixChars]
	}
	return article.Title + " " + body
}

// Keywords extracts lowercase tokens from a URL: scheme, www prefix, query,
// and file extension are stripped; the rest splits on non-alphanumerics and
// single-character tokens are dropped.
func Keywords(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	path := u.Path
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		path = path[:i]
	}

	var tokens []string
	for _, tok := range nonAlnum.Split(host+" "+path, -1) {
		if len(tok) > 1 {
			tokens = append(tokens, strings.ToLower(tok))
		}
	}
	return tokens
}
