package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/model"
)

// minBodyWords is the smallest acceptable article body. Exactly this many
// words is accepted.
const minBodyWords = 20

// bodySelectors is the class cascade tried before falling back to loose
// paragraph collection.
var bodySelectors = []string{
	".article-content",
	".article-body",
	".body-content",
	".article-text",
	".content",
}

// paragraphContainers hold the fallback <p> search scopes, in order.
var paragraphContainers = []string{"main", "div#main", "div.container"}

// extractArticle pulls a title and body out of an article page.
func extractArticle(doc *goquery.Document) (*model.Article, error) {
	title, err := extractTitle(doc)
	if err != nil {
		return nil, err
	}
	body, err := extractBody(doc)
	if err != nil {
		return nil, err
	}
	article := &model.Article{Title: title, Body: body}
	if article.WordCount() < minBodyWords {
		return nil, eris.Errorf("scraper: body too short (%d words)", article.WordCount())
	}
	return article, nil
}

// extractTitle returns the first h1, else the first h2.
func extractTitle(doc *goquery.Document) (string, error) {
	for _, sel := range []string{"h1", "h2"} {
		title := strings.TrimSpace(doc.Find(sel).First().Text())
		if title != "" {
			return collapseSpace(title), nil
		}
	}
	return "", eris.New("scraper: no title found")
}

// extractBody tries the class cascade, then paragraphs under known
// containers.
func extractBody(doc *goquery.Document) (string, error) {
	for _, sel := range bodySelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if body := joinParagraphs(node); body != "" {
			return body, nil
		}
		if text := collapseSpace(node.Text()); text != "" {
			return text, nil
		}
	}
	for _, container := range paragraphContainers {
		node := doc.Find(container).First()
		if node.Length() == 0 {
			continue
		}
		if body := joinParagraphs(node); body != "" {
			return body, nil
		}
	}
	return "", eris.New("scraper: no article body found")
}

func joinParagraphs(node *goquery.Selection) string {
	var parts []string
	node.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := collapseSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
