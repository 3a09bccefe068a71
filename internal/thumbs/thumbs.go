// Package thumbs acquires thumbnail images for each news item of a window:
// model-suggested search phrases, stock-photo search, local staging, object
// storage upload, and finally URL mapping back into the web document.
package thumbs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/llm"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/window"
)

const defaultMaxImages = 10

// stagingRoot is the local directory tree images are downloaded into
// before upload, unless overridden by configuration.
const stagingRoot = "thumbnail_images"

// Searcher is the common shape of the Unsplash and Pexels clients.
type Searcher interface {
	SearchPhotos(ctx context.Context, query string, perPage int) ([]string, error)
}

// Uploader pushes a staged directory tree to object storage.
type Uploader interface {
	Upload(ctx context.Context, localDir, prefix string) (map[string]string, error)
}

// Processor runs the thumbnail stage for one window.
type Processor struct {
	llm       llm.Client
	searchers []Searcher
	uploader  Uploader
	cfg       config.ThumbsConfig
	http      *http.Client
}

// New creates a Processor. searchers are consulted in order; later ones
// only make up a shortfall from earlier ones.
func New(client llm.Client, searchers []Searcher, uploader Uploader, cfg config.ThumbsConfig) *Processor {
	return &Processor{
		llm:       client,
		searchers: searchers,
		uploader:  uploader,
		cfg:       cfg,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Process downloads and uploads thumbnails for every news item that does
// not have an images list yet, and returns the document with images set on
// every item (possibly empty lists). Items that already have images are
// left untouched.
func (p *Processor) Process(ctx context.Context, w window.ID, doc model.WebDoc) (model.WebDoc, error) {
	pending := 0
	for _, item := range doc.NewsItems {
		if item.NeedsImages() {
			pending++
		}
	}
	if pending == 0 {
		return doc, nil
	}

	windowDir := filepath.Join(p.stagingDir(), w.PathComponent())
	if err := os.MkdirAll(windowDir, 0o755); err != nil {
		return doc, eris.Wrap(err, "thumbs: create staging dir")
	}
	defer func() { _ = os.RemoveAll(windowDir) }()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.PoolSize())
	for i := range doc.NewsItems {
		if !doc.NewsItems[i].NeedsImages() {
			continue
		}
		item := doc.NewsItems[i]
		g.Go(func() error {
			p.stageItem(gctx, windowDir, item)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return doc, err
	}

	uploaded, err := p.uploader.Upload(ctx, windowDir, w.String())
	if err != nil {
		return doc, eris.Wrap(err, "thumbs: upload staged images")
	}
	byID := groupByLeadingID(uploaded)

	for i := range doc.NewsItems {
		item := &doc.NewsItems[i]
		if !item.NeedsImages() {
			continue
		}
		urls := byID[item.ID]
		if urls == nil {
			urls = []string{}
		}
		item.Images = &urls
	}
	return doc, nil
}

// stageItem downloads up to the image quota for one news item into
// {windowDir}/{id}_{category_underscored}/. Failures are logged and leave
// the item with fewer (possibly zero) staged files.
func (p *Processor) stageItem(ctx context.Context, windowDir string, item model.NewsItem) {
	urls := p.searchImages(ctx, item)
	if len(urls) == 0 {
		zap.L().Warn("no images found for item",
			zap.Int("id", item.ID),
			zap.String("category", item.Category),
		)
		return
	}

	itemDir := filepath.Join(windowDir, itemFolder(item))
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		zap.L().Warn("staging dir for item failed", zap.Int("id", item.ID), zap.Error(err))
		return
	}

	quota := p.maxImages()
	saved := 0
	for _, u := range urls {
		if saved >= quota || ctx.Err() != nil {
			break
		}
		name := fmt.Sprintf("%s_%d.jpg", strings.ToLower(strings.ReplaceAll(item.Category, " ", "_")), saved)
		if err := p.download(ctx, u, filepath.Join(itemDir, name)); err != nil {
			zap.L().Debug("image download failed, skipping",
				zap.String("url", u),
				zap.Error(err),
			)
			continue
		}
		saved++
	}
}

// searchImages gathers candidate URLs across phrases and searchers until
// the quota is met, dropping premium and profile links.
func (p *Processor) searchImages(ctx context.Context, item model.NewsItem) []string {
	quota := p.maxImages()
	phrases := p.searchPhrases(ctx, item)

	var urls []string
	seen := make(map[string]struct{})
	for _, searcher := range p.searchers {
		if len(urls) >= quota {
			break
		}
		for _, phrase := range phrases {
			if len(urls) >= quota || ctx.Err() != nil {
				return urls
			}
			found, err := searcher.SearchPhotos(ctx, phrase, quota)
			if err != nil {
				zap.L().Warn("image search failed",
					zap.String("phrase", phrase),
					zap.Error(err),
				)
				continue
			}
			for _, u := range found {
				if len(urls) >= quota {
					break
				}
				if !usableImageURL(u) {
					continue
				}
				if _, dup := seen[u]; dup {
					continue
				}
				seen[u] = struct{}{}
				urls = append(urls, u)
			}
		}
	}
	return urls
}

func (p *Processor) download(ctx context.Context, imageURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return eris.Wrap(err, "thumbs: create request")
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "thumbs: get image")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("thumbs: image status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "thumbs: create file")
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return eris.Wrap(err, "thumbs: write file")
	}
	return f.Close()
}

func (p *Processor) stagingDir() string {
	if p.cfg.StagingDir != "" {
		return p.cfg.StagingDir
	}
	return stagingRoot
}

func (p *Processor) maxImages() int {
	if p.cfg.MaxImages > 0 {
		return p.cfg.MaxImages
	}
	return defaultMaxImages
}

// itemFolder names an item's staging folder "{id}_{category}" with spaces
// underscored; the leading id is what maps uploaded URLs back to items.
func itemFolder(item model.NewsItem) string {
	return fmt.Sprintf("%d_%s", item.ID, strings.ReplaceAll(item.Category, " ", "_"))
}

// groupByLeadingID buckets uploaded URLs by the numeric id prefix of their
// top-level folder.
func groupByLeadingID(uploaded map[string]string) map[int][]string {
	out := make(map[int][]string)
	for rel, publicURL := range uploaded {
		folder, _, ok := strings.Cut(rel, "/")
		if !ok {
			continue
		}
		idPart, _, ok := strings.Cut(folder, "_")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(idPart)
		if err != nil {
			continue
		}
		out[id] = append(out[id], publicURL)
	}
	for _, urls := range out {
		sort.Strings(urls)
	}
	return out
}

// usableImageURL rejects premium and profile links, which are not direct
// photo assets.
func usableImageURL(raw string) bool {
	lower := strings.ToLower(raw)
	return !strings.Contains(lower, "premium") && !strings.Contains(lower, "profile")
}
