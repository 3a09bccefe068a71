// Package pipeline sequences the six processing stages for one window,
// gating each stage on the existence of its checkpoint so an interrupted
// run resumes where it stopped.
package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/envisage-news/envisage-cli/internal/docstore"
	"github.com/envisage-news/envisage-cli/internal/model"
	"github.com/envisage-news/envisage-cli/internal/sources"
	"github.com/envisage-news/envisage-cli/internal/webview"
	"github.com/envisage-news/envisage-cli/internal/window"
)

// Scraper produces the article map for one seed URL.
type Scraper interface {
	ScrapeSeed(ctx context.Context, seedURL string, w window.ID) (map[string]model.ScrapeItem, error)
}

// RelevanceFilter produces the 0/1 relevance mask.
type RelevanceFilter interface {
	Apply(ctx context.Context, seedMap model.ScrapeMap) (model.Mask, error)
}

// Classifier buckets relevant articles into categories.
type Classifier interface {
	Classify(ctx context.Context, seedMap model.ScrapeMap, mask model.Mask) (model.Categorized, error)
}

// Summarizer runs the two summary passes.
type Summarizer interface {
	Pass1(ctx context.Context, categorized model.Categorized) (model.ResultDoc, error)
	Pass2(ctx context.Context, w window.ID, result model.ResultDoc) (model.SummaryDoc, error)
}

// Thumbnailer fills the images lists of a web document.
type Thumbnailer interface {
	Process(ctx context.Context, w window.ID, doc model.WebDoc) (model.WebDoc, error)
}

// Replicator mirrors a web document into the relational store.
type Replicator interface {
	UpdateForDate(ctx context.Context, w window.ID, doc model.WebDoc) error
}

// Pipeline wires the stages around the document store.
type Pipeline struct {
	store      docstore.Store
	scraper    Scraper
	filter     RelevanceFilter
	classifier Classifier
	summarizer Summarizer
	thumbs     Thumbnailer
	replicator Replicator
	groups     sources.Groups
}

// New assembles a Pipeline. thumbs and replicator may be nil, in which
// case those stages are skipped with a warning.
func New(
	store docstore.Store,
	scr Scraper,
	filter RelevanceFilter,
	classifier Classifier,
	summarizer Summarizer,
	thumbs Thumbnailer,
	replicator Replicator,
	groups sources.Groups,
) *Pipeline {
	return &Pipeline{
		store:      store,
		scraper:    scr,
		filter:     filter,
		classifier: classifier,
		summarizer: summarizer,
		thumbs:     thumbs,
		replicator: replicator,
		groups:     groups,
	}
}

// Run executes the stage sequence for w. The first failing stage aborts
// the run with a one-line log; checkpoints already written stay in place
// for the next attempt.
func (p *Pipeline) Run(ctx context.Context, w window.ID) error {
	stages := []struct {
		name string
		fn   func(context.Context, window.ID) error
	}{
		{"categorize", p.Categorize},
		{"summarize_articles", p.SummarizeArticles},
		{"summarize_window", p.SummarizeWindow},
		{"webview", p.BuildWebView},
		{"thumbnails", p.Thumbnails},
		{"replicate", p.Replicate},
	}
	for _, stage := range stages {
		if err := stage.fn(ctx, w); err != nil {
			zap.L().Error("pipeline stage failed",
				zap.String("stage", stage.name),
				zap.String("window", w.String()),
				zap.Error(err),
			)
			return eris.Wrapf(err, "pipeline: stage %s", stage.name)
		}
	}
	zap.L().Info("pipeline run complete", zap.String("window", w.String()))
	return nil
}

// Categorize covers scraping, relevance filtering, and categorization;
// the three share one checkpoint because only the categorized map is
// consumed downstream.
func (p *Pipeline) Categorize(ctx context.Context, w window.ID) error {
	key := docstore.CategorizedKey(w)
	exists, err := p.store.Exists(ctx, docstore.CollectionPipeline, key)
	if err != nil {
		return err
	}
	if exists {
		zap.L().Info("categorized articles present, skipping scrape", zap.String("window", w.String()))
		return nil
	}

	seedMap, err := p.scrapeAll(ctx, w)
	if err != nil {
		return err
	}
	mask, err := p.filter.Apply(ctx, seedMap)
	if err != nil {
		return eris.Wrap(err, "relevance filter")
	}
	categorized, err := p.classifier.Classify(ctx, seedMap, mask)
	if err != nil {
		return eris.Wrap(err, "classify")
	}
	return p.store.Upsert(ctx, docstore.CollectionPipeline, key, categorized)
}

// scrapeAll runs one worker per source group and merges the results. A
// failed group is logged and contributes nothing; scraping fails outright
// only when every group fails.
func (p *Pipeline) scrapeAll(ctx context.Context, w window.ID) (model.ScrapeMap, error) {
	merged := make(model.ScrapeMap)
	var mu sync.Mutex
	var failures int

	g, gctx := errgroup.WithContext(ctx)
	for _, group := range p.groups.Names() {
		seeds := p.groups[group]
		g.Go(func() error {
			groupMap := make(model.ScrapeMap, len(seeds))
			for _, seed := range seeds {
				items, err := p.scraper.ScrapeSeed(gctx, seed, w)
				if err != nil {
					zap.L().Warn("seed scrape failed",
						zap.String("group", group),
						zap.String("seed", seed),
						zap.Error(err),
					)
					continue
				}
				groupMap[seed] = items
			}
			mu.Lock()
			if len(groupMap) == 0 {
				failures++
			}
			merged.Merge(groupMap)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(p.groups) > 0 && failures == len(p.groups) {
		return nil, eris.New("scrape: every source group failed")
	}
	return merged, nil
}

func (p *Pipeline) SummarizeArticles(ctx context.Context, w window.ID) error {
	key := docstore.ResultKey(w)
	exists, err := p.store.Exists(ctx, docstore.CollectionPipeline, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var categorized model.Categorized
	found, err := p.store.Get(ctx, docstore.CollectionPipeline, docstore.CategorizedKey(w), &categorized)
	if err != nil {
		return err
	}
	if !found {
		zap.L().Info("no categorized articles, skipping article summaries", zap.String("window", w.String()))
		return nil
	}

	result, err := p.summarizer.Pass1(ctx, categorized)
	if err != nil {
		return err
	}
	return p.store.Upsert(ctx, docstore.CollectionPipeline, key, result)
}

func (p *Pipeline) SummarizeWindow(ctx context.Context, w window.ID) error {
	key := docstore.SummaryKey(w)
	exists, err := p.store.Exists(ctx, docstore.CollectionPipeline, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var result model.ResultDoc
	found, err := p.store.Get(ctx, docstore.CollectionPipeline, docstore.ResultKey(w), &result)
	if err != nil {
		return err
	}
	if !found {
		zap.L().Info("no article summaries, skipping window summary", zap.String("window", w.String()))
		return nil
	}

	summary, err := p.summarizer.Pass2(ctx, w, result)
	if err != nil {
		return err
	}
	// Only a well-formed summary or the explicit no-content sentinel may
	// be checkpointed.
	if summary.Empty() && summary.OverallIntroduction != model.NoContentIntroduction {
		return eris.New("summary has no categories and no sentinel introduction")
	}
	return p.store.Upsert(ctx, docstore.CollectionPipeline, key, summary)
}

func (p *Pipeline) BuildWebView(ctx context.Context, w window.ID) error {
	key := docstore.WebKey(w)
	exists, err := p.store.Exists(ctx, docstore.CollectionWeb, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var summary model.SummaryDoc
	found, err := p.store.Get(ctx, docstore.CollectionPipeline, docstore.SummaryKey(w), &summary)
	if err != nil {
		return err
	}
	if !found {
		zap.L().Info("no window summary, skipping web view", zap.String("window", w.String()))
		return nil
	}

	doc, err := webview.Build(w, summary)
	if err != nil {
		if eris.Is(err, webview.ErrEmptySummary) {
			zap.L().Info("empty summary, no web view materialized", zap.String("window", w.String()))
			return nil
		}
		return err
	}
	return p.store.Upsert(ctx, docstore.CollectionWeb, key, doc)
}

func (p *Pipeline) Thumbnails(ctx context.Context, w window.ID) error {
	doc, found, err := p.webDoc(ctx, w)
	if err != nil || !found {
		return err
	}

	pending := false
	for _, item := range doc.NewsItems {
		if item.NeedsImages() {
			pending = true
			break
		}
	}
	if !pending {
		return nil
	}
	if p.thumbs == nil {
		zap.L().Warn("thumbnail stage not configured, skipping", zap.String("window", w.String()))
		return nil
	}

	updated, err := p.thumbs.Process(ctx, w, doc)
	if err != nil {
		return err
	}
	return p.store.Upsert(ctx, docstore.CollectionWeb, docstore.WebKey(w), updated)
}

func (p *Pipeline) Replicate(ctx context.Context, w window.ID) error {
	doc, found, err := p.webDoc(ctx, w)
	if err != nil || !found {
		return err
	}
	if p.replicator == nil {
		zap.L().Warn("replication not configured, skipping", zap.String("window", w.String()))
		return nil
	}
	return p.replicator.UpdateForDate(ctx, w, doc)
}

func (p *Pipeline) webDoc(ctx context.Context, w window.ID) (model.WebDoc, bool, error) {
	var doc model.WebDoc
	found, err := p.store.Get(ctx, docstore.CollectionWeb, docstore.WebKey(w), &doc)
	if err != nil {
		return model.WebDoc{}, false, err
	}
	return doc, found, nil
}
