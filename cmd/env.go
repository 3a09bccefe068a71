package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/classify"
	"github.com/envisage-news/envisage-cli/internal/docstore"
	"github.com/envisage-news/envisage-cli/internal/embed"
	"github.com/envisage-news/envisage-cli/internal/llm"
	"github.com/envisage-news/envisage-cli/internal/pipeline"
	"github.com/envisage-news/envisage-cli/internal/relevance"
	"github.com/envisage-news/envisage-cli/internal/replicate"
	"github.com/envisage-news/envisage-cli/internal/scraper"
	"github.com/envisage-news/envisage-cli/internal/sources"
	"github.com/envisage-news/envisage-cli/internal/summarize"
	"github.com/envisage-news/envisage-cli/internal/thumbs"
	"github.com/envisage-news/envisage-cli/internal/window"
	"github.com/envisage-news/envisage-cli/pkg/gcs"
	"github.com/envisage-news/envisage-cli/pkg/pexels"
	"github.com/envisage-news/envisage-cli/pkg/unsplash"
)

// env holds the assembled pipeline and its closable resources.
type env struct {
	store      docstore.Store
	pipe       *pipeline.Pipeline
	scraper    *scraper.Scraper
	summarizer *summarize.Summarizer
	llm        llm.Client
	replicator *replicate.Replicator
	uploader   *gcs.Uploader
}

// initEnv validates credentials and wires every stage. Optional backends
// (object storage, replica database) degrade to skipped stages.
func initEnv(ctx context.Context) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	llmClient, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	embedder, err := embed.New(ctx, cfg.Embed)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	classifier, err := classify.New(cfg.Classify, embedder, llmClient)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	groups, err := sources.Load(cfg.Sources.Path)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	e := &env{
		store:      store,
		scraper:    scraper.New(cfg.Scrape),
		summarizer: summarize.New(llmClient),
		llm:        llmClient,
	}

	var thumbnailer pipeline.Thumbnailer
	if cfg.Storage.Bucket != "" {
		uploader, err := gcs.NewUploader(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.uploader = uploader

		var searchers []thumbs.Searcher
		if cfg.Thumbs.UnsplashKey != "" {
			searchers = append(searchers, unsplash.NewClient(cfg.Thumbs.UnsplashKey))
		}
		if cfg.Thumbs.PexelsKey != "" {
			searchers = append(searchers, pexels.NewClient(cfg.Thumbs.PexelsKey))
		}
		thumbnailer = thumbs.New(llmClient, searchers, uploader, cfg.Thumbs)
	} else {
		zap.L().Warn("storage.bucket not set, thumbnail stage disabled")
	}

	var replicator pipeline.Replicator
	if cfg.Replica.User != "" {
		r, err := replicate.Connect(ctx, cfg.Replica)
		if err != nil {
			e.Close()
			return nil, err
		}
		if err := r.Migrate(ctx); err != nil {
			r.Close()
			e.Close()
			return nil, err
		}
		e.replicator = r
		replicator = r
	} else {
		zap.L().Warn("replica.user not set, replication stage disabled")
	}

	e.pipe = pipeline.New(
		store,
		e.scraper,
		relevance.New(embedder, cfg.Relevance.Threshold),
		classifier,
		e.summarizer,
		thumbnailer,
		replicator,
		groups,
	)
	return e, nil
}

// Close releases every open backend.
func (e *env) Close() {
	if e.replicator != nil {
		e.replicator.Close()
	}
	if e.uploader != nil {
		_ = e.uploader.Close()
	}
	if e.store != nil {
		_ = e.store.Close()
	}
}

// addWindowFlags registers the shared window-selection flags.
func addWindowFlags(cmd *cobra.Command, date *string, all *bool) {
	cmd.Flags().StringVar(date, "date", "", "window id YYYY-MM-DD_HH:MM (default: current window)")
	cmd.Flags().BoolVar(all, "all", false, "process every window found in the store")
}

// resolveWindows turns the --date/--all flags into the window list to
// process.
func resolveWindows(ctx context.Context, store docstore.Store, date string, all bool) ([]window.ID, error) {
	if all {
		windows, err := store.ListWindows(ctx, docstore.CollectionPipeline)
		if err != nil {
			return nil, err
		}
		if len(windows) == 0 {
			return nil, eris.New("no windows found in the store")
		}
		return windows, nil
	}
	if date != "" {
		w, err := window.Parse(date)
		if err != nil {
			return nil, err
		}
		return []window.ID{w}, nil
	}
	return []window.ID{window.Current(time.Now())}, nil
}

// runPerWindow applies fn to each selected window, printing a result line
// per window. It returns an error when any window failed.
func runPerWindow(ctx context.Context, windows []window.ID, fn func(context.Context, window.ID) error) error {
	failed := 0
	for _, w := range windows {
		if err := fn(ctx, w); err != nil {
			failed++
			fmt.Printf("%s FAILED: %v\n", w, err)
			continue
		}
		fmt.Printf("%s SUCCESS\n", w)
	}
	if failed > 0 {
		return eris.Errorf("%d of %d windows failed", failed, len(windows))
	}
	return nil
}
