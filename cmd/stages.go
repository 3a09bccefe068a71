package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/envisage-news/envisage-cli/internal/pipeline"
	"github.com/envisage-news/envisage-cli/internal/window"
)

// stageCommand builds a cobra command that runs one pipeline stage over
// the selected windows.
func stageCommand(use, short string, stage func(*pipeline.Pipeline) func(context.Context, window.ID) error) *cobra.Command {
	var (
		date string
		all  bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e, err := initEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			e.scraper.Fetcher().StartStatsDump(ctx)
			defer e.scraper.Fetcher().DumpStats()

			windows, err := resolveWindows(ctx, e.store, date, all)
			if err != nil {
				return err
			}
			return runPerWindow(ctx, windows, stage(e.pipe))
		},
	}
	addWindowFlags(cmd, &date, &all)
	return cmd
}

func init() {
	rootCmd.AddCommand(
		stageCommand("scrape", "Scrape, filter, and categorize articles for a window",
			func(p *pipeline.Pipeline) func(context.Context, window.ID) error { return p.Categorize }),
		stageCommand("summarize", "Produce article and window summaries for a window",
			func(p *pipeline.Pipeline) func(context.Context, window.ID) error {
				return func(ctx context.Context, w window.ID) error {
					if err := p.SummarizeArticles(ctx, w); err != nil {
						return err
					}
					return p.SummarizeWindow(ctx, w)
				}
			}),
		stageCommand("webview", "Materialize the web display document for a window",
			func(p *pipeline.Pipeline) func(context.Context, window.ID) error { return p.BuildWebView }),
		stageCommand("thumbs", "Acquire thumbnails for a window's news items",
			func(p *pipeline.Pipeline) func(context.Context, window.ID) error { return p.Thumbnails }),
		stageCommand("replicate", "Mirror a window's web document to the relational store",
			func(p *pipeline.Pipeline) func(context.Context, window.ID) error { return p.Replicate }),
	)
}
