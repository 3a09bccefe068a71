package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	runDate string
	runAll  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline for one or more windows",
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

		windows, err := resolveWindows(ctx, e.store, runDate, runAll)
		if err != nil {
			return err
		}
		return runPerWindow(ctx, windows, e.pipe.Run)
	},
}

func init() {
	addWindowFlags(runCmd, &runDate, &runAll)
	rootCmd.AddCommand(runCmd)
}
