package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/envisage-news/envisage-cli/internal/window"
)

var scheduleRunNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline at every 06:00 and 18:00 boundary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		fire := func() {
			w := window.Current(time.Now())
			zap.L().Info("scheduled run starting", zap.String("window", w.String()))
			if err := e.pipe.Run(ctx, w); err != nil {
				zap.L().Error("scheduled run failed",
					zap.String("window", w.String()),
					zap.Error(err),
				)
			}
		}

		if scheduleRunNow {
			fire()
		}

		c := cron.New()
		if err := c.AddFunc("0 0 6,18 * * *", fire); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()

		zap.L().Info("scheduler started, runs fire at 06:00 and 18:00 local")
		<-ctx.Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "run immediately, then keep the schedule")
	rootCmd.AddCommand(scheduleCmd)
}
