package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/poller"
	"github.com/amishk599/jobradar/internal/scheduler"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline on an interval and report new jobs",
	Long: "Runs one cycle immediately, then one per interval: fetch, save a snapshot when store.path is set, " +
		"and send jobs not reported before through the notifier. Blocks until SIGINT/SIGTERM.",
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "time between cycles (default: watch_interval from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(os.Stdout, debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	interval := cfg.WatchInterval
	if watchInterval > 0 {
		interval = watchInterval
	}

	logger.Info("config loaded",
		"interval", interval.String(),
		"greenhouse_companies", len(cfg.Greenhouse.Companies),
		"lever_companies", len(cfg.Lever.Companies),
		"max_commute_miles", cfg.MaxCommuteMiles,
		"store", cfg.Store.Path,
	)

	st, err := setupStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	n := setupNotifier(cfg, &http.Client{Timeout: cfg.RequestTimeout}, logger)
	p := poller.New(buildPipeline(cfg, logger), st, n, poller.Options{Save: cfg.Store.Path != "", Notify: true}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.NewScheduler(p, interval, logger).Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
	logger.Info("goodbye")
	return nil
}
