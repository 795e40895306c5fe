package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/commute"
	"github.com/amishk599/jobradar/internal/config"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/geo"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/notifier"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/ratelimit"
	"github.com/amishk599/jobradar/internal/retry"
	"github.com/amishk599/jobradar/internal/source"
	"github.com/amishk599/jobradar/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobradar",
	Short: "Commutable job search across Remotive, Greenhouse and Lever",
	Long: "JobRadar pulls postings from a remote-job feed and curated company boards, " +
		"deduplicates them and keeps the ones within commuting distance of home.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBRADAR_CONFIG env var, else built-in defaults)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config source.
// Priority: explicit path > JOBRADAR_CONFIG env var > compiled-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("JOBRADAR_CONFIG")
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func setupLogger(w io.Writer, dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) notifier.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, cfg.Notification.TopN, cfg.HomeLabel, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupStore opens the snapshot database, or a no-op store when no path is
// configured.
func setupStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Path == "" {
		return store.NewNopStore(), nil
	}
	return store.NewSQLiteStore(cfg.Store.Path)
}

func newEstimator(cfg *config.Config) *commute.Estimator {
	places := make([]geo.Place, len(cfg.Gazetteer))
	for i, p := range cfg.Gazetteer {
		places[i] = geo.Place{Name: p.Name, Point: geo.Point{Lat: p.Lat, Lng: p.Lng}}
	}
	gazetteer := geo.NewGazetteer(places, geo.Point{Lat: cfg.RegionalCenter.Lat, Lng: cfg.RegionalCenter.Lng})
	home := geo.Point{Lat: cfg.Home.Lat, Lng: cfg.Home.Lng}
	return commute.NewEstimator(home, cfg.MaxCommuteMiles, gazetteer)
}

// buildPipeline wires adapters, the title filter, the optional politeness
// limiter and retries, and the distance estimator into the standard five
// stages.
func buildPipeline(cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	jobFilter := filter.NewRoleSeniorityFilter(cfg.Filters.RoleKeywords, cfg.Filters.SeniorityKeywords)

	var limiter *ratelimit.SourceLimiter
	if cfg.RateLimit.MinDelay > 0 {
		limiter = ratelimit.NewSourceLimiter(cfg.RateLimit.MinDelay)
		logger.Info("rate limiter configured", "min_delay", cfg.RateLimit.MinDelay.String())
	}
	// Every attempt, retries included, waits its turn at the limiter.
	wrap := func(f model.JobFetcher, src model.Source, company string) model.JobFetcher {
		if limiter != nil {
			f = ratelimit.NewRateLimitedFetcher(f, limiter, src)
		}
		if cfg.Retry.MaxRetries > 0 {
			f = retry.NewFetcher(f, company, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
		}
		return f
	}

	remotive := wrap(adapter.NewRemotiveAdapter(cfg.Remotive.URL, cfg.Remotive.Category, cfg.Remotive.Limit, httpClient), model.SourceRemotive, "Remotive")

	var greenhouse []source.Board
	for _, c := range cfg.Greenhouse.Companies {
		greenhouse = append(greenhouse, source.Board{
			Company: c.Name,
			Fetcher: wrap(adapter.NewGreenhouseAdapter(c.Slug, c.Name, httpClient), model.SourceGreenhouse, c.Name),
		})
		logger.Debug("registered company", "name", c.Name, "source", model.SourceGreenhouse)
	}
	var lever []source.Board
	for _, c := range cfg.Lever.Companies {
		lever = append(lever, source.Board{
			Company: c.Name,
			Fetcher: wrap(adapter.NewLeverAdapter(c.Slug, c.Name, httpClient), model.SourceLever, c.Name),
		})
		logger.Debug("registered company", "name", c.Name, "source", model.SourceLever)
	}

	stages := pipeline.Standard(
		source.NewRemote(remotive, jobFilter, logger),
		source.NewBoards(model.SourceGreenhouse, "Greenhouse", greenhouse, jobFilter, cfg.Concurrency, logger),
		source.NewBoards(model.SourceLever, "Lever", lever, jobFilter, cfg.Concurrency, logger),
		newEstimator(cfg),
	)

	return pipeline.New(stages, logger,
		pipeline.WithInputs(cfg.Sources, cfg.Keywords),
		pipeline.WithParallelSources(cfg.ParallelSources),
	)
}
