package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobradar/internal/model"
)

// Config is the root configuration for a pipeline run and its outer surfaces.
type Config struct {
	Home            Point
	HomeLabel       string
	MaxCommuteMiles float64
	Gazetteer       []Place // ordered; first substring match wins
	RegionalCenter  Point   // fallback for "california" / ", ca" locations
	Sources         []string
	Keywords        []string // carried into run state, not used for filtering
	Filters         FilterConfig
	Remotive        RemotiveConfig
	Greenhouse      BoardConfig
	Lever           BoardConfig
	RequestTimeout  time.Duration // per outbound request
	Concurrency     int           // per-company requests in flight within a board stage
	ParallelSources bool          // run the three fetch stages concurrently
	RateLimit       RateLimitConfig
	Retry           RetryConfig
	WatchInterval   time.Duration // gap between cycles of `jobradar watch`
	Notification    NotificationConfig
	Store           StoreConfig
	Server          ServerConfig
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `yaml:"latitude"`
	Lng float64 `yaml:"longitude"`
}

// Place is one gazetteer entry.
type Place struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"latitude"`
	Lng  float64 `yaml:"longitude"`
}

// FilterConfig holds the title keyword lists every fetcher applies.
type FilterConfig struct {
	RoleKeywords      []string
	SeniorityKeywords []string
}

// RemotiveConfig describes the remote-only feed.
type RemotiveConfig struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Limit    int    `yaml:"limit"`
}

// BoardConfig is a curated company roster for one board.
type BoardConfig struct {
	Companies []CompanyConfig `yaml:"companies"`
}

// CompanyConfig describes a single company board.
type CompanyConfig struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

// RateLimitConfig controls the per-source gap between outbound requests.
type RateLimitConfig struct {
	MinDelay time.Duration
}

// RetryConfig controls per-company retries of transient failures. Zero
// retries means a failed request is that company's failure for the run.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NotificationConfig controls the run report.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	TopN       int    `yaml:"top_n"`
}

// StoreConfig points at the optional SQLite snapshot file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// rawConfig is used for YAML unmarshaling. Pointer and nil-slice fields mean
// "keep the default".
type rawConfig struct {
	Home            *rawHome            `yaml:"home"`
	MaxCommuteMiles *float64            `yaml:"max_commute_miles"`
	Gazetteer       []Place             `yaml:"gazetteer"`
	RegionalCenter  *Point              `yaml:"regional_center"`
	Sources         []string            `yaml:"sources"`
	Keywords        []string            `yaml:"keywords"`
	Filters         rawFilterConfig     `yaml:"filters"`
	Remotive        *RemotiveConfig     `yaml:"remotive"`
	Greenhouse      *BoardConfig        `yaml:"greenhouse"`
	Lever           *BoardConfig        `yaml:"lever"`
	RequestTimeout  string              `yaml:"request_timeout"`
	Concurrency     *int                `yaml:"concurrency"`
	ParallelSources *bool               `yaml:"parallel_sources"`
	RateLimit       rawRateLimitConfig  `yaml:"rate_limit"`
	Retry           rawRetryConfig      `yaml:"retry"`
	WatchInterval   string              `yaml:"watch_interval"`
	Notification    *NotificationConfig `yaml:"notification"`
	Store           *StoreConfig        `yaml:"store"`
	Server          *ServerConfig       `yaml:"server"`
}

type rawHome struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Label     string  `yaml:"label"`
}

type rawFilterConfig struct {
	RoleKeywords      []string `yaml:"role_keywords"`
	SeniorityKeywords []string `yaml:"seniority_keywords"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads the YAML config file at path, overlays it on Default(), validates
// it, and returns the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse overlays YAML data on Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	var err error

	if raw.Home != nil {
		cfg.Home = Point{Lat: raw.Home.Latitude, Lng: raw.Home.Longitude}
		if raw.Home.Label != "" {
			cfg.HomeLabel = raw.Home.Label
		}
	}
	if raw.MaxCommuteMiles != nil {
		cfg.MaxCommuteMiles = *raw.MaxCommuteMiles
	}
	if raw.Gazetteer != nil {
		cfg.Gazetteer = raw.Gazetteer
	}
	if raw.RegionalCenter != nil {
		cfg.RegionalCenter = *raw.RegionalCenter
	}
	if raw.Sources != nil {
		cfg.Sources = raw.Sources
	}
	if raw.Keywords != nil {
		cfg.Keywords = raw.Keywords
	}
	if raw.Filters.RoleKeywords != nil {
		cfg.Filters.RoleKeywords = raw.Filters.RoleKeywords
	}
	if raw.Filters.SeniorityKeywords != nil {
		cfg.Filters.SeniorityKeywords = raw.Filters.SeniorityKeywords
	}
	if raw.Remotive != nil {
		if raw.Remotive.URL != "" {
			cfg.Remotive.URL = raw.Remotive.URL
		}
		if raw.Remotive.Category != "" {
			cfg.Remotive.Category = raw.Remotive.Category
		}
		if raw.Remotive.Limit != 0 {
			cfg.Remotive.Limit = raw.Remotive.Limit
		}
	}
	if raw.Greenhouse != nil {
		cfg.Greenhouse = *raw.Greenhouse
	}
	if raw.Lever != nil {
		cfg.Lever = *raw.Lever
	}

	if raw.RequestTimeout != "" {
		cfg.RequestTimeout, err = time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse request_timeout %q: %w", raw.RequestTimeout, err)
		}
	}
	if raw.Concurrency != nil {
		cfg.Concurrency = *raw.Concurrency
	}
	if raw.ParallelSources != nil {
		cfg.ParallelSources = *raw.ParallelSources
	}
	if raw.RateLimit.MinDelay != "" {
		cfg.RateLimit.MinDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if raw.Retry.BaseDelay != "" {
		cfg.Retry.BaseDelay, err = time.ParseDuration(raw.Retry.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse retry.base_delay %q: %w", raw.Retry.BaseDelay, err)
		}
	}
	if raw.WatchInterval != "" {
		cfg.WatchInterval, err = time.ParseDuration(raw.WatchInterval)
		if err != nil {
			return nil, fmt.Errorf("parse watch_interval %q: %w", raw.WatchInterval, err)
		}
	}
	if raw.Notification != nil {
		if raw.Notification.Type != "" {
			cfg.Notification.Type = raw.Notification.Type
		}
		cfg.Notification.WebhookURL = raw.Notification.WebhookURL
		if raw.Notification.TopN != 0 {
			cfg.Notification.TopN = raw.Notification.TopN
		}
	}
	if raw.Store != nil {
		cfg.Store = *raw.Store
	}
	if raw.Server != nil && raw.Server.Addr != "" {
		cfg.Server.Addr = raw.Server.Addr
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks a Config built in code (e.g. Default() with edits).
func Validate(cfg *Config) error {
	return validate(cfg)
}

func validate(cfg *Config) error {
	if cfg.MaxCommuteMiles <= 0 {
		return fmt.Errorf("max_commute_miles must be positive, got %v", cfg.MaxCommuteMiles)
	}
	if cfg.Home.Lat < -90 || cfg.Home.Lat > 90 || cfg.Home.Lng < -180 || cfg.Home.Lng > 180 {
		return fmt.Errorf("home coordinate out of range: %v,%v", cfg.Home.Lat, cfg.Home.Lng)
	}
	if len(cfg.Gazetteer) == 0 {
		return fmt.Errorf("gazetteer must list at least one place")
	}
	for i, p := range cfg.Gazetteer {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("gazetteer[%d]: name is required", i)
		}
	}
	for _, s := range cfg.Sources {
		if !model.IsKnownSource(s) {
			return fmt.Errorf("unknown source %q", s)
		}
	}
	for _, board := range []struct {
		name string
		cfg  BoardConfig
	}{{"greenhouse", cfg.Greenhouse}, {"lever", cfg.Lever}} {
		for i, c := range board.cfg.Companies {
			if c.Slug == "" {
				return fmt.Errorf("%s.companies[%d]: slug is required", board.name, i)
			}
		}
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}
	if cfg.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive, got %v", cfg.WatchInterval)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.MaxRetries > 0 && cfg.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive when retries are enabled")
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}
