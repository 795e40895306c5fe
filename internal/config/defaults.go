package config

import (
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Home: 95118, Almaden, San Jose.
const (
	defaultHomeLat         = 37.2358
	defaultHomeLng         = -121.8606
	defaultMaxCommuteMiles = 25.0
	defaultRemotiveURL     = "https://remotive.com/api/remote-jobs"
)

var defaultRoleKeywords = []string{
	"engineer", "developer", "software", "frontend", "backend",
	"fullstack", "full-stack", "swe", "platform",
}

var defaultSeniorityKeywords = []string{
	"senior", "sr.", "sr ", "staff", "principal", "lead", "architect",
}

// Order matters: the first entry whose name is a substring of the location
// wins, so "san francisco" shadows "south san francisco".
var defaultGazetteer = []Place{
	{Name: "san francisco", Lat: 37.7749, Lng: -122.4194},
	{Name: "sf", Lat: 37.7749, Lng: -122.4194},
	{Name: "san jose", Lat: 37.3382, Lng: -121.8863},
	{Name: "palo alto", Lat: 37.4419, Lng: -122.1430},
	{Name: "mountain view", Lat: 37.3861, Lng: -122.0839},
	{Name: "sunnyvale", Lat: 37.3688, Lng: -122.0363},
	{Name: "santa clara", Lat: 37.3541, Lng: -121.9552},
	{Name: "cupertino", Lat: 37.3230, Lng: -122.0322},
	{Name: "menlo park", Lat: 37.4530, Lng: -122.1817},
	{Name: "redwood city", Lat: 37.4852, Lng: -122.2364},
	{Name: "fremont", Lat: 37.5485, Lng: -121.9886},
	{Name: "oakland", Lat: 37.8044, Lng: -122.2712},
	{Name: "berkeley", Lat: 37.8716, Lng: -122.2727},
	{Name: "alameda", Lat: 37.7652, Lng: -122.2416},
	{Name: "milpitas", Lat: 37.4323, Lng: -121.8996},
	{Name: "san mateo", Lat: 37.5630, Lng: -122.3255},
	{Name: "south san francisco", Lat: 37.6547, Lng: -122.4077},
	{Name: "daly city", Lat: 37.6879, Lng: -122.4702},
	{Name: "burlingame", Lat: 37.5841, Lng: -122.3660},
	{Name: "foster city", Lat: 37.5585, Lng: -122.2711},
	{Name: "hayward", Lat: 37.6688, Lng: -122.0808},
	{Name: "pleasanton", Lat: 37.6624, Lng: -121.8747},
	{Name: "livermore", Lat: 37.6819, Lng: -121.7680},
	{Name: "walnut creek", Lat: 37.9101, Lng: -122.0652},
	{Name: "concord", Lat: 37.9780, Lng: -122.0311},
	{Name: "campbell", Lat: 37.2872, Lng: -121.9500},
	{Name: "los gatos", Lat: 37.2358, Lng: -121.9624},
	{Name: "saratoga", Lat: 37.2638, Lng: -122.0230},
	{Name: "los altos", Lat: 37.3852, Lng: -122.1141},
	{Name: "almaden", Lat: 37.2358, Lng: -121.8606},
}

var defaultGreenhouseCompanies = []CompanyConfig{
	{Slug: "discord", Name: "Discord"},
	{Slug: "figma", Name: "Figma"},
	{Slug: "notion", Name: "Notion"},
	{Slug: "airtable", Name: "Airtable"},
	{Slug: "stripe", Name: "Stripe"},
	{Slug: "plaid", Name: "Plaid"},
	{Slug: "ramp", Name: "Ramp"},
	{Slug: "rippling", Name: "Rippling"},
	{Slug: "gusto", Name: "Gusto"},
	{Slug: "webflow", Name: "Webflow"},
	{Slug: "vercel", Name: "Vercel"},
	{Slug: "supabase", Name: "Supabase"},
	{Slug: "linear", Name: "Linear"},
	{Slug: "retool", Name: "Retool"},
	{Slug: "loom", Name: "Loom"},
	{Slug: "glean", Name: "Glean"},
	{Slug: "anthropic", Name: "Anthropic"},
	{Slug: "openai", Name: "OpenAI"},
}

var defaultLeverCompanies = []CompanyConfig{
	{Slug: "netflix", Name: "Netflix"},
	{Slug: "coinbase", Name: "Coinbase"},
	{Slug: "dropbox", Name: "Dropbox"},
	{Slug: "lyft", Name: "Lyft"},
	{Slug: "instacart", Name: "Instacart"},
	{Slug: "doordash", Name: "DoorDash"},
	{Slug: "pinterest", Name: "Pinterest"},
	{Slug: "twitch", Name: "Twitch"},
	{Slug: "affirm", Name: "Affirm"},
	{Slug: "scale", Name: "Scale AI"},
	{Slug: "databricks", Name: "Databricks"},
	{Slug: "robinhood", Name: "Robinhood"},
	{Slug: "chime", Name: "Chime"},
	{Slug: "flexport", Name: "Flexport"},
	{Slug: "brex", Name: "Brex"},
}

// Default returns the compiled-in configuration. Every call returns fresh
// slices, so callers may modify the result.
func Default() *Config {
	sources := make([]string, len(model.KnownSources))
	for i, s := range model.KnownSources {
		sources[i] = string(s)
	}
	return &Config{
		Home:            Point{Lat: defaultHomeLat, Lng: defaultHomeLng},
		HomeLabel:       "Almaden, San Jose",
		MaxCommuteMiles: defaultMaxCommuteMiles,
		Gazetteer:       clone(defaultGazetteer),
		RegionalCenter:  Point{Lat: 37.5, Lng: -122.0},
		Sources:         sources,
		Keywords:        []string{"senior", "staff", "software", "engineer", "frontend", "backend"},
		Filters: FilterConfig{
			RoleKeywords:      clone(defaultRoleKeywords),
			SeniorityKeywords: clone(defaultSeniorityKeywords),
		},
		Remotive: RemotiveConfig{
			URL:      defaultRemotiveURL,
			Category: "software-dev",
			Limit:    50,
		},
		Greenhouse:      BoardConfig{Companies: clone(defaultGreenhouseCompanies)},
		Lever:           BoardConfig{Companies: clone(defaultLeverCompanies)},
		RequestTimeout:  30 * time.Second,
		Concurrency:     4,
		ParallelSources: false,
		RateLimit:       RateLimitConfig{MinDelay: 0},
		Retry:           RetryConfig{MaxRetries: 0, BaseDelay: 2 * time.Second},
		WatchInterval:   time.Hour,
		Notification:    NotificationConfig{Type: "log", TopN: 10},
		Server:          ServerConfig{Addr: ":8080"},
	}
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
