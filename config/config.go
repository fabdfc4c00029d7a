package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all harvester configuration.
type Config struct {
	Site    SiteConfig
	Fetch   FetchConfig
	Assets  AssetConfig
	Harvest HarvestConfig
	Log     LogConfig
}

// SiteConfig describes the wiki being harvested.
type SiteConfig struct {
	// BaseURL is the scheme+host of the site, e.g. "https://wiki.example.com".
	BaseURL string

	// PagePath is the article path prefix. default: "/wiki/"
	PagePath string

	// SearchPath is the full-text search endpoint; the query is appended
	// URL-encoded. default: "/index.php?search="
	SearchPath string

	// Namespace is the article namespace tried as a locator candidate,
	// e.g. "Character". Empty disables the namespaced variant.
	Namespace string
}

// FetchConfig controls page retrieval behaviour.
type FetchConfig struct {
	// BaseDelay is the pacing delay between requests. default: 500ms
	BaseDelay time.Duration

	// MaxDelay caps the adaptive backoff delay. default: 30s
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay on each throttling signal. default: 2.0
	BackoffFactor float64

	// MaxRetries is the retry budget per logical fetch. default: 3
	MaxRetries int

	// Timeout is the per-request deadline. default: 30s
	Timeout time.Duration

	// ChromeTLS enables the Chrome TLS fingerprint transport. default: true
	ChromeTLS bool
}

// AssetConfig controls image download and validation.
type AssetConfig struct {
	// Dir is the directory assets are persisted under. default: "assets"
	Dir string

	// MinWidth and MinHeight are the acceptance floor in pixels. default: 100
	MinWidth  int
	MinHeight int

	// MinAspect and MaxAspect bound width/height. default: 0.2 .. 5.0
	MinAspect float64
	MaxAspect float64

	// SkipExisting returns a previously downloaded valid asset without any
	// network access. default: true
	SkipExisting bool

	// MaxRetries is the retry budget per asset download. default: 2
	MaxRetries int
}

// HarvestConfig controls the orchestrator.
type HarvestConfig struct {
	// ArtifactPath is where the CSV artifact is written. default: "harvest.csv"
	ArtifactPath string

	// ValidateArtifact re-reads and schema-checks the artifact post-write.
	// default: true
	ValidateArtifact bool

	// ContinueOnError keeps the run going past item-local failures.
	// default: true
	ContinueOnError bool

	// Workers bounds per-group concurrency. 1 means fully sequential.
	// default: 1
	Workers int

	// ProgressEvery emits a progress snapshot after this many items.
	// default: 10
	ProgressEvery int
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:    os.Getenv("HARVEST_BASE_URL"),
			PagePath:   envOr("HARVEST_PAGE_PATH", "/wiki/"),
			SearchPath: envOr("HARVEST_SEARCH_PATH", "/index.php?search="),
			Namespace:  os.Getenv("HARVEST_NAMESPACE"),
		},
		Fetch: FetchConfig{
			BaseDelay:     envDurationOr("HARVEST_BASE_DELAY", 500*time.Millisecond),
			MaxDelay:      envDurationOr("HARVEST_MAX_DELAY", 30*time.Second),
			BackoffFactor: envFloatOr("HARVEST_BACKOFF_FACTOR", 2.0),
			MaxRetries:    envIntOr("HARVEST_MAX_RETRIES", 3),
			Timeout:       envDurationOr("HARVEST_TIMEOUT", 30*time.Second),
			ChromeTLS:     envBoolOr("HARVEST_CHROME_TLS", true),
		},
		Assets: AssetConfig{
			Dir:          envOr("HARVEST_ASSET_DIR", "assets"),
			MinWidth:     envIntOr("HARVEST_MIN_WIDTH", 100),
			MinHeight:    envIntOr("HARVEST_MIN_HEIGHT", 100),
			MinAspect:    envFloatOr("HARVEST_MIN_ASPECT", 0.2),
			MaxAspect:    envFloatOr("HARVEST_MAX_ASPECT", 5.0),
			SkipExisting: envBoolOr("HARVEST_SKIP_EXISTING", true),
			MaxRetries:   envIntOr("HARVEST_ASSET_RETRIES", 2),
		},
		Harvest: HarvestConfig{
			ArtifactPath:     envOr("HARVEST_ARTIFACT", "harvest.csv"),
			ValidateArtifact: envBoolOr("HARVEST_VALIDATE_ARTIFACT", true),
			ContinueOnError:  envBoolOr("HARVEST_CONTINUE_ON_ERROR", true),
			Workers:          envIntOr("HARVEST_WORKERS", 1),
			ProgressEvery:    envIntOr("HARVEST_PROGRESS_EVERY", 10),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
