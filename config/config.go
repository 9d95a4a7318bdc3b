package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Credentials CredentialsConfig
	Browser     BrowserConfig
	Scrape      ScrapeConfig
	Proxy       ProxyConfig
	Routes      RoutesConfig
	Output      OutputConfig
	Log         LogConfig
}

// CredentialsConfig holds the rider account used for login. Values are
// read from the environment (or a .env file) and are never logged or
// written to disk.
type CredentialsConfig struct {
	PhoneNumber string // env: UBER_PHONE_NUMBER
	Password    string // env: UBER_PASSWORD
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent overrides the browser's user agent string.
	UserAgent string // default: desktop Chrome on Linux

	// BlockedResourceTypes lists resource types discarded during page
	// loads. Stylesheets stay enabled so fare cards remain clickable.
	// default: ["Image", "Media", "Font"]
	BlockedResourceTypes []string
}

// ScrapeConfig controls navigation and extraction behavior.
type ScrapeConfig struct {
	// MaxAttempts is the retry bound for a page visit. Each failed
	// attempt rotates to the next proxy before trying again.
	MaxAttempts int // default: 3

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration // default: 1s

	// NavTimeout is the deadline for a single navigation.
	NavTimeout time.Duration // default: 30s

	// ElementTimeout is how long to wait for an expected element.
	ElementTimeout time.Duration // default: 5s

	// LoginProbeTimeout is how long the logged-in check waits before
	// concluding the session is anonymous.
	LoginProbeTimeout time.Duration // default: 10s

	// SettleDelay is the pause after expanding a fare card, giving the
	// price breakdown time to render.
	SettleDelay time.Duration // default: 1s

	// NavRPS and NavBurst pace page loads against the target site.
	NavRPS   float64 // default: 0.5
	NavBurst int     // default: 1
}

// ProxyConfig controls the outbound proxy rotation.
type ProxyConfig struct {
	// List is an inline proxy list ("host:port" or "host:port:user:pass",
	// comma or semicolon separated). Empty means connect directly.
	List string

	// File is a path to a proxy list file, one entry per line. Entries
	// from File are appended after List.
	File string

	// RotationThreshold is the number of page loads after which the
	// browser is rebuilt on the next proxy.
	RotationThreshold int // default: 6
}

// RoutesConfig holds the raw route list; parse it with ParseRoutes.
type RoutesConfig struct {
	// Spec lists routes as "name=plat,plong->dlat,dlong", semicolon
	// separated.
	Spec string // default: DefaultRoutes
}

// OutputConfig controls where scraped data and artifacts land.
type OutputConfig struct {
	// CSVDir is the directory for fare CSV files.
	CSVDir string // default: "csv/uber"

	// Truncate starts every CSV file fresh instead of appending to the
	// data of previous runs.
	Truncate bool // default: false

	// CookiesFile persists the login session between runs.
	CookiesFile string // default: "uber_cookies.json"

	// Snapshots toggles page snapshots on extraction failures.
	Snapshots bool // default: true

	// SnapshotDir is the directory for snapshot artifacts.
	SnapshotDir string // default: "snapshots"

	// BaselineFile stores the DOM structure fingerprint of the last
	// successful extraction.
	BaselineFile string // default: "snapshots/dom.baseline"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// DefaultUserAgent matches the desktop Chrome build the fare pages were
// tuned against.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/102.0.5005.61 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Credentials: CredentialsConfig{
			PhoneNumber: os.Getenv("UBER_PHONE_NUMBER"),
			Password:    os.Getenv("UBER_PASSWORD"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("FAREWATCH_HEADLESS", true),
			NoSandbox:  envBoolOr("FAREWATCH_NO_SANDBOX", true),
			BrowserBin: os.Getenv("FAREWATCH_BROWSER_BIN"),
			UserAgent:  envOr("FAREWATCH_USER_AGENT", DefaultUserAgent),
			BlockedResourceTypes: envSliceOr("FAREWATCH_BLOCKED_RESOURCES", []string{
				"Image", "Media", "Font",
			}),
		},
		Scrape: ScrapeConfig{
			MaxAttempts:       envIntOr("FAREWATCH_MAX_ATTEMPTS", 3),
			RetryDelay:        envDurationOr("FAREWATCH_RETRY_DELAY", time.Second),
			NavTimeout:        envDurationOr("FAREWATCH_NAV_TIMEOUT", 30*time.Second),
			ElementTimeout:    envDurationOr("FAREWATCH_ELEMENT_TIMEOUT", 5*time.Second),
			LoginProbeTimeout: envDurationOr("FAREWATCH_LOGIN_PROBE_TIMEOUT", 10*time.Second),
			SettleDelay:       envDurationOr("FAREWATCH_SETTLE_DELAY", time.Second),
			NavRPS:            envFloatOr("FAREWATCH_NAV_RPS", 0.5),
			NavBurst:          envIntOr("FAREWATCH_NAV_BURST", 1),
		},
		Proxy: ProxyConfig{
			List:              os.Getenv("FAREWATCH_PROXIES"),
			File:              os.Getenv("FAREWATCH_PROXY_FILE"),
			RotationThreshold: envIntOr("FAREWATCH_ROTATION_THRESHOLD", 6),
		},
		Routes: RoutesConfig{
			Spec: envOr("FAREWATCH_ROUTES", DefaultRoutes),
		},
		Output: OutputConfig{
			CSVDir:       envOr("FAREWATCH_CSV_DIR", "csv/uber"),
			Truncate:     envBoolOr("FAREWATCH_CSV_TRUNCATE", false),
			CookiesFile:  envOr("FAREWATCH_COOKIES_FILE", "uber_cookies.json"),
			Snapshots:    envBoolOr("FAREWATCH_SNAPSHOTS", true),
			SnapshotDir:  envOr("FAREWATCH_SNAPSHOT_DIR", "snapshots"),
			BaselineFile: envOr("FAREWATCH_DRIFT_BASELINE", "snapshots/dom.baseline"),
		},
		Log: LogConfig{
			Level:  envOr("FAREWATCH_LOG_LEVEL", "info"),
			Format: envOr("FAREWATCH_LOG_FORMAT", "text"),
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

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
