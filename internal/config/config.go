package config

import "time"

// Config holds runtime settings for the photoqueue CLI.
//
// Fields:
//   - DatabaseDSN: SQLite DSN of the local upload queue.
//   - APIBaseURL: base URL of the photo API.
//   - ConcurrencyLimit: max simultaneous photo transfers.
//   - MaxRetries: automatic retry cap per photo.
//   - RequestTimeout: per-request deadline for transfer and metadata calls.
//   - RetryBaseDelay: first backoff step between automatic retries.
type Config struct {
	DatabaseDSN      string
	APIBaseURL       string
	ConcurrencyLimit int
	MaxRetries       int
	RequestTimeout   time.Duration
	RetryBaseDelay   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "photoqueue.db"
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.ConcurrencyLimit = 3
	c.MaxRetries = 3
	c.RequestTimeout = 30 * time.Second
	c.RetryBaseDelay = 500 * time.Millisecond
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
