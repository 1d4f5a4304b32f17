package uploader

import "time"

// Config holds the orchestrator's tuning knobs.
type Config struct {
	// Concurrency caps simultaneous in-flight uploads.
	Concurrency int

	// MaxRetries caps automatic retries per photo; past it the record
	// stays failed until the user retries or deletes it.
	MaxRetries int

	// RequestTimeout bounds each network request (bytes and metadata).
	RequestTimeout time.Duration

	// RetryBaseDelay seeds the fibonacci backoff between automatic retries.
	RetryBaseDelay time.Duration
}

// DefaultConfig returns the recommended settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:    3,
		MaxRetries:     3,
		RequestTimeout: 30 * time.Second,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = d.RetryBaseDelay
	}
}
