// Package config loads runtime configuration for the photoqueue CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   SQLite DSN of the local upload queue
//	-a string   base URL of the photo API
//	-l int      max simultaneous photo transfers
//	-r int      automatic retry cap per photo
//	-t int      per-request timeout (seconds)
//	-b int      first retry backoff step (milliseconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "database_dsn": "photoqueue.db",
//	  "api_base_url": "https://api.example.com",
//	  "concurrency_limit": 3,
//	  "max_retries": 3,
//	  "request_timeout": "30s",
//	  "retry_base_delay": "500ms"
//	}
//
// Primary API
//
//   - type Config                     — runtime settings for the upload pipeline
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
