package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/photoqueue/internal/flagx"
	"github.com/dmitrijs2005/photoqueue/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	DatabaseDSN      string         `json:"database_dsn"`
	APIBaseURL       string         `json:"api_base_url"`
	ConcurrencyLimit int            `json:"concurrency_limit"`
	MaxRetries       int            `json:"max_retries"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	RetryBaseDelay   timex.Duration `json:"retry_base_delay"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c or -config flags (flagx.JsonConfigFlags). With no file configured
// it is a no-op; read and unmarshal errors panic, the caller decides whether
// to recover.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.APIBaseURL = jc.APIBaseURL
	cfg.ConcurrencyLimit = jc.ConcurrencyLimit
	cfg.MaxRetries = jc.MaxRetries
	cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	cfg.RetryBaseDelay = time.Duration(jc.RetryBaseDelay.Duration)
}
