package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/photoqueue/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   SQLite DSN of the local upload queue (default from Config)
//	-a string   base URL of the photo API (default from Config)
//	-l int      max simultaneous photo transfers (default from Config)
//	-r int      automatic retry cap per photo (default from Config)
//	-t int      per-request timeout in seconds (default from Config)
//	-b int      first retry backoff step in milliseconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-a", "-l", "-r", "-t", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite DSN of the local upload queue")
	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the photo API")
	fs.IntVar(&cfg.ConcurrencyLimit, "l", cfg.ConcurrencyLimit, "max simultaneous photo transfers")
	fs.IntVar(&cfg.MaxRetries, "r", cfg.MaxRetries, "automatic retry cap per photo")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "per-request timeout (in seconds)")
	retryBaseDelay := fs.Int("b", int(cfg.RetryBaseDelay.Milliseconds()), "first retry backoff step (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.RetryBaseDelay = time.Duration(*retryBaseDelay) * time.Millisecond
}
