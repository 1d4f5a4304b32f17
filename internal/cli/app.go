package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/photoqueue/internal/bridge"
	"github.com/dmitrijs2005/photoqueue/internal/client"
	"github.com/dmitrijs2005/photoqueue/internal/config"
	"github.com/dmitrijs2005/photoqueue/internal/cryptox"
	"github.com/dmitrijs2005/photoqueue/internal/logging"
	"github.com/dmitrijs2005/photoqueue/internal/models"
	"github.com/dmitrijs2005/photoqueue/internal/repositories/pending"
	"github.com/dmitrijs2005/photoqueue/internal/uploader"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config    *config.Config
	db        *sql.DB
	repo      pending.Repository
	tokens    *client.TokenSource
	api       client.Client
	orch      *uploader.Orchestrator
	bridge    *bridge.Bridge
	weddingID string
	keys      models.WeddingKeys
	loggedIn  bool
	Mode      Mode
	reader    *bufio.Reader
	out       io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	db, err := pending.Open(ctx, c.DatabaseDSN)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	repo := pending.NewSQLiteRepository(db)
	tokens := client.NewTokenSource(c.APIBaseURL + "/api/auth/refresh")
	api := client.NewHTTPClient(c.APIBaseURL, tokens)
	enc := cryptox.NewEncryptor(cryptox.NewNaClBoxWrapper())

	logger := logging.NewSlogLogger(newTextLogger())
	orch := uploader.NewOrchestrator(repo, api, enc, logger, uploader.Config{
		Concurrency:    c.ConcurrencyLimit,
		MaxRetries:     c.MaxRetries,
		RequestTimeout: c.RequestTimeout,
		RetryBaseDelay: c.RetryBaseDelay,
	})
	br := bridge.New(orch, logger)
	orch.SetEventSink(br.Publish)

	return &App{
		config: c,
		db:     db,
		repo:   repo,
		tokens: tokens,
		api:    api,
		orch:   orch,
		bridge: br,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close shuts the pipeline down; interrupted uploads stay in the queue and
// are recovered on next login.
func (a *App) Close() {
	a.orch.Close()
	a.bridge.Close()
	_ = a.api.Close()
	_ = a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
