package cli

import (
	"testing"

	"github.com/dmitrijs2005/photoqueue/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = ":memory:"

	app, err := NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestNewApp_WiresPipeline(t *testing.T) {
	app := newTestApp(t)

	assert.NotNil(t, app.repo)
	assert.NotNil(t, app.api)
	assert.NotNil(t, app.orch)
	assert.NotNil(t, app.bridge)
	assert.False(t, app.isLoggedIn())
}

func TestGetStatus(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, "", app.getStatus())

	app.setWedding("w-123")
	assert.Equal(t, "(w-123 )", app.getStatus())

	app.Mode = ModeOnline
	assert.Equal(t, "(w-123 online)", app.getStatus())
}

func TestSetKeys_RequiresWedding(t *testing.T) {
	app := newTestApp(t)

	app.setKeys("album", "process")
	assert.False(t, app.keys.Present())

	app.setWedding("w-1")
	app.setKeys("album", "process")
	assert.True(t, app.keys.Present())
}

func TestSetWedding_ResetsKeys(t *testing.T) {
	app := newTestApp(t)

	app.setWedding("w-1")
	app.setKeys("album", "process")
	require.True(t, app.keys.Present())

	// keys belong to one wedding, never carried over
	app.setWedding("w-2")
	assert.False(t, app.keys.Present())
}
