// Package migrations embeds the SQLite schema migrations for the local
// upload queue, applied with goose at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
