// Package pending provides the durable queue store: the client-side
// persistence layer for photo upload records.
//
// # Overview
//
// The package defines a Repository interface for storing, querying and
// removing models.PendingUpload records, plus a SQLite-backed implementation
// (SQLiteRepository) persisting via a dbx.DBTX (*sql.DB or *sql.Tx). Records
// survive process restarts; the store is the single source of truth for
// upload status and progress.
//
// Key Types
//
//   - type Repository        — contract used by the upload orchestrator
//   - type SQLiteRepository  — SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	db, _ := pending.Open(ctx, "queue.db")
//	repo := pending.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, record)
//	interrupted, _ := repo.QueryByStatus(ctx, models.StatusUploading)
//
// See also: internal/models.PendingUpload for field semantics.
package pending
