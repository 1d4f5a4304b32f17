package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photoqueue/internal/common"
	"github.com/dmitrijs2005/photoqueue/internal/dbx"
	"github.com/dmitrijs2005/photoqueue/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const recordColumns = `uuid, wedding_id, upload_session_id, original_filename, extension, payload,
	status, progress, retries, created_at, metadata_registered, wrapped_photo_key, wrapped_process_key, last_error`

// Put upserts a record by uuid. On conflict every mutable column is updated.
func (r *SQLiteRepository) Put(ctx context.Context, rec *models.PendingUpload) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO pending_uploads (` + recordColumns + `)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(uuid) DO UPDATE SET status = excluded.status,
				progress = excluded.progress,
				retries = excluded.retries,
				metadata_registered = excluded.metadata_registered,
				wrapped_photo_key = excluded.wrapped_photo_key,
				wrapped_process_key = excluded.wrapped_process_key,
				last_error = excluded.last_error
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.UUID, rec.WeddingID, rec.SessionID, rec.OriginalFilename, rec.Extension, rec.Payload,
		string(rec.Status), rec.Progress, rec.Retries, rec.CreatedAt, rec.MetadataRegistered,
		rec.WrappedPhotoKey, rec.WrappedProcessKey, rec.LastError)
	if err != nil {
		return &common.StorageError{Op: "put", Err: err}
	}
	return nil
}

// PutBatch upserts a group of records in one transaction when the
// repository is bound to a plain *sql.DB. Inside an existing transaction
// the records are written directly; the caller's transaction provides the
// atomicity.
func (r *SQLiteRepository) PutBatch(ctx context.Context, recs []*models.PendingUpload) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return r.putAll(ctx, recs)
	}

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return (&SQLiteRepository{db: tx}).putAll(ctx, recs)
	})
	if err == nil {
		return nil
	}
	var serr *common.StorageError
	var verr *common.ValidationError
	if errors.As(err, &serr) || errors.As(err, &verr) {
		return err
	}
	// begin/commit failures
	return &common.StorageError{Op: "put batch", Err: err}
}

func (r *SQLiteRepository) putAll(ctx context.Context, recs []*models.PendingUpload) error {
	for _, rec := range recs {
		if err := r.Put(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Get returns one record by uuid, or common.ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, uuid string) (*models.PendingUpload, error) {
	query := `select ` + recordColumns + ` from pending_uploads where uuid=?`
	row := r.db.QueryRowContext(ctx, query, uuid)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", uuid, common.ErrNotFound)
	}
	if err != nil {
		return nil, &common.StorageError{Op: "get", Err: err}
	}
	return rec, nil
}

func (r *SQLiteRepository) QueryByWedding(ctx context.Context, weddingID string) ([]*models.PendingUpload, error) {
	query := `select ` + recordColumns + ` from pending_uploads where wedding_id=? order by created_at`
	return r.queryRecords(ctx, "query by wedding", query, weddingID)
}

func (r *SQLiteRepository) QueryByStatus(ctx context.Context, status models.UploadStatus) ([]*models.PendingUpload, error) {
	query := `select ` + recordColumns + ` from pending_uploads where status=? order by created_at`
	return r.queryRecords(ctx, "query by status", query, string(status))
}

func (r *SQLiteRepository) QueryBySession(ctx context.Context, sessionID string) ([]*models.PendingUpload, error) {
	query := `select ` + recordColumns + ` from pending_uploads where upload_session_id=? order by created_at`
	return r.queryRecords(ctx, "query by session", query, sessionID)
}

// Delete removes a record by uuid. Absent rows are not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, uuid string) error {
	_, err := r.db.ExecContext(ctx, `delete from pending_uploads where uuid=?`, uuid)
	if err != nil {
		return &common.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// ClearWedding removes all records for one wedding.
func (r *SQLiteRepository) ClearWedding(ctx context.Context, weddingID string) error {
	_, err := r.db.ExecContext(ctx, `delete from pending_uploads where wedding_id=?`, weddingID)
	if err != nil {
		return &common.StorageError{Op: "clear wedding", Err: err}
	}
	return nil
}

// Clear removes every record. Used on logout.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `delete from pending_uploads`)
	if err != nil {
		return &common.StorageError{Op: "clear", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) queryRecords(ctx context.Context, op, query string, args ...any) ([]*models.PendingUpload, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &common.StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	var result []*models.PendingUpload
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, &common.StorageError{Op: op, Err: err}
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &common.StorageError{Op: op, Err: err}
	}
	return result, nil
}

func scanRecord(scan func(dest ...any) error) (*models.PendingUpload, error) {
	rec := &models.PendingUpload{}
	var status string
	err := scan(&rec.UUID, &rec.WeddingID, &rec.SessionID, &rec.OriginalFilename, &rec.Extension, &rec.Payload,
		&status, &rec.Progress, &rec.Retries, &rec.CreatedAt, &rec.MetadataRegistered,
		&rec.WrappedPhotoKey, &rec.WrappedProcessKey, &rec.LastError)
	if err != nil {
		return nil, err
	}
	rec.Status = models.UploadStatus(status)
	return rec, nil
}
