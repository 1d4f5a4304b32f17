package pending

import (
	"context"

	"github.com/dmitrijs2005/photoqueue/internal/models"
)

// Repository describes the operations of the durable upload queue.
// Implementations are typically backed by a local SQLite database.
type Repository interface {
	// Put inserts or overwrites a record by its uuid.
	Put(ctx context.Context, record *models.PendingUpload) error

	// PutBatch stores a group of records atomically: either the whole
	// batch lands or none of it does.
	PutBatch(ctx context.Context, records []*models.PendingUpload) error

	// Get returns a single record, or common.ErrNotFound.
	Get(ctx context.Context, uuid string) (*models.PendingUpload, error)

	// QueryByWedding returns all records for one wedding.
	QueryByWedding(ctx context.Context, weddingID string) ([]*models.PendingUpload, error)

	// QueryByStatus returns all records in the given status, globally.
	// Used on startup to find interrupted uploads.
	QueryByStatus(ctx context.Context, status models.UploadStatus) ([]*models.PendingUpload, error)

	// QueryBySession returns all records sharing one upload session.
	QueryBySession(ctx context.Context, sessionID string) ([]*models.PendingUpload, error)

	// Delete removes a record. Deleting an absent uuid is a no-op.
	Delete(ctx context.Context, uuid string) error

	// ClearWedding removes every record belonging to one wedding.
	ClearWedding(ctx context.Context, weddingID string) error

	// Clear removes all records (logout).
	Clear(ctx context.Context) error
}
