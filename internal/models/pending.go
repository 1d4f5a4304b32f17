package models

import (
	"time"

	"github.com/dmitrijs2005/photoqueue/internal/common"
	"github.com/google/uuid"
)

// PendingUpload tracks one photo selected for upload, from selection to a
// terminal state. Records are persisted in the local durable store and
// survive process restarts; the store is the single source of truth for
// status and progress.
type PendingUpload struct {
	// UUID is assigned client-side at selection time and is globally
	// unique across weddings and sessions.
	UUID string

	// WeddingID scopes the record; queue operations never cross weddings.
	WeddingID string

	// SessionID groups records submitted together in one user batch.
	SessionID string

	// Payload is the photo bytes to transmit: the original file content,
	// or the AEAD ciphertext when encryption is enabled.
	Payload []byte

	OriginalFilename string
	Extension        string

	Status UploadStatus

	// Progress is a percent in [0,100], meaningful only while uploading;
	// it is monotonic non-decreasing for the duration of one transfer.
	Progress int

	// Retries counts failed attempts. It never decreases.
	Retries int

	CreatedAt time.Time

	// MetadataRegistered is set once the server has persisted the photo's
	// descriptive record, distinct from the byte transfer completing.
	MetadataRegistered bool

	// WrappedPhotoKey and WrappedProcessKey carry the per-photo symmetric
	// key wrapped under the album and process public keys. Empty when
	// encryption is disabled for the wedding. Both wrap the same key;
	// protecting each private key independently is the recipients' concern.
	WrappedPhotoKey   []byte
	WrappedProcessKey []byte

	// LastError is the human-readable reason for the most recent failure.
	LastError string
}

// NewPendingUpload builds a queued record for one selected file, assigning
// a fresh UUID. Malformed input is rejected at this boundary so nothing
// downstream has to re-check shapes.
func NewPendingUpload(weddingID, sessionID, filename, extension string, payload []byte) (*PendingUpload, error) {
	if weddingID == "" {
		return nil, &common.ValidationError{Field: "weddingID", Msg: "must not be empty"}
	}
	if sessionID == "" {
		return nil, &common.ValidationError{Field: "sessionID", Msg: "must not be empty"}
	}
	if filename == "" {
		return nil, &common.ValidationError{Field: "originalFilename", Msg: "must not be empty"}
	}
	if len(payload) == 0 {
		return nil, &common.ValidationError{Field: "payload", Msg: "must not be empty"}
	}
	return &PendingUpload{
		UUID:             uuid.NewString(),
		WeddingID:        weddingID,
		SessionID:        sessionID,
		OriginalFilename: filename,
		Extension:        extension,
		Payload:          payload,
		Status:           StatusQueued,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// Validate checks the invariants a record must hold before it is persisted
// or transmitted.
func (p *PendingUpload) Validate() error {
	if p.UUID == "" {
		return &common.ValidationError{Field: "uuid", Msg: "must not be empty"}
	}
	if p.WeddingID == "" {
		return &common.ValidationError{Field: "weddingID", Msg: "must not be empty"}
	}
	if !p.Status.Valid() {
		return &common.ValidationError{Field: "status", Msg: "unknown status " + string(p.Status)}
	}
	if p.Progress < 0 || p.Progress > 100 {
		return &common.ValidationError{Field: "progress", Msg: "must be within [0,100]"}
	}
	if p.Status == StatusCompleted && (p.Progress != 100 || !p.MetadataRegistered) {
		return &common.ValidationError{Field: "status", Msg: "completed requires progress=100 and registered metadata"}
	}
	return nil
}

// Encrypted reports whether the record carries wrapped key material.
func (p *PendingUpload) Encrypted() bool {
	return len(p.WrappedPhotoKey) > 0 && len(p.WrappedProcessKey) > 0
}

// StoredPhoto is the per-file confirmation returned by the photo API once
// the bytes have been accepted into remote storage.
type StoredPhoto struct {
	OriginalFilename string `json:"originalFilename"`
	StorageKey       string `json:"storageKey"`
	UploadedBy       string `json:"uploadedBy"`
	UploadSource     string `json:"uploadSource"`
}

// WeddingKeys carries the recipient public keys registered for a wedding.
// Absent keys disable encryption for that wedding's uploads.
type WeddingKeys struct {
	AlbumPublicKey   string
	ProcessPublicKey string
}

// Present reports whether both keys are available.
func (k WeddingKeys) Present() bool {
	return k.AlbumPublicKey != "" && k.ProcessPublicKey != ""
}
