// Package client talks to the remote photo API: multipart byte transfer,
// metadata registration, and bearer-token handling. It knows nothing about
// the queue; the orchestrator drives it.
package client

import (
	"context"

	"github.com/dmitrijs2005/photoqueue/internal/models"
)

// Photo is one photo's bytes prepared for transfer.
type Photo struct {
	UUID     string
	Filename string
	Content  []byte
}

// PhotoMetadata is the descriptive record registered after the bytes are
// stored. Wrapped keys are present only for encrypted uploads.
type PhotoMetadata struct {
	UUID              string `json:"uuid"`
	SessionID         string `json:"uploadSessionId"`
	OriginalFilename  string `json:"originalFilename"`
	Extension         string `json:"extension"`
	StorageKey        string `json:"storageKey"`
	WrappedPhotoKey   []byte `json:"wrappedPhotoKey,omitempty"`
	WrappedProcessKey []byte `json:"wrappedProcessKey,omitempty"`
}

// ProgressFunc receives byte-level transfer progress as a percent [0,100].
// The callback is bound to the single photo of the request that emits it.
type ProgressFunc func(pct int)

// Client is the photo API seen by the orchestrator.
type Client interface {
	Close() error

	// UploadPhoto transfers one photo's bytes and returns the server's
	// storage confirmation. onProgress may be nil.
	UploadPhoto(ctx context.Context, weddingID string, photo Photo, onProgress ProgressFunc) (*models.StoredPhoto, error)

	// RegisterMetadata persists the photo's descriptive record server-side.
	RegisterMetadata(ctx context.Context, weddingID string, meta PhotoMetadata) error

	// Ping checks API reachability.
	Ping(ctx context.Context) error
}
