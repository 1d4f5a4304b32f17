// Package models defines the photoqueue data model: pending upload records
// and their lifecycle state machine.
package models

// UploadStatus is the lifecycle state of a pending upload.
type UploadStatus string

const (
	StatusQueued    UploadStatus = "queued"
	StatusUploading UploadStatus = "uploading"
	StatusPaused    UploadStatus = "paused"
	StatusFailed    UploadStatus = "failed"
	StatusCompleted UploadStatus = "completed"
	StatusCancelled UploadStatus = "cancelled"
)

// transitions enumerates the allowed edges of the lifecycle machine:
//
//	queued    -> uploading | cancelled
//	uploading -> completed | failed | paused | cancelled
//	paused    -> uploading | cancelled
//	failed    -> queued (retry) | cancelled
//
// completed and cancelled are terminal.
var transitions = map[UploadStatus][]UploadStatus{
	StatusQueued:    {StatusUploading, StatusCancelled},
	StatusUploading: {StatusCompleted, StatusFailed, StatusPaused, StatusCancelled},
	StatusPaused:    {StatusUploading, StatusCancelled},
	StatusFailed:    {StatusQueued, StatusCancelled},
}

// Valid reports whether s is a known status value.
func (s UploadStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusUploading, StatusPaused, StatusFailed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted from s.
func (s UploadStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether the edge s -> to exists in the machine.
// Self-transitions are not edges.
func (s UploadStatus) CanTransition(to UploadStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
