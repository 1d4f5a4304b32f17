// Package progress derives UI-facing aggregate state from queue records.
// It is a pure projection: never a source of truth, always recomputable
// from the store alone.
package progress

import (
	"math"

	"github.com/dmitrijs2005/photoqueue/internal/models"
)

// Summary is the aggregate view of a set of pending uploads.
type Summary struct {
	Total     int
	Queued    int
	Uploading int
	Paused    int
	Failed    int
	Completed int
	Cancelled int

	// Percent is completed/total*100, rounded. Zero when the set is empty.
	Percent int
}

// Active reports whether any record is still moving (queued, uploading or
// paused). This replaces any stored "is uploading" flag, which could drift
// out of sync with the records.
func (s Summary) Active() bool {
	return s.Queued > 0 || s.Uploading > 0 || s.Paused > 0
}

// Summarize computes the Summary for the given records. It mutates nothing.
func Summarize(records []*models.PendingUpload) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		switch r.Status {
		case models.StatusQueued:
			s.Queued++
		case models.StatusUploading:
			s.Uploading++
		case models.StatusPaused:
			s.Paused++
		case models.StatusFailed:
			s.Failed++
		case models.StatusCompleted:
			s.Completed++
		case models.StatusCancelled:
			s.Cancelled++
		}
	}
	if s.Total > 0 {
		s.Percent = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
