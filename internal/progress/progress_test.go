package progress

import (
	"testing"

	"github.com/dmitrijs2005/photoqueue/internal/models"
	"github.com/stretchr/testify/assert"
)

func recordsWith(statuses ...models.UploadStatus) []*models.PendingUpload {
	out := make([]*models.PendingUpload, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, &models.PendingUpload{
			UUID:      string(rune('a' + i)),
			WeddingID: "w1",
			Status:    s,
		})
	}
	return out
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Summary{}, s)
	assert.False(t, s.Active())
}

func TestSummarize_Counts(t *testing.T) {
	s := Summarize(recordsWith(
		models.StatusQueued,
		models.StatusUploading,
		models.StatusUploading,
		models.StatusPaused,
		models.StatusFailed,
		models.StatusCompleted,
		models.StatusCancelled,
	))

	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 1, s.Queued)
	assert.Equal(t, 2, s.Uploading)
	assert.Equal(t, 1, s.Paused)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Cancelled)
	assert.True(t, s.Active())
}

func TestSummarize_PercentRounding(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		other     int
		want      int
	}{
		{"none done", 0, 5, 0},
		{"all done", 3, 0, 100},
		{"one of three", 1, 2, 33},
		{"two of three", 2, 1, 67},
		{"half", 1, 1, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statuses := make([]models.UploadStatus, 0, tt.completed+tt.other)
			for i := 0; i < tt.completed; i++ {
				statuses = append(statuses, models.StatusCompleted)
			}
			for i := 0; i < tt.other; i++ {
				statuses = append(statuses, models.StatusQueued)
			}
			assert.Equal(t, tt.want, Summarize(recordsWith(statuses...)).Percent)
		})
	}
}

func TestSummarize_DoesNotMutate(t *testing.T) {
	recs := recordsWith(models.StatusQueued)
	recs[0].Progress = 40
	_ = Summarize(recs)
	assert.Equal(t, models.StatusQueued, recs[0].Status)
	assert.Equal(t, 40, recs[0].Progress)
}

func TestActive_TerminalOnly(t *testing.T) {
	s := Summarize(recordsWith(models.StatusCompleted, models.StatusCancelled, models.StatusFailed))
	assert.False(t, s.Active(), "failed needs user action, nothing is moving")
}
