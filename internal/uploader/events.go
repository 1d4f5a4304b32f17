package uploader

import "github.com/dmitrijs2005/photoqueue/internal/models"

// Event describes one observable change of a queue record: a status
// transition or a progress tick. Events are advisory; the durable store
// remains the source of truth and any consumer can re-read it at will.
type Event struct {
	UUID      string
	WeddingID string
	SessionID string
	Status    models.UploadStatus
	Progress  int
	LastError string
}

// EventSink receives orchestrator events. It must not block: it is invoked
// from upload goroutines.
type EventSink func(Event)
