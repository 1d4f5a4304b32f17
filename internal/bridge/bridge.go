// Package bridge is the boundary between the upload pipeline and a UI shell.
// Commands go in, status events fan out. It routes; it decides nothing.
package bridge

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/photoqueue/internal/logging"
	"github.com/dmitrijs2005/photoqueue/internal/models"
	"github.com/dmitrijs2005/photoqueue/internal/progress"
	"github.com/dmitrijs2005/photoqueue/internal/uploader"
)

// Pipeline is the command surface the bridge forwards to. Satisfied by
// *uploader.Orchestrator.
type Pipeline interface {
	SubmitBatch(ctx context.Context, weddingID string, selections []uploader.Selection, keys models.WeddingKeys) (string, error)
	Pause(uuid string) error
	Resume(ctx context.Context, uuid string) error
	Cancel(ctx context.Context, uuid string) error
	Retry(ctx context.Context, uuid string) error
	ClearAll(ctx context.Context, weddingID string) error
	Snapshot(ctx context.Context, weddingID string) ([]*models.PendingUpload, error)
}

// StateSnapshot is what a UI needs to render one wedding's upload screen.
type StateSnapshot struct {
	Records []*models.PendingUpload
	Summary progress.Summary
}

type Bridge struct {
	pipe Pipeline
	log  logging.Logger

	mu     sync.Mutex
	subs   map[int]chan uploader.Event
	nextID int
}

func New(pipe Pipeline, log logging.Logger) *Bridge {
	if log == nil {
		log = logging.Discard()
	}
	return &Bridge{
		pipe: pipe,
		log:  log,
		subs: make(map[int]chan uploader.Event),
	}
}

// Publish fans an event out to every subscriber. Install it as the
// orchestrator's event sink. A subscriber whose buffer is full misses the
// event; consumers resynchronize from Snapshot, uploads never stall on a
// slow UI.
func (b *Bridge) Publish(ev uploader.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.log.Debug(context.Background(), "subscriber lagging, event dropped", "subscriber", id, "uuid", ev.UUID)
		}
	}
}

// Subscribe registers an event channel with the given buffer size and
// returns it with a cancel func. Cancel closes the channel.
func (b *Bridge) Subscribe(buffer int) (<-chan uploader.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan uploader.Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *Bridge) SubmitBatch(ctx context.Context, weddingID string, selections []uploader.Selection, keys models.WeddingKeys) (string, error) {
	return b.pipe.SubmitBatch(ctx, weddingID, selections, keys)
}

func (b *Bridge) Pause(uuid string) error { return b.pipe.Pause(uuid) }

func (b *Bridge) Resume(ctx context.Context, uuid string) error { return b.pipe.Resume(ctx, uuid) }

func (b *Bridge) Cancel(ctx context.Context, uuid string) error { return b.pipe.Cancel(ctx, uuid) }

func (b *Bridge) Retry(ctx context.Context, uuid string) error { return b.pipe.Retry(ctx, uuid) }

func (b *Bridge) ClearAll(ctx context.Context, weddingID string) error {
	return b.pipe.ClearAll(ctx, weddingID)
}

// Snapshot returns the wedding's records together with their projection.
func (b *Bridge) Snapshot(ctx context.Context, weddingID string) (*StateSnapshot, error) {
	recs, err := b.pipe.Snapshot(ctx, weddingID)
	if err != nil {
		return nil, err
	}
	return &StateSnapshot{
		Records: recs,
		Summary: progress.Summarize(recs),
	}, nil
}

// Close detaches every subscriber.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
