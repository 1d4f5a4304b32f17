package bridge

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/photoqueue/internal/models"
	"github.com/dmitrijs2005/photoqueue/internal/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	lastCall    string
	lastUUID    string
	lastWedding string
	snapshot    []*models.PendingUpload
	err         error
}

func (f *fakePipeline) SubmitBatch(ctx context.Context, weddingID string, selections []uploader.Selection, keys models.WeddingKeys) (string, error) {
	f.lastCall = "submit"
	f.lastWedding = weddingID
	return "session-1", f.err
}

func (f *fakePipeline) Pause(uuid string) error {
	f.lastCall, f.lastUUID = "pause", uuid
	return f.err
}

func (f *fakePipeline) Resume(ctx context.Context, uuid string) error {
	f.lastCall, f.lastUUID = "resume", uuid
	return f.err
}

func (f *fakePipeline) Cancel(ctx context.Context, uuid string) error {
	f.lastCall, f.lastUUID = "cancel", uuid
	return f.err
}

func (f *fakePipeline) Retry(ctx context.Context, uuid string) error {
	f.lastCall, f.lastUUID = "retry", uuid
	return f.err
}

func (f *fakePipeline) ClearAll(ctx context.Context, weddingID string) error {
	f.lastCall, f.lastWedding = "clear", weddingID
	return f.err
}

func (f *fakePipeline) Snapshot(ctx context.Context, weddingID string) ([]*models.PendingUpload, error) {
	f.lastCall, f.lastWedding = "snapshot", weddingID
	return f.snapshot, f.err
}

func TestCommands_RouteToPipeline(t *testing.T) {
	pipe := &fakePipeline{}
	b := New(pipe, nil)
	ctx := context.Background()

	session, err := b.SubmitBatch(ctx, "w1", nil, models.WeddingKeys{})
	require.NoError(t, err)
	assert.Equal(t, "session-1", session)
	assert.Equal(t, "submit", pipe.lastCall)
	assert.Equal(t, "w1", pipe.lastWedding)

	require.NoError(t, b.Pause("u1"))
	assert.Equal(t, "pause", pipe.lastCall)
	assert.Equal(t, "u1", pipe.lastUUID)

	require.NoError(t, b.Resume(ctx, "u2"))
	assert.Equal(t, "resume", pipe.lastCall)
	assert.Equal(t, "u2", pipe.lastUUID)

	require.NoError(t, b.Cancel(ctx, "u3"))
	assert.Equal(t, "cancel", pipe.lastCall)

	require.NoError(t, b.Retry(ctx, "u4"))
	assert.Equal(t, "retry", pipe.lastCall)

	require.NoError(t, b.ClearAll(ctx, "w2"))
	assert.Equal(t, "clear", pipe.lastCall)
	assert.Equal(t, "w2", pipe.lastWedding)
}

func TestPublish_FansOutToAllSubscribers(t *testing.T) {
	b := New(&fakePipeline{}, nil)
	defer b.Close()

	ch1, cancel1 := b.Subscribe(4)
	defer cancel1()
	ch2, cancel2 := b.Subscribe(4)
	defer cancel2()

	ev := uploader.Event{UUID: "u1", Status: models.StatusUploading, Progress: 30}
	b.Publish(ev)

	assert.Equal(t, ev, <-ch1)
	assert.Equal(t, ev, <-ch2)
}

func TestPublish_DropsWhenSubscriberLags(t *testing.T) {
	b := New(&fakePipeline{}, nil)
	defer b.Close()

	ch, cancel := b.Subscribe(1)
	defer cancel()

	// a full buffer must never block the publisher
	b.Publish(uploader.Event{UUID: "u1", Progress: 10})
	b.Publish(uploader.Event{UUID: "u1", Progress: 20})
	b.Publish(uploader.Event{UUID: "u1", Progress: 30})

	got := <-ch
	assert.Equal(t, 10, got.Progress)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected buffered event: %+v", ev)
	default:
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	b := New(&fakePipeline{}, nil)
	defer b.Close()

	ch, cancel := b.Subscribe(1)
	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)

	// publishing after cancel must not panic
	b.Publish(uploader.Event{UUID: "u1"})
}

func TestSnapshot_AttachesProjection(t *testing.T) {
	recs := []*models.PendingUpload{
		{UUID: "a", WeddingID: "w1", Status: models.StatusCompleted, Progress: 100},
		{UUID: "b", WeddingID: "w1", Status: models.StatusUploading, Progress: 40},
		{UUID: "c", WeddingID: "w1", Status: models.StatusQueued},
		{UUID: "d", WeddingID: "w1", Status: models.StatusFailed},
	}
	pipe := &fakePipeline{snapshot: recs}
	b := New(pipe, nil)

	snap, err := b.Snapshot(context.Background(), "w1")
	require.NoError(t, err)

	assert.Equal(t, recs, snap.Records)
	assert.Equal(t, 4, snap.Summary.Total)
	assert.Equal(t, 1, snap.Summary.Completed)
	assert.Equal(t, 1, snap.Summary.Uploading)
	assert.Equal(t, 1, snap.Summary.Queued)
	assert.Equal(t, 1, snap.Summary.Failed)
	assert.Equal(t, 25, snap.Summary.Percent)
	assert.True(t, snap.Summary.Active())
}
