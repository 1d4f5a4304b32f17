// Package uploader drives queued photos through their upload lifecycle:
// dispatching under a concurrency cap, transferring bytes, registering
// metadata, and handling pause/resume/cancel/retry. All state changes go
// through the durable queue store; in-memory copies are caches kept in sync
// on every mutation.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/photoqueue/internal/client"
	"github.com/dmitrijs2005/photoqueue/internal/common"
	"github.com/dmitrijs2005/photoqueue/internal/cryptox"
	"github.com/dmitrijs2005/photoqueue/internal/logging"
	"github.com/dmitrijs2005/photoqueue/internal/models"
	"github.com/dmitrijs2005/photoqueue/internal/repositories/pending"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// cancellation causes, used to tell a user pause apart from a user cancel
// when an in-flight request is aborted
var (
	errPauseRequested  = errors.New("pause requested")
	errCancelRequested = errors.New("cancel requested")
)

var (
	ErrNotPausable  = errors.New("only an uploading photo can be paused")
	ErrNotResumable = errors.New("only a paused photo can be resumed")
	ErrNotRetryable = errors.New("only a failed photo can be retried")
	ErrClosed       = errors.New("orchestrator is closed")
)

// Selection is one file the user picked for upload.
type Selection struct {
	Filename  string
	Extension string
	Content   []byte
}

// inflightEntry tracks one active run goroutine. intent records whether a
// pause or a cancel aborted the photo's context; a cancel always wins over
// a pending pause. redispatch marks a dispatch that arrived while the entry
// still existed, honored when the entry is released.
type inflightEntry struct {
	cancel     context.CancelCauseFunc
	intent     error
	redispatch bool
}

// Orchestrator owns the upload state machine. One run goroutine exists per
// active uuid at most, so no photo ever has two concurrent network requests.
type Orchestrator struct {
	repo pending.Repository
	api  client.Client
	enc  *cryptox.Encryptor
	log  logging.Logger
	cfg  Config

	baseCtx context.Context
	stop    context.CancelFunc
	sem     chan struct{}

	mu       sync.Mutex
	inflight map[string]*inflightEntry
	records  map[string]*models.PendingUpload
	degraded map[string]bool // uuids whose store writes are failing
	closed   bool

	sink EventSink
	wg   sync.WaitGroup
}

func NewOrchestrator(repo pending.Repository, api client.Client, enc *cryptox.Encryptor, log logging.Logger, cfg Config) *Orchestrator {
	cfg.setDefaults()
	if log == nil {
		log = logging.Discard()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		repo:     repo,
		api:      api,
		enc:      enc,
		log:      log,
		cfg:      cfg,
		baseCtx:  ctx,
		stop:     stop,
		sem:      make(chan struct{}, cfg.Concurrency),
		inflight: make(map[string]*inflightEntry),
		records:  make(map[string]*models.PendingUpload),
		degraded: make(map[string]bool),
	}
}

// SetEventSink installs the consumer of status/progress events. Call before
// submitting work.
func (o *Orchestrator) SetEventSink(sink EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sink = sink
}

// Close aborts all in-flight work and waits for run goroutines to finish.
// Interrupted records stay in the store and are recovered on next start.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.stop()
	o.wg.Wait()
}

// SubmitBatch creates one queued record per selection under a fresh session
// id, encrypting payloads when the wedding has both public keys registered,
// and dispatches them. Per-photo problems (validation, storage) are
// reported per record and do not abort siblings.
func (o *Orchestrator) SubmitBatch(ctx context.Context, weddingID string, selections []Selection, keys models.WeddingKeys) (string, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", ErrClosed
	}
	o.mu.Unlock()

	if len(selections) == 0 {
		return "", &common.ValidationError{Field: "selections", Msg: "must not be empty"}
	}

	sessionID := uuid.NewString()

	var queued []*models.PendingUpload
	for _, sel := range selections {
		payload := sel.Content
		var wrappedPhoto, wrappedProcess []byte

		if keys.Present() {
			ep, err := o.enc.EncryptOrFail(sel.Content, keys.AlbumPublicKey, keys.ProcessPublicKey)
			if err != nil {
				o.log.Error(ctx, "encryption failed", "filename", sel.Filename, "error", err)
				o.submitFailed(ctx, weddingID, sessionID, sel, err)
				continue
			}
			payload = ep.EncryptedBytes
			wrappedPhoto = ep.WrappedPhotoKey
			wrappedProcess = ep.WrappedProcessKey
		}

		rec, err := models.NewPendingUpload(weddingID, sessionID, sel.Filename, sel.Extension, payload)
		if err != nil {
			o.log.Error(ctx, "selection rejected", "filename", sel.Filename, "error", err)
			o.submitFailed(ctx, weddingID, sessionID, sel, err)
			continue
		}
		rec.WrappedPhotoKey = wrappedPhoto
		rec.WrappedProcessKey = wrappedProcess
		queued = append(queued, rec)
	}

	o.mu.Lock()
	for _, rec := range queued {
		o.records[rec.UUID] = rec
	}
	o.mu.Unlock()

	o.persistBatch(ctx, queued)
	for _, rec := range queued {
		o.emit(rec)
		o.dispatch(rec.UUID)
	}

	return sessionID, nil
}

// submitFailed records a selection that could not be queued, so the failure
// shows up in listings and events instead of vanishing into a log line. The
// payload is dropped: a photo that cannot be encrypted is never stored in
// plaintext.
func (o *Orchestrator) submitFailed(ctx context.Context, weddingID, sessionID string, sel Selection, cause error) {
	rec := &models.PendingUpload{
		UUID:             uuid.NewString(),
		WeddingID:        weddingID,
		SessionID:        sessionID,
		OriginalFilename: sel.Filename,
		Extension:        sel.Extension,
		Status:           models.StatusFailed,
		CreatedAt:        time.Now().UTC(),
		LastError:        cause.Error(),
	}

	o.mu.Lock()
	o.records[rec.UUID] = rec
	o.mu.Unlock()

	o.persist(ctx, rec)
	o.emit(rec)
}

// RecoverInterrupted re-queues records a previous process left mid-upload
// and dispatches everything queued. Call once on startup.
func (o *Orchestrator) RecoverInterrupted(ctx context.Context) error {
	interrupted, err := o.repo.QueryByStatus(ctx, models.StatusUploading)
	if err != nil {
		return fmt.Errorf("querying interrupted uploads: %w", err)
	}
	for _, rec := range interrupted {
		// a restart is not a failed attempt, so retries stays put
		rec.Status = models.StatusQueued
		rec.LastError = "interrupted by restart"
		o.adopt(rec)
		o.persist(ctx, rec)
		o.emit(rec)
		o.dispatch(rec.UUID)
	}

	queued, err := o.repo.QueryByStatus(ctx, models.StatusQueued)
	if err != nil {
		return fmt.Errorf("querying queued uploads: %w", err)
	}
	for _, rec := range queued {
		o.adopt(rec)
		o.dispatch(rec.UUID)
	}
	return nil
}

// Pause aborts the in-flight transfer for uuid, keeping its progress so the
// UI can show where it stopped. Only an uploading photo can pause.
func (o *Orchestrator) Pause(id string) error {
	o.mu.Lock()
	rec, ok := o.records[id]
	if !ok || rec.Status != models.StatusUploading {
		alreadyPaused := ok && rec.Status == models.StatusPaused
		o.mu.Unlock()
		if alreadyPaused {
			return nil
		}
		return ErrNotPausable
	}
	entry := o.inflight[id]
	var cancel context.CancelCauseFunc
	if entry != nil {
		if entry.intent == nil {
			entry.intent = errPauseRequested
		}
		cancel = entry.cancel
	}
	o.mu.Unlock()

	if cancel != nil {
		cancel(errPauseRequested)
	}
	return nil
}

// Resume restarts a paused photo. The record stays paused until a
// concurrency slot frees up, then transitions straight to uploading;
// the transfer restarts from zero.
func (o *Orchestrator) Resume(ctx context.Context, id string) error {
	if _, err := o.loadRecord(ctx, id); err != nil {
		return err
	}

	o.mu.Lock()
	rec := o.records[id]
	if rec == nil || rec.Status != models.StatusPaused {
		o.mu.Unlock()
		return ErrNotResumable
	}
	o.mu.Unlock()

	o.dispatch(id)
	return nil
}

// Retry re-queues a failed photo on explicit user request, bypassing the
// automatic retry cap.
func (o *Orchestrator) Retry(ctx context.Context, id string) error {
	o.mu.Lock()
	rec, ok := o.records[id]
	o.mu.Unlock()
	if !ok {
		var err error
		rec, err = o.loadRecord(ctx, id)
		if err != nil {
			return err
		}
	}

	o.mu.Lock()
	if rec.Status != models.StatusFailed {
		o.mu.Unlock()
		return ErrNotRetryable
	}
	if len(rec.Payload) == 0 {
		// a selection that never made it into the queue has nothing to send
		o.mu.Unlock()
		return ErrNotRetryable
	}
	rec.Status = models.StatusQueued
	rec.LastError = ""
	out := *rec
	o.mu.Unlock()

	o.persist(ctx, &out)
	o.emit(&out)
	o.dispatch(id)
	return nil
}

// Cancel aborts uuid wherever it is in its lifecycle and removes it from
// the queue. Cancelling an already-terminal record is a no-op.
func (o *Orchestrator) Cancel(ctx context.Context, id string) error {
	o.mu.Lock()
	if entry, busy := o.inflight[id]; busy {
		// a cancel always wins, even over a pause that already aborted
		// the context; the run goroutine settles from the intent
		entry.intent = errCancelRequested
		cancel := entry.cancel
		o.mu.Unlock()
		cancel(errCancelRequested)
		return nil
	}
	rec, tracked := o.records[id]
	o.mu.Unlock()

	if !tracked {
		var err error
		rec, err = o.loadRecord(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			return nil // idempotent
		}
		if err != nil {
			return err
		}
	}

	o.mu.Lock()
	if rec.Status.Terminal() {
		o.mu.Unlock()
		return nil
	}
	rec.Status = models.StatusCancelled
	out := *rec
	delete(o.records, id)
	o.mu.Unlock()

	o.emit(&out)
	if err := o.repo.Delete(ctx, id); err != nil {
		o.log.Warn(ctx, "removing cancelled record failed", "uuid", id, "error", err)
	}
	return nil
}

// ClearAll cancels and removes every record of one wedding.
func (o *Orchestrator) ClearAll(ctx context.Context, weddingID string) error {
	o.mu.Lock()
	var ids []string
	for id, rec := range o.records {
		if rec.WeddingID == weddingID {
			ids = append(ids, id)
		}
	}
	o.mu.Unlock()

	for _, id := range ids {
		if err := o.Cancel(ctx, id); err != nil {
			o.log.Warn(ctx, "cancel during clear failed", "uuid", id, "error", err)
		}
	}

	o.mu.Lock()
	for id, rec := range o.records {
		if rec.WeddingID == weddingID {
			delete(o.records, id)
		}
	}
	o.mu.Unlock()

	return o.repo.ClearWedding(ctx, weddingID)
}

// Snapshot returns the current records for a wedding, preferring the
// in-memory copies (which survive store write failures) merged over what
// the store holds.
func (o *Orchestrator) Snapshot(ctx context.Context, weddingID string) ([]*models.PendingUpload, error) {
	stored, err := o.repo.QueryByWedding(ctx, weddingID)
	if err != nil {
		stored = nil
		o.log.Warn(ctx, "reading store failed, serving memory state", "wedding", weddingID, "error", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	byID := make(map[string]*models.PendingUpload, len(stored))
	var out []*models.PendingUpload
	for _, rec := range stored {
		if mem, ok := o.records[rec.UUID]; ok {
			cp := *mem
			rec = &cp
		}
		byID[rec.UUID] = rec
		out = append(out, rec)
	}
	for id, mem := range o.records {
		if mem.WeddingID != weddingID {
			continue
		}
		if _, ok := byID[id]; !ok {
			cp := *mem
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- internals ----

// adopt installs a store-loaded record into the in-memory cache.
func (o *Orchestrator) adopt(rec *models.PendingUpload) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.records[rec.UUID]; !ok {
		o.records[rec.UUID] = rec
	}
}

func (o *Orchestrator) loadRecord(ctx context.Context, id string) (*models.PendingUpload, error) {
	o.mu.Lock()
	if rec, ok := o.records[id]; ok {
		o.mu.Unlock()
		return rec, nil
	}
	o.mu.Unlock()

	rec, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o.adopt(rec)
	return rec, nil
}

// persist writes rec to the durable store. A storage failure degrades that
// record to memory-only state for this session; the queue keeps working.
func (o *Orchestrator) persist(ctx context.Context, rec *models.PendingUpload) {
	var serr *common.StorageError
	err := o.repo.Put(ctx, rec)
	switch {
	case err == nil:
		o.mu.Lock()
		delete(o.degraded, rec.UUID)
		o.mu.Unlock()
	case errors.As(err, &serr):
		o.mu.Lock()
		first := !o.degraded[rec.UUID]
		o.degraded[rec.UUID] = true
		o.mu.Unlock()
		if first {
			o.log.Warn(ctx, "store write failed, keeping record in memory; progress will not survive a reload",
				"uuid", rec.UUID, "error", err)
		}
	default:
		o.log.Error(ctx, "persisting record failed", "uuid", rec.UUID, "error", err)
	}
}

// persistBatch stores a freshly submitted session atomically. A storage
// failure degrades the whole batch to memory-only state; the uploads still
// run.
func (o *Orchestrator) persistBatch(ctx context.Context, recs []*models.PendingUpload) {
	if len(recs) == 0 {
		return
	}
	var serr *common.StorageError
	err := o.repo.PutBatch(ctx, recs)
	switch {
	case err == nil:
		o.mu.Lock()
		for _, rec := range recs {
			delete(o.degraded, rec.UUID)
		}
		o.mu.Unlock()
	case errors.As(err, &serr):
		o.mu.Lock()
		for _, rec := range recs {
			o.degraded[rec.UUID] = true
		}
		o.mu.Unlock()
		o.log.Warn(ctx, "store write failed, keeping batch in memory; it will not survive a reload",
			"session", recs[0].SessionID, "error", err)
	default:
		o.log.Error(ctx, "persisting batch failed", "session", recs[0].SessionID, "error", err)
	}
}

func (o *Orchestrator) emit(rec *models.PendingUpload) {
	o.mu.Lock()
	sink := o.sink
	ev := Event{
		UUID:      rec.UUID,
		WeddingID: rec.WeddingID,
		SessionID: rec.SessionID,
		Status:    rec.Status,
		Progress:  rec.Progress,
		LastError: rec.LastError,
	}
	o.mu.Unlock()
	if sink != nil {
		sink(ev)
	}
}

// dispatch starts the run goroutine for id unless one already exists.
// The inflight registry is what guarantees at-most-one request per uuid;
// a dispatch racing with a finishing goroutine is remembered on the entry
// and replayed when the entry is released, so no command is ever dropped.
func (o *Orchestrator) dispatch(id string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if entry, busy := o.inflight[id]; busy {
		entry.redispatch = true
		o.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancelCause(o.baseCtx)
	o.inflight[id] = &inflightEntry{cancel: cancel}
	o.wg.Add(1)
	o.mu.Unlock()

	go o.run(ctx, id)
}

func (o *Orchestrator) run(ctx context.Context, id string) {
	defer o.wg.Done()

	// wait for a concurrency slot
	select {
	case o.sem <- struct{}{}:
	case <-ctx.Done():
		o.settleAborted(ctx, id)
		return
	}
	defer func() { <-o.sem }()

	backoff := retry.WithMaxRetries(uint64(o.cfg.MaxRetries), retry.NewFibonacci(o.cfg.RetryBaseDelay))

	err := retry.Do(ctx, backoff, func(attemptCtx context.Context) error {
		err := o.attempt(attemptCtx, id)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// pause, cancel or shutdown: not an upload failure
			return err
		}
		if o.recordFailure(ctx, id, err) {
			return retry.RetryableError(err)
		}
		return err
	})

	if err != nil && ctx.Err() != nil {
		o.settleAborted(ctx, id)
		return
	}
	if err != nil {
		o.log.Info(ctx, "upload gave up, waiting for user action", "uuid", id, "error", err)
	}
	o.release(id)
}

// release drops id from the in-flight registry and replays a dispatch that
// arrived while the goroutine was still registered.
func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	entry := o.inflight[id]
	delete(o.inflight, id)
	redispatch := entry != nil && entry.redispatch
	o.mu.Unlock()

	if redispatch {
		o.dispatch(id)
	}
}

// attempt performs one full upload cycle for id: transition to uploading,
// transfer the bytes, register metadata, mark completed.
func (o *Orchestrator) attempt(ctx context.Context, id string) error {
	o.mu.Lock()
	rec, ok := o.records[id]
	if !ok || rec.Status.Terminal() {
		o.mu.Unlock()
		return nil
	}
	if !rec.Status.CanTransition(models.StatusUploading) {
		st := rec.Status
		o.mu.Unlock()
		return fmt.Errorf("cannot start upload from status %q", st)
	}
	rec.Status = models.StatusUploading
	rec.Progress = 0 // restart-from-zero; no range-request resume
	snapshot := *rec
	o.mu.Unlock()

	o.persist(ctx, &snapshot)
	o.emit(&snapshot)

	photo := client.Photo{
		UUID:     snapshot.UUID,
		Filename: snapshot.OriginalFilename,
		Content:  snapshot.Payload,
	}

	// the progress callback closes over this id alone, so events can
	// never be misattributed across concurrent uploads
	onProgress := func(pct int) {
		o.updateProgress(ctx, id, pct)
	}

	upCtx, cancelUp := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancelUp()
	stored, err := o.api.UploadPhoto(upCtx, snapshot.WeddingID, photo, onProgress)
	if err != nil {
		return err
	}

	meta := client.PhotoMetadata{
		UUID:              snapshot.UUID,
		SessionID:         snapshot.SessionID,
		OriginalFilename:  snapshot.OriginalFilename,
		Extension:         snapshot.Extension,
		StorageKey:        stored.StorageKey,
		WrappedPhotoKey:   snapshot.WrappedPhotoKey,
		WrappedProcessKey: snapshot.WrappedProcessKey,
	}
	regCtx, cancelReg := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancelReg()
	if err := o.api.RegisterMetadata(regCtx, snapshot.WeddingID, meta); err != nil {
		// bytes are stored but the photo is not done until registered
		return fmt.Errorf("metadata registration: %w", err)
	}

	o.mu.Lock()
	rec, ok = o.records[id]
	if !ok || rec.Status.Terminal() {
		// a cancel won the race; the late completion is discarded
		o.mu.Unlock()
		return nil
	}
	rec.Status = models.StatusCompleted
	rec.Progress = 100
	rec.MetadataRegistered = true
	rec.LastError = ""
	done := *rec
	o.mu.Unlock()

	o.persist(ctx, &done)
	o.emit(&done)
	return nil
}

// updateProgress applies a byte-level progress event for id. Updates are
// monotonic within one transfer and discarded once the record has left the
// uploading state (last-writer-wins on terminal).
func (o *Orchestrator) updateProgress(ctx context.Context, id string, pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	o.mu.Lock()
	rec, ok := o.records[id]
	if !ok || rec.Status != models.StatusUploading || pct <= rec.Progress {
		o.mu.Unlock()
		return
	}
	rec.Progress = pct
	snapshot := *rec
	o.mu.Unlock()

	o.persist(ctx, &snapshot)
	o.emit(&snapshot)
}

// recordFailure books one failed attempt and reports whether an automatic
// retry is allowed, in which case the record is re-queued.
func (o *Orchestrator) recordFailure(ctx context.Context, id string, cause error) bool {
	o.mu.Lock()
	rec, ok := o.records[id]
	if !ok || rec.Status.Terminal() {
		o.mu.Unlock()
		return false
	}
	rec.Status = models.StatusFailed
	rec.Retries++
	rec.LastError = cause.Error()
	failed := *rec

	autoRetry := common.Retryable(cause) && rec.Retries <= o.cfg.MaxRetries
	if autoRetry {
		rec.Status = models.StatusQueued
	}
	requeued := *rec
	o.mu.Unlock()

	o.persist(ctx, &failed)
	o.emit(&failed)
	if autoRetry {
		o.persist(ctx, &requeued)
		o.emit(&requeued)
	}
	return autoRetry
}

// settleAborted settles a record whose context was cancelled, using the
// intent recorded by Pause or Cancel. The registry entry is removed in the
// same critical section that changes the record's status, so a Resume or
// Cancel issued after the settled state is observable always reaches a
// fresh dispatch instead of hitting a stale entry. Shutdown records no
// intent and leaves the record as-is for startup recovery.
func (o *Orchestrator) settleAborted(ctx context.Context, id string) {
	bg := context.WithoutCancel(ctx)

	o.mu.Lock()
	entry := o.inflight[id]
	delete(o.inflight, id)
	var intent error
	redispatch := false
	if entry != nil {
		intent = entry.intent
		redispatch = entry.redispatch
	}
	rec, ok := o.records[id]

	switch {
	case errors.Is(intent, errCancelRequested):
		if !ok || rec.Status.Terminal() {
			o.mu.Unlock()
			return
		}
		rec.Status = models.StatusCancelled
		snapshot := *rec
		delete(o.records, id)
		o.mu.Unlock()

		o.emit(&snapshot)
		if err := o.repo.Delete(bg, id); err != nil {
			o.log.Warn(bg, "removing cancelled record failed", "uuid", id, "error", err)
		}

	case errors.Is(intent, errPauseRequested):
		if !ok || !rec.Status.CanTransition(models.StatusPaused) {
			o.mu.Unlock()
			return
		}
		rec.Status = models.StatusPaused // progress kept for the UI
		snapshot := *rec
		o.mu.Unlock()

		o.persist(bg, &snapshot)
		o.emit(&snapshot)
		if redispatch {
			o.dispatch(id)
		}

	default:
		o.mu.Unlock()
	}
}
