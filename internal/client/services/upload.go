package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mzaverin/dropspace/internal/client/models"
	"github.com/mzaverin/dropspace/internal/client/session"
	"github.com/mzaverin/dropspace/internal/client/store"
	"github.com/mzaverin/dropspace/internal/common"
	"github.com/mzaverin/dropspace/internal/logging"
)

// UploadService simulates uploads: each submitted file advances through fixed
// progress ticks and, on reaching 100%, writes exactly one metadata record.
type UploadService interface {
	// Submit starts a batch. It rejects empty batches and submissions made
	// before the session identity is established with
	// common.ErrInvalidArgument, without any side effect. The returned stream
	// carries per-task progress and terminal events, then a single event with
	// BatchDone set, and closes.
	Submit(ctx context.Context, descriptors []models.FileDescriptor) (<-chan models.ProgressEvent, error)
}

// UploadTuning controls the simulated upload cadence.
type UploadTuning struct {
	Tick     time.Duration // time between progress ticks
	Step     int           // percentage points added per tick
	LinkBase string        // base URL for shareable links
}

type uploadService struct {
	store      store.Store
	collection string
	session    *session.Session
	logger     logging.Logger
	tuning     UploadTuning
}

func NewUploadService(st store.Store, collection string, sess *session.Session, logger logging.Logger, tuning UploadTuning) UploadService {
	if tuning.Tick <= 0 {
		tuning.Tick = 100 * time.Millisecond
	}
	if tuning.Step <= 0 || tuning.Step > 100 {
		tuning.Step = 10
	}
	return &uploadService{store: st, collection: collection, session: sess, logger: logger, tuning: tuning}
}

func (u *uploadService) Submit(ctx context.Context, descriptors []models.FileDescriptor) (<-chan models.ProgressEvent, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: empty batch", common.ErrInvalidArgument)
	}
	identity, ok := u.session.Identity()
	if !ok {
		return nil, fmt.Errorf("%w: identity not established", common.ErrInvalidArgument)
	}

	batch := newBatch(descriptors, u.tuning.Step)
	for _, t := range batch.tasks {
		go u.runTask(ctx, identity, batch, t)
	}
	go func() {
		batch.wg.Wait()
		batch.emit(models.ProgressEvent{BatchDone: true, Message: "batch complete"})
		close(batch.events)
	}()
	return batch.events, nil
}

// batch tracks the tasks of one submission. Task state is mutated only under
// mu; the aggregate progress attached to every event reads the same state.
type batch struct {
	mu     sync.Mutex
	tasks  []*models.UploadTask
	events chan models.ProgressEvent
	wg     sync.WaitGroup
}

func newBatch(descriptors []models.FileDescriptor, step int) *batch {
	b := &batch{tasks: make([]*models.UploadTask, len(descriptors))}
	for i, d := range descriptors {
		b.tasks[i] = &models.UploadTask{Descriptor: d, Status: models.StatusPending}
	}
	// Sized for every event the batch can produce, so emitters never block on
	// a slow consumer.
	perTask := 100/step + 3
	b.events = make(chan models.ProgressEvent, len(descriptors)*perTask+1)
	b.wg.Add(len(descriptors))
	return b
}

func (b *batch) emit(ev models.ProgressEvent) {
	b.mu.Lock()
	ev.BatchProgress = models.AggregateProgress(b.tasks)
	b.mu.Unlock()
	b.events <- ev
}

func (b *batch) setStatus(t *models.UploadTask, status models.TaskStatus) {
	b.mu.Lock()
	t.Status = status
	b.mu.Unlock()
}

// advance bumps the task's progress by step, capped at 100, and returns the
// new value.
func (b *batch) advance(t *models.UploadTask, step int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.Progress += step
	if t.Progress > 100 {
		t.Progress = 100
	}
	return t.Progress
}

// runTask drives one task to a terminal state. The ticker is stopped on every
// exit path so no progress event can fire against a finished task.
func (u *uploadService) runTask(ctx context.Context, identity string, b *batch, t *models.UploadTask) {
	defer b.wg.Done()

	name := t.Descriptor.Name
	b.setStatus(t, models.StatusInProgress)
	b.emit(models.ProgressEvent{FileName: name, Progress: 0, Status: models.StatusInProgress})

	ticker := time.NewTicker(u.tuning.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p := b.advance(t, u.tuning.Step)
			b.emit(models.ProgressEvent{FileName: name, Progress: p, Status: models.StatusInProgress})
			if p >= 100 {
				ticker.Stop()
				u.finish(ctx, identity, b, t)
				return
			}
		case <-ctx.Done():
			ticker.Stop()
			b.setStatus(t, models.StatusFailed)
			b.emit(models.ProgressEvent{
				FileName: name,
				Status:   models.StatusFailed,
				Err:      ctx.Err(),
				Message:  fmt.Sprintf("upload of %s aborted", name),
			})
			return
		}
	}
}

// finish performs the task's single metadata write and emits the terminal
// event. A write failure never affects sibling tasks.
func (u *uploadService) finish(ctx context.Context, identity string, b *batch, t *models.UploadTask) {
	name := t.Descriptor.Name
	rec := &models.MetadataRecord{
		ID:            models.NewRecordID(identity, time.Now()),
		FileName:      name,
		FileSizeBytes: t.Descriptor.SizeBytes,
		FileType:      t.Descriptor.MimeType,
		UploadedBy:    identity,
	}
	rec.ShareableLink = models.ShareLink(u.tuning.LinkBase, rec.ID)

	if err := u.store.Create(ctx, u.collection, rec); err != nil {
		b.setStatus(t, models.StatusFailed)
		u.logger.Error(ctx, "metadata write failed", "file", name, "error", err)
		b.emit(models.ProgressEvent{
			FileName: name,
			Progress: 100,
			Status:   models.StatusFailed,
			Err:      err,
			Message:  fmt.Sprintf("failed to upload %s: %v", name, err),
		})
		return
	}

	b.setStatus(t, models.StatusCompleted)
	u.logger.Info(ctx, "upload recorded", "file", name, "record_id", rec.ID)
	b.emit(models.ProgressEvent{
		FileName: name,
		Progress: 100,
		Status:   models.StatusCompleted,
		Message:  fmt.Sprintf("%s uploaded successfully", name),
	})
}
