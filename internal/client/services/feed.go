// Package services contains the application services of the dropspace
// client: the live feed synchronizer and the upload simulator.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mzaverin/dropspace/internal/client/models"
	"github.com/mzaverin/dropspace/internal/client/session"
	"github.com/mzaverin/dropspace/internal/client/store"
	"github.com/mzaverin/dropspace/internal/common"
	"github.com/mzaverin/dropspace/internal/logging"
)

// FeedService maintains the local ordered view of the shared upload
// collection: newest first, records with an unresolved server timestamp last,
// each record id present exactly once.
type FeedService interface {
	// Start waits for the session identity, then subscribes and keeps the
	// view current until ctx is cancelled or Stop is called. The subscription
	// itself does not need the identity; gating on readiness avoids showing a
	// partial view during bootstrap.
	Start(ctx context.Context) error

	// Snapshot returns a copy of the last good view. Safe for concurrent use.
	Snapshot() []models.MetadataRecord

	// Updates signals view changes, coalesced.
	Updates() <-chan struct{}

	// Errs delivers non-fatal sync errors. The view stays stale-but-present
	// while resubscription is attempted.
	Errs() <-chan error

	// Version increments every time the view actually changes.
	Version() uint64

	Stop()
}

type feedService struct {
	store        store.Store
	collection   string
	session      *session.Session
	logger       logging.Logger
	retryInitial time.Duration

	mu      sync.RWMutex
	view    []models.MetadataRecord
	version uint64

	updates  chan struct{}
	errs     chan error
	stop     chan struct{}
	stopOnce sync.Once
}

func NewFeedService(st store.Store, collection string, sess *session.Session, logger logging.Logger) FeedService {
	return &feedService{
		store:        st,
		collection:   collection,
		session:      sess,
		logger:       logger,
		retryInitial: 500 * time.Millisecond,
		updates:      make(chan struct{}, 1),
		errs:         make(chan error, 1),
		stop:         make(chan struct{}),
	}
}

func (f *feedService) Start(ctx context.Context) error {
	select {
	case <-f.session.Ready():
	case <-ctx.Done():
		return ctx.Err()
	case <-f.stop:
		return nil
	}
	go f.run(ctx)
	return nil
}

func (f *feedService) run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.retryInitial
	bo.MaxElapsedTime = 0 // keep retrying until stopped; each failure is reported

	for {
		err := f.consume(ctx)
		if err == nil {
			return
		}
		f.reportErr(err)
		wait := bo.NextBackOff()
		f.logger.Warn(ctx, "feed subscription lost, retrying", "collection", f.collection, "retry_in", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		case <-f.stop:
			return
		}
	}
}

// consume runs one subscription until it fails or the feed is stopped.
// A nil return means a clean stop.
func (f *feedService) consume(ctx context.Context) error {
	sub, err := f.store.Subscribe(ctx, f.collection)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrSync, err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case recs, ok := <-sub.Snapshots():
			if !ok {
				return fmt.Errorf("%w: snapshot stream closed", common.ErrSync)
			}
			f.apply(recs)
		case err := <-sub.Errs():
			return fmt.Errorf("%w: %v", common.ErrSync, err)
		case <-ctx.Done():
			return nil
		case <-f.stop:
			return nil
		}
	}
}

// apply merges a full snapshot into the view: records are deduplicated by id
// (last occurrence wins) and unconditionally re-sorted. Applying a snapshot
// identical to the current view is a no-op.
func (f *feedService) apply(recs []models.MetadataRecord) {
	merged := make(map[string]int, len(recs))
	view := make([]models.MetadataRecord, 0, len(recs))
	for _, r := range recs {
		if i, seen := merged[r.ID]; seen {
			view[i] = r
			continue
		}
		merged[r.ID] = len(view)
		view = append(view, r)
	}
	models.SortByUploadedAt(view)

	f.mu.Lock()
	changed := !viewsEqual(f.view, view)
	if changed {
		f.view = view
		f.version++
	}
	f.mu.Unlock()

	if changed {
		f.notify()
	}
}

func viewsEqual(a, b []models.MetadataRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].UploadedAt.Equal(b[i].UploadedAt) {
			return false
		}
		x, y := a[i], b[i]
		x.UploadedAt, y.UploadedAt = time.Time{}, time.Time{}
		if x != y {
			return false
		}
	}
	return true
}

func (f *feedService) notify() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

func (f *feedService) reportErr(err error) {
	select {
	case f.errs <- err:
	default:
	}
}

func (f *feedService) Snapshot() []models.MetadataRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.MetadataRecord(nil), f.view...)
}

func (f *feedService) Updates() <-chan struct{} { return f.updates }

func (f *feedService) Errs() <-chan error { return f.errs }

func (f *feedService) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

func (f *feedService) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
}
