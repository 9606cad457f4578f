package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mzaverin/dropspace/internal/client/models"
	"github.com/mzaverin/dropspace/internal/common"
)

// InMemory is a deterministic Store for tests and offline runs. It mimics the
// remote store's semantics: a server-assigned timestamp on create and
// full-snapshot delivery to subscribers, with hooks to inject write failures,
// hold timestamp resolution, and push arbitrary snapshots.
type InMemory struct {
	mu             sync.Mutex
	collections    map[string]map[string]models.MetadataRecord
	subs           map[string]map[*memSubscription]struct{}
	now            func() time.Time
	holdTimestamps bool
	failures       map[string]string
	createCalls    map[string]int
}

func NewInMemory() *InMemory {
	return &InMemory{
		collections: make(map[string]map[string]models.MetadataRecord),
		subs:        make(map[string]map[*memSubscription]struct{}),
		now:         time.Now,
		failures:    make(map[string]string),
		createCalls: make(map[string]int),
	}
}

// SetClock overrides the simulated server clock.
func (m *InMemory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailCreate makes Create fail for records carrying the given file name.
func (m *InMemory) FailCreate(fileName, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[fileName] = message
}

// HoldTimestamps makes Create persist records with an unresolved uploadedAt,
// modeling asynchronous server-timestamp assignment.
func (m *InMemory) HoldTimestamps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdTimestamps = true
}

// ResolveTimestamp assigns the server timestamp to a held record and notifies
// subscribers.
func (m *InMemory) ResolveTimestamp(collection, id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.collections[collection][id]
	if !ok {
		return
	}
	rec.UploadedAt = at
	m.collections[collection][id] = rec
	m.broadcastLocked(collection)
}

// CreateCalls reports how many write attempts were made for a file name.
func (m *InMemory) CreateCalls(fileName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls[fileName]
}

// Records returns the current contents of a collection, unordered.
func (m *InMemory) Records(collection string) []models.MetadataRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(collection)
}

// PushSnapshot delivers an arbitrary snapshot to all subscribers of the
// collection without touching stored state. Lets tests exercise duplicate and
// out-of-order delivery.
func (m *InMemory) PushSnapshot(collection string, recs []models.MetadataRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs[collection] {
		sub.deliver(append([]models.MetadataRecord(nil), recs...))
	}
}

// BreakSubscriptions pushes a subscription error to every subscriber of the
// collection, simulating a lost change feed.
func (m *InMemory) BreakSubscriptions(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs[collection] {
		sub.reportErr(err)
	}
}

func (m *InMemory) Create(ctx context.Context, collection string, rec *models.MetadataRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls[rec.FileName]++
	if msg, ok := m.failures[rec.FileName]; ok {
		return fmt.Errorf("%w: %s", common.ErrWrite, msg)
	}

	stored := *rec
	if !m.holdTimestamps {
		stored.UploadedAt = m.now()
		rec.UploadedAt = stored.UploadedAt
	}

	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]models.MetadataRecord)
	}
	m.collections[collection][stored.ID] = stored
	m.broadcastLocked(collection)
	return nil
}

func (m *InMemory) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &memSubscription{
		store:      m,
		collection: collection,
		snapshots:  make(chan []models.MetadataRecord, 1),
		errs:       make(chan error, 1),
	}
	if m.subs[collection] == nil {
		m.subs[collection] = make(map[*memSubscription]struct{})
	}
	m.subs[collection][sub] = struct{}{}
	sub.deliver(m.snapshotLocked(collection))
	return sub, nil
}

func (m *InMemory) Close() error { return nil }

func (m *InMemory) snapshotLocked(collection string) []models.MetadataRecord {
	recs := make([]models.MetadataRecord, 0, len(m.collections[collection]))
	for _, rec := range m.collections[collection] {
		recs = append(recs, rec)
	}
	return recs
}

func (m *InMemory) broadcastLocked(collection string) {
	for sub := range m.subs[collection] {
		sub.deliver(m.snapshotLocked(collection))
	}
}

type memSubscription struct {
	store      *InMemory
	collection string
	snapshots  chan []models.MetadataRecord
	errs       chan error
	once       sync.Once
}

// deliver replaces a pending stale snapshot instead of blocking the store.
func (sub *memSubscription) deliver(recs []models.MetadataRecord) {
	for {
		select {
		case sub.snapshots <- recs:
			return
		default:
			select {
			case <-sub.snapshots:
			default:
			}
		}
	}
}

func (sub *memSubscription) reportErr(err error) {
	select {
	case sub.errs <- err:
	default:
	}
}

func (sub *memSubscription) Snapshots() <-chan []models.MetadataRecord { return sub.snapshots }

func (sub *memSubscription) Errs() <-chan error { return sub.errs }

func (sub *memSubscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.store.mu.Lock()
		delete(sub.store.subs[sub.collection], sub)
		sub.store.mu.Unlock()
		close(sub.snapshots)
	})
}
