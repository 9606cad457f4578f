// Package store defines the metadata store contract consumed by the client
// services, together with a Redis-backed implementation and an in-memory one
// for tests and offline runs.
package store

import (
	"context"

	"github.com/mzaverin/dropspace/internal/client/models"
)

// Store is the remote metadata collection the client writes to and observes.
// Durability, sharding, and access control are the store's problem; the
// client only needs create and subscribe semantics.
type Store interface {
	// Create persists one record. The store assigns uploadedAt from its own
	// clock. Failures are reported wrapped in common.ErrWrite.
	Create(ctx context.Context, collection string, rec *models.MetadataRecord) error

	// Subscribe opens a live view over a collection. Every element delivered
	// on the subscription is the complete current set of records, not a diff.
	Subscribe(ctx context.Context, collection string) (Subscription, error)

	Close() error
}

// Subscription is a cancellable stream of full-collection snapshots.
type Subscription interface {
	// Snapshots delivers full snapshots. Stale intermediate snapshots may be
	// dropped in favor of newer ones; each element is always complete. The
	// channel closes when the subscription ends.
	Snapshots() <-chan []models.MetadataRecord

	// Errs delivers non-fatal subscription errors.
	Errs() <-chan error

	// Unsubscribe releases the live-query resources. Idempotent.
	Unsubscribe()
}
