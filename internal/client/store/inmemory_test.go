package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaverin/dropspace/internal/client/models"
	"github.com/mzaverin/dropspace/internal/common"
)

func waitSnapshot(t *testing.T, sub Subscription) []models.MetadataRecord {
	t.Helper()
	select {
	case recs, ok := <-sub.Snapshots():
		require.True(t, ok, "subscription closed unexpectedly")
		return recs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestInMemory_CreateAssignsServerTime(t *testing.T) {
	m := NewInMemory()
	serverNow := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return serverNow })

	rec := &models.MetadataRecord{ID: "r1", FileName: "a.txt", UploadedAt: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, m.Create(context.Background(), "uploads", rec))

	// The store clock wins over whatever the client put in.
	assert.Equal(t, serverNow, rec.UploadedAt)

	stored := m.Records("uploads")
	require.Len(t, stored, 1)
	assert.Equal(t, serverNow, stored[0].UploadedAt)
	assert.Equal(t, 1, m.CreateCalls("a.txt"))
}

func TestInMemory_FailCreate(t *testing.T) {
	m := NewInMemory()
	m.FailCreate("bad.bin", "quota exceeded")

	err := m.Create(context.Background(), "uploads", &models.MetadataRecord{ID: "r1", FileName: "bad.bin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrWrite)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, m.Records("uploads"))
}

func TestInMemory_SubscribeDeliversFullSnapshots(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, "uploads", &models.MetadataRecord{ID: "r1", FileName: "a.txt"}))

	sub, err := m.Subscribe(ctx, "uploads")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	initial := waitSnapshot(t, sub)
	require.Len(t, initial, 1)

	require.NoError(t, m.Create(ctx, "uploads", &models.MetadataRecord{ID: "r2", FileName: "b.txt"}))

	next := waitSnapshot(t, sub)
	// Full set, not a diff.
	assert.Len(t, next, 2)
}

func TestInMemory_HoldAndResolveTimestamps(t *testing.T) {
	m := NewInMemory()
	m.HoldTimestamps()
	ctx := context.Background()

	rec := &models.MetadataRecord{ID: "r1", FileName: "a.txt"}
	require.NoError(t, m.Create(ctx, "uploads", rec))

	stored := m.Records("uploads")
	require.Len(t, stored, 1)
	assert.False(t, stored[0].TimestampResolved())

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.ResolveTimestamp("uploads", "r1", at)

	stored = m.Records("uploads")
	require.Len(t, stored, 1)
	assert.Equal(t, at, stored[0].UploadedAt)
}

func TestInMemory_UnsubscribeStopsDelivery(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()

	sub, err := m.Subscribe(ctx, "uploads")
	require.NoError(t, err)
	waitSnapshot(t, sub) // drain initial empty snapshot

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	_, ok := <-sub.Snapshots()
	assert.False(t, ok, "snapshot channel should be closed after unsubscribe")

	// Writes after unsubscribe must not panic or block.
	require.NoError(t, m.Create(ctx, "uploads", &models.MetadataRecord{ID: "r1", FileName: "a.txt"}))
}

func TestInMemory_BreakSubscriptions(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()

	sub, err := m.Subscribe(ctx, "uploads")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	cause := errors.New("connection reset")
	m.BreakSubscriptions("uploads", cause)

	select {
	case err := <-sub.Errs():
		assert.ErrorIs(t, err, cause)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscription error")
	}
}
