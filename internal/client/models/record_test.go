package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordID(t *testing.T) {
	now := time.Now()

	id := NewRecordID("u1", now)
	assert.True(t, strings.HasPrefix(id, "u1-"), "id should start with the identity")

	// Same inputs must still yield distinct ids.
	other := NewRecordID("u1", now)
	assert.NotEqual(t, id, other)
}

func TestShareLink(t *testing.T) {
	assert.Equal(t, "https://drop.example.com/share/abc",
		ShareLink("https://drop.example.com/share", "abc"))
	assert.Equal(t, "https://drop.example.com/share/abc",
		ShareLink("https://drop.example.com/share/", "abc"))

	// Deterministic: same id, same link.
	assert.Equal(t,
		ShareLink("https://drop.example.com/share", "abc"),
		ShareLink("https://drop.example.com/share", "abc"))
}

func TestMetadataRecord_WireShape(t *testing.T) {
	rec := MetadataRecord{
		ID:            "u1-1-x",
		FileName:      "a.txt",
		FileSizeBytes: 1024,
		FileType:      "text/plain",
		UploadedBy:    "u1",
		UploadedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ShareableLink: "https://drop.example.com/share/u1-1-x",
	}

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))

	// The id is the document key, not part of the payload.
	assert.NotContains(t, doc, "id")
	assert.Equal(t, "a.txt", doc["fileName"])
	assert.Equal(t, float64(1024), doc["fileSize"])
	assert.Equal(t, "text/plain", doc["fileType"])
	assert.Equal(t, "u1", doc["uploadedBy"])
	assert.Contains(t, doc, "uploadedAt")
	assert.Equal(t, "https://drop.example.com/share/u1-1-x", doc["shareableLink"])
}

func TestSortByUploadedAt(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	recs := []MetadataRecord{
		{ID: "old", UploadedAt: base.Add(-time.Hour)},
		{ID: "pending1"}, // unresolved server timestamp
		{ID: "new", UploadedAt: base.Add(time.Hour)},
		{ID: "pending2"},
		{ID: "mid", UploadedAt: base},
	}

	SortByUploadedAt(recs)

	got := make([]string, len(recs))
	for i, r := range recs {
		got[i] = r.ID
	}
	// Newest first, unresolved timestamps last in stable input order.
	assert.Equal(t, []string{"new", "mid", "old", "pending1", "pending2"}, got)
}

func TestSortByUploadedAt_Idempotent(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recs := []MetadataRecord{
		{ID: "a", UploadedAt: base},
		{ID: "b", UploadedAt: base}, // same timestamp: stable order preserved
		{ID: "c"},
	}

	SortByUploadedAt(recs)
	first := append([]MetadataRecord(nil), recs...)
	SortByUploadedAt(recs)
	assert.Equal(t, first, recs)
}
