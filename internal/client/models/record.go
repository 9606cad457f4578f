// Package models defines the metadata record, upload task, and progress event
// types shared by the dropspace client services.
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileDescriptor describes a user-selected file. It is input only; the
// selection layer owns it.
type FileDescriptor struct {
	Name      string
	SizeBytes int64
	MimeType  string
}

// MetadataRecord is the persisted entity describing one completed upload.
// The JSON shape is the wire contract shared with other clients; the record
// id is the document key in the store, not part of the payload.
type MetadataRecord struct {
	ID            string    `json:"-"`
	FileName      string    `json:"fileName"`
	FileSizeBytes int64     `json:"fileSize"`
	FileType      string    `json:"fileType"`
	UploadedBy    string    `json:"uploadedBy"`
	UploadedAt    time.Time `json:"uploadedAt"`
	ShareableLink string    `json:"shareableLink"`
}

// TimestampResolved reports whether the store has assigned uploadedAt yet.
// The server clock is authoritative; a zero time means "not yet resolved".
func (r *MetadataRecord) TimestampResolved() bool {
	return !r.UploadedAt.IsZero()
}

// NewRecordID builds a globally unique record id from the uploader identity,
// a time component, and a v4 UUID. The UUID makes uniqueness
// collision-resistant without server coordination.
func NewRecordID(identity string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", identity, now.UnixNano(), uuid.NewString())
}

// ShareLink derives the deterministic shareable link for a record id.
func ShareLink(base, id string) string {
	return strings.TrimRight(base, "/") + "/" + id
}

// SortByUploadedAt orders records newest first. Records whose server
// timestamp has not resolved yet sort after all resolved ones. The sort is
// stable so repeated application of the same input is idempotent.
func SortByUploadedAt(recs []MetadataRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].TimestampResolved() {
			return false
		}
		if !recs[j].TimestampResolved() {
			return true
		}
		return recs[i].UploadedAt.After(recs[j].UploadedAt)
	})
}
