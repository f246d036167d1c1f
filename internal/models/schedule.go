// Package models defines the domain types for schedulectx.
package models

import "time"

// Revision kinds.
const (
	RevisionCreated = "created"
	RevisionUpdated = "updated"
	RevisionDeleted = "deleted"
)

// DocumentMetadata describes the schedule file as it currently sits on disk.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Revision is one observed change of the schedule file.
// Deleted revisions carry an empty checksum and zero size.
type Revision struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Checksum   string    `json:"checksum"`
	Size       int64     `json:"size"`
	ObservedAt time.Time `json:"observed_at"`
}
