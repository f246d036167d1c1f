// Package storage defines the file-system abstraction for the schedule directory.
package storage

import "github.com/starford/schedulectx/internal/models"

// Provider is the interface for schedule directory file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Stat returns metadata for the file at path (relative to the root).
	Stat(path string) (*models.DocumentMetadata, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
}
