// Package scheduleservice coordinates the schedule provider, storage and
// revision history for the API and MCP layers.
package scheduleservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/schedulectx/internal/apperr"
	"github.com/starford/schedulectx/internal/checksum"
	"github.com/starford/schedulectx/internal/history"
	"github.com/starford/schedulectx/internal/models"
	"github.com/starford/schedulectx/internal/schedule"
	"github.com/starford/schedulectx/internal/storage"
)

// MaxScheduleBytes caps the size of an uploaded schedule.
const MaxScheduleBytes = 1 << 20

// Document is the full representation of the schedule file.
type Document struct {
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RevisionCallback is invoked after a service-initiated revision was recorded.
type RevisionCallback func(rev models.Revision)

// Option configures a Service.
type Option func(*Service)

// WithRevisionCallback registers cb for revisions recorded by UpdateSchedule.
func WithRevisionCallback(cb RevisionCallback) Option {
	return func(s *Service) {
		s.onRevision = cb
	}
}

// Service coordinates storage, the context provider and history.
type Service struct {
	mu sync.Mutex // serialises UpdateSchedule from precondition check to revision

	store      storage.Provider
	provider   *schedule.Provider
	history    history.Log
	onRevision RevisionCallback
}

// NewService creates a new schedule service. hist may be nil, in which case
// revision listing reports apperr.ErrUnavailable.
func NewService(store storage.Provider, hist history.Log, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: schedule.NewProvider(store),
		history:  hist,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Context returns the prompt context block for the current schedule.
func (s *Service) Context(_ context.Context, opts ...schedule.ContextOption) (string, error) {
	return s.provider.Context(opts...)
}

// GetSchedule returns the schedule document exactly as stored, or
// apperr.ErrNotFound. Its checksum is the one UpdateSchedule compares
// If-Match against.
func (s *Service) GetSchedule(_ context.Context) (*Document, error) {
	data, err := s.store.Read(schedule.FileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, schedule.ErrInvalidEncoding
	}
	return s.buildDocument(data)
}

// UpdateSchedule replaces the schedule with optimistic concurrency: a
// non-empty ifMatch must equal the current checksum, and checksum.Any
// requires that a schedule exists.
func (s *Service) UpdateSchedule(_ context.Context, content []byte, ifMatch string) (*Document, error) {
	if err := validateContent(content); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Read(schedule.FileName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if ifMatch != "" {
			return nil, apperr.ErrConflict
		}
	case err != nil:
		return nil, err
	default:
		if ifMatch != "" && ifMatch != checksum.Any && ifMatch != checksum.Sum(existing) {
			return nil, apperr.ErrConflict
		}
	}

	if err := s.store.Write(schedule.FileName, content); err != nil {
		return nil, err
	}
	if err := s.recordRevision(); err != nil {
		return nil, err
	}
	return s.buildDocument(content)
}

// Revisions returns recorded schedule revisions, newest first.
func (s *Service) Revisions(_ context.Context, limit, offset int) ([]models.Revision, int, error) {
	if s.history == nil {
		return nil, 0, apperr.ErrUnavailable
	}
	return s.history.List(limit, offset)
}

func (s *Service) recordRevision() error {
	if s.history == nil {
		return nil
	}
	rev, err := history.Observe(s.history, s.store)
	if err != nil {
		return err
	}
	if rev != nil && s.onRevision != nil {
		s.onRevision(*rev)
	}
	return nil
}

// buildDocument constructs a Document from data without re-reading the file.
func (s *Service) buildDocument(data []byte) (*Document, error) {
	doc := &Document{
		Path:     schedule.FileName,
		Content:  string(data),
		Checksum: checksum.Sum(data),
		Size:     int64(len(data)),
	}
	meta, err := s.store.Stat(schedule.FileName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, apperr.ErrNotFound
	case err != nil:
		return nil, err
	}
	doc.UpdatedAt = meta.UpdatedAt
	return doc, nil
}

var utf8Rule = validation.By(func(value any) error {
	b, _ := value.([]byte)
	if !utf8.Valid(b) {
		return errors.New("must be valid UTF-8")
	}
	return nil
})

func validateContent(content []byte) error {
	return validation.Validate(content,
		validation.Length(0, MaxScheduleBytes),
		utf8Rule,
	)
}
