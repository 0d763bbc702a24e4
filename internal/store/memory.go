package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"salespulse/pkg/contracts/domain"
)

// ErrNotFound is returned when no upload exists for an id
var ErrNotFound = errors.New("upload not found")

// Clock returns the current time
type Clock func() time.Time

// MemoryStore is an in-memory upload store guarded by a single RWMutex.
// Stored uploads are never mutated.
type MemoryStore struct {
	mu      sync.RWMutex
	uploads map[string]*domain.Upload
	now     Clock
	logger  *slog.Logger
}

// Option configures a MemoryStore
type Option func(*MemoryStore)

// WithClock sets the clock used for ids and upload times
func WithClock(c Clock) Option {
	return func(s *MemoryStore) {
		s.now = c
	}
}

// WithLogger sets the store logger
func WithLogger(l *slog.Logger) Option {
	return func(s *MemoryStore) {
		s.logger = l
	}
}

// NewMemoryStore creates an empty store
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		uploads: make(map[string]*domain.Upload),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "upload_store"))
	return s
}

// Put stores a copy of u under an id derived from the current second and
// returns the stored entry. replaced is true when an upload with the same
// id was overwritten.
func (s *MemoryStore) Put(u domain.Upload) (stored *domain.Upload, replaced bool) {
	now := s.now()
	u.FileID = strconv.FormatInt(now.Unix(), 10)
	u.UploadedAt = now

	s.mu.Lock()
	prev, replaced := s.uploads[u.FileID]
	s.uploads[u.FileID] = &u
	s.mu.Unlock()

	if replaced {
		s.logger.Warn("upload id collision, replacing earlier upload",
			slog.String("file_id", u.FileID),
			slog.String("previous_filename", prev.Filename),
			slog.String("filename", u.Filename))
	}
	return &u, replaced
}

// Get returns the upload stored under id
func (s *MemoryStore) Get(id string) (*domain.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.uploads[id]
	if !ok {
		return nil, fmt.Errorf("upload %s: %w", id, ErrNotFound)
	}
	return u, nil
}

// List returns all uploads ordered by id
func (s *MemoryStore) List() []*domain.Upload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Upload, 0, len(s.uploads))
	for _, u := range s.uploads {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UploadedAt.Before(result[j].UploadedAt)
	})
	return result
}

// Len returns the number of stored uploads
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uploads)
}

// Close drops every stored upload
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("releasing uploads", slog.Int("count", len(s.uploads)))
	s.uploads = make(map[string]*domain.Upload)
	return nil
}
