package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/bondval/internal/common"
)

// FetchFunc produces a fresh value from the upstream source.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Store is a two-tier cache for one named value. Reads prefer fresh memory,
// then a fresh file (which backfills memory), then the upstream fetch. A
// failed fetch falls back to whatever stale copy exists rather than failing
// the caller; only a cold cache plus a dead upstream surfaces an error.
type Store[T any] struct {
	name  string
	ttl   time.Duration
	files *FileStore

	mu    sync.RWMutex
	entry *Entry[T]

	// empty guards against an upstream returning a successful but vacant
	// response; vacant results are served once but never cached.
	empty  func(T) bool
	logger arbor.ILogger
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption[T any] func(*Store[T])

// WithEmptyCheck marks results that must not overwrite the cache.
func WithEmptyCheck[T any](fn func(T) bool) StoreOption[T] {
	return func(s *Store[T]) { s.empty = fn }
}

// WithStoreLogger sets the logger.
func WithStoreLogger[T any](logger arbor.ILogger) StoreOption[T] {
	return func(s *Store[T]) { s.logger = logger }
}

// NewStore creates a cache for the named value. The name doubles as the
// cache filename key.
func NewStore[T any](name string, ttl time.Duration, files *FileStore, opts ...StoreOption[T]) *Store[T] {
	s := &Store[T]{
		name:   name,
		ttl:    ttl,
		files:  files,
		empty:  func(T) bool { return false },
		logger: common.GetLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached value, fetching when no fresh copy exists.
// The returned bool is true when the value is stale, i.e. it was served
// from an expired copy because the fetch failed.
func (s *Store[T]) Get(ctx context.Context, fetch FetchFunc[T]) (T, bool, error) {
	now := s.now()

	if entry := s.memory(); entry != nil && entry.Fresh(now, s.ttl) {
		return entry.Data, false, nil
	}

	if entry := s.file(); entry != nil && entry.Fresh(now, s.ttl) {
		s.setMemory(entry)
		return entry.Data, false, nil
	}

	value, err := fetch(ctx)
	if err == nil {
		if s.empty(value) {
			s.logger.Warn().Str("cache", s.name).Msg("Fetch returned empty result, not caching")
			if stale := s.newest(); stale != nil {
				return stale.Data, true, nil
			}
			return value, false, nil
		}
		entry := &Entry[T]{Timestamp: EpochMillis(now), Data: value}
		s.setMemory(entry)
		s.persist(entry)
		return value, false, nil
	}

	if stale := s.newest(); stale != nil {
		s.logger.Warn().
			Str("cache", s.name).
			Str("age", now.Sub(stale.Timestamp.Time()).String()).
			Err(err).
			Msg("Fetch failed, serving stale cache")
		return stale.Data, true, nil
	}

	var zero T
	return zero, false, fmt.Errorf("fetch %s with cold cache: %w", s.name, err)
}

// Cached returns the current copy regardless of freshness, with its age.
// ok is false when nothing has ever been cached.
func (s *Store[T]) Cached() (value T, age time.Duration, ok bool) {
	entry := s.newest()
	if entry == nil {
		var zero T
		return zero, 0, false
	}
	return entry.Data, entry.Age(s.now()), true
}

// Put stores a value directly, bypassing fetch. Used by writers that
// compute the value themselves.
func (s *Store[T]) Put(value T) {
	entry := &Entry[T]{Timestamp: EpochMillis(s.now()), Data: value}
	s.setMemory(entry)
	s.persist(entry)
}

func (s *Store[T]) memory() *Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry
}

func (s *Store[T]) setMemory(entry *Entry[T]) {
	s.mu.Lock()
	s.entry = entry
	s.mu.Unlock()
}

func (s *Store[T]) file() *Entry[T] {
	var entry Entry[T]
	if err := s.files.ReadJSON(s.name, &entry); err != nil {
		return nil
	}
	return &entry
}

// newest returns the most recent copy from either tier.
func (s *Store[T]) newest() *Entry[T] {
	mem := s.memory()
	file := s.file()
	switch {
	case mem == nil:
		return file
	case file == nil:
		return mem
	case file.Timestamp.Time().After(mem.Timestamp.Time()):
		return file
	default:
		return mem
	}
}

// persist writes the file tier in the background; a slow disk must not
// block the request path.
func (s *Store[T]) persist(entry *Entry[T]) {
	common.SafeGo(s.logger, "cache-write-"+s.name, func() {
		if err := s.files.WriteJSON(s.name, entry); err != nil {
			s.logger.Warn().Str("cache", s.name).Err(err).Msg("Failed to persist cache file")
		}
	})
}
