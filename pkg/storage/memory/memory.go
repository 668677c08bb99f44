// Package memory provides an in-memory implementation of storage.HistoryStore
// for testing and lightweight deployments. Records are lost when the process
// restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"context"
	"container/list"
	"sort"
	"sync"

	"github.com/rhuss/simple-translate/pkg/storage"
)

// entry holds a stored record and its position in the LRU list.
type entry struct {
	rec     storage.Record
	lruElem *list.Element
}

// Store is an in-memory HistoryStore with optional LRU eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
}

// Ensure Store implements storage.HistoryStore at compile time.
var _ storage.HistoryStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently used record is evicted
// when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Save stores a copy of rec.
func (s *Store) Save(_ context.Context, rec *storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[rec.ID]; exists {
		return storage.ErrConflict
	}

	// Evict if at capacity.
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(rec.ID)
	s.entries[rec.ID] = &entry{
		rec:     *rec,
		lruElem: elem,
	}

	return nil
}

// Get returns a copy of the record with the given ID and marks it as
// recently used.
func (s *Store) Get(_ context.Context, id string) (*storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	s.lruList.MoveToFront(e.lruElem)

	rec := e.rec
	return &rec, nil
}

// Delete removes a record.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.lruList.Remove(e.lruElem)
	delete(s.entries, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// List returns a page of records filtered by language and ordered by
// creation time, with cursor-based pagination.
func (s *Store) List(_ context.Context, opts storage.ListOptions) (*storage.RecordList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Collect matching entries.
	var matches []*storage.Record
	for _, e := range s.entries {
		if opts.SourceLanguage != "" && e.rec.SourceLanguage != opts.SourceLanguage {
			continue
		}
		if opts.TargetLanguage != "" && e.rec.TargetLanguage != opts.TargetLanguage {
			continue
		}
		rec := e.rec
		matches = append(matches, &rec)
	}

	// Sort by created_at. Default is desc (newest first).
	asc := opts.Ascending()
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if asc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	// Apply cursor-based pagination.
	if opts.After != "" {
		idx := indexOf(matches, opts.After)
		if idx >= 0 {
			matches = matches[idx+1:]
		} else {
			matches = nil
		}
	} else if opts.Before != "" {
		idx := indexOf(matches, opts.Before)
		if idx > 0 {
			matches = matches[:idx]
		} else {
			matches = nil
		}
	}

	return storage.NewRecordList(matches, opts.EffectiveLimit()), nil
}

func indexOf(recs []*storage.Record, id string) int {
	for i, r := range recs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// evictOldest removes the least recently used entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, id)
}
