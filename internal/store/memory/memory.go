// Package memory provides an in-memory page store for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harridge/fetchmill/internal/sched"
)

// Store keeps page records in a map guarded by a mutex. Records are copied
// on the way in and out so callers always see a snapshot.
type Store struct {
	mu    sync.RWMutex
	pages map[string]sched.PageRecord
}

// New constructs an empty Store.
func New() *Store {
	return &Store{pages: make(map[string]sched.PageRecord)}
}

// Get reads one record.
func (s *Store) Get(ctx context.Context, urlKey string) (sched.PageRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return sched.PageRecord{}, false, fmt.Errorf("get canceled: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[urlKey]
	if !ok {
		return sched.PageRecord{}, false, nil
	}
	return copyRecord(page), true, nil
}

// Put writes one record.
func (s *Store) Put(ctx context.Context, urlKey string, page sched.PageRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put canceled: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[urlKey] = copyRecord(page)
	return nil
}

// Scan visits every record in key order. Key order keeps runs reproducible
// in tests; the real backends make no ordering promise.
func (s *Store) Scan(ctx context.Context, fn func(urlKey string, page sched.PageRecord) error) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.pages))
	for key := range s.pages {
		keys = append(keys, key)
	}
	snapshot := make(map[string]sched.PageRecord, len(s.pages))
	for key, page := range s.pages {
		snapshot[key] = copyRecord(page)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan canceled: %w", err)
		}
		if err := fn(key, snapshot[key]); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

func copyRecord(page sched.PageRecord) sched.PageRecord {
	out := page
	if page.Marks != nil {
		out.Marks = make(map[sched.Stage]string, len(page.Marks))
		for stage, id := range page.Marks {
			out.Marks[stage] = id
		}
	}
	if page.Outlinks != nil {
		out.Outlinks = append([]string(nil), page.Outlinks...)
	}
	return out
}
