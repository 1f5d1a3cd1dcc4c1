package content

import (
	"context"
	"fmt"
	"sync"
)

// MemorySink keeps bodies in a map. For tests and local development.
type MemorySink struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{data: make(map[string][]byte)}
}

// Save stores the body and returns a memory:// pseudo URI.
func (s *MemorySink) Save(_ context.Context, objectPath string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[objectPath] = append([]byte(nil), data...)
	return fmt.Sprintf("memory://%s", objectPath), nil
}

// Object returns a stored body, if present.
func (s *MemorySink) Object(objectPath string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[objectPath]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports how many objects are stored.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
