// Package content defines where fetched page bodies are persisted.
// The scheduler itself never touches content; only the fetch executor
// writes through this interface.
package content

import (
	"context"
	"fmt"
)

// Sink stores one fetched body under an object path and returns a URI the
// page record can carry.
type Sink interface {
	Save(ctx context.Context, objectPath string, data []byte) (string, error)
}

// NoOpSink discards bodies. Useful for dry runs where only marks matter.
type NoOpSink struct{}

// Save for NoOpSink discards the data and returns an empty URI.
func (NoOpSink) Save(_ context.Context, _ string, _ []byte) (string, error) {
	return "", nil
}

// ObjectPath builds the object path for a fetched page from the configured
// prefix, the run id and the content hash.
func ObjectPath(prefix, runID, hash string) string {
	if prefix == "" {
		return fmt.Sprintf("%s/%s.html", runID, hash)
	}
	return fmt.Sprintf("%s/%s/%s.html", prefix, runID, hash)
}
