// Package events publishes run lifecycle notifications.
// The abstraction keeps the scheduler independent of a specific messaging
// system; downstream consumers (index builders, dashboards) subscribe to
// run completions instead of polling the page store.
package events

import (
	"context"
	"time"
)

// RunCompleted is the payload published when a fetch run finishes.
type RunCompleted struct {
	RunID      string    `json:"run_id"`
	CrawlScope string    `json:"crawl_scope"`
	Dispatched int       `json:"dispatched"`
	Fetched    int       `json:"fetched"`
	Failed     int       `json:"failed"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher sends run events. Implementations must be safe to call after
// a failed run; publishing is best-effort and never blocks run status.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, event RunCompleted) error
	Close() error
}

// NoOpPublisher discards events. Default when no messaging is configured.
type NoOpPublisher struct{}

// PublishRunCompleted for NoOpPublisher does nothing and returns nil.
func (NoOpPublisher) PublishRunCompleted(_ context.Context, _ RunCompleted) error { return nil }

// Close for NoOpPublisher does nothing and returns nil.
func (NoOpPublisher) Close() error { return nil }
