package sched

import (
	"context"
	"time"
)

// PageStore is the durable page table. Implementations must provide
// snapshot reads of individual records and a full scan; writes are only
// performed by the fetch executor, never by the scheduler.
type PageStore interface {
	// Get reads one record. The second return value reports existence.
	Get(ctx context.Context, urlKey string) (PageRecord, bool, error)

	// Put writes one record idempotently.
	Put(ctx context.Context, urlKey string, page PageRecord) error

	// Scan invokes fn for every stored record. Returning an error from
	// fn aborts the scan and surfaces that error.
	Scan(ctx context.Context, fn func(urlKey string, page PageRecord) error) error

	Close() error
}

// Executor consumes one lane of grouped work items, performing the
// bounded-concurrency fetches and writing results back to the page store.
// The scheduler treats it as an external collaborator.
type Executor interface {
	ExecuteLane(ctx context.Context, lane int, items []WorkItem) LaneResult
}

// Clock supplies the current time. The driver reads it exactly once per
// run to anchor the absolute deadline.
type Clock interface {
	Now() time.Time
}
