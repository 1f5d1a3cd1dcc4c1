// Package pipeline runs one scheduling pass end to end: scan the page
// store, filter records into work items, partition them by host into
// lanes, and hand each lane to the executor.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/harridge/fetchmill/internal/metrics"
	"github.com/harridge/fetchmill/internal/sched"
)

const defaultFilterWorkers = 4

// Config tunes the pipeline independently of run parameters.
type Config struct {
	// FilterWorkers is the number of goroutines evaluating scanned
	// records. Zero picks a small default.
	FilterWorkers int
}

// Pipeline wires the store, the filter and the executor together for
// one run at a time.
type Pipeline struct {
	store    sched.PageStore
	executor sched.Executor
	cfg      Config
	logger   *zap.Logger
}

// New creates a Pipeline.
func New(store sched.PageStore, executor sched.Executor, cfg Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		executor: executor,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes one full pass for the given run parameters. Lanes run
// concurrently; the returned result aggregates their counts. Records
// the filter drops are counted as skipped, not errors.
func (p *Pipeline) Run(ctx context.Context, params *sched.RunParams) (sched.RunResult, error) {
	partitioner, err := sched.NewPartitioner(params.Lanes)
	if err != nil {
		return sched.RunResult{}, fmt.Errorf("partition setup: %w", err)
	}

	items, scanned, skipped, err := p.collect(ctx, params)
	if err != nil {
		return sched.RunResult{}, err
	}
	metrics.ObserveDispatched(len(items))

	result := sched.RunResult{
		Scanned:    scanned,
		Skipped:    skipped,
		Dispatched: len(items),
	}
	if len(items) == 0 {
		p.logger.Info("nothing to fetch",
			zap.Int("scanned", scanned),
			zap.Int("skipped", skipped),
		)
		return result, nil
	}

	lanes := partitioner.Split(items)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for lane, laneItems := range lanes {
		metrics.SetLaneDepth(strconv.Itoa(lane), len(laneItems))
		if len(laneItems) == 0 {
			continue
		}
		wg.Add(1)
		go func(lane int, laneItems []sched.WorkItem) {
			defer wg.Done()
			laneResult := p.executor.ExecuteLane(ctx, lane, laneItems)
			mu.Lock()
			result.Fetched += laneResult.Fetched
			result.Failed += laneResult.Failed
			mu.Unlock()
		}(lane, laneItems)
	}
	wg.Wait()

	p.logger.Info("run pass complete",
		zap.String("run_id", params.RunID),
		zap.Int("scanned", result.Scanned),
		zap.Int("skipped", result.Skipped),
		zap.Int("dispatched", result.Dispatched),
		zap.Int("fetched", result.Fetched),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

type scanRecord struct {
	key  string
	page sched.PageRecord
}

// collect scans the store and fans records out to filter workers,
// returning the eligible work items plus scan counters.
func (p *Pipeline) collect(ctx context.Context, params *sched.RunParams) ([]sched.WorkItem, int, int, error) {
	workers := p.cfg.FilterWorkers
	if workers <= 0 {
		workers = defaultFilterWorkers
	}

	var (
		scanned atomic.Int64
		skipped atomic.Int64
	)
	records := make(chan scanRecord)
	eligible := make(chan sched.WorkItem)

	filter := sched.NewFilter(params)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range records {
				item, skip, err := filter.Evaluate(rec.key, rec.page)
				if err != nil {
					skipped.Add(1)
					metrics.ObserveSkipped("invalid_record")
					p.logger.Warn("dropping malformed record",
						zap.String("url_key", rec.key),
						zap.Error(err),
					)
					continue
				}
				if skip != sched.SkipNone {
					skipped.Add(1)
					metrics.ObserveSkipped(string(skip))
					continue
				}
				eligible <- item
			}
		}()
	}
	go func() {
		wg.Wait()
		close(eligible)
	}()

	var scanErr error
	go func() {
		defer close(records)
		scanErr = p.store.Scan(ctx, func(key string, page sched.PageRecord) error {
			scanned.Add(1)
			metrics.ObserveScanned()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case records <- scanRecord{key: key, page: page}:
				return nil
			}
		})
	}()

	var items []sched.WorkItem
	for item := range eligible {
		items = append(items, item)
	}
	// The eligible channel closes only after the workers finish, and the
	// workers finish only after the scan goroutine has set scanErr.
	if scanErr != nil {
		return nil, int(scanned.Load()), int(skipped.Load()), fmt.Errorf("scan page store: %w", scanErr)
	}
	return items, int(scanned.Load()), int(skipped.Load()), nil
}
