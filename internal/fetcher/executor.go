// Package fetcher executes lanes of grouped work items: bounded-concurrency
// network fetches with per-host politeness, deadline enforcement and
// write-back of results to the page store.
package fetcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/harridge/fetchmill/internal/content"
	"github.com/harridge/fetchmill/internal/hash/sha256"
	"github.com/harridge/fetchmill/internal/metrics"
	"github.com/harridge/fetchmill/internal/parse"
	"github.com/harridge/fetchmill/internal/sched"
)

// Parser extracts a title and outlinks from fetched HTML.
type Parser interface {
	Extract(baseURL string, body []byte) (parse.Summary, error)
}

// Config controls executor behavior independent of run parameters.
type Config struct {
	ContentPrefix string
}

// Executor implements sched.Executor. One Executor serves all lanes of a
// run; per-lane state lives on the stack of ExecuteLane.
type Executor struct {
	store   sched.PageStore
	sink    content.Sink
	pages   PageFetcher
	limiter *HostLimiter
	parser  Parser
	hasher  *sha256.Hasher
	clock   sched.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs an Executor. parser may be nil to disable the parse
// stage regardless of run parameters.
func New(
	store sched.PageStore,
	sink content.Sink,
	pages PageFetcher,
	limiter *HostLimiter,
	parser Parser,
	clock sched.Clock,
	cfg Config,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		store:   store,
		sink:    sink,
		pages:   pages,
		limiter: limiter,
		parser:  parser,
		hasher:  sha256.New(),
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// ExecuteLane fetches every item of one lane. Items arrive pre-shuffled;
// the executor feeds them to its threads round-robin across hosts so one
// large host cannot starve the others, and the per-host limiter paces
// requests against any single host. The run deadline, carried on the
// items' shared run parameters, bounds the whole lane.
func (e *Executor) ExecuteLane(ctx context.Context, lane int, items []sched.WorkItem) sched.LaneResult {
	if len(items) == 0 {
		return sched.LaneResult{}
	}
	params := items[0].Params
	if !params.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, params.Deadline)
		defer cancel()
	}

	work := make(chan sched.WorkItem)
	go e.feedRoundRobin(ctx, lane, items, work)

	threads := params.Threads
	if threads <= 0 {
		threads = 1
	}

	var (
		mu     sync.Mutex
		result sched.LaneResult
		wg     sync.WaitGroup
	)
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				ok := e.processItem(ctx, item)
				mu.Lock()
				if ok {
					result.Fetched++
				} else {
					result.Failed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	e.logger.Info("lane complete",
		zap.Int("lane", lane),
		zap.Int("items", len(items)),
		zap.Int("fetched", result.Fetched),
		zap.Int("failed", result.Failed),
	)
	return result
}

// feedRoundRobin drains per-host queues one item at a time in host order,
// closing the work channel when everything is dispatched or the deadline
// cuts the lane short.
func (e *Executor) feedRoundRobin(ctx context.Context, lane int, items []sched.WorkItem, work chan<- sched.WorkItem) {
	defer close(work)

	queues := make(map[string][]sched.WorkItem)
	var order []string
	for _, item := range items {
		if _, ok := queues[item.HostKey]; !ok {
			order = append(order, item.HostKey)
		}
		queues[item.HostKey] = append(queues[item.HostKey], item)
	}

	remaining := len(items)
	for remaining > 0 {
		for _, host := range order {
			queue := queues[host]
			if len(queue) == 0 {
				continue
			}
			item := queue[0]
			queues[host] = queue[1:]
			select {
			case <-ctx.Done():
				e.logger.Warn("deadline reached, abandoning remaining lane items",
					zap.Int("lane", lane),
					zap.Int("abandoned", remaining),
				)
				return
			case work <- item:
				remaining--
			}
		}
	}
}

func (e *Executor) processItem(ctx context.Context, item sched.WorkItem) bool {
	metrics.IncActiveThreads()
	defer metrics.DecActiveThreads()

	if err := e.limiter.Wait(ctx, item.HostKey); err != nil {
		metrics.ObserveFetch("aborted", 0)
		e.logger.Warn("politeness wait aborted", zap.String("url", item.URL), zap.Error(err))
		return false
	}

	res, err := e.pages.Fetch(ctx, item.URL)
	if err != nil {
		metrics.ObserveFetch("failure", 0)
		e.logger.Warn("fetch failed", zap.String("url", item.URL), zap.Error(err))
		return false
	}
	metrics.ObserveFetch("success", res.Duration)

	if err := e.writeBack(ctx, item, res); err != nil {
		e.logger.Error("write back failed", zap.String("url_key", item.URLKey), zap.Error(err))
		return false
	}
	return true
}

// writeBack merges the fetch result into the stored record and stamps the
// FETCH (and, when parsing, PARSE) mark with the page's crawl id.
func (e *Executor) writeBack(ctx context.Context, item sched.WorkItem, res PageResult) error {
	page, _, err := e.store.Get(ctx, item.URLKey)
	if err != nil {
		return fmt.Errorf("read page before write back: %w", err)
	}

	crawlID := markCrawlID(page, item.Params)
	page.StatusCode = res.StatusCode
	page.FetchedAt = e.clock.Now()
	page.ContentHash = e.hasher.Hash(res.Body)

	objectPath := content.ObjectPath(e.cfg.ContentPrefix, item.Params.RunID, page.ContentHash)
	uri, err := e.sink.Save(ctx, objectPath, res.Body)
	if err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	page.ContentURI = uri

	if res.FinalURL != "" && res.FinalURL != item.URL {
		page.ReprURL = res.FinalURL
	}
	page.SetMark(sched.StageFetch, crawlID)

	if item.Params.Parse && e.parser != nil {
		base := res.FinalURL
		if base == "" {
			base = item.URL
		}
		summary, err := e.parser.Extract(base, res.Body)
		if err != nil {
			e.logger.Warn("parse failed", zap.String("url", item.URL), zap.Error(err))
		} else {
			page.Title = summary.Title
			page.Outlinks = summary.Outlinks
			page.SetMark(sched.StageParse, crawlID)
		}
	}

	if err := e.store.Put(ctx, item.URLKey, page); err != nil {
		return fmt.Errorf("store page: %w", err)
	}
	return nil
}

// markCrawlID picks the crawl id stamped on fetch marks: the cycle the
// page was generated in when known, else the run's specific scope, else
// the run id (wildcard runs over unmarked pages).
func markCrawlID(page sched.PageRecord, params *sched.RunParams) string {
	if generated, ok := page.Mark(sched.StageGenerate); ok {
		return generated
	}
	if !params.Scope.All() {
		return params.Scope.ID()
	}
	return params.RunID
}
