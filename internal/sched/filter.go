package sched

import (
	"fmt"
	"math/rand/v2"
)

// dispatchKeySpace bounds the random dispatch key. Wide enough to spread
// millions of items, small enough to keep collisions harmless.
const dispatchKeySpace = 65536

// Skip explains why the filter rejected a record. Empty means eligible.
type Skip string

// Skip reasons, used as metric labels.
const (
	SkipNone    Skip = ""
	SkipScope   Skip = "different_crawl_scope"
	SkipFetched Skip = "already_fetched"
)

// Filter decides, independently per page record, whether the record is
// fetch-eligible in the current run. It is stateless and safe for
// concurrent use from any number of workers.
type Filter struct {
	params *RunParams
}

// NewFilter builds a filter bound to one run's parameters.
func NewFilter(params *RunParams) *Filter {
	return &Filter{params: params}
}

// Evaluate applies the eligibility rules to one record. Eligible records
// yield exactly one work item carrying a fresh random dispatch key; the
// rest of the item is deterministic in the record and run parameters.
func (f *Filter) Evaluate(urlKey string, page PageRecord) (WorkItem, Skip, error) {
	generated, _ := page.Mark(StageGenerate)
	if !f.params.Scope.Matches(generated) {
		return WorkItem{}, SkipScope, nil
	}
	if f.params.Resume {
		if _, fetched := page.Mark(StageFetch); fetched {
			return WorkItem{}, SkipFetched, nil
		}
	}

	rawURL, err := UnreverseURL(urlKey)
	if err != nil {
		return WorkItem{}, SkipNone, fmt.Errorf("restore url from key: %w", err)
	}
	host, err := HostKey(rawURL)
	if err != nil {
		return WorkItem{}, SkipNone, fmt.Errorf("derive host key: %w", err)
	}

	return WorkItem{
		DispatchKey: uint32(rand.IntN(dispatchKeySpace)),
		HostKey:     host,
		URLKey:      urlKey,
		URL:         rawURL,
		ReprURL:     page.ReprURL,
		Params:      f.params,
	}, SkipNone, nil
}
