// Package sched defines the core scheduling types shared across subsystems.
package sched

import (
	"time"
)

// Stage identifies a pipeline stage that stamps a mark on a page record.
type Stage string

// Stages that mark page records.
const (
	StageInject   Stage = "INJECT"
	StageGenerate Stage = "GENERATE"
	StageFetch    Stage = "FETCH"
	StageParse    Stage = "PARSE"
)

// PageRecord is the durable per-URL row read from and written to the page
// store. The scheduler only reads Marks and ReprURL; the fetch executor
// writes back the remaining fields after a successful fetch.
type PageRecord struct {
	// Marks maps a stage to the crawl id of the last run in which that
	// stage touched the page. An absent entry means the stage never ran.
	Marks map[Stage]string `json:"marks,omitempty"`

	// ReprURL is the canonical alternate URL recorded when a fetch ended
	// on a different URL than it started from.
	ReprURL string `json:"repr_url,omitempty"`

	StatusCode  int       `json:"status_code,omitempty"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	ContentURI  string    `json:"content_uri,omitempty"`
	Title       string    `json:"title,omitempty"`
	Outlinks    []string  `json:"outlinks,omitempty"`
}

// Mark returns the crawl id stamped by the given stage, if any.
func (p PageRecord) Mark(stage Stage) (string, bool) {
	id, ok := p.Marks[stage]
	return id, ok
}

// SetMark stamps the given stage with a crawl id, allocating the mark map
// on first use.
func (p *PageRecord) SetMark(stage Stage, crawlID string) {
	if p.Marks == nil {
		p.Marks = make(map[Stage]string, 2)
	}
	p.Marks[stage] = crawlID
}

// AgentIdentity is the identity the fetch executor advertises to remote
// hosts and to robots rule evaluation.
type AgentIdentity struct {
	// Name is the primary agent name. Required.
	Name string

	// RobotsAgents lists all agent names advertised for robots rule
	// matching, in priority order. Name is expected to come first.
	RobotsAgents []string
}

// RunParams holds the immutable parameters of one fetch run. The driver
// computes them exactly once before the pipeline starts; every work item
// carries a reference so that late-starting workers see the same values.
type RunParams struct {
	RunID   string
	Scope   Scope
	Threads int
	Lanes   int
	Resume  bool
	Parse   bool

	// Deadline is the absolute wall-clock cutoff for the run, derived
	// from the relative time limit at run start. Zero means no limit.
	Deadline time.Time

	Agent AgentIdentity
}

// WorkItem is the ephemeral unit of dispatch produced by the candidate
// filter and consumed by the fetch executor. Items live for one run only.
type WorkItem struct {
	// DispatchKey is drawn uniformly at random per item and carries no
	// meaning beyond spreading load; the partitioner never looks at it.
	DispatchKey uint32

	// HostKey is the lowercased host of the URL. Lane assignment hashes
	// this key so that all items of a host land in one lane.
	HostKey string

	URLKey  string
	URL     string
	ReprURL string

	Params *RunParams
}

// LaneResult aggregates fetch outcomes for one lane.
type LaneResult struct {
	Fetched int
	Failed  int
}

// RunResult summarizes a completed run.
type RunResult struct {
	Scanned    int
	Skipped    int
	Dispatched int
	Fetched    int
	Failed     int
}
