// Package driver validates agent identity, freezes run parameters and
// launches the fetch pipeline.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harridge/fetchmill/internal/events"
	"github.com/harridge/fetchmill/internal/metrics"
	"github.com/harridge/fetchmill/internal/sched"
)

// ErrNoAgentName aborts a run before any scheduling work happens.
var ErrNoAgentName = errors.New("fetcher has no agent name configured")

// Runner executes one prepared run. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, params *sched.RunParams) (sched.RunResult, error)
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Config carries the configured run defaults. CLI options override the
// overridable ones per invocation.
type Config struct {
	Threads   int
	Lanes     int
	TimeLimit time.Duration
	Parse     bool
	Agent     sched.AgentIdentity
}

// Options are the per-invocation choices from the command line.
type Options struct {
	Scope sched.Scope

	// Threads overrides the configured thread count when positive.
	Threads int

	// NoParse disables the parse stage for this run only.
	NoParse bool

	// Resume skips pages already carrying a fetch mark.
	Resume bool
}

// Driver owns run preparation and completion reporting.
type Driver struct {
	pipeline  Runner
	publisher events.Publisher
	ids       IDGenerator
	clock     sched.Clock
	cfg       Config
	logger    *zap.Logger
}

// New creates a Driver.
func New(
	pipeline Runner,
	publisher events.Publisher,
	ids IDGenerator,
	clock sched.Clock,
	cfg Config,
	logger *zap.Logger,
) *Driver {
	return &Driver{
		pipeline:  pipeline,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run validates configuration, freezes the run parameters and executes
// the pipeline. Event publishing is best-effort: a publish failure is
// logged and never changes the run outcome.
func (d *Driver) Run(ctx context.Context, opts Options) (sched.RunResult, error) {
	if err := d.checkAgent(); err != nil {
		metrics.ObserveRun("rejected")
		return sched.RunResult{}, err
	}

	params, err := d.buildParams(opts)
	if err != nil {
		metrics.ObserveRun("rejected")
		return sched.RunResult{}, err
	}

	d.logger.Info("starting fetch run",
		zap.String("run_id", params.RunID),
		zap.String("scope", params.Scope.String()),
		zap.Int("threads", params.Threads),
		zap.Int("lanes", params.Lanes),
		zap.Bool("resume", params.Resume),
		zap.Bool("parse", params.Parse),
		zap.Time("deadline", params.Deadline),
	)

	result, err := d.pipeline.Run(ctx, params)
	if err != nil {
		metrics.ObserveRun("error")
		return result, fmt.Errorf("run %s: %w", params.RunID, err)
	}
	metrics.ObserveRun("success")

	event := events.RunCompleted{
		RunID:      params.RunID,
		CrawlScope: params.Scope.String(),
		Dispatched: result.Dispatched,
		Fetched:    result.Fetched,
		Failed:     result.Failed,
		FinishedAt: d.clock.Now(),
	}
	if err := d.publisher.PublishRunCompleted(ctx, event); err != nil {
		d.logger.Warn("run completion event not published",
			zap.String("run_id", params.RunID),
			zap.Error(err),
		)
	}
	return result, nil
}

// checkAgent rejects runs with no agent name and warns when the robots
// allow list does not lead with that name. The mismatch is survivable,
// so it stays a warning.
func (d *Driver) checkAgent() error {
	name := strings.TrimSpace(d.cfg.Agent.Name)
	if name == "" {
		return ErrNoAgentName
	}
	if agents := d.cfg.Agent.RobotsAgents; len(agents) > 0 {
		if !strings.EqualFold(strings.TrimSpace(agents[0]), name) {
			d.logger.Warn("robots allow list does not start with the agent name",
				zap.String("agent", name),
				zap.String("first_allowed", agents[0]),
			)
		}
	}
	return nil
}

// buildParams freezes everything the run needs, including the absolute
// deadline. Computing the deadline here, once, keeps a re-run of the
// same pass from extending the time budget.
func (d *Driver) buildParams(opts Options) (*sched.RunParams, error) {
	runID, err := d.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("mint run id: %w", err)
	}

	threads := d.cfg.Threads
	if opts.Threads > 0 {
		threads = opts.Threads
	}

	var deadline time.Time
	if d.cfg.TimeLimit > 0 {
		deadline = d.clock.Now().Add(d.cfg.TimeLimit)
	}

	return &sched.RunParams{
		RunID:    runID,
		Scope:    opts.Scope,
		Threads:  threads,
		Lanes:    d.cfg.Lanes,
		Resume:   opts.Resume,
		Parse:    d.cfg.Parse && !opts.NoParse,
		Deadline: deadline,
		Agent:    d.cfg.Agent,
	}, nil
}
