// Package app initializes and holds long-lived application services,
// acting as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harridge/fetchmill/internal/clock/system"
	"github.com/harridge/fetchmill/internal/config"
	"github.com/harridge/fetchmill/internal/content"
	"github.com/harridge/fetchmill/internal/driver"
	"github.com/harridge/fetchmill/internal/events"
	"github.com/harridge/fetchmill/internal/fetcher"
	"github.com/harridge/fetchmill/internal/id/uuid"
	"github.com/harridge/fetchmill/internal/logging"
	"github.com/harridge/fetchmill/internal/metrics"
	"github.com/harridge/fetchmill/internal/parse"
	"github.com/harridge/fetchmill/internal/pipeline"
	"github.com/harridge/fetchmill/internal/sched"
	"github.com/harridge/fetchmill/internal/store"
)

// App holds the shared, long-lived services of one process: the logger,
// the page store, the content sink and the event publisher. It is built
// once at startup and closed by a Cobra hook when the command finishes.
type App struct {
	logger        *zap.Logger
	cfg           config.Config
	store         sched.PageStore
	sink          content.Sink
	publisher     events.Publisher
	metricsServer *http.Server
	restoreLog    func()
}

// New builds an App from configuration. It fails fast when any critical
// service cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	restore := logging.Install(logger)

	pageStore, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		restore()
		return nil, fmt.Errorf("open page store: %w", err)
	}

	sink, err := newSink(ctx, cfg.Content, logger)
	if err != nil {
		restore()
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg.Events, logger)
	if err != nil {
		restore()
		return nil, err
	}

	a := &App{
		logger:     logger,
		cfg:        cfg,
		store:      pageStore,
		sink:       sink,
		publisher:  publisher,
		restoreLog: restore,
	}
	if cfg.Metrics.Enabled {
		a.startMetricsServer(cfg.Metrics.Addr)
	}

	logger.Info("application services initialized",
		zap.String("store", cfg.Store.Provider),
		zap.String("content", cfg.Content.Provider),
		zap.String("events", cfg.Events.Provider),
	)
	return a, nil
}

func newSink(ctx context.Context, cfg config.ContentConfig, logger *zap.Logger) (content.Sink, error) {
	switch cfg.Provider {
	case "gcs":
		logger.Info("using GCS content sink", zap.String("bucket", cfg.GCSBucket))
		sink, err := content.NewGCSSink(ctx, cfg.GCSBucket, logger)
		if err != nil {
			return nil, fmt.Errorf("init content sink: %w", err)
		}
		return sink, nil
	case "memory":
		return content.NewMemorySink(), nil
	case "noop":
		logger.Info("content sink disabled, fetched bodies will be discarded")
		return content.NoOpSink{}, nil
	default:
		return nil, fmt.Errorf("unknown content provider: %s", cfg.Provider)
	}
}

func newPublisher(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, error) {
	switch cfg.Provider {
	case "pubsub":
		logger.Info("using Pub/Sub event publisher", zap.String("topic", cfg.TopicID))
		pub, err := events.NewPubSubPublisher(ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		return pub, nil
	case "noop":
		return events.NoOpPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events provider: %s", cfg.Provider)
	}
}

func (a *App) startMetricsServer(addr string) {
	metrics.Init()
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metricsServer = &http.Server{Addr: addr, Handler: mux}
	go func() {
		a.logger.Info("metrics listener started", zap.String("addr", addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics listener failed", zap.Error(err))
		}
	}()
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Store returns the page store backend.
func (a *App) Store() sched.PageStore { return a.store }

// Sink returns the content sink.
func (a *App) Sink() content.Sink { return a.sink }

// Publisher returns the run event publisher.
func (a *App) Publisher() events.Publisher { return a.publisher }

// NewDriver assembles the fetch pipeline on top of the app's services.
func (a *App) NewDriver() *driver.Driver {
	cfg := a.cfg
	pages := fetcher.NewCollyFetcher(fetcher.CollyConfig{
		UserAgent:     cfg.Agent.Name,
		RespectRobots: cfg.Fetch.RespectRobots,
		Timeout:       cfg.Fetch.RequestTimeout(),
	})
	limiter := fetcher.NewHostLimiter(cfg.Fetch.PerHostRPS, cfg.Fetch.PerHostBurst)
	exec := fetcher.New(
		a.store,
		a.sink,
		pages,
		limiter,
		parse.New(),
		system.New(),
		fetcher.Config{ContentPrefix: cfg.Content.Prefix},
		a.logger,
	)
	pipe := pipeline.New(a.store, exec, pipeline.Config{}, a.logger)

	return driver.New(
		pipe,
		a.publisher,
		uuid.New(),
		system.New(),
		driver.Config{
			Threads:   cfg.Fetch.Threads,
			Lanes:     cfg.Fetch.Lanes,
			TimeLimit: time.Duration(cfg.Fetch.TimeLimitMinutes) * time.Minute,
			Parse:     cfg.Fetch.Parse,
			Agent: sched.AgentIdentity{
				Name:         cfg.Agent.Name,
				RobotsAgents: cfg.Agent.RobotsAllowList(),
			},
		},
		a.logger,
	)
}

// Close shuts down all services. Called by a Cobra hook after the
// command finishes.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics listener shutdown", zap.Error(err))
		}
		cancel()
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing page store", zap.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("closing event publisher", zap.Error(err))
	}
	if closer, ok := a.sink.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("closing content sink", zap.Error(err))
		}
	}
	// Sync flushes buffered log entries; stderr sync errors are expected
	// on some platforms and safe to ignore.
	_ = a.logger.Sync()
	a.restoreLog()
}
