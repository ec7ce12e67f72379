package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Readm/pipeview/control"
	"github.com/Readm/pipeview/core"
	"github.com/Readm/pipeview/cursor"
	"github.com/Readm/pipeview/hooks"
	"github.com/Readm/pipeview/ingest"
)

// App wires ingest, navigation and metrics together for the CLI commands.
type App struct {
	cfg       *Config
	broker    *hooks.Broker
	ingestor  *ingest.Ingestor
	navigator *Navigator
	metrics   *metricsCollector
	ctx       context.Context

	// failures holds the latest ingest error of streams that have never
	// published, keyed by ingest.Stream.
	failures sync.Map
}

// NewApp builds the application for a validated config. A nil fetcher is
// derived from the config.
func NewApp(cfg *Config, fetcher ingest.Fetcher) *App {
	if fetcher == nil {
		fetcher = cfg.NewFetcher()
	}
	broker := hooks.NewBroker()
	store := ingest.NewStore()
	app := &App{
		cfg:    cfg,
		broker: broker,
		ingestor: ingest.NewIngestor(ingest.Options{
			Fetcher:     fetcher,
			Store:       store,
			Broker:      broker,
			Logger:      GetLogger(),
			Streams:     cfg.StreamSpecs(),
			MaxParallel: cfg.MaxParallel,
		}),
		metrics: newMetricsCollector(metricsInterval),
		ctx:     context.Background(),
	}
	app.navigator = NewNavigator(store, broker)
	app.metrics.register(broker)
	broker.RegisterPublished(func(ctx *hooks.PublishedContext) error {
		app.failures.Delete(ingest.Stream(ctx.Stream))
		return nil
	})
	broker.RegisterIngestFailed(func(ctx *hooks.IngestFailedContext) error {
		stream := ingest.Stream(ctx.Stream)
		if _, ok := store.Current(stream); !ok && ctx.Err != nil {
			app.failures.Store(stream, ctx.Err)
		}
		return nil
	})
	return app
}

// Bind sets the context used by commands handled on the control loop.
func (a *App) Bind(ctx context.Context) {
	a.ctx = ctx
}

// Reload re-ingests every enabled stream.
func (a *App) Reload(ctx context.Context) error {
	return a.ingestor.Reload(ctx)
}

// Dataset returns the current dataset of stream. A stream that never loaded
// reports its last ingest error, or ErrNotIngested before any attempt.
func (a *App) Dataset(stream ingest.Stream) (*ingest.Dataset, error) {
	ds, ok := a.ingestor.Store().Current(stream)
	if ok {
		return ds, nil
	}
	if err, ok := a.failures.Load(stream); ok {
		return nil, err.(error)
	}
	return nil, fmt.Errorf("%s: %w", stream, core.ErrNotIngested)
}

// ResolveStream maps an empty request stream to the configured default.
func (a *App) ResolveStream(name string) (ingest.Stream, error) {
	if name == "" {
		return ingest.Stream(a.cfg.DefaultStream), nil
	}
	return ingest.ParseStream(name)
}

// HandleCommand applies one control command. It always keeps the loop running;
// failures are logged.
func (a *App) HandleCommand(cmd control.Command) bool {
	switch {
	case cmd.Type == control.CommandReload:
		if err := a.reload(cmd.Stream); err != nil {
			GetLogger().Warnf("Reload failed: %v", err)
		}
	case cmd.Type.IsNavigation():
		stream, err := a.ResolveStream(cmd.Stream)
		if err != nil {
			GetLogger().Warnf("Ignoring %s command: %v", cmd.Type, err)
			return true
		}
		status, err := a.navigator.Apply(stream, cursor.Event(cmd.Type))
		if err != nil {
			GetLogger().Warnf("Ignoring %s command: %v", cmd.Type, err)
			return true
		}
		GetLogger().Debugf("Cursor %s after %s: %s position %d/%d", stream, cmd.Type, status.State, status.Position, status.Total)
	default:
		GetLogger().Debugf("Ignoring command %q", cmd.Type)
	}
	return true
}

func (a *App) reload(name string) error {
	if name == "" {
		return a.ingestor.Reload(a.ctx)
	}
	stream, err := ingest.ParseStream(name)
	if err != nil {
		return err
	}
	return a.ingestor.ReloadStream(a.ctx, stream)
}

// errorStatus summarizes why a stream has no usable data for display.
func errorStatus(err error) string {
	switch {
	case errors.Is(err, core.ErrNotIngested):
		return "not loaded"
	case errors.Is(err, core.ErrIngestUnavailable):
		return "unavailable"
	case errors.Is(err, core.ErrMalformedTrace), errors.Is(err, core.ErrOrphanStageEvent), errors.Is(err, core.ErrInvalidInstructionIndex):
		return "invalid"
	default:
		return "error"
	}
}

const metricsInterval = 30 * time.Second
