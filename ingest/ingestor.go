package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Readm/pipeview/core"
	"github.com/Readm/pipeview/hooks"
	"github.com/Readm/pipeview/index"
	"github.com/Readm/pipeview/trace"
)

// Logger is the leveled logger the ingestor reports through.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// StreamSpec enables a stream and fixes the shape hint for event streams.
type StreamSpec struct {
	Stream Stream
	Shape  trace.Shape
}

// Options configures an Ingestor.
type Options struct {
	Fetcher Fetcher
	Store   *Store
	Broker  *hooks.Broker
	Logger  Logger
	Streams []StreamSpec
	// MaxParallel bounds concurrent fetches; zero means one per stream.
	MaxParallel int
}

// Ingestor reloads streams and publishes the results.
type Ingestor struct {
	fetcher     Fetcher
	store       *Store
	broker      *hooks.Broker
	logger      Logger
	streams     []StreamSpec
	maxParallel int
	now         func() time.Time
}

// NewIngestor creates an ingestor. A nil store gets a fresh one.
func NewIngestor(opts Options) *Ingestor {
	in := &Ingestor{
		fetcher:     opts.Fetcher,
		store:       opts.Store,
		broker:      opts.Broker,
		logger:      opts.Logger,
		streams:     append([]StreamSpec(nil), opts.Streams...),
		maxParallel: opts.MaxParallel,
		now:         time.Now,
	}
	if in.store == nil {
		in.store = NewStore()
	}
	if in.logger == nil {
		in.logger = nopLogger{}
	}
	if in.maxParallel <= 0 {
		in.maxParallel = len(in.streams)
	}
	return in
}

// Store returns the store results are published to.
func (in *Ingestor) Store() *Store {
	return in.store
}

// Streams returns the enabled streams.
func (in *Ingestor) Streams() []StreamSpec {
	return append([]StreamSpec(nil), in.streams...)
}

// Reload fetches, parses and publishes every enabled stream concurrently.
// Streams fail independently: a failed stream keeps its previous dataset and
// its error is included in the joined result.
func (in *Ingestor) Reload(ctx context.Context) error {
	if len(in.streams) == 0 {
		return nil
	}
	gen := in.store.NextGeneration()
	errs := make([]error, len(in.streams))

	var g errgroup.Group
	g.SetLimit(in.maxParallel)
	for i, spec := range in.streams {
		i, spec := i, spec
		g.Go(func() error {
			errs[i] = in.load(ctx, gen, spec)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// ReloadStream reloads a single enabled stream.
func (in *Ingestor) ReloadStream(ctx context.Context, stream Stream) error {
	for _, spec := range in.streams {
		if spec.Stream == stream {
			return in.load(ctx, in.store.NextGeneration(), spec)
		}
	}
	return fmt.Errorf("%s: %w", stream, ErrStreamNotConfigured)
}

// Watch reloads on every tick until ctx is done. Failures are logged and the
// last good datasets stay current.
func (in *Ingestor) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := in.Reload(ctx); err != nil && ctx.Err() == nil {
				in.logger.Warnf("Periodic reload failed: %v", err)
			}
		}
	}
}

func (in *Ingestor) load(ctx context.Context, gen uint64, spec StreamSpec) error {
	started := in.now()
	raw, err := in.fetcher.Fetch(ctx, spec.Stream)
	if err != nil {
		return in.fail(gen, spec.Stream, err)
	}

	ds, err := Build(spec.Stream, spec.Shape, raw)
	if err != nil {
		var te *trace.TraceError
		if !errors.As(err, &te) {
			err = fmt.Errorf("%s: %w", spec.Stream, err)
		}
		return in.fail(gen, spec.Stream, err)
	}
	ds.ID = uuid.NewString()
	ds.Generation = gen
	ds.LoadedAt = in.now()

	if !in.store.Publish(ds) {
		in.logger.Debugf("Dropping stale %s dataset generation %d", spec.Stream, gen)
		return nil
	}
	in.logger.Infof("Published %s generation %d (%d cycles) in %s",
		spec.Stream, gen, ds.Trace.Len(), ds.LoadedAt.Sub(started))

	if err := in.broker.EmitPublished(&hooks.PublishedContext{
		Stream:     string(spec.Stream),
		Generation: gen,
		DatasetID:  ds.ID,
		Cycles:     ds.Trace.Len(),
	}); err != nil {
		in.logger.Warnf("Published hook for %s failed: %v", spec.Stream, err)
	}
	return nil
}

func (in *Ingestor) fail(gen uint64, stream Stream, err error) error {
	in.logger.Errorf("Ingest of %s failed, keeping previous dataset: %v", stream, err)
	if hookErr := in.broker.EmitIngestFailed(&hooks.IngestFailedContext{
		Stream:     string(stream),
		Generation: gen,
		Err:        err,
	}); hookErr != nil {
		in.logger.Warnf("Failure hook for %s failed: %v", stream, hookErr)
	}
	return err
}

// Build parses raw stream text into an unpublished dataset. Parse failures
// come back as *trace.TraceError tagged with the stream.
func Build(stream Stream, shape trace.Shape, raw []byte) (*Dataset, error) {
	ds, err := build(stream, shape, raw)
	var te *trace.TraceError
	if errors.As(err, &te) {
		te.Stream = string(stream)
	}
	return ds, err
}

func build(stream Stream, shape trace.Shape, raw []byte) (*Dataset, error) {
	ds := &Dataset{Stream: stream}
	switch stream {
	case StreamTrace, StreamPipeline:
		t, err := trace.Parse(raw, shape)
		if err != nil {
			return nil, err
		}
		ds.Trace = t
		ds.Index = index.New(t)
	case StreamStats:
		stats, err := trace.ParseStatistics(raw)
		if err != nil {
			return nil, err
		}
		ds.Stats = stats
	case StreamMemory:
		mem, err := trace.ParseMemoryDump(raw)
		if err != nil {
			return nil, err
		}
		ds.Memory = mem
	default:
		return nil, fmt.Errorf("unknown stream %q: %w", stream, core.ErrMalformedTrace)
	}
	return ds, nil
}
