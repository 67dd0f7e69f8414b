package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/domain"
	"github.com/couchcryptid/quake-data-etl/internal/observability"
	"github.com/google/uuid"
)

// Fetcher retrieves the raw feed payload for a date window.
type Fetcher interface {
	Fetch(ctx context.Context, window domain.Window) (domain.FeatureCollection, error)
}

// Normalizer decodes raw features and flattens them into the persisted schema.
type Normalizer interface {
	Normalize(ctx context.Context, features []json.RawMessage) ([]domain.FlatEvent, error)
}

// Sink ensures the destination table exists and inserts new rows.
type Sink interface {
	EnsureSchema(ctx context.Context) error
	LoadBatch(ctx context.Context, events []domain.FlatEvent) (int64, error)
}

// Publisher forwards normalized events downstream after a successful load.
type Publisher interface {
	Publish(ctx context.Context, runID string, events []domain.FlatEvent) error
}

// Result summarizes one run.
type Result struct {
	RunID      string        `json:"run_id"`
	Window     string        `json:"window"`
	Fetched    int           `json:"fetched"`
	Normalized int           `json:"normalized"`
	Inserted   int64         `json:"inserted"`
	Published  int           `json:"published"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// RunOption customizes a single run.
type RunOption func(*runOptions)

type runOptions struct {
	window *domain.Window
}

// WithWindow overrides the trailing seven-day window.
func WithWindow(w domain.Window) RunOption {
	return func(o *runOptions) {
		o.window = &w
	}
}

// Pipeline runs fetch, normalize and load strictly in sequence.
type Pipeline struct {
	fetcher    Fetcher
	normalizer Normalizer
	sink       Sink
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	last       atomic.Pointer[Result]
}

// New creates a Pipeline. Pass a nil publisher to skip publishing.
func New(f Fetcher, n Normalizer, s Sink, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:    f,
		normalizer: n,
		sink:       s,
		publisher:  pub,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a successful run yet")
	}
	return nil
}

// LastResult returns the summary of the most recent run, if any.
func (p *Pipeline) LastResult() (Result, bool) {
	r := p.last.Load()
	if r == nil {
		return Result{}, false
	}
	return *r, true
}

// Run executes one extract-transform-load cycle. Any stage failure aborts
// the run and is returned wrapped with the stage name; the typed domain error
// stays reachable through errors.As.
func (p *Pipeline) Run(ctx context.Context, opts ...RunOption) (Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	window := domain.CurrentWindow()
	if o.window != nil {
		window = *o.window
	}

	res := Result{
		RunID:     uuid.NewString(),
		Window:    window.String(),
		StartedAt: time.Now().UTC(),
	}
	logger := p.logger.With("run_id", res.RunID, "window", res.Window)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	err := p.run(ctx, logger, window, &res)
	res.Duration = time.Since(res.StartedAt)
	p.metrics.RunDuration.Observe(res.Duration.Seconds())

	if err != nil {
		res.Error = err.Error()
		p.metrics.Runs.WithLabelValues("failure").Inc()
		logger.Error("run failed", "error", err, "duration", res.Duration)
	} else {
		p.metrics.Runs.WithLabelValues("success").Inc()
		p.metrics.LastSuccess.SetToCurrentTime()
		p.ready.Store(true)
		logger.Info("run complete",
			"fetched", res.Fetched,
			"inserted", res.Inserted,
			"published", res.Published,
			"duration", res.Duration,
		)
	}

	p.last.Store(&res)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, window domain.Window, res *Result) error {
	if err := window.Validate(); err != nil {
		return fmt.Errorf("window: %w", err)
	}

	logger.Info("run started")

	fetchStart := time.Now()
	payload, err := p.fetcher.Fetch(ctx, window)
	p.metrics.StageDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	res.Fetched = len(payload.Features)
	p.metrics.EventsFetched.Add(float64(res.Fetched))
	logger.Info("feed fetched", "events", res.Fetched)

	if payload.Metadata.Count != 0 && payload.Metadata.Count != res.Fetched {
		logger.Warn("feed metadata count mismatch",
			"metadata_count", payload.Metadata.Count,
			"features", res.Fetched,
		)
	}

	normStart := time.Now()
	events, err := p.normalizer.Normalize(ctx, payload.Features)
	p.metrics.StageDuration.WithLabelValues("normalize").Observe(time.Since(normStart).Seconds())
	if err != nil {
		p.metrics.NormalizationErrors.Inc()
		return fmt.Errorf("normalize: %w", err)
	}
	res.Normalized = len(events)
	p.metrics.EventsNormalized.Add(float64(res.Normalized))

	loadStart := time.Now()
	inserted, err := p.load(ctx, events)
	p.metrics.StageDuration.WithLabelValues("load").Observe(time.Since(loadStart).Seconds())
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	res.Inserted = inserted
	p.metrics.RowsInserted.Add(float64(inserted))
	logger.Info("batch loaded", "events", len(events), "inserted", inserted, "skipped", int64(len(events))-inserted)

	if p.publisher == nil || len(events) == 0 {
		return nil
	}
	if err := p.publisher.Publish(ctx, res.RunID, events); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	res.Published = len(events)
	p.metrics.EventsPublished.Add(float64(res.Published))
	return nil
}

func (p *Pipeline) load(ctx context.Context, events []domain.FlatEvent) (int64, error) {
	if err := p.sink.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	return p.sink.LoadBatch(ctx, events)
}
