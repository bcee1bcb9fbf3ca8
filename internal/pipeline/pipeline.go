package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/observability"
	"github.com/couchcryptid/city-signal/internal/zone"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
)

// Source loads one batch of inputs.
type Source interface {
	Load(ctx context.Context) (*Inputs, error)
}

// Sink delivers a batch result.
type Sink interface {
	Name() string
	Publish(ctx context.Context, res *domain.Result) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	publishRetries = 3
)

// Pipeline runs load-analyze-publish batches, one at a time.
type Pipeline struct {
	source   Source
	sinks    []Sink
	analysis Analysis
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics

	run sync.Mutex

	mu         sync.RWMutex
	latest     *domain.Result
	classifier zone.Classifier
}

// New creates a Pipeline. Pass a nil geocoder to disable place-name enrichment.
func New(src Source, sinks []Sink, analysis Analysis, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:   src,
		sinks:    sinks,
		analysis: analysis,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a batch has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if _, ok := p.Latest(); !ok {
		return errors.New("no batch has completed yet")
	}
	return nil
}

// Latest returns the most recent successful result.
func (p *Pipeline) Latest() (*domain.Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.latest != nil
}

// RunOnce loads, analyzes and publishes one batch. Concurrent calls are
// serialized.
func (p *Pipeline) RunOnce(ctx context.Context) (*domain.Result, error) {
	p.run.Lock()
	defer p.run.Unlock()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := time.Now()
	res, err := p.runBatch(ctx)
	p.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.BatchRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	p.metrics.BatchRuns.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.Set(float64(res.GeneratedAt.Unix()))
	return res, nil
}

func (p *Pipeline) runBatch(ctx context.Context) (*domain.Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	in, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}
	p.metrics.RowsLoaded.WithLabelValues("sensor").Add(float64(len(in.Sensors)))
	p.metrics.RowsLoaded.WithLabelValues("event").Add(float64(len(in.Events)))
	p.metrics.RowsLoaded.WithLabelValues("report").Add(float64(len(in.Reports)))
	logger.Info("batch loaded",
		"sensors", len(in.Sensors),
		"events", len(in.Events),
		"reports", len(in.Reports),
		"zones", len(in.Zones),
	)

	res, classifier, err := Analyze(ctx, in, p.analysis)
	if err != nil {
		return nil, err
	}
	res.RunID = runID
	res.GeneratedAt = domain.Now()

	for i := range res.Reports {
		res.Reports[i] = domain.EnrichWithGeocoding(ctx, res.Reports[i], p.geocoder, logger)
	}

	p.record(logger, res)

	for _, s := range p.sinks {
		if err := p.publish(ctx, s, res); err != nil {
			return nil, fmt.Errorf("publish to %s: %w", s.Name(), err)
		}
		p.metrics.ResultsPublished.WithLabelValues(s.Name()).Inc()
	}

	p.mu.Lock()
	p.latest = res
	p.classifier = classifier
	p.mu.Unlock()

	logger.Info("batch complete",
		"strategy", res.ZoneStrategy,
		"anomalies", res.Stats.Anomalies,
		"verified", res.Stats.Verified,
		"reports", res.Stats.Reports,
		"rejections", res.Stats.Rejections,
	)
	return res, nil
}

func (p *Pipeline) record(logger *slog.Logger, res *domain.Result) {
	for _, r := range res.Rejections {
		logger.Debug("row rejected", "kind", r.Kind, "index", r.Index, "id", r.ID, "error", r.Err)
		p.metrics.RowsRejected.WithLabelValues(r.Kind, r.Reason()).Inc()
	}
	p.metrics.AnomaliesFlagged.Add(float64(res.Stats.Anomalies))
	p.metrics.ReportVerdicts.WithLabelValues("verified").Add(float64(res.Stats.Verified))
	p.metrics.ReportVerdicts.WithLabelValues("unverified").Add(float64(res.Stats.Reports - res.Stats.Verified))
}

// publish retries a sink with exponential backoff.
func (p *Pipeline) publish(ctx context.Context, s Sink, res *domain.Result) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= publishRetries; attempt++ {
		if err = s.Publish(ctx, res); err == nil {
			return nil
		}
		p.logger.Warn("publish failed", "sink", s.Name(), "attempt", attempt, "error", err)
		if attempt == publishRetries || !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Classify tags observations with the classifier of the latest batch.
func (p *Pipeline) Classify(obs []domain.Observation) ([]domain.Observation, []domain.Rejection, error) {
	p.mu.RLock()
	c := p.classifier
	p.mu.RUnlock()
	if c == nil {
		return nil, nil, fmt.Errorf("classify observations: %w", domain.ErrNoReferenceData)
	}
	tagged, rejected := zone.Tag(c, "observation", obs)
	return tagged, rejected, nil
}
