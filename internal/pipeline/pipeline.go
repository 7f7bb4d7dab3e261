package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/cloudlogs-streamer/internal/domain"
	"github.com/couchcryptid/cloudlogs-streamer/internal/observability"
)

// Batch outcomes, also used as the outcome metric label.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusNoOp      = "noop"
	StatusEmpty     = "empty"
	StatusMalformed = "malformed"
)

// Extractor reads a single raw payload from the source.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawEvent, error)
}

// Transformer converts a raw payload into a bulk body.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (Batch, error)
}

// Loader delivers a bulk body to the search cluster.
type Loader interface {
	Load(ctx context.Context, batch Batch) (domain.BulkResult, error)
}

// Outcome describes what happened to one payload.
type Outcome struct {
	BatchID  string
	Status   string
	Strategy domain.Strategy
	Records  int
	Dropped  int
	Result   domain.BulkResult
}

// Option adjusts a Pipeline.
type Option func(*Pipeline)

// CommitOnDeliveryError acknowledges payloads whose delivery failed instead
// of leaving them for redelivery.
func CommitOnDeliveryError() Option {
	return func(p *Pipeline) { p.commitFailed = true }
}

// Pipeline orchestrates the decode-transform-deliver cycle.
type Pipeline struct {
	extractor    Extractor
	transformer  Transformer
	loader       Loader
	logger       *slog.Logger
	metrics      *observability.Metrics
	commitFailed bool
	ready        atomic.Bool
}

// New creates a Pipeline with the given stages and observability. The
// extractor may be nil when payloads are pushed through Process directly.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ready reports whether the pipeline has successfully processed at least one payload.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Process runs one payload through transform and delivery. A malformed
// payload returns an error wrapping domain.ErrMalformedPayload; NoOp and
// empty batches return a nil error without contacting the cluster.
func (p *Pipeline) Process(ctx context.Context, raw domain.RawEvent) (Outcome, error) {
	start := time.Now()
	defer func() { p.metrics.ProcessingDuration.Observe(time.Since(start).Seconds()) }()

	batch, err := p.transformer.Transform(ctx, raw)
	out := Outcome{
		BatchID:  batch.ID,
		Strategy: batch.Bulk.Strategy,
		Records:  batch.Bulk.Records,
		Dropped:  batch.Bulk.Dropped,
	}

	switch {
	case errors.Is(err, domain.ErrMalformedPayload):
		p.metrics.DecodeErrors.Inc()
		return p.finish(out, StatusMalformed), err
	case errors.Is(err, domain.ErrNoOp):
		return p.finish(out, StatusNoOp), nil
	case err != nil:
		return p.finish(out, StatusFailed), err
	}

	p.metrics.EventsDropped.Add(float64(batch.Bulk.Dropped))
	if batch.Bulk.Empty() {
		return p.finish(out, StatusEmpty), nil
	}

	result, err := p.loader.Load(ctx, batch)
	out.Result = result
	if err != nil {
		return p.finish(out, StatusFailed), err
	}
	return p.finish(out, StatusDelivered), nil
}

func (p *Pipeline) finish(out Outcome, status string) Outcome {
	out.Status = status
	p.metrics.Batches.WithLabelValues(out.Strategy.String(), status).Inc()
	return out
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Run executes the consume loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		raw, err := p.extractor.Extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("extract failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		if !p.handle(ctx, raw) {
			return nil
		}
	}
}

// handle processes raw until its offset may be committed. A failed delivery
// is retried on the same payload, since committing a later offset would also
// cover this one. With CommitOnDeliveryError the failure is committed
// instead. Returns false once ctx is done.
func (p *Pipeline) handle(ctx context.Context, raw domain.RawEvent) bool {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		out, err := p.Process(ctx, raw)
		switch {
		case err == nil:
			p.ready.Store(true)
		case errors.Is(err, domain.ErrMalformedPayload):
			p.logger.Warn("payload malformed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.ready.Store(true)
		default:
			if ctx.Err() != nil {
				return false
			}
			p.logger.Error("delivery failed",
				"error", err,
				"batch_id", out.BatchID,
				"offset", raw.Offset,
				"attempt", attempt,
				"retry", !p.commitFailed,
			)
			if !p.commitFailed {
				if !sleepWithContext(ctx, backoff) {
					return false
				}
				backoff = nextBackoff(backoff, maxBackoff)
				continue
			}
		}

		p.commit(ctx, raw)
		return true
	}
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err, "topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, ceiling time.Duration) time.Duration {
	next := current * 2
	if next > ceiling {
		return ceiling
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
