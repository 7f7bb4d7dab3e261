package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/cloudlogs-streamer/internal/domain"
	"github.com/google/uuid"
)

// DecodeFunc turns a raw subscription payload into a batch.
type DecodeFunc func(payload []byte) (domain.LogBatch, error)

// Batch is a transformed payload ready for delivery.
type Batch struct {
	// ID correlates log lines about one payload.
	ID       string
	LogGroup string
	Bulk     domain.Bulk
}

// LogTransformer implements Transformer with a payload decoder and the
// domain transform.
type LogTransformer struct {
	decode DecodeFunc
	opts   domain.Options
	logger *slog.Logger
}

// NewTransformer creates a LogTransformer.
func NewTransformer(decode DecodeFunc, opts domain.Options, logger *slog.Logger) *LogTransformer {
	return &LogTransformer{decode: decode, opts: opts, logger: logger}
}

// Transform returns domain.ErrNoOp alongside a populated Batch when the
// payload yields nothing to index.
func (t *LogTransformer) Transform(_ context.Context, raw domain.RawEvent) (Batch, error) {
	batch := Batch{ID: uuid.NewString()}

	logBatch, err := t.decode(raw.Value)
	if err != nil {
		return batch, err
	}
	batch.LogGroup = logBatch.LogGroup.String()

	bulk, err := domain.Transform(logBatch, t.opts)
	batch.Bulk = bulk
	if errors.Is(err, domain.ErrNoOp) {
		t.logger.Debug("batch skipped",
			"batch_id", batch.ID,
			"message_type", logBatch.MessageType,
			"log_group", batch.LogGroup,
			"strategy", bulk.Strategy.String(),
		)
		return batch, err
	}
	if err != nil {
		return batch, err
	}

	t.logger.Debug("batch transformed",
		"batch_id", batch.ID,
		"log_group", batch.LogGroup,
		"strategy", bulk.Strategy.String(),
		"events", len(logBatch.LogEvents),
		"records", bulk.Records,
		"dropped", bulk.Dropped,
	)
	return batch, nil
}
