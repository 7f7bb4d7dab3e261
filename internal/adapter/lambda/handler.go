// Package lambda adapts the pipeline to CloudWatch Logs subscription
// invocations.
package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/couchcryptid/cloudlogs-streamer/internal/domain"
	"github.com/couchcryptid/cloudlogs-streamer/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// Processor runs one payload through the pipeline.
type Processor interface {
	Process(ctx context.Context, raw domain.RawEvent) (pipeline.Outcome, error)
}

// Response is returned to the invoker and recorded with the invocation.
type Response struct {
	BatchID         string `json:"batchId,omitempty"`
	Status          string `json:"status"`
	Strategy        string `json:"strategy,omitempty"`
	Records         int    `json:"records"`
	Dropped         int    `json:"dropped"`
	AttemptedItems  int    `json:"attemptedItems"`
	SuccessfulItems int    `json:"successfulItems"`
	FailedItems     int    `json:"failedItems"`
	Error           string `json:"error,omitempty"`

	// Data and Input echo an event whose payload could not be decoded.
	Data  string                      `json:"data,omitempty"`
	Input *events.CloudwatchLogsEvent `json:"input,omitempty"`
}

// Handler processes subscription events.
type Handler struct {
	processor      Processor
	failOnDelivery bool
	clock          clockwork.Clock
	logger         *slog.Logger
}

// NewHandler creates a Handler. With failOnDelivery a rejected bulk request
// fails the invocation so the subscription redelivers the batch.
func NewHandler(processor Processor, failOnDelivery bool, logger *slog.Logger) *Handler {
	return &Handler{
		processor:      processor,
		failOnDelivery: failOnDelivery,
		clock:          clockwork.NewRealClock(),
		logger:         logger,
	}
}

// Handle is the function registered with lambda.Start.
func (h *Handler) Handle(ctx context.Context, ev events.CloudwatchLogsEvent) (Response, error) {
	logger := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With("aws_request_id", lc.AwsRequestID)
	}

	out, err := h.processor.Process(ctx, domain.RawEvent{
		Value:     []byte(ev.AWSLogs.Data),
		Timestamp: h.clock.Now().UTC(),
	})
	resp := Response{
		BatchID:         out.BatchID,
		Status:          out.Status,
		Strategy:        out.Strategy.String(),
		Records:         out.Records,
		Dropped:         out.Dropped,
		AttemptedItems:  out.Result.AttemptedItems,
		SuccessfulItems: out.Result.SuccessfulItems,
		FailedItems:     out.Result.FailedItems,
	}

	switch {
	case errors.Is(err, domain.ErrMalformedPayload):
		logger.Warn("record skipped, payload not in a supported format", "error", err, "batch_id", out.BatchID)
		data, marshalErr := json.Marshal(ev)
		if marshalErr != nil {
			return resp, fmt.Errorf("encode skipped event: %w", marshalErr)
		}
		resp.Data = string(data)
		resp.Input = &ev
		return resp, nil
	case err != nil:
		resp.Error = err.Error()
		logger.Error("batch delivery failed", "error", err, "batch_id", out.BatchID, "fail_invocation", h.failOnDelivery)
		if h.failOnDelivery {
			return resp, fmt.Errorf("deliver batch %s: %w", out.BatchID, err)
		}
		return resp, nil
	}

	logger.Info("invocation complete",
		"batch_id", out.BatchID,
		"status", out.Status,
		"strategy", resp.Strategy,
		"records", out.Records,
		"dropped", out.Dropped,
	)
	return resp, nil
}
