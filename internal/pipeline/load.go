package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/cloudlogs-streamer/internal/domain"
)

// BulkPoster is the port for the search cluster's bulk endpoint.
type BulkPoster interface {
	Post(ctx context.Context, body []byte) (domain.BulkResult, error)
}

// BulkLoader implements Loader by delegating to a BulkPoster.
type BulkLoader struct {
	poster BulkPoster
	logger *slog.Logger
}

// NewLoader creates a BulkLoader backed by the given poster.
func NewLoader(poster BulkPoster, logger *slog.Logger) *BulkLoader {
	return &BulkLoader{poster: poster, logger: logger}
}

func (l *BulkLoader) Load(ctx context.Context, batch Batch) (domain.BulkResult, error) {
	result, err := l.poster.Post(ctx, batch.Bulk.Body)
	if err != nil {
		return result, err
	}
	l.logger.Info("batch delivered",
		"batch_id", batch.ID,
		"log_group", batch.LogGroup,
		"strategy", batch.Bulk.Strategy.String(),
		"attempted", result.AttemptedItems,
		"successful", result.SuccessfulItems,
	)
	return result, nil
}
