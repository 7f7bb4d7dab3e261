package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/cloudlogs-streamer/internal/domain"
	"github.com/couchcryptid/cloudlogs-streamer/internal/observability"
)

const (
	bulkPath        = "/_bulk"
	ndjsonMediaType = "application/x-ndjson"
)

// Signer authenticates a bulk request before it is sent.
type Signer interface {
	Sign(ctx context.Context, req *http.Request, body []byte) error
}

// Client posts bulk bodies to a search cluster.
type Client struct {
	endpoint   string
	httpClient *http.Client
	signer     Signer
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a bulk client for endpoint. A nil signer sends requests
// unsigned.
func NewClient(endpoint string, timeout time.Duration, signer Signer, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		signer:  signer,
		metrics: metrics,
		logger:  logger,
	}
}

// DeliveryError reports a bulk request the cluster did not fully accept.
type DeliveryError struct {
	StatusCode   int
	ResponseBody string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("bulk delivery failed: status %d: %s", e.StatusCode, e.ResponseBody)
}

// Post sends body to the _bulk endpoint. It returns *DeliveryError when the
// status is not 200 or the response reports item errors; the result is
// populated whenever the response could be parsed. Nothing is retried.
func (c *Client) Post(ctx context.Context, body []byte) (domain.BulkResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+bulkPath, bytes.NewReader(body))
	if err != nil {
		c.metrics.BulkRequests.WithLabelValues("error").Inc()
		return domain.BulkResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", ndjsonMediaType)

	if c.signer != nil {
		if err := c.signer.Sign(ctx, req, body); err != nil {
			c.metrics.BulkRequests.WithLabelValues("error").Inc()
			return domain.BulkResult{}, fmt.Errorf("sign request: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BulkDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.BulkRequests.WithLabelValues("error").Inc()
		return domain.BulkResult{}, fmt.Errorf("bulk request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.BulkRequests.WithLabelValues("error").Inc()
		return domain.BulkResult{StatusCode: resp.StatusCode}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.BulkRequests.WithLabelValues("error").Inc()
		return domain.BulkResult{StatusCode: resp.StatusCode}, &DeliveryError{StatusCode: resp.StatusCode, ResponseBody: string(raw)}
	}

	var parsed bulkResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.metrics.BulkRequests.WithLabelValues("error").Inc()
		return domain.BulkResult{StatusCode: resp.StatusCode}, fmt.Errorf("decode response: %w", err)
	}

	result := summarize(parsed)
	result.StatusCode = resp.StatusCode
	c.metrics.DocumentsIndexed.Add(float64(result.SuccessfulItems))
	c.metrics.DocumentsFailed.Add(float64(result.FailedItems))

	if resp.StatusCode != http.StatusOK || parsed.Errors {
		c.metrics.BulkRequests.WithLabelValues("partial").Inc()
		c.logger.Warn("bulk request partially rejected",
			"status", resp.StatusCode,
			"attempted", result.AttemptedItems,
			"failed", result.FailedItems,
		)
		return result, &DeliveryError{StatusCode: resp.StatusCode, ResponseBody: string(raw)}
	}

	c.metrics.BulkRequests.WithLabelValues("success").Inc()
	return result, nil
}

func summarize(resp bulkResponse) domain.BulkResult {
	result := domain.BulkResult{Took: resp.Took, AttemptedItems: len(resp.Items)}
	for _, entry := range resp.Items {
		for _, item := range entry {
			if item.Status >= 200 && item.Status < 300 {
				result.SuccessfulItems++
				continue
			}
			result.FailedItems++
			result.FailedDetails = append(result.FailedDetails, domain.FailedItem{
				ID:     item.ID,
				Status: item.Status,
				Error:  item.Error,
			})
		}
	}
	return result
}

// Bulk API response types.

type bulkResponse struct {
	Took   int                   `json:"took"`
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

type bulkItem struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}
