package domain

import (
	"encoding/json"
	"errors"
)

// ErrMalformedPayload wraps every reason a subscription payload cannot
// become a LogBatch.
var ErrMalformedPayload = errors.New("malformed subscription payload")

// BulkResult summarises the cluster's answer to one bulk request.
type BulkResult struct {
	StatusCode      int          `json:"statusCode"`
	AttemptedItems  int          `json:"attemptedItems"`
	SuccessfulItems int          `json:"successfulItems"`
	FailedItems     int          `json:"failedItems"`
	FailedDetails   []FailedItem `json:"failedDetails,omitempty"`
	Took            int          `json:"took"`
}

// FailedItem is one rejected bulk item.
type FailedItem struct {
	ID     string          `json:"id"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}
