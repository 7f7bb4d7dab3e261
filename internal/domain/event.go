package domain

import (
	"context"
	"time"
)

// Subscription message types.
const (
	MessageTypeData    = "DATA_MESSAGE"
	MessageTypeControl = "CONTROL_MESSAGE"
)

// RawEvent is an undecoded subscription payload as delivered by a source
// (a Lambda invocation or a broker message).
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// LogBatch is one decoded CloudWatch Logs subscription delivery.
type LogBatch struct {
	MessageType         string     `json:"messageType"`
	Owner               string     `json:"owner,omitempty"`
	LogGroup            LogGroup   `json:"logGroup"`
	LogStream           string     `json:"logStream"`
	SubscriptionFilters []string   `json:"subscriptionFilters,omitempty"`
	LogEvents           []LogEvent `json:"logEvents"`
}

// IsData reports whether the batch carries log events rather than a
// subscription control message.
func (b LogBatch) IsData() bool {
	return b.MessageType == MessageTypeData
}

// LogEvent is a single CloudWatch log record.
type LogEvent struct {
	ID              string  `json:"id"`
	Timestamp       int64   `json:"timestamp"`
	Message         string  `json:"message"`
	ExtractedFields *Fields `json:"extractedFields,omitempty"`
}

// Time converts the epoch-millisecond timestamp to UTC.
func (e LogEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// BulkAction is the metadata line preceding each document in a bulk body.
type BulkAction struct {
	Index string
	Type  string
	ID    string

	// OmitID leaves _id out so the cluster assigns one.
	OmitID bool
	// OmitType leaves _type out for clusters that no longer accept mapping types.
	OmitType bool
}

func (a BulkAction) MarshalJSON() ([]byte, error) {
	meta := NewDocument()
	meta.SetString("_index", a.Index)
	if !a.OmitType {
		meta.SetString("_type", a.Type)
	}
	if !a.OmitID {
		meta.SetString("_id", a.ID)
	}
	action := NewDocument()
	action.Set("index", ObjectValue(meta))
	return action.MarshalJSON()
}

// Record pairs a bulk action with the document it indexes.
type Record struct {
	Action   BulkAction
	Document *Document
}
