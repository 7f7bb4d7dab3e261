package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Default index names and log level.
const (
	DefaultApplicationLogsIndex = "applicationlogs"
	DefaultAPILogsIndex         = "apilogs"
	DefaultLogLevel             = "INFO"
)

// ErrNoOp reports that a batch produces no bulk body at all: a control
// message, an unrecognised log group, or Lambda output whose first event has
// no request id. It is an outcome, not a failure.
var ErrNoOp = errors.New("batch produces no documents")

// Options carries per-invocation settings into Transform.
type Options struct {
	ApplicationLogsIndex string
	APILogsIndex         string
	// OmitType drops _type from action lines.
	OmitType bool
}

func (o Options) withDefaults() Options {
	if o.ApplicationLogsIndex == "" {
		o.ApplicationLogsIndex = DefaultApplicationLogsIndex
	}
	if o.APILogsIndex == "" {
		o.APILogsIndex = DefaultAPILogsIndex
	}
	return o
}

// Parsed is the output of a strategy: records in input order plus the number
// of events that yielded nothing.
type Parsed struct {
	Records []Record
	Dropped int
}

// Parser turns a batch into bulk records. ok is false when the batch as a
// whole produces nothing.
type Parser interface {
	Parse(batch LogBatch) (parsed Parsed, ok bool)
}

// ParserFor returns the parser for a strategy, or nil for StrategyUnsupported.
func ParserFor(s Strategy, opts Options) Parser {
	opts = opts.withDefaults()
	switch s {
	case StrategyLambda:
		return lambdaParser{index: opts.ApplicationLogsIndex, omitType: opts.OmitType}
	case StrategyAPIGateway:
		return apiGatewayParser{index: opts.APILogsIndex, omitType: opts.OmitType}
	default:
		return nil
	}
}

// Bulk is a serialized bulk request body and what went into it.
type Bulk struct {
	Strategy Strategy
	Body     []byte
	Records  int
	Dropped  int
}

// Empty reports whether there is nothing to send.
func (b Bulk) Empty() bool { return len(b.Body) == 0 }

// Transform classifies a batch, parses it and serializes the bulk body.
// It returns ErrNoOp when the batch yields nothing.
func Transform(batch LogBatch, opts Options) (Bulk, error) {
	strategy := Classify(batch)
	parser := ParserFor(strategy, opts)
	if parser == nil {
		return Bulk{Strategy: strategy}, ErrNoOp
	}

	parsed, ok := parser.Parse(batch)
	if !ok {
		return Bulk{Strategy: strategy}, ErrNoOp
	}

	body, err := EncodeBulk(parsed.Records)
	if err != nil {
		return Bulk{Strategy: strategy}, err
	}

	return Bulk{
		Strategy: strategy,
		Body:     body,
		Records:  len(parsed.Records),
		Dropped:  parsed.Dropped,
	}, nil
}

// EncodeBulk writes each record as an action line followed by a document
// line. Every line ends in "\n"; no records give an empty body.
func EncodeBulk(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, r := range records {
		if err := enc.Encode(r.Action); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(r.Document); err != nil {
			return nil, fmt.Errorf("encode bulk document: %w", err)
		}
	}
	return buf.Bytes(), nil
}
