package domain

import (
	"regexp"
	"strings"
)

// isoMillis is ISO-8601 UTC with millisecond precision, the format the index
// templates map as a date.
const isoMillis = "2006-01-02T15:04:05.000Z"

var (
	endRequestLine = regexp.MustCompile(`^(?:([A-Z]+)\s+)?END RequestId:\s*([0-9A-Za-z-]+)`)
	runtimeLine    = regexp.MustCompile(`(?s)^([^\t\n]+)\t([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})\t(.*)$`)
	levelPrefix    = regexp.MustCompile(`^(TRACE|DEBUG|INFO|WARN|WARNING|ERROR|FATAL|CRITICAL)\t`)
)

// runtimeEntry is what one Lambda log line yields.
type runtimeEntry struct {
	requestID string
	timestamp string
	message   string
	level     string
}

// parseRuntimeLine recognises the runtime's tab-delimited lines and the END
// platform line. ok is false when no request id can be found.
func parseRuntimeLine(ev LogEvent) (runtimeEntry, bool) {
	msg := strings.TrimRight(ev.Message, "\r\n")
	if msg == "" {
		return runtimeEntry{}, false
	}

	if m := endRequestLine.FindStringSubmatch(msg); m != nil {
		level := m[1]
		if level == "" {
			level = DefaultLogLevel
		}
		return runtimeEntry{
			requestID: m[2],
			timestamp: ev.Time().Format(isoMillis),
			message:   msg,
			level:     level,
		}, true
	}

	if m := runtimeLine.FindStringSubmatch(msg); m != nil {
		rest := strings.TrimSuffix(strings.TrimRight(m[3], "\r\n"), "', , ")
		level := DefaultLogLevel
		if lm := levelPrefix.FindStringSubmatch(rest); lm != nil {
			level = lm[1]
		}
		return runtimeEntry{
			requestID: m[2],
			timestamp: m[1],
			message:   rest,
			level:     level,
		}, true
	}

	return runtimeEntry{}, false
}

// lambdaIdentity splits "/aws/lambda/<service>-<environment>" on the last dash.
func lambdaIdentity(group LogGroup) (service, environment string) {
	joined := group.Joined()
	i := strings.Index(joined, LambdaLogGroupToken)
	if i < 0 {
		return "", ""
	}
	name := joined[i+len(LambdaLogGroupToken):]
	j := strings.LastIndex(name, "-")
	if j < 0 {
		return name, ""
	}
	return name[:j], name[j+1:]
}

type lambdaParser struct {
	index    string
	omitType bool
}

// Parse emits one record per event with a resolvable request id. A first
// event without one means the batch is not runtime output at all.
func (p lambdaParser) Parse(batch LogBatch) (Parsed, bool) {
	if len(batch.LogEvents) == 0 {
		return Parsed{}, false
	}
	if _, ok := parseRuntimeLine(batch.LogEvents[0]); !ok {
		return Parsed{}, false
	}

	service, environment := lambdaIdentity(batch.LogGroup)

	var out Parsed
	for _, ev := range batch.LogEvents {
		entry, ok := parseRuntimeLine(ev)
		if !ok || service == "" || environment == "" {
			out.Dropped++
			continue
		}

		doc := NewDocument()
		doc.SetString("request_id", entry.requestID)
		doc.SetString("environment", environment)
		doc.SetString("servicename", service)
		doc.Set("platform_log_group", batch.LogGroup.Value())
		doc.SetString("platform_log_stream", batch.LogStream)
		doc.SetString("timestamp", entry.timestamp)
		doc.SetString("message", entry.message)
		doc.SetString("log_level", entry.level)
		mergeExtracted(doc, ev)

		out.Records = append(out.Records, Record{
			Action: BulkAction{
				Index:    p.index,
				Type:     environment,
				ID:       ev.ID,
				OmitID:   ev.ID == "",
				OmitType: p.omitType,
			},
			Document: doc,
		})
	}
	return out, true
}

// mergeExtracted appends subscription-filter fields after the fixed keys
// without overwriting any of them.
func mergeExtracted(doc *Document, ev LogEvent) {
	if ev.ExtractedFields.Len() == 0 {
		return
	}
	src, err := BuildSource(ev.Message, ev.ExtractedFields)
	if err != nil || src.Kind() != KindObject {
		return
	}
	extracted := src.Object()
	for _, key := range extracted.Keys() {
		if _, exists := doc.Get(key); exists {
			continue
		}
		v, _ := extracted.Get(key)
		doc.Set(key, v)
	}
}
