package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const executionTrace = `(7c1b2a3d-1111-2222-3333-444455556666) Extended Request Id: Ab12CdEfGh=
(7c1b2a3d-1111-2222-3333-444455556666) Starting execution for request: 7c1b2a3d-1111-2222-3333-444455556666
(7c1b2a3d-1111-2222-3333-444455556666) HTTP Method: POST, Resource Path: /api/jazz/services
(7c1b2a3d-1111-2222-3333-444455556666) Method request path: {id=42}
(7c1b2a3d-1111-2222-3333-444455556666) Method request query string: {}
(7c1b2a3d-1111-2222-3333-444455556666) Method request headers: {Accept=*/*, Host=abc123.execute-api.us-east-1.amazonaws.com, User-Agent=Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/70.0 Safari/537.36, Referer=https://jazz.example.com/services, X-Forwarded-Port=443, X-Forwarded-For=203.0.113.7, X-Amzn-Trace-Id=Root=1-5bad2f0a-1234567890abcdef, Content-Type=application/json, cache-control=no-cache}
(7c1b2a3d-1111-2222-3333-444455556666) Endpoint response headers: {Date=Thu, 27 Sep 2018 15:29:27 GMT, Content-Type=application/json, x-amzn-RequestId=1f08c356-c26a-11e8-817c-373a13df2581, Connection=keep-alive}
(7c1b2a3d-1111-2222-3333-444455556666) Method completed with status: 201`

func traceBatch(group LogGroup) LogBatch {
	lines := strings.Split(executionTrace, "\n")
	events := make([]LogEvent, len(lines))
	for i, line := range lines {
		events[i] = LogEvent{ID: "ev", Timestamp: 1538062167822, Message: line}
	}
	return LogBatch{
		MessageType: MessageTypeData,
		LogGroup:    group,
		LogStream:   "stream-1",
		LogEvents:   events,
	}
}

func TestAPIGatewayParser_FullTrace(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2018, 9, 27, 15, 29, 30, 0, time.UTC)))
	defer SetClock(nil)

	bulk, err := Transform(traceBatch(NewLogGroup("API-Gateway-Execution-Logs_abc123/prod")), Options{})
	require.NoError(t, err)
	require.Equal(t, StrategyAPIGateway, bulk.Strategy)

	lines := bulkLines(t, bulk.Body)
	require.Len(t, lines, 2)
	assert.Equal(t, `{"index":{"_index":"apilogs","_type":"prod","_id":"7c1b2a3d-1111-2222-3333-444455556666"}}`, lines[0])

	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, map[string]string{
		"timestamp":           "2018-09-27T15:29:30.000Z",
		"platform_log_group":  "API-Gateway-Execution-Logs_abc123/prod",
		"platform_log_stream": "stream-1",
		"environment":         "",
		"request_id":          "7c1b2a3d-1111-2222-3333-444455556666",
		"method":              "POST",
		"domain":              "jazz",
		"servicename":         "prod",
		"path":                "{id=42}",
		"application_logs_id": "1f08c356-c26a-11e8-817c-373a13df2581",
		"origin":              "https://jazz.example.com/services",
		"host":                "abc123.execute-api.us-east-1.amazonaws.com",
		"user_agent":          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/70.0 Safari/537.36",
		"x_forwarded_port":    "443",
		"x_forwarded_for":     "203.0.113.7",
		"x_amzn_trace_id":     "Root=1-5bad2f0a-1234567890abcdef",
		"content_type":        "application/json",
		"cache_control":       "no-cache",
		"log_level":           "INFO",
		"status":              "201",
	}, doc)
}

func TestAPIGatewayParser_TruncatedHeaderBlock(t *testing.T) {
	batch := LogBatch{
		MessageType: MessageTypeData,
		LogGroup:    NewLogGroup("API-Gateway-Execution-Logs_abc123/prod"),
		LogEvents: []LogEvent{
			{ID: "1", Message: "(r-1) Starting execution for request: r-1"},
			{ID: "2", Message: "(r-1) Method request headers: {Accept=*/*, Host=x.execute-api.us-east-1.amazonaws.com, User-Agent=Mozilla/5.0 (KHTML, like Gecko) Chrome, X-Forwarded-Port=443, Referer=https://r.example [TRUNCATED]"},
			{ID: "3", Message: "(r-1) Method completed with status: 200"},
		},
	}

	bulk, err := Transform(batch, Options{})
	require.NoError(t, err)

	lines := bulkLines(t, bulk.Body)
	require.Len(t, lines, 2)

	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "x.execute-api.us-east-1.amazonaws.com", doc["host"])
	assert.Equal(t, "Mozilla/5.0 (KHTML, like Gecko) Chrome", doc["user_agent"])
	assert.Equal(t, "https://r.example", doc["origin"])
	assert.Equal(t, "443", doc["x_forwarded_port"])
	assert.Equal(t, "", doc["x_forwarded_for"])
	assert.Equal(t, "200", doc["status"])
}

func TestAPIGatewayParser_ServiceFromSecondaryElement(t *testing.T) {
	bulk, err := Transform(traceBatch(NewLogGroupList("API-Gateway-Execution-Logs", "/jazz/orders")), Options{APILogsIndex: "api-v2", OmitType: true})
	require.NoError(t, err)

	lines := bulkLines(t, bulk.Body)
	assert.Equal(t, `{"index":{"_index":"api-v2","_id":"7c1b2a3d-1111-2222-3333-444455556666"}}`, lines[0])
	assert.Contains(t, lines[1], `"servicename":"orders"`)
}

func TestAPIGatewayParser_DefaultsMethod(t *testing.T) {
	batch := traceBatch(NewLogGroup("API-Gateway-Execution-Logs_abc123/prod"))
	batch.LogEvents = batch.LogEvents[:2]

	parsed, ok := apiGatewayParser{index: "apilogs"}.Parse(batch)
	require.True(t, ok)
	require.Len(t, parsed.Records, 1)
	assert.Equal(t, "GET", parsed.Records[0].Document.GetString("method"))
}

func TestAPIGatewayParser_EmptyBatchStillEmitsOneRecord(t *testing.T) {
	parsed, ok := apiGatewayParser{index: "apilogs"}.Parse(LogBatch{
		MessageType: MessageTypeData,
		LogGroup:    NewLogGroup("API-Gateway-Execution-Logs_abc123/dev"),
	})
	require.True(t, ok)
	require.Len(t, parsed.Records, 1)

	doc := parsed.Records[0].Document
	assert.Equal(t, "GET", doc.GetString("method"))
	assert.Equal(t, "", doc.GetString("request_id"))
	assert.Equal(t, "", doc.GetString("status"))
	assert.Equal(t, "dev", doc.GetString("servicename"))
}

func TestResourceDomain(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"two segments", "HTTP Method: GET, Resource Path: /api/jazz/services", "jazz"},
		{"deeper path", "HTTP Method: GET, Resource Path: /api/jazz/services/{id}", "jazz"},
		{"dashed segments", "Resource Path: /api/my-domain/my-service", "my-domain"},
		{"one segment", "HTTP Method: GET, Resource Path: /api/jazz", ""},
		{"one segment trailing slash", "Resource Path: /api/jazz/", ""},
		{"outside api prefix", "Resource Path: /v1/jazz/services", ""},
		{"absent", "nothing here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resourceDomain(tt.text))
		})
	}
}

func TestTrailingSegment(t *testing.T) {
	assert.Equal(t, "prod", trailingSegment("abc/prod"))
	assert.Equal(t, "", trailingSegment("/aws/lambda/"))
	assert.Equal(t, "plain", trailingSegment("plain"))
	assert.Equal(t, "", trailingSegment(""))
}
