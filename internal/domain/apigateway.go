package domain

import (
	"regexp"
	"strings"
)

// DefaultHTTPMethod is reported when the execution log never names a method.
const DefaultHTTPMethod = "GET"

var (
	apiRequestID        = NewExtractor("request_id", `\(([^)\s]+)\) Starting execution for request:`)
	apiMethod           = NewExtractor("method", `HTTP Method:\s*([A-Za-z]+),`)
	apiPath             = NewExtractor("path", `Method request path:[ \t]*([^\n]*)`)
	apiHeaders          = NewExtractor("headers", `Method request headers:[ \t]*(\{[^\n]*)`)
	apiStatus           = NewExtractor("status", `Method completed with status:\s*(\d{3})`)
	apiBackendRequestID = NewExtractor("application_logs_id", `Endpoint response headers:[^\n]*?x-amzn-RequestId=([0-9A-Za-z-]+)`)

	apiResourcePath = regexp.MustCompile(`Resource Path:\s*/api/([^/\s,]+)(?:/([^/\s,]+))?`)
)

// resourceDomain returns the first segment under /api/ when a second segment
// follows it.
func resourceDomain(text string) string {
	m := apiResourcePath.FindStringSubmatch(text)
	if m == nil || m[2] == "" {
		return ""
	}
	return m[1]
}

// trailingSegment returns the text after the last "/".
func trailingSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

type apiGatewayParser struct {
	index    string
	omitType bool
}

// Parse treats every message in the batch as one execution trace and emits a
// single record. Missing pieces become empty strings.
func (p apiGatewayParser) Parse(batch LogBatch) (Parsed, bool) {
	messages := make([]string, len(batch.LogEvents))
	for i, ev := range batch.LogEvents {
		messages[i] = ev.Message
	}
	text := strings.Join(messages, "\n")

	found := ExtractAll(text, apiRequestID, apiMethod, apiPath, apiHeaders, apiStatus, apiBackendRequestID)
	value := func(name string) string {
		v, _ := found.Get(name)
		return v
	}

	method := value(apiMethod.Name)
	if method == "" {
		method = DefaultHTTPMethod
	}
	headers := ParseHeaders(value(apiHeaders.Name))
	origin := headers.Get("Origin")
	if origin == "" {
		origin = headers.Get("Referer")
	}
	requestID := value(apiRequestID.Name)
	service := trailingSegment(batch.LogGroup.Secondary())

	doc := NewDocument()
	doc.SetString("timestamp", clock.Now().UTC().Format(isoMillis))
	doc.Set("platform_log_group", batch.LogGroup.Value())
	doc.SetString("platform_log_stream", batch.LogStream)
	doc.SetString("environment", "")
	doc.SetString("request_id", requestID)
	doc.SetString("method", method)
	doc.SetString("domain", resourceDomain(text))
	doc.SetString("servicename", service)
	doc.SetString("path", value(apiPath.Name))
	doc.SetString("application_logs_id", value(apiBackendRequestID.Name))
	doc.SetString("origin", origin)
	doc.SetString("host", headers.Get("Host"))
	doc.SetString("user_agent", headers.Get("User-Agent"))
	doc.SetString("x_forwarded_port", headers.Get("X-Forwarded-Port"))
	doc.SetString("x_forwarded_for", headers.Get("X-Forwarded-For"))
	doc.SetString("x_amzn_trace_id", headers.Get("X-Amzn-Trace-Id"))
	doc.SetString("content_type", headers.Get("Content-Type"))
	doc.SetString("cache_control", headers.Get("Cache-Control"))
	doc.SetString("log_level", DefaultLogLevel)
	doc.SetString("status", value(apiStatus.Name))

	return Parsed{Records: []Record{{
		Action: BulkAction{
			Index:    p.index,
			Type:     service,
			ID:       requestID,
			OmitType: p.omitType,
		},
		Document: doc,
	}}}, true
}
