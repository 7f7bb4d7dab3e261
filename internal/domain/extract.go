package domain

import (
	"regexp"
	"strings"
)

// Extractor pulls one value out of free text with a single-capture pattern.
// A miss yields "".
type Extractor struct {
	Name    string
	pattern *regexp.Regexp
}

func NewExtractor(name, expr string) Extractor {
	return Extractor{Name: name, pattern: regexp.MustCompile(expr)}
}

func (e Extractor) Extract(text string) string {
	m := e.pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ExtractAll applies each extractor to text in turn and collects the results
// under the extractor names, misses included.
func ExtractAll(text string, extractors ...Extractor) *Fields {
	out := NewFields()
	for _, e := range extractors {
		out.Set(e.Name, e.Extract(text))
	}
	return out
}

// Header is one name/value pair from an execution log header dump.
type Header struct {
	Name  string
	Value string
}

// Headers preserves the order in which headers were logged.
type Headers []Header

// truncatedMarker ends execution log lines that API Gateway cut short. The
// closing brace of a header dump is lost with it.
const truncatedMarker = "[TRUNCATED]"

// ParseHeaders splits a "k=v, k=v" block. A segment without "=" continues the
// previous value, which keeps user agents like "(KHTML, like Gecko)" whole.
// A truncated block yields the headers logged before the cut.
func ParseHeaders(block string) Headers {
	block = strings.TrimSpace(block)
	block = strings.TrimPrefix(block, "{")
	block = strings.TrimSpace(strings.TrimSuffix(block, truncatedMarker))
	block = strings.TrimSuffix(block, "}")
	if strings.TrimSpace(block) == "" {
		return nil
	}

	var out Headers
	for _, segment := range strings.Split(block, ", ") {
		name, value, ok := strings.Cut(segment, "=")
		if !ok || strings.ContainsAny(name, " ()") {
			if len(out) > 0 {
				out[len(out)-1].Value += ", " + segment
			}
			continue
		}
		out = append(out, Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return out
}

// Get returns the first header matching name case-insensitively, or "".
func (h Headers) Get(name string) string {
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}
