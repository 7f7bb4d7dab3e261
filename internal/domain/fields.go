package domain

import (
	"bytes"
	"errors"
)

// FieldSigil marks a field name as user-extracted or derived.
const FieldSigil = "$"

// Fields is an ordered set of raw string values pulled out of a log line,
// e.g. the extractedFields CloudWatch attaches when a subscription filter
// names its terms.
type Fields struct {
	keys   []string
	values map[string]string
}

// NewFields builds Fields from alternating key, value arguments.
func NewFields(kv ...string) *Fields {
	f := &Fields{values: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i], kv[i+1])
	}
	return f
}

func (f *Fields) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

func (f *Fields) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[key]
	return v, ok
}

func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

func (f *Fields) MarshalJSON() ([]byte, error) {
	doc := NewDocument()
	for _, k := range f.Keys() {
		doc.SetString(k, f.values[k])
	}
	return doc.MarshalJSON()
}

// UnmarshalJSON accepts an object. Non-string values are kept as their JSON text.
func (f *Fields) UnmarshalJSON(data []byte) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}
	switch v.Kind() {
	case KindNull:
		*f = Fields{}
		return nil
	case KindObject:
	default:
		return errors.New("extracted fields must be a JSON object")
	}

	out := Fields{values: make(map[string]string)}
	doc := v.Object()
	for _, k := range doc.Keys() {
		item, _ := doc.Get(k)
		if item.Kind() == KindString {
			out.Set(k, item.Text())
			continue
		}
		var buf bytes.Buffer
		if err := item.encode(&buf); err != nil {
			return err
		}
		out.Set(k, buf.String())
	}
	*f = out
	return nil
}
