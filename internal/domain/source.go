package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotJSON is returned by BuildSource when a message without extracted
// fields is not valid JSON.
var ErrNotJSON = errors.New("message is not valid JSON")

var numericLiteral = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)$`)

// IsNumeric reports whether s is entirely a decimal literal: optional sign,
// digits, optional decimal point.
func IsNumeric(s string) bool {
	return numericLiteral.MatchString(s)
}

// CoerceField turns a numeric literal into a number and leaves anything else
// as a string.
func CoerceField(s string) Value {
	if !IsNumeric(s) {
		return StringValue(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return StringValue(s)
	}
	return FloatValue(f)
}

// BuildSource merges a raw message and its extracted fields into a document
// source.
//
// With no fields the message must itself be JSON and is returned as parsed;
// otherwise ErrNotJSON is returned. With fields, the message is ignored: each
// field is coerced, and a field whose value is a JSON object is also stored
// parsed under FieldSigil+key, immediately before the key itself.
func BuildSource(message string, fields *Fields) (Value, error) {
	if fields.Len() == 0 {
		if message == "" {
			return ObjectValue(NewDocument()), nil
		}
		v, err := ParseValue([]byte(message))
		if err != nil {
			return StringValue(message), fmt.Errorf("%w: %v", ErrNotJSON, err)
		}
		return v, nil
	}

	doc := NewDocument()
	for _, key := range fields.Keys() {
		raw, _ := fields.Get(key)
		if nested, ok := parseObject(raw); ok {
			doc.Set(FieldSigil+key, nested)
		}
		doc.Set(key, CoerceField(raw))
	}
	return ObjectValue(doc), nil
}

func parseObject(s string) (Value, bool) {
	if t := strings.TrimLeft(s, " \t\r\n"); t == "" || t[0] != '{' {
		return Value{}, false
	}
	v, err := ParseValue([]byte(s))
	if err != nil || v.Kind() != KindObject {
		return Value{}, false
	}
	return v, true
}
