package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

// Value is a JSON-compatible scalar or composite held by a Document.
// The zero Value is null.
type Value struct {
	kind Kind
	text string // string contents or number literal
	b    bool
	list []Value
	obj  *Document
}

func NullValue() Value { return Value{} }
func StringValue(s string) Value { return Value{kind: KindString, text: s} }
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, text: string(n)} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func ListValue(items ...Value) Value { return Value{kind: KindList, list: items} }
func ObjectValue(d *Document) Value { return Value{kind: KindObject, obj: d} }

// FloatValue stores f using the shortest decimal representation that round-trips.
func FloatValue(f float64) Value {
	return NumberValue(json.Number(strconv.FormatFloat(f, 'f', -1, 64)))
}

func (v Value) Kind() Kind { return v.kind }

// Text returns the string contents or the number literal. Other kinds return "".
func (v Value) Text() string { return v.text }

func (v Value) List() []Value { return v.list }

// Object returns the nested document, or nil when v is not an object.
func (v Value) Object() *Document { return v.obj }

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		return writeString(buf, v.text)
	case KindNumber:
		if !json.Valid([]byte(v.text)) {
			return fmt.Errorf("encode number %q: invalid literal", v.text)
		}
		buf.WriteString(v.text)
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		return v.obj.encode(buf)
	}
	return nil
}

// writeString encodes s as a JSON string without HTML escaping so bulk
// bodies carry messages byte-for-byte.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// ParseValue decodes JSON text into a Value, keeping object key order and
// number literals intact.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			doc := NewDocument()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key %v is not a string", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				doc.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(doc), nil
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ListValue(items...), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return StringValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case bool:
		return BoolValue(t), nil
	case nil:
		return NullValue(), nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}
