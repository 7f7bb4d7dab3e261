package domain

import (
	"bytes"
	"errors"
)

// Document is a structured record whose keys keep insertion order, so the
// bulk body is stable and diffable across runs.
type Document struct {
	keys   []string
	values map[string]Value
}

func NewDocument() *Document {
	return &Document{values: make(map[string]Value)}
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position and takes the new value.
func (d *Document) Set(key string, v Value) {
	if d.values == nil {
		d.values = make(map[string]Value)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Document) SetString(key, s string) {
	d.Set(key, StringValue(s))
}

func (d *Document) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.values[key]
	return v, ok
}

// GetString returns the text of key, or "" when it is absent.
func (d *Document) GetString(key string) string {
	v, _ := d.Get(key)
	return v.Text()
}

func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	v, err := ParseValue(data)
	if err != nil {
		return err
	}
	if v.Kind() != KindObject {
		return errors.New("document must be a JSON object")
	}
	*d = *v.Object()
	return nil
}

func (d *Document) encode(buf *bytes.Buffer) error {
	if d == nil {
		buf.WriteString("null")
		return nil
	}
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := d.values[key].encode(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
