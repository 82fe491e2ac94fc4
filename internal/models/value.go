package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindBoolean
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "text"
	}
}

// Value is one submitted answer. The zero value is an empty Text.
type Value struct {
	kind    ValueKind
	text    string
	number  float64
	boolean bool
}

func Text(s string) Value { return Value{kind: KindText, text: s} }
func Number(f float64) Value { return Value{kind: KindNumber, number: f} }
func Boolean(b bool) Value { return Value{kind: KindBoolean, boolean: b} }
func (v Value) Kind() ValueKind { return v.kind }

func (v Value) Text() (string, bool) { return v.text, v.kind == KindText }
func (v Value) Number() (float64, bool) { return v.number, v.kind == KindNumber }
func (v Value) Boolean() (bool, bool) { return v.boolean, v.kind == KindBoolean }

// IsEmpty reports whether the value counts as "not filled in".
func (v Value) IsEmpty() bool {
	return v.kind == KindText && v.text == ""
}

// String renders the value the way it appears in exported cells.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.boolean)
	default:
		return v.text
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.number)
	case KindBoolean:
		return json.Marshal(v.boolean)
	default:
		return json.Marshal(v.text)
	}
}

var ErrUnsupportedValue = errors.New("value must be a string, number or boolean")

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrUnsupportedValue
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Boolean(b)
	case 'n', '{', '[':
		return fmt.Errorf("%w: got %s", ErrUnsupportedValue, string(data))
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}

// Entry is one key/value pair of UserData.
type Entry struct {
	Key   string
	Value Value
}

// UserData is an ordered association list. It is serialized as a JSON object
// whose member order matches the list.
type UserData []Entry

func (d UserData) Get(key string) (Value, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the value of an existing key in place, otherwise appends.
func (d UserData) Set(key string, v Value) UserData {
	for i := range d {
		if d[i].Key == key {
			d[i].Value = v
			return d
		}
	}
	return append(d, Entry{Key: key, Value: v})
}

func (d UserData) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

func (d UserData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		val, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *UserData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("user data must be a JSON object")
	}

	out := UserData{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("user data key must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("user data %q: %w", key, err)
		}
		out = out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}

// Value stores UserData as a JSON document.
func (d UserData) Value() (driver.Value, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *UserData) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*d = nil
		return nil
	case string:
		return d.UnmarshalJSON([]byte(s))
	case []byte:
		return d.UnmarshalJSON(s)
	default:
		return fmt.Errorf("cannot scan %T into UserData", src)
	}
}
