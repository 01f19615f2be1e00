package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is one log row: an ordered mapping of field name to a string or
// integer value. Field order is insertion order and survives every codec.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record with room for n fields
func NewRecord(n int) *Record {
	return &Record{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set stores value under key. New keys are appended; existing keys keep their position.
func (r *Record) Set(key string, value any) *Record {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = normalize(value)
	return r
}

// Get returns the value stored under key
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// String returns the field as a string, or "" when absent or not a string
func (r *Record) String(key string) string {
	s, _ := r.values[key].(string)
	return s
}

// Int returns the field as an int, or 0 when absent or not an integer
func (r *Record) Int(key string) int {
	n, _ := r.values[key].(int)
	return n
}

// Keys returns the field names in order
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields
func (r *Record) Len() int {
	return len(r.keys)
}

// Equal reports whether both records hold the same fields, values and order
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if len(r.keys) != len(other.keys) {
		return false
	}
	for i, k := range r.keys {
		if other.keys[i] != k || other.values[k] != r.values[k] {
			return false
		}
	}
	return true
}

// ContainsText reports whether any string field contains substr
func (r *Record) ContainsText(substr string) bool {
	for _, k := range r.keys {
		if s, ok := r.values[k].(string); ok && strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the record as a JSON object in field order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping its key order
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	*r = *NewRecord(16)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected field name, got %v", tok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		value, err := fromJSON(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		r.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

var (
	_ msgpack.CustomEncoder = (*Record)(nil)
	_ msgpack.CustomDecoder = (*Record)(nil)
)

// EncodeMsgpack writes the record as a msgpack map in field order
func (r *Record) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(r.keys)); err != nil {
		return err
	}
	for _, k := range r.keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := enc.Encode(r.values[k]); err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
	}
	return nil
}

// DecodeMsgpack reads a msgpack map keeping its key order
func (r *Record) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n < 0 {
		*r = *NewRecord(0)
		return nil
	}

	*r = *NewRecord(n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		value, err := dec.DecodeInterfaceLoose()
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		r.Set(key, value)
	}
	return nil
}

func fromJSON(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", v)
		}
		return int(n), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", raw)
	}
}

// normalize folds every integer width to int so decoded records compare equal
// to freshly built ones.
func normalize(value any) any {
	switch v := value.(type) {
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case uint:
		return int(v)
	default:
		return value
	}
}
