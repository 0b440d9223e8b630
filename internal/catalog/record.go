package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Well-known record keys.
const (
	KeyName  = "name"
	KeyImage = "image"
)

// field is one key of a record with its raw JSON value.
type field struct {
	key   string
	value json.RawMessage
}

// Record is one catalog entry. It keeps every key in its original order and
// every value as raw JSON so that a rewrite only changes what was set.
type Record struct {
	fields []field
}

// NewRecord builds a record from alternating key/value pairs. Values are
// marshaled with encoding/json.
func NewRecord(kv ...any) (*Record, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("odd number of key/value arguments")
	}
	r := &Record{}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("key %v is not a string", kv[i])
		}
		raw, err := marshalValue(kv[i+1])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}
		r.set(key, raw)
	}
	return r, nil
}

// Name returns the record's name, or "" when absent or not a string.
func (r *Record) Name() string {
	return r.String(KeyName)
}

// Image returns the record's image reference, or "" when absent, null, or
// not a string.
func (r *Record) Image() string {
	return r.String(KeyImage)
}

// SetImage rewrites the image reference. A record without an image key gets
// one appended after its existing keys.
func (r *Record) SetImage(ref string) {
	raw, _ := marshalValue(ref)
	r.set(KeyImage, raw)
}

// String returns the string value of key, or "" when the key is absent or
// holds another JSON type.
func (r *Record) String(key string) string {
	raw, ok := r.Raw(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Raw returns the raw JSON value of key.
func (r *Record) Raw(key string) (json.RawMessage, bool) {
	for _, f := range r.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// Keys returns the record's keys in file order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.key
	}
	return keys
}

func (r *Record) set(key string, raw json.RawMessage) {
	for i := range r.fields {
		if r.fields[i].key == key {
			r.fields[i].value = raw
			return
		}
	}
	r.fields = append(r.fields, field{key: key, value: raw})
}

// UnmarshalJSON decodes a JSON object, keeping key order. A repeated key
// keeps its first position and its last value.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %s", describeToken(tok))
	}

	r.fields = r.fields[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		r.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the record with keys in their original order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalValue(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalValue encodes v without HTML escaping so that rewritten values look
// like the ones written by other tools.
func marshalValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		return string(v)
	case string:
		return "string"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
