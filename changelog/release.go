package changelog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Release is one changelog entry. Only version, date and items are
// interpreted; every other field is carried through untouched and fields keep
// the order they were written in.
type Release struct {
	keys   []string
	fields map[string]json.RawMessage
}

// NewRelease builds a release from the three interpreted fields.
func NewRelease(version, date string, items ...string) Release {
	var r Release
	if items == nil {
		items = []string{}
	}
	r.SetValue("version", version)
	if date != "" {
		r.SetValue("date", date)
	}
	r.SetValue("items", items)
	return r
}

// Version returns the release key. A bare JSON number is returned as its
// literal text; anything else that is not a string yields "".
func (r Release) Version() string {
	raw, ok := r.fields["version"]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// Date returns the ISO date, or "" when missing or not a string.
func (r Release) Date() string {
	var s string
	if raw, ok := r.fields["date"]; ok && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

// HasItems reports whether items is present and is a JSON array.
func (r Release) HasItems() bool {
	raw, ok := r.fields["items"]
	if !ok {
		return false
	}
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// Get returns the raw JSON of a field.
func (r Release) Get(key string) (json.RawMessage, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Keys returns the field names in order.
func (r Release) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Set stores raw JSON under key, appending the key if it is new.
func (r *Release) Set(key string, value json.RawMessage) {
	if r.fields == nil {
		r.fields = make(map[string]json.RawMessage)
	}
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = append(json.RawMessage(nil), value...)
}

// SetValue marshals v and stores it under key.
func (r *Release) SetValue(key string, v any) error {
	b, err := marshal(v)
	if err != nil {
		return fmt.Errorf("release field %q: %w", key, err)
	}
	r.Set(key, b)
	return nil
}

// Merge returns r with every field of patch written over it. Fields only in r
// survive; new fields are appended after the existing ones.
func (r Release) Merge(patch Release) Release {
	out := r.Clone()
	for _, k := range patch.keys {
		out.Set(k, patch.fields[k])
	}
	return out
}

func (r Release) Clone() Release {
	var c Release
	for _, k := range r.keys {
		c.Set(k, r.fields[k])
	}
	return c
}

func (r *Release) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("release must be a JSON object")
	}

	*r = Release{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in release", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("release field %q: %w", key, err)
		}
		r.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

func (r Release) MarshalJSON() ([]byte, error) {
	var w objectWriter
	for _, k := range r.keys {
		w.raw(k, r.fields[k])
	}
	return w.close()
}
