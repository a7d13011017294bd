package changelog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// DefaultShowOnMain is used when a stored document has no showOnMain field.
const DefaultShowOnMain = 2

var jsonNull = []byte("null")

// Document is the persisted changelog file.
type Document struct {
	ShowOnMain int
	APKURL     string
	Releases   []Release

	// Extra holds root fields written by other tools. They are kept as-is.
	Extra map[string]json.RawMessage
}

// NewDocument returns the canonical empty document.
func NewDocument() *Document {
	return &Document{
		ShowOnMain: DefaultShowOnMain,
		Releases:   []Release{},
	}
}

// Decode parses a stored changelog file.
func Decode(data []byte) (*Document, error) {
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode changelog: %w", err)
	}
	return doc, nil
}

// Encode renders the document the way it is stored: UTF-8 JSON indented
// with two spaces.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode changelog: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.ShowOnMain = DefaultShowOnMain
	d.APKURL = ""
	d.Releases = []Release{}
	d.Extra = nil

	for key, value := range raw {
		switch key {
		case "showOnMain":
			var n float64
			if !bytes.Equal(value, jsonNull) && json.Unmarshal(value, &n) == nil {
				d.ShowOnMain = int(n)
			}
		case "apkUrl":
			var s string
			if json.Unmarshal(value, &s) == nil {
				d.APKURL = s
			}
		case "releases":
			if bytes.Equal(value, jsonNull) {
				continue
			}
			var releases []Release
			if err := json.Unmarshal(value, &releases); err != nil {
				return fmt.Errorf("releases: %w", err)
			}
			d.Releases = releases
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[key] = value
		}
	}
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	releases := d.Releases
	if releases == nil {
		releases = []Release{}
	}

	var w objectWriter
	w.field("showOnMain", d.ShowOnMain)
	w.field("apkUrl", d.APKURL)
	w.field("releases", releases)

	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		w.raw(k, d.Extra[k])
	}
	return w.close()
}

// Clone returns a copy whose release list can be modified independently.
func (d *Document) Clone() *Document {
	c := *d
	c.Releases = make([]Release, len(d.Releases))
	for i, r := range d.Releases {
		c.Releases[i] = r.Clone()
	}
	return &c
}

// objectWriter builds a JSON object with keys in insertion order.
type objectWriter struct {
	buf bytes.Buffer
	n   int
	err error
}

func (w *objectWriter) field(key string, v any) {
	if w.err != nil {
		return
	}
	b, err := marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.raw(key, b)
}

func (w *objectWriter) raw(key string, value json.RawMessage) {
	if w.err != nil {
		return
	}
	k, err := marshal(key)
	if err != nil {
		w.err = err
		return
	}
	if w.n == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	w.n++
	w.buf.Write(k)
	w.buf.WriteByte(':')
	if len(value) == 0 {
		value = jsonNull
	}
	w.buf.Write(value)
}

func (w *objectWriter) close() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.n == 0 {
		return []byte("{}"), nil
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

// marshal is json.Marshal without HTML escaping, matching how the file is
// written by other tools.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
