package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/webframp/changelogd/changelog"
)

// readRelease reads one release from a YAML or JSON file, or stdin for "-".
// Field order in the file is kept.
func readRelease(path string, stdin io.Reader) (changelog.Release, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return changelog.Release{}, fmt.Errorf("read release: %w", err)
	}
	return parseRelease(data)
}

func parseRelease(data []byte) (changelog.Release, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return changelog.Release{}, fmt.Errorf("parse release: %w", err)
	}
	if node.Kind == 0 {
		return changelog.Release{}, errors.New("parse release: file is empty")
	}

	raw, err := nodeJSON(&node)
	if err != nil {
		return changelog.Release{}, fmt.Errorf("parse release: %w", err)
	}

	var r changelog.Release
	if err := json.Unmarshal(raw, &r); err != nil {
		return changelog.Release{}, fmt.Errorf("parse release: %w", err)
	}
	return r, nil
}

// nodeJSON converts a YAML node to JSON, keeping mapping key order.
func nodeJSON(n *yaml.Node) ([]byte, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return []byte("null"), nil
		}
		return nodeJSON(n.Content[0])
	case yaml.AliasNode:
		return nodeJSON(n.Alias)
	case yaml.MappingNode:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := quote(n.Content[i].Value)
			if err != nil {
				return nil, err
			}
			value, err := nodeJSON(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case yaml.SequenceNode:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			value, err := nodeJSON(item)
			if err != nil {
				return nil, err
			}
			buf.Write(value)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case yaml.ScalarNode:
		return scalarJSON(n)
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

func scalarJSON(n *yaml.Node) ([]byte, error) {
	switch n.ShortTag() {
	case "!!null":
		return []byte("null"), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return json.Marshal(b)
	case "!!int", "!!float":
		// Keep the literal so "1.10" stays distinct from "1.1".
		if json.Valid([]byte(n.Value)) {
			return []byte(n.Value), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("line %d: %s is not representable in JSON", n.Line, n.Value)
		}
		return json.Marshal(f)
	}
	// strings, timestamps and anything else travel as their text
	return quote(n.Value)
}

// quote encodes s as a JSON string, leaving <, > and & unescaped.
func quote(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
