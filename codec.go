package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Codec turns document bytes into a tree and back. Implementations must be
// safe for concurrent use.
type Codec interface {
	Decode(data []byte) (Value, error)
	Encode(root Value) ([]byte, error)
}

// JSONCodec reads and writes JSON settings documents.
type JSONCodec struct {
	// MaxDepth bounds object/array nesting on decode. Zero means
	// DefaultMaxDepth.
	MaxDepth int
	// Indent is used for each nesting level on encode. Empty means four
	// spaces; use Compact for single-line output.
	Indent string
	// Compact disables indentation.
	Compact bool
}

// Decode parses data as a single JSON value. Numbers keep their literal form.
func (c JSONCodec) Decode(data []byte) (Value, error) {
	maxDepth := c.maxDepth()
	if err := scanJSONDepth(data, maxDepth); err != nil {
		return Value{}, &DecodeError{Format: "json", Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, &DecodeError{Format: "json", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, &DecodeError{Format: "json", Err: fmt.Errorf("unexpected data after top-level value")}
	}
	root, err := fromAny(raw, 0, maxDepth)
	if err != nil {
		return Value{}, &DecodeError{Format: "json", Err: err}
	}
	return root, nil
}

// Encode renders root as JSON followed by a newline.
func (c JSONCodec) Encode(root Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if !c.Compact {
		indent := c.Indent
		if indent == "" {
			indent = "    "
		}
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(root.Any()); err != nil {
		return nil, fmt.Errorf("settings: encode json: %w", err)
	}
	return buf.Bytes(), nil
}

func (c JSONCodec) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// scanJSONDepth rejects input nested beyond maxDepth before the decoder
// recurses into it.
func scanJSONDepth(data []byte, maxDepth int) error {
	depth := 0
	inString := false
	escaped := false
	for _, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > maxDepth {
				return fmt.Errorf("%w: limit %d", ErrDepthExceeded, maxDepth)
			}
		case '}', ']':
			depth--
		}
	}
	return nil
}

// Read decodes a document from r and flattens it. It reports false when the
// stream cannot be read, does not decode, or does not hold a non-empty object
// root; no partial map is returned in that case.
func Read(r io.Reader, codec Codec) (FlatMap, bool) {
	m, err := ReadDocument(r, codec)
	if err != nil {
		return FlatMap{}, false
	}
	return m, true
}

// ReadDocument is Read with the failure cause. Every failure matches
// ErrMalformedDocument except stream read errors, which are returned wrapped.
func ReadDocument(r io.Reader, codec Codec) (FlatMap, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return FlatMap{}, fmt.Errorf("settings: read document: %w", err)
	}
	root, err := codec.Decode(data)
	if err != nil {
		return FlatMap{}, err
	}
	m, ok := Flatten(root)
	if !ok {
		return FlatMap{}, fmt.Errorf("%w: root must be a non-empty object, got %s", ErrMalformedDocument, describeRoot(root))
	}
	return m, nil
}

// Write unflattens m and writes the encoded document to w.
func Write(w io.Writer, codec Codec, m FlatMap) error {
	if codec == nil {
		codec = JSONCodec{}
	}
	data, err := codec.Encode(Unflatten(m))
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("settings: write document: %w", err)
	}
	return nil
}

func describeRoot(root Value) string {
	if root.kind == KindObject {
		return "empty object"
	}
	return root.kind.String()
}
