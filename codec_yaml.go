package settings

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-yaml"
)

// YAMLCodec reads and writes YAML settings documents. YAML numbers are
// carried through int64/uint64/float64, so an integral float such as 2.0 is
// written back as 2. Integers outside the int64 and uint64 ranges are written
// with their exact digits, but the YAML parser has no wider integer type and
// reads them back as strings.
type YAMLCodec struct {
	MaxDepth int
}

// Decode parses a single YAML document. Nesting is bounded before the
// document reaches the parser, the same way JSONCodec bounds it.
func (c YAMLCodec) Decode(data []byte) (Value, error) {
	maxDepth := c.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if err := scanYAMLDepth(data, maxDepth); err != nil {
		return Value{}, &DecodeError{Format: "yaml", Err: err}
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Value{}, &DecodeError{Format: "yaml", Err: err}
	}
	root, err := fromAny(raw, 0, maxDepth)
	if err != nil {
		return Value{}, &DecodeError{Format: "yaml", Err: err}
	}
	return root, nil
}

// Encode renders root as YAML with object keys in ascending order.
func (c YAMLCodec) Encode(root Value) ([]byte, error) {
	data, err := yaml.Marshal(yamlNode(root))
	if err != nil {
		return nil, fmt.Errorf("settings: encode yaml: %w", err)
	}
	return data, nil
}

func yamlNode(v Value) any {
	switch v.kind {
	case KindObject:
		out := make(yaml.MapSlice, 0, len(v.object))
		for _, name := range v.Fields() {
			out = append(out, yaml.MapItem{Key: name, Value: yamlNode(v.object[name])})
		}
		return out
	case KindArray:
		out := make([]any, len(v.array))
		for i, elem := range v.array {
			out[i] = yamlNode(elem)
		}
		return out
	case KindNumber:
		native := v.Native()
		if _, lossy := native.(float64); lossy && v.IsInteger() {
			return yamlLiteral(v.num)
		}
		return native
	default:
		return v.Native()
	}
}

// yamlLiteral is emitted as its text, unquoted.
type yamlLiteral string

func (l yamlLiteral) MarshalYAML() ([]byte, error) {
	return []byte(l), nil
}

// scanYAMLDepth rejects documents nested deeper than maxDepth before they are
// parsed. Block depth is read from indentation columns and sequence dashes,
// flow depth from brackets and braces outside quoted scalars and comments.
// The count is an estimate of the decoded depth; fromAny still enforces the
// exact limit on the decoded tree.
func scanYAMLDepth(data []byte, maxDepth int) error {
	s := yamlDepthScanner{max: maxDepth, scalarIndent: -1}
	for len(data) > 0 {
		var line []byte
		line, data, _ = bytes.Cut(data, []byte{'\n'})
		if err := s.line(bytes.TrimRight(line, "\r")); err != nil {
			return err
		}
	}
	return nil
}

type yamlDepthScanner struct {
	max int
	// columns holds the indentation of every open block collection.
	columns []int
	// scalarIndent is the indentation of a line that opened a literal or
	// folded scalar, -1 outside one.
	scalarIndent int
	flow         int
	base         int
	quote        byte
	escaped      bool
}

func (s *yamlDepthScanner) exceeded() error {
	return fmt.Errorf("%w: limit %d", ErrDepthExceeded, s.max)
}

func (s *yamlDepthScanner) line(line []byte) error {
	indent := 0
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	rest := line[indent:]
	blank := len(bytes.TrimSpace(rest)) == 0 || rest[0] == '#'
	if s.scalarIndent >= 0 {
		if blank || indent > s.scalarIndent {
			return nil
		}
		s.scalarIndent = -1
	}
	if s.flow > 0 || s.quote != 0 {
		return s.scan(rest)
	}
	if blank || (indent == 0 && rest[0] == '%') {
		return nil
	}
	if indent == 0 && (bytes.HasPrefix(rest, []byte("---")) || bytes.HasPrefix(rest, []byte("..."))) {
		s.columns = s.columns[:0]
		rest = bytes.TrimLeft(rest[3:], " ")
	}

	for n := len(s.columns); n > 0 && s.columns[n-1] > indent; n-- {
		s.columns = s.columns[:n-1]
	}
	if isYAMLDash(rest) || isYAMLMappingLine(rest) {
		if n := len(s.columns); n == 0 || s.columns[n-1] < indent {
			s.columns = append(s.columns, indent)
		}
	}
	for isYAMLDash(rest) {
		rest = bytes.TrimLeft(rest[1:], " \t")
		if isYAMLDash(rest) || isYAMLMappingLine(rest) {
			s.columns = append(s.columns, len(line)-len(rest))
		}
	}
	if len(s.columns) > s.max {
		return s.exceeded()
	}
	s.base = len(s.columns)
	if err := s.scan(rest); err != nil {
		return err
	}
	if s.flow == 0 && s.quote == 0 && isYAMLBlockScalar(rest) {
		s.scalarIndent = indent
	}
	return nil
}

// scan follows flow collections and quoted scalars across one line.
func (s *yamlDepthScanner) scan(rest []byte) error {
	prev := byte(' ')
	for i := 0; i < len(rest); i++ {
		b := rest[i]
		switch {
		case s.quote == '"':
			switch {
			case s.escaped:
				s.escaped = false
			case b == '\\':
				s.escaped = true
			case b == '"':
				s.quote = 0
			}
		case s.quote == '\'':
			if b == '\'' {
				if i+1 < len(rest) && rest[i+1] == '\'' {
					i++
				} else {
					s.quote = 0
				}
			}
		case b == '#' && (prev == ' ' || prev == '\t'):
			return nil
		case (b == '"' || b == '\'') && s.tokenStart(prev):
			s.quote = b
		case (b == '[' || b == '{') && (s.flow > 0 || s.tokenStart(prev)):
			s.flow++
			if s.base+s.flow > s.max {
				return s.exceeded()
			}
		case (b == ']' || b == '}') && s.flow > 0:
			s.flow--
		}
		prev = b
	}
	return nil
}

func (s *yamlDepthScanner) tokenStart(prev byte) bool {
	switch prev {
	case ' ', '\t':
		return true
	case '[', '{', ',', ':':
		return s.flow > 0
	}
	return false
}

func isYAMLDash(rest []byte) bool {
	return len(rest) > 0 && rest[0] == '-' && (len(rest) == 1 || rest[1] == ' ' || rest[1] == '\t')
}

func isYAMLMappingLine(rest []byte) bool {
	if len(rest) == 0 {
		return false
	}
	switch rest[0] {
	case '[', '{', '#', '|', '>':
		return false
	case '?':
		return true
	case '"', '\'':
		end := bytes.IndexByte(rest[1:], rest[0])
		if end < 0 {
			return false
		}
		rest = rest[end+2:]
		return len(rest) > 0 && rest[0] == ':'
	}
	if i := bytes.Index(rest, []byte(" #")); i >= 0 {
		rest = rest[:i]
	}
	return bytes.Contains(rest, []byte(": ")) || bytes.HasSuffix(bytes.TrimRight(rest, " \t"), []byte(":"))
}

func isYAMLBlockScalar(rest []byte) bool {
	if i := bytes.Index(rest, []byte(" #")); i >= 0 {
		rest = rest[:i]
	}
	rest = bytes.TrimRight(rest, " \t")
	if i := bytes.LastIndexAny(rest, " \t"); i >= 0 {
		rest = rest[i+1:]
	}
	if len(rest) == 0 || (rest[0] != '|' && rest[0] != '>') {
		return false
	}
	return len(bytes.Trim(rest[1:], "+-0123456789")) == 0
}
