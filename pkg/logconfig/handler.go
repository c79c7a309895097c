package logconfig

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// PatternHandler renders records with spdlog-style directives:
//
//	%Y %m %d %H %M %S  date and time fields
//	%e                 milliseconds
//	%l %L              level name, level initial
//	%v                 message followed by attributes as key=value
//	%%                 a literal percent sign
//
// A width may follow the percent sign ("%8l"); a leading '-' left-aligns.
// Widths above MaxPatternWidth are clamped to it.
type PatternHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	ops    []patternOp
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// MaxPatternWidth bounds the padding a single directive can request.
const MaxPatternWidth = 256

type patternOp struct {
	verb    byte
	width   int
	left    bool
	literal string
}

// NewPatternHandler compiles pattern once; records below level are dropped.
func NewPatternHandler(w io.Writer, pattern string, level slog.Leveler) *PatternHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &PatternHandler{
		mu:    &sync.Mutex{},
		w:     w,
		ops:   compilePattern(pattern),
		level: level,
	}
}

func compilePattern(pattern string) []patternOp {
	var ops []patternOp
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			ops = append(ops, patternOp{literal: literal.String()})
			literal.Reset()
		}
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' || i+1 >= len(pattern) {
			literal.WriteByte(pattern[i])
			continue
		}
		j := i + 1
		left := false
		if pattern[j] == '-' {
			left = true
			j++
		}
		width := 0
		for j < len(pattern) && pattern[j] >= '0' && pattern[j] <= '9' {
			width = min(width*10+int(pattern[j]-'0'), MaxPatternWidth)
			j++
		}
		if j >= len(pattern) {
			literal.WriteString(pattern[i:])
			break
		}
		if pattern[j] == '%' {
			literal.WriteByte('%')
			i = j
			continue
		}
		flush()
		ops = append(ops, patternOp{verb: pattern[j], width: width, left: left})
		i = j
	}
	flush()
	return ops
}

func (h *PatternHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PatternHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	for _, op := range h.ops {
		if op.verb == 0 {
			buf.WriteString(op.literal)
			continue
		}
		field := h.render(op.verb, r)
		pad := op.width - len(field)
		if pad > 0 && !op.left {
			buf.WriteString(strings.Repeat(" ", pad))
		}
		buf.WriteString(field)
		if pad > 0 && op.left {
			buf.WriteString(strings.Repeat(" ", pad))
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *PatternHandler) render(verb byte, r slog.Record) string {
	t := r.Time
	switch verb {
	case 'Y':
		return fmt.Sprintf("%04d", t.Year())
	case 'm':
		return fmt.Sprintf("%02d", int(t.Month()))
	case 'd':
		return fmt.Sprintf("%02d", t.Day())
	case 'H':
		return fmt.Sprintf("%02d", t.Hour())
	case 'M':
		return fmt.Sprintf("%02d", t.Minute())
	case 'S':
		return fmt.Sprintf("%02d", t.Second())
	case 'e':
		return fmt.Sprintf("%03d", t.Nanosecond()/1e6)
	case 'l':
		return levelName(r.Level)
	case 'L':
		return strings.ToUpper(levelName(r.Level)[:1])
	case 'v':
		return h.message(r)
	default:
		return "%" + string(verb)
	}
}

func (h *PatternHandler) message(r slog.Record) string {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, attr := range h.attrs {
		writeAttr(&b, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, h.prefix, attr)
		return true
	})
	return b.String()
}

func writeAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		nested := prefix
		if attr.Key != "" {
			nested = prefix + attr.Key + "."
		}
		for _, child := range attr.Value.Group() {
			writeAttr(b, nested, child)
		}
		return
	}
	value := attr.Value.String()
	if value == "" || strings.ContainsAny(value, " =\"") {
		value = strconv.Quote(value)
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(attr.Key)
	b.WriteByte('=')
	b.WriteString(value)
}

func (h *PatternHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, attr := range attrs {
		if h.prefix != "" {
			attr.Key = h.prefix + attr.Key
		}
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *PatternHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func levelName(level slog.Level) string {
	switch {
	case level >= LevelCritical:
		return "critical"
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
