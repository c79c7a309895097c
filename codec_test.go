package settings

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleDocument = `{
    "a" : 12,
    "b" : 1.23,
    "c" : "d:/projects",
    "d" : [1, 2, 3],
    "e" : {
        "f" : 23,
        "g" : 23.4,
        "h" : "f:/k.bmp",
        "i" : [1.1, 3.3, 7.7],
        "j" : {
            "k" : 734,
            "l" : [123, 3.3, "abc"],
            "m" : "ccc"
        }
    }
}`

func TestReadSampleDocument(t *testing.T) {
	m, ok := Read(strings.NewReader(sampleDocument), JSONCodec{})
	if !ok {
		t.Fatalf("expected document to read")
	}
	if n, ok := m["a"].AsInt(); !ok || n != 12 {
		t.Fatalf("expected a=12, got %s", m["a"])
	}
	if f, ok := m["b"].AsFloat(); !ok || f != 1.23 {
		t.Fatalf("expected b=1.23, got %s", m["b"])
	}
	if s, _ := m["e/h"].AsString(); s != "f:/k.bmp" {
		t.Fatalf("expected e/h=f:/k.bmp, got %s", m["e/h"])
	}
	if n, ok := m["e/j/k"].AsInt(); !ok || n != 734 {
		t.Fatalf("expected e/j/k=734, got %s", m["e/j/k"])
	}
	want := Array(Number("123"), Number("3.3"), String("abc"))
	if !m["e/j/l"].Equal(want) {
		t.Fatalf("expected %s, got %s", want, m["e/j/l"])
	}
}

func TestReadFailures(t *testing.T) {
	cases := map[string]string{
		"empty object": `{}`,
		"array root":   `[1, 2]`,
		"scalar root":  `3`,
		"garbage":      `{"a":`,
		"trailing":     `{"a": 1} {"b": 2}`,
		"empty input":  ``,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			m, ok := Read(strings.NewReader(doc), JSONCodec{})
			if ok {
				t.Fatalf("expected read failure")
			}
			if len(m) != 0 {
				t.Fatalf("expected no partial map, got %v", m)
			}
			if _, err := ReadDocument(strings.NewReader(doc), JSONCodec{}); !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("expected ErrMalformedDocument, got %v", err)
			}
		})
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	doc := strings.Repeat(`{"a":`, 10) + "1" + strings.Repeat("}", 10)
	if _, err := (JSONCodec{MaxDepth: 10}).Decode([]byte(doc)); err != nil {
		t.Fatalf("depth 10 should decode: %v", err)
	}
	_, err := (JSONCodec{MaxDepth: 9}).Decode([]byte(doc))
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("depth failures are malformed documents, got %v", err)
	}
}

func TestDecodeDepthIgnoresBracketsInStrings(t *testing.T) {
	doc := `{"a": "[[[[[[[[[[{{{{{{{{"}`
	if _, err := (JSONCodec{MaxDepth: 1}).Decode([]byte(doc)); err != nil {
		t.Fatalf("brackets inside strings must not count: %v", err)
	}
}

func TestWriteThenReadPreservesNumbers(t *testing.T) {
	m := FlatMap{
		"int":   Int(3),
		"float": Float(3),
		"big":   Number("12345678901234567890123"),
		"exp":   Number("1e-7"),
	}
	var buf bytes.Buffer
	if err := Write(&buf, JSONCodec{}, m); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok := Read(&buf, JSONCodec{})
	if !ok {
		t.Fatalf("expected read to succeed")
	}
	if !got.Equal(m) {
		t.Fatalf("number fidelity lost:\nwant: %v\n got: %v", m, got)
	}
	if got["float"].IsInteger() {
		t.Fatalf("integral float must stay a float")
	}
}

func TestEncodeRejectsInvalidNumbers(t *testing.T) {
	if _, err := (JSONCodec{}).Encode(Object(map[string]Value{"x": Number("NaN")})); err == nil {
		t.Fatalf("expected encode failure for NaN literal")
	}
}

func TestEncodeIsIndentedAndSorted(t *testing.T) {
	data, err := (JSONCodec{}).Encode(Unflatten(FlatMap{"b": Int(1), "a/c": Bool(true)}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "{\n    \"a\": {\n        \"c\": true\n    },\n    \"b\": 1\n}\n"
	if string(data) != want {
		t.Fatalf("unexpected encoding:\n%s", data)
	}
}

func TestYAMLCodecRoundTrip(t *testing.T) {
	m := FlatMap{
		"logs/level": String("info"),
		"logs/sinks": Array(String("file"), String("stderr")),
		"port":       Int(8080),
		"ratio":      Float(0.5),
		"enabled":    Bool(true),
	}
	var buf bytes.Buffer
	if err := Write(&buf, YAMLCodec{}, m); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	got, ok := Read(&buf, YAMLCodec{})
	if !ok {
		t.Fatalf("expected yaml read to succeed:\n%s", buf.String())
	}
	if !got.Equal(m) {
		t.Fatalf("yaml round trip mismatch:\nwant: %v\n got: %v", m, got)
	}
}

func TestYAMLDecodeDepthLimit(t *testing.T) {
	flow := strings.Repeat("{a: ", 10) + "1" + strings.Repeat("}", 10)
	if _, err := (YAMLCodec{MaxDepth: 10}).Decode([]byte(flow)); err != nil {
		t.Fatalf("flow depth 10 should decode: %v", err)
	}
	_, err := (YAMLCodec{MaxDepth: 9}).Decode([]byte(flow))
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("depth failures are malformed documents, got %v", err)
	}

	var block strings.Builder
	for i := 0; i < 9; i++ {
		block.WriteString(strings.Repeat("  ", i) + "a:\n")
	}
	block.WriteString(strings.Repeat("  ", 9) + "a: 1\n")
	if _, err := (YAMLCodec{MaxDepth: 10}).Decode([]byte(block.String())); err != nil {
		t.Fatalf("block depth 10 should decode: %v", err)
	}
	if _, err := (YAMLCodec{MaxDepth: 9}).Decode([]byte(block.String())); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded for block nesting, got %v", err)
	}

	n := 100000
	deep := strings.Repeat("[", n) + strings.Repeat("]", n)
	start := time.Now()
	_, err = YAMLCodec{}.Decode([]byte(deep))
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded for deep flow sequence, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("deep document should be rejected before parsing, took %s", elapsed)
	}
}

func TestYAMLDecodeDepthIgnoresScalars(t *testing.T) {
	doc := strings.Join([]string{
		`a: "[[[[[[[[{{{{{{{{"`,
		`b: '[[[[ it''s {{{{'`,
		`d: 1 # [[[[{{{{`,
		`e: |`,
		`  [[[[[[`,
		`  - - - - -`,
		`f: done`,
	}, "\n")
	got, err := (YAMLCodec{MaxDepth: 1}).Decode([]byte(doc))
	if err != nil {
		t.Fatalf("scalars must not count toward depth: %v", err)
	}
	if f, _ := got.Field("f"); !f.Equal(String("done")) {
		t.Fatalf("unexpected f: %v", f)
	}
}

func TestYAMLEncodeKeepsWideIntegers(t *testing.T) {
	data, err := YAMLCodec{}.Encode(Object(map[string]Value{
		"big": Number("12345678901234567890123"),
		"neg": Number("-12345678901234567890123"),
		"max": Uint(18446744073709551615),
	}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"big: 12345678901234567890123",
		"neg: -12345678901234567890123",
		"max: 18446744073709551615",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "e+") {
		t.Fatalf("wide integers must not be written as floats:\n%s", out)
	}
}

func TestFormatForPath(t *testing.T) {
	if got := FormatForPath("/etc/app/settings.yml"); got.Name != "yaml" {
		t.Fatalf("expected yaml, got %s", got.Name)
	}
	if got := FormatForPath("settings.JSON"); got.Name != "json" {
		t.Fatalf("expected json, got %s", got.Name)
	}
	if got := FormatForPath("settings.conf"); got.Name != "json" {
		t.Fatalf("expected json fallback, got %s", got.Name)
	}
	if _, ok := ParseFormat("toml"); ok {
		t.Fatalf("toml is not a built-in format")
	}
}
