package keypath

import (
	"reflect"
	"testing"
)

func TestSplitDiscardsEmptySegments(t *testing.T) {
	cases := []struct {
		key  string
		want []string
	}{
		{key: "a", want: []string{"a"}},
		{key: "e/j/k", want: []string{"e", "j", "k"}},
		{key: "e//f", want: []string{"e", "f"}},
		{key: "/e/f/", want: []string{"e", "f"}},
		{key: "///", want: nil},
		{key: "", want: nil},
	}
	for _, tc := range cases {
		if got := Split(tc.key); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Split(%q) = %#v, want %#v", tc.key, got, tc.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	if got := Canonical("/e//f/"); got != "e/f" {
		t.Fatalf("expected e/f, got %q", got)
	}
	if got := Canonical("//"); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestIsStrictPrefix(t *testing.T) {
	if !IsStrictPrefix([]string{"e"}, []string{"e", "f"}) {
		t.Fatalf("expected e to prefix e/f")
	}
	if IsStrictPrefix([]string{"e", "f"}, []string{"e", "f"}) {
		t.Fatalf("equal paths are not strict prefixes")
	}
	if IsStrictPrefix([]string{"x"}, []string{"e", "f"}) {
		t.Fatalf("unexpected prefix match")
	}
}

func TestUnder(t *testing.T) {
	if !Under("logs/level", "logs") {
		t.Fatalf("expected logs/level under logs")
	}
	if !Under("logs", "/logs/") {
		t.Fatalf("expected group to contain itself")
	}
	if Under("logsx/level", "logs") {
		t.Fatalf("segment match must be exact")
	}
	if !Under("anything", "") {
		t.Fatalf("empty group contains every key")
	}
}
