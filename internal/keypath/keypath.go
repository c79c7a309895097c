// Package keypath splits and joins slash-delimited setting keys.
package keypath

import "strings"

// Separator delimits segments inside a flat key.
const Separator = "/"

// Split returns the non-empty segments of key. Leading, trailing and repeated
// separators are dropped, so "/e//f/" yields ["e", "f"].
func Split(key string) []string {
	if key == "" {
		return nil
	}
	parts := strings.Split(key, Separator)
	segments := parts[:0]
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}
	if len(segments) == 0 {
		return nil
	}
	return segments
}

// Join concatenates segments with Separator, skipping empty ones.
func Join(segments ...string) string {
	var b strings.Builder
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(segment)
	}
	return b.String()
}

// Canonical rewrites key into its normalised form. Keys made only of
// separators canonicalise to "".
func Canonical(key string) string {
	return Join(Split(key)...)
}

// IsStrictPrefix reports whether prefix names an ancestor of segments.
func IsStrictPrefix(prefix, segments []string) bool {
	if len(prefix) >= len(segments) {
		return false
	}
	for i := range prefix {
		if prefix[i] != segments[i] {
			return false
		}
	}
	return true
}

// Under reports whether key equals group or lies beneath it. Both arguments
// are canonicalised first; an empty group contains every key.
func Under(key, group string) bool {
	groupSegments := Split(group)
	if len(groupSegments) == 0 {
		return true
	}
	keySegments := Split(key)
	if len(keySegments) < len(groupSegments) {
		return false
	}
	for i := range groupSegments {
		if groupSegments[i] != keySegments[i] {
			return false
		}
	}
	return true
}
