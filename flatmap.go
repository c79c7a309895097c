package settings

import (
	"sort"

	"github.com/goliatone/go-settings/internal/keypath"
)

// FlatMap is the in-memory settings representation: slash-delimited keys
// mapped to leaf values. Objects are implied by shared key prefixes and never
// stored as values; arrays are leaves.
type FlatMap map[string]Value

// SplitKey decomposes key into its non-empty segments.
func SplitKey(key string) []string {
	return keypath.Split(key)
}

// JoinKey builds a key from segments.
func JoinKey(segments ...string) string {
	return keypath.Join(segments...)
}

// CanonicalKey normalises leading, trailing and repeated separators away.
func CanonicalKey(key string) string {
	return keypath.Canonical(key)
}

// Keys returns the keys of m in ascending order.
func (m FlatMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of m.
func (m FlatMap) Clone() FlatMap {
	if m == nil {
		return nil
	}
	out := make(FlatMap, len(m))
	for key, value := range m {
		out[key] = value.Clone()
	}
	return out
}

// Equal reports whether m and other hold the same keys with equal values.
func (m FlatMap) Equal(other FlatMap) bool {
	if len(m) != len(other) {
		return false
	}
	for key, value := range m {
		otherValue, ok := other[key]
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}
	return true
}

// Canonical returns a copy of m with every key canonicalised. Keys that
// reduce to nothing are dropped. When two raw keys share a canonical form the
// lexically greater raw key wins.
func (m FlatMap) Canonical() FlatMap {
	out := make(FlatMap, len(m))
	for _, key := range m.Keys() {
		canonical := keypath.Canonical(key)
		if canonical == "" {
			continue
		}
		out[canonical] = m[key].Clone()
	}
	return out
}

// Group returns the entries under group with the group prefix stripped.
func (m FlatMap) Group(group string) FlatMap {
	prefix := keypath.Split(group)
	out := FlatMap{}
	for key, value := range m {
		segments := keypath.Split(key)
		if !keypath.IsStrictPrefix(prefix, segments) {
			continue
		}
		out[keypath.Join(segments[len(prefix):]...)] = value.Clone()
	}
	return out
}
