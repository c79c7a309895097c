// Package layering merges flat settings maps ordered from strongest to
// weakest.
package layering

import (
	"sort"

	"github.com/goliatone/go-settings/internal/keypath"
)

// MergeFlat composes layers ordered from strongest to weakest into a new map
// with canonical keys. A key set by a stronger layer shadows every weaker key
// beneath it and every weaker key on its path, so the result never holds both
// a leaf and a key nested under that leaf. Within a single layer keys are
// applied in ascending order.
func MergeFlat[V any](layers ...map[string]V) map[string]V {
	out := map[string]V{}
	for i := len(layers) - 1; i >= 0; i-- {
		Apply(out, layers[i])
	}
	return out
}

// Apply writes layer onto dst with the shadowing rules of MergeFlat. Keys
// that canonicalise to nothing are skipped.
func Apply[V any](dst map[string]V, layer map[string]V) {
	for _, raw := range sortedKeys(layer) {
		segments := keypath.Split(raw)
		if len(segments) == 0 {
			continue
		}
		Shadow(dst, segments)
		dst[keypath.Join(segments...)] = layer[raw]
	}
}

// Shadow removes every key of dst that lies strictly above or strictly below
// segments. The key named by segments itself is left alone.
func Shadow[V any](dst map[string]V, segments []string) {
	for i := 1; i < len(segments); i++ {
		delete(dst, keypath.Join(segments[:i]...))
	}
	for key := range dst {
		if keypath.IsStrictPrefix(segments, keypath.Split(key)) {
			delete(dst, key)
		}
	}
}

// Lookup returns the value for key from the strongest layer that would keep it
// after a merge, along with that layer's index. A weaker layer's leaf is not
// returned when a stronger layer defines a key above or beneath it, and a
// key shadowed by another key of its own layer is not returned either.
func Lookup[V any](key string, layers ...map[string]V) (V, int, bool) {
	var zero V
	segments := keypath.Split(key)
	if len(segments) == 0 {
		return zero, -1, false
	}
	canonical := keypath.Join(segments...)
	for i, layer := range layers {
		canon := canonicalLayer(layer)
		if value, ok := canon[canonical]; ok {
			return value, i, true
		}
		if conflicts(canon, segments) {
			return zero, -1, false
		}
	}
	return zero, -1, false
}

func conflicts[V any](layer map[string]V, segments []string) bool {
	for i := 1; i < len(segments); i++ {
		if _, ok := layer[keypath.Join(segments[:i]...)]; ok {
			return true
		}
	}
	for key := range layer {
		if keypath.IsStrictPrefix(segments, keypath.Split(key)) {
			return true
		}
	}
	return false
}

// canonicalLayer resolves a single layer the way Apply writes it, so a key
// shadowed inside its own layer is never returned.
func canonicalLayer[V any](layer map[string]V) map[string]V {
	out := make(map[string]V, len(layer))
	Apply(out, layer)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
