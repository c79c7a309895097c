package settings

import (
	"slices"
	"strings"

	"github.com/goliatone/go-settings/internal/keypath"
	"github.com/goliatone/go-settings/layering"
)

// Flatten converts a decoded settings tree into a FlatMap. Nested objects are
// walked and their keys joined with "/"; every other value, arrays included,
// becomes a leaf.
//
// The root must be a non-empty Object. Any other root, including {}, yields
// an empty map and false: an empty document is indistinguishable from a
// broken one at this level, so both are treated as unreadable.
//
// Document keys are not escaped. A key holding "/" names the same path as the
// nested objects it spells, so {"a/b": 1} and {"a": {"b": 1}} both produce
// a/b. When a document holds both, fields are read in ascending name order
// and the last write to a path wins; a leaf and the keys beneath it are then
// resolved in ascending key order the way layering.Apply resolves them. Keys
// that are empty or made only of separators are dropped.
func Flatten(root Value) (FlatMap, bool) {
	out := FlatMap{}
	if root.kind != KindObject || len(root.object) == 0 {
		return out, false
	}
	if flattenInto(out, root.object, "") {
		canonical := FlatMap{}
		layering.Apply(canonical, out)
		return canonical, true
	}
	return out, true
}

// flattenInto reports whether any key it wrote still needs canonicalising.
func flattenInto(out FlatMap, object map[string]Value, prefix string) bool {
	irregular := false
	names := make([]string, 0, len(object))
	for name := range object {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, key := range names {
		if keypath.Canonical(key) == "" {
			continue
		}
		if strings.Contains(key, keypath.Separator) {
			irregular = true
		}
		value := object[key]
		if value.kind == KindObject {
			if flattenInto(out, value.object, prefix+key+keypath.Separator) {
				irregular = true
			}
			continue
		}
		out[prefix+key] = value.Clone()
	}
	return irregular
}
