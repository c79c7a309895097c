package settings

import "github.com/goliatone/go-settings/internal/keypath"

// Unflatten builds the tree document for m. The result is always an Object.
//
// Each key is split on "/" with empty segments discarded; keys with no
// segments are skipped. Intermediate segments are materialised as objects,
// replacing any leaf that sits in the way, and the final segment is assigned
// directly. When keys collide (one needs a node as a leaf, another as a
// container) the key processed last wins. Keys are processed in ascending
// order so the outcome is reproducible, but callers should not rely on which
// side of a collision survives.
func Unflatten(m FlatMap) Value {
	root := EmptyObject()
	for _, key := range m.Keys() {
		segments := keypath.Split(key)
		if len(segments) == 0 {
			continue
		}
		assign(root.object, segments, m[key])
	}
	return root
}

// assign walks segments from node, holding one container at a time.
func assign(node map[string]Value, segments []string, value Value) {
	last := len(segments) - 1
	for _, segment := range segments[:last] {
		child, ok := node[segment]
		if !ok || child.kind != KindObject {
			child = EmptyObject()
			node[segment] = child
		}
		node = child.object
	}
	node[segments[last]] = value.Clone()
}
