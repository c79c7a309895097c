package settings

import (
	"context"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// PatchDocument applies an RFC 6902 JSON Patch to the document form of m and
// returns the flattened result. Paths address the nested document, so
// "/logs/level" targets the key logs/level. A patch that empties the document
// yields an empty map.
func PatchDocument(m FlatMap, patch []byte) (FlatMap, error) {
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return nil, fmt.Errorf("settings: decode patch: %w", err)
	}
	codec := JSONCodec{Compact: true}
	doc, err := codec.Encode(Unflatten(m))
	if err != nil {
		return nil, err
	}
	patched, err := ops.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("settings: apply patch: %w", err)
	}
	root, err := codec.Decode(patched)
	if err != nil {
		return nil, err
	}
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: patched root must be an object, got %s", ErrMalformedDocument, root.Kind())
	}
	out, _ := Flatten(root)
	return out, nil
}

// ApplyPatch patches the stored settings in place. Each changed key goes
// through SetValue or Remove, so the usual activity events are emitted.
func (s *Settings) ApplyPatch(ctx context.Context, patch []byte) ([]Change, error) {
	current := s.Snapshot()
	next, err := PatchDocument(current, patch)
	if err != nil {
		return nil, err
	}
	changes := Diff(current, next)
	for _, change := range changes {
		if change.Kind == ChangeRemoved {
			if err := s.Remove(ctx, change.Key); err != nil {
				return nil, err
			}
		}
	}
	for _, change := range changes {
		if change.Kind == ChangeRemoved {
			continue
		}
		if err := s.SetValue(ctx, change.Key, change.New); err != nil {
			return nil, err
		}
	}
	return changes, nil
}
