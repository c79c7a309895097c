package settings

import "sort"

// ChangeKind classifies one entry of a Diff.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeModified
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change describes how one flat key differs between two maps. Old is unset
// for additions and New for removals.
type Change struct {
	Key  string
	Kind ChangeKind
	Old  Value
	New  Value
}

// Diff lists the keys that differ between from and to in ascending key
// order.
func Diff(from, to FlatMap) []Change {
	keys := make(map[string]struct{}, len(from)+len(to))
	for key := range from {
		keys[key] = struct{}{}
	}
	for key := range to {
		keys[key] = struct{}{}
	}
	ordered := make([]string, 0, len(keys))
	for key := range keys {
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	var changes []Change
	for _, key := range ordered {
		oldValue, inFrom := from[key]
		newValue, inTo := to[key]
		switch {
		case inFrom && !inTo:
			changes = append(changes, Change{Key: key, Kind: ChangeRemoved, Old: oldValue})
		case !inFrom && inTo:
			changes = append(changes, Change{Key: key, Kind: ChangeAdded, New: newValue})
		case !oldValue.Equal(newValue):
			changes = append(changes, Change{Key: key, Kind: ChangeModified, Old: oldValue, New: newValue})
		}
	}
	return changes
}
