package settings

import (
	"context"

	"github.com/goliatone/go-settings/internal/keypath"
)

// Group is a view of Settings with every key resolved relative to a prefix.
// It shares storage with the Settings it came from.
type Group struct {
	settings *Settings
	prefix   string
}

// Group returns a view rooted at prefix. An empty prefix views everything.
func (s *Settings) Group(prefix string) *Group {
	return &Group{settings: s, prefix: keypath.Canonical(prefix)}
}

// Prefix returns the canonical group prefix.
func (g *Group) Prefix() string {
	return g.prefix
}

// Settings returns the underlying settings.
func (g *Group) Settings() *Settings {
	return g.settings
}

func (g *Group) key(key string) string {
	return keypath.Join(g.prefix, keypath.Canonical(key))
}

func (g *Group) Value(key string) (Value, bool) {
	if keypath.Canonical(key) == "" {
		return Value{}, false
	}
	return g.settings.Value(g.key(key))
}

func (g *Group) ValueOr(key string, def Value) Value {
	if value, ok := g.Value(key); ok {
		return value
	}
	return def
}

func (g *Group) Contains(key string) bool {
	_, ok := g.Value(key)
	return ok
}

func (g *Group) SetValue(ctx context.Context, key string, value Value) error {
	if keypath.Canonical(key) == "" {
		return ErrEmptyKey
	}
	return g.settings.SetValue(ctx, g.key(key), value)
}

// Remove deletes key under the group. An empty key removes the whole group.
func (g *Group) Remove(ctx context.Context, key string) error {
	return g.settings.Remove(ctx, g.key(key))
}

// AllKeys returns the keys under the group, relative to its prefix.
func (g *Group) AllKeys() []string {
	return g.Snapshot().Keys()
}

func (g *Group) ChildKeys() []string {
	return g.settings.ChildKeys(g.prefix)
}

func (g *Group) ChildGroups() []string {
	return g.settings.ChildGroups(g.prefix)
}

// Group returns a nested view.
func (g *Group) Group(prefix string) *Group {
	return &Group{settings: g.settings, prefix: g.key(prefix)}
}

// Snapshot returns the entries under the group with the prefix stripped.
func (g *Group) Snapshot() FlatMap {
	if g.prefix == "" {
		return g.settings.Snapshot()
	}
	g.settings.mu.RLock()
	defer g.settings.mu.RUnlock()
	return g.settings.values.Group(g.prefix)
}

// Tree returns the group's entries as a nested object.
func (g *Group) Tree() Value {
	return Unflatten(g.Snapshot())
}
