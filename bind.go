package settings

import (
	"github.com/goliatone/go-settings/internal/hydrate"
)

// Bind decodes the subtree under group into T using its JSON field names.
// An empty group binds the whole tree; a group with no keys yields the zero
// value.
func Bind[T any](s *Settings, group string) (T, error) {
	return bind[T](s, group)
}

// BindWithDefaults is Bind decoding on top of defaults, so fields the
// settings do not mention keep their default values.
func BindWithDefaults[T any](s *Settings, group string, defaults T) (T, error) {
	return bind(s, group, hydrate.WithDefaults(defaults))
}

func bind[T any](s *Settings, group string, opts ...hydrate.DecoderOption[T]) (T, error) {
	view := s.Group(group)
	payload, _ := view.Tree().Any().(map[string]any)
	ctx := hydrate.Context{Group: view.Prefix(), Source: s.Path()}
	return hydrate.NewDecoder(opts...).Decode(ctx, payload)
}
