// Package activity fans settings lifecycle events out to audit hooks.
package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event describes one settings change. IDs are plain strings so callers are
// not tied to a particular identifier type.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks is an ordered set of hooks notified together.
type Hooks []ActivityHook

// Enabled reports whether any hook is registered.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and delivers it to every hook. Events missing a
// verb, object type or object ID are dropped. Hook failures do not stop
// delivery; they are joined into the returned error.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	normalized := NormalizeEvent(event)
	if !normalized.deliverable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers, detaches metadata and stamps OccurredAt
// when missing.
func NormalizeEvent(event Event) Event {
	out := Event{
		Verb:       strings.TrimSpace(event.Verb),
		ActorID:    strings.TrimSpace(event.ActorID),
		UserID:     strings.TrimSpace(event.UserID),
		TenantID:   strings.TrimSpace(event.TenantID),
		ObjectType: strings.TrimSpace(event.ObjectType),
		ObjectID:   strings.TrimSpace(event.ObjectID),
		Channel:    strings.TrimSpace(event.Channel),
		Metadata:   cloneMap(event.Metadata),
		OccurredAt: event.OccurredAt,
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func (e Event) deliverable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
