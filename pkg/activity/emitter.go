package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "settings"

// Config controls emission.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter delivers events to hooks with a default channel applied.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter builds an emitter. Nil hooks are discarded; an emitter without
// hooks is disabled regardless of cfg.Enabled.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	kept := Compact(hooks)
	return &Emitter{
		hooks:   kept,
		enabled: cfg.Enabled && len(kept) > 0,
		channel: channel,
	}
}

// Enabled reports whether Emit will deliver anything.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit delivers event to the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}

// Compact returns hooks without nil entries, or nil when none remain.
func Compact(hooks Hooks) Hooks {
	var out Hooks
	for _, hook := range hooks {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}
