// Package logconfig builds slog loggers from the "logs" settings group.
//
// Recognised keys, all optional:
//
//	logs/level           debug (default), info, warning, critical or fatal
//	logs/pattern         record layout, default "[%Y-%m-%d %H:%M:%S.%e][%8l]: %v"
//	logs/use_debug_sink  also write bare messages to the debug writer (default true)
package logconfig

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/internal/hydrate"
)

// Group is the settings group read by Load.
const Group = "logs"

// DefaultPattern matches the layout used for log files.
const DefaultPattern = "[%Y-%m-%d %H:%M:%S.%e][%8l]: %v"

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.Level(12)

// Config holds the logging settings.
type Config struct {
	Level        string `json:"level"`
	Pattern      string `json:"pattern"`
	UseDebugSink bool   `json:"use_debug_sink"`
}

// Defaults returns the configuration used for keys that are not set.
func Defaults() Config {
	return Config{
		Level:        "debug",
		Pattern:      DefaultPattern,
		UseDebugSink: true,
	}
}

// SlogLevel maps Level onto slog. Unknown names report false and LevelInfo.
func (c Config) SlogLevel() (slog.Level, bool) {
	switch c.Level {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warning":
		return slog.LevelWarn, true
	case "critical":
		return LevelCritical, true
	case "fatal":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Load reads the logs group of s on top of Defaults. The legacy key
// logs/use_msvc is accepted as an alias for logs/use_debug_sink.
func Load(s *settings.Settings) (Config, error) {
	view := s.Group(Group)
	payload, _ := view.Tree().Any().(map[string]any)

	decoder := hydrate.NewDecoder(
		hydrate.WithDefaults(Defaults()),
		hydrate.WithPreHook[Config](normalise),
		hydrate.WithPostHook[Config](func(_ hydrate.Context, cfg *Config) error {
			if strings.TrimSpace(cfg.Pattern) == "" {
				cfg.Pattern = DefaultPattern
			}
			return nil
		}),
	)
	return decoder.Decode(hydrate.Context{Group: view.Prefix(), Source: s.Path()}, payload)
}

func normalise(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	if legacy, ok := payload["use_msvc"]; ok {
		if _, set := payload["use_debug_sink"]; !set {
			payload["use_debug_sink"] = legacy
		}
		delete(payload, "use_msvc")
	}
	if raw, ok := payload["level"]; ok {
		level, isString := raw.(string)
		if !isString {
			return nil, fmt.Errorf("logconfig: level must be a string, got %T", raw)
		}
		payload["level"] = strings.ToLower(strings.TrimSpace(level))
	}
	return payload, nil
}

// NewLogger builds a logger writing pattern-formatted records to out. When
// UseDebugSink is set and debug is non-nil, bare messages are also written
// to debug.
func NewLogger(cfg Config, out, debug io.Writer) *slog.Logger {
	level, _ := cfg.SlogLevel()
	handlers := []slog.Handler{NewPatternHandler(out, cfg.Pattern, level)}
	if cfg.UseDebugSink && debug != nil {
		handlers = append(handlers, NewPatternHandler(debug, "%v", level))
	}
	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(fanout(handlers))
}

// FromSettings is Load followed by NewLogger.
func FromSettings(s *settings.Settings, out, debug io.Writer) (*slog.Logger, Config, error) {
	cfg, err := Load(s)
	if err != nil {
		return nil, Config{}, err
	}
	return NewLogger(cfg, out, debug), cfg, nil
}
