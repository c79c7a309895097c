package settings

import (
	"log/slog"
	"strings"

	"github.com/goliatone/go-settings/pkg/activity"
)

// Option configures Settings.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	format          *Format
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evalLogger      EvaluatorLogger
	schemaGenerator SchemaGenerator
	scopeSchema     bool
	scope           Scope
	activityHooks   activity.Hooks
	activityChannel string
	actorID         string
	tenantID        string
	defaults        FlatMap
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger sets the logger used for load, sync and activity failures.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithFormat forces the document format instead of picking one from the
// file extension.
func WithFormat(format Format) Option {
	return func(cfg *config) {
		if format.Codec == nil {
			return
		}
		f := format
		cfg.format = &f
	}
}

// WithEvaluator configures the expression engine. Defaults to expr.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a program cache for the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry exposes registry functions to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the default evaluator.
// Registration errors (duplicate or reserved names) are ignored.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithEvaluatorLogger attaches an evaluator logger.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) Option {
	return func(cfg *config) {
		cfg.schemaGenerator = generator
	}
}

// WithScopeSchema toggles inclusion of layer scopes within generated schemas.
func WithScopeSchema(include bool) Option {
	return func(cfg *config) {
		cfg.scopeSchema = include
	}
}

// WithScope configures the default scope applied to evaluator contexts.
func WithScope(scope Scope) Option {
	return func(cfg *config) {
		cfg.scope = scope.clone()
	}
}

// WithActivityHooks attaches activity hooks. Nil entries are dropped.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	normalized := activity.Compact(activity.Hooks(hooks))
	return func(cfg *config) {
		cfg.activityHooks = append(cfg.activityHooks, normalized...)
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.activityChannel = strings.TrimSpace(channel)
	}
}

// WithActor records who performs changes through these settings.
func WithActor(actorID, tenantID string) Option {
	return func(cfg *config) {
		cfg.actorID = strings.TrimSpace(actorID)
		cfg.tenantID = strings.TrimSpace(tenantID)
	}
}

// WithDefaults supplies fallback values for keys the document does not hold.
// Defaults are never written by Sync.
func WithDefaults(defaults FlatMap) Option {
	return func(cfg *config) {
		cfg.defaults = defaults.Canonical()
	}
}
