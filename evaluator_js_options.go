package settings

import "time"

// DefaultJSTimeout bounds a single JS evaluation unless JSWithTimeout says
// otherwise.
const DefaultJSTimeout = time.Second

// jsOptions is untagged so callers configure the JS evaluator the same way
// with or without js_eval.
type jsOptions struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSEvaluatorOption configures the JS evaluator.
type JSEvaluatorOption func(*jsOptions)

// JSWithProgramCache stores compiled goja programs in cache under a "js:"
// prefix.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(o *jsOptions) {
		o.cache = cache
	}
}

// JSWithFunctionRegistry exposes a copy of registry to scripts, both as
// globals and through call(name, ...).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(o *jsOptions) {
		if registry != nil {
			o.registry = registry.Clone()
		}
	}
}

// JSWithTimeout interrupts a script still running after d. Zero or a
// negative d removes the limit.
func JSWithTimeout(d time.Duration) JSEvaluatorOption {
	return func(o *jsOptions) {
		o.timeout = max(d, 0)
	}
}

func newJSOptions(opts []JSEvaluatorOption) jsOptions {
	o := jsOptions{timeout: DefaultJSTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
