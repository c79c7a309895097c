package settings

import (
	"sync"
	"time"
)

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	// Snapshot is exposed to expressions as top-level variables. Nil means
	// the unflattened settings tree.
	Snapshot map[string]any
	// Lookup backs the setting(key) function. Nil means the settings lookup.
	Lookup    func(key string) (any, bool)
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	Scope     Scope
	ScopeName string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) withDefaultScope(scope Scope) RuleContext {
	if ctx.Scope.isZero() && !scope.isZero() {
		ctx.Scope = scope.clone()
	}
	if ctx.ScopeName == "" && ctx.Scope.Name != "" {
		ctx.ScopeName = ctx.Scope.Name
	}
	return ctx
}

func (ctx RuleContext) scopeLabel() string {
	if ctx.Scope.Name != "" {
		return ctx.Scope.Name
	}
	if ctx.ScopeName != "" {
		return ctx.ScopeName
	}
	return "unknown"
}

func (ctx RuleContext) scopeBinding() map[string]any {
	if binding := scopeToBinding(ctx.Scope); binding != nil {
		return binding
	}
	if ctx.ScopeName == "" {
		return nil
	}
	return map[string]any{"name": ctx.ScopeName}
}

// setting resolves key through Lookup, returning nil when absent.
func (ctx RuleContext) setting(key string) any {
	if ctx.Lookup == nil {
		return nil
	}
	value, ok := ctx.Lookup(key)
	if !ok {
		return nil
	}
	return value
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	variables []string
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// WithVariables declares top-level variables a compiled rule will see. CEL
// needs them at compile time; the other engines ignore the option.
func WithVariables(names ...string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.variables = append(cfg.variables, names...)
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapProgramCache is an unbounded ProgramCache safe for concurrent use.
type MapProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

func NewMapProgramCache() *MapProgramCache {
	return &MapProgramCache{programs: map[string]any{}}
}

func (c *MapProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *MapProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = map[string]any{}
	}
	c.programs[key] = value
}

// Len returns the number of cached programs.
func (c *MapProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}
