//go:build js_eval

package settings

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in a fresh runtime.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	o := newJSOptions(opts)
	return &jsEvaluator{
		cache:    o.cache,
		registry: o.registry,
		timeout:  o.timeout,
	}
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return true
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, engineError("js", ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, evaluationError("js", expression, ctx.scopeLabel(), err)
	}
	value, err := e.run(ctx, program)
	if err != nil {
		return nil, evaluationError("js", expression, ctx.scopeLabel(), err)
	}
	return value, nil
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, engineError("js", ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, evaluationError("js", expression, "", err)
	}
	return &jsCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get("js:" + expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapJSExpression(expression), false)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set("js:"+expression, program)
	}
	return program, nil
}

func (e *jsEvaluator) run(ctx RuleContext, program *goja.Program) (any, error) {
	vm := goja.New()
	if err := e.injectContext(vm, ctx); err != nil {
		return nil, err
	}
	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() { vm.Interrupt(ErrEvaluationTimeout) })
		defer timer.Stop()
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%w after %s", ErrEvaluationTimeout, e.timeout)
		}
		return nil, err
	}
	return value.Export(), nil
}

func (e *jsEvaluator) injectContext(vm *goja.Runtime, ctx RuleContext) error {
	bindings := make(map[string]any, len(ctx.Snapshot)+6)
	for key, value := range ctx.Snapshot {
		bindings[key] = value
	}
	scope := ctx.scopeBinding()
	if scope == nil {
		scope = map[string]any{}
	}
	bindings["now"] = ctx.timestamp()
	bindings["args"] = ctx.Args
	bindings["metadata"] = ctx.Metadata
	bindings["scope"] = scope
	bindings["setting"] = ctx.setting
	bindings["call"] = func(name string, arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
	for _, name := range e.registry.Names() {
		fn := name
		bindings[fn] = func(arguments ...any) (any, error) {
			return e.registry.Call(fn, arguments...)
		}
	}
	for key, value := range bindings {
		if err := vm.Set(key, value); err != nil {
			return fmt.Errorf("bind %q: %w", key, err)
		}
	}
	return nil
}

func wrapJSExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, engineError("js", ErrDetachedRule)
	}
	ctx = ctx.withDefaults()
	value, err := r.evaluator.run(ctx, r.program)
	if err != nil {
		return nil, evaluationError("js", r.expression, ctx.scopeLabel(), err)
	}
	return value, nil
}

func jsEngineName(e Evaluator) string {
	if _, ok := e.(*jsEvaluator); ok {
		return "js"
	}
	return ""
}
