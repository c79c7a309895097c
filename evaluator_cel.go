package settings

import (
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

var (
	celIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	celReserved   = map[string]struct{}{
		"true": {}, "false": {}, "null": {}, "in": {}, "as": {}, "break": {},
		"const": {}, "continue": {}, "else": {}, "for": {}, "function": {},
		"if": {}, "import": {}, "let": {}, "loop": {}, "package": {},
		"namespace": {}, "return": {}, "var": {}, "void": {}, "while": {},
		"now": {}, "args": {}, "metadata": {}, "scope": {},
	}
	nativeList = reflect.TypeOf([]any{})
	nativeMap  = reflect.TypeOf(map[string]any{})
)

// celEvaluator runs expressions with cel-go. Programs are bound to the
// evaluator, so setting(key) resolves through the lookup installed for the
// evaluation in flight; evaluations on one evaluator are serialised.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry

	mu     sync.Mutex
	lookup func(string) any
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, engineError("cel", ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression, celVariables(ctx.Snapshot))
	if err != nil {
		return nil, evaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	out, err := e.run(program, ctx)
	if err != nil {
		return nil, evaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	return out, nil
}

func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, engineError("cel", ErrEmptyExpression)
	}
	cfg := applyCompileOptions(opts)
	variables := make(map[string]any, len(cfg.variables))
	for _, name := range cfg.variables {
		variables[name] = nil
	}
	program, err := e.loadOrCompile(expression, celVariables(variables))
	if err != nil {
		return nil, evaluationError("cel", expression, "", err)
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *celEvaluator) run(program celgo.Program, ctx RuleContext) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lookup = ctx.setting
	defer func() { e.lookup = nil }()

	out, _, err := program.Eval(e.activation(ctx))
	if err != nil {
		return nil, err
	}
	return celToNative(out)
}

func (e *celEvaluator) loadOrCompile(expression string, variables []string) (celgo.Program, error) {
	cacheKey := "cel:" + strings.Join(variables, ",") + "|" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(variables)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(cacheKey, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv(variables []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("scope", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Function("setting",
			celgo.Overload("setting_string", []*celgo.Type{celgo.StringType}, celgo.DynType,
				celgo.UnaryBinding(e.settingBinding)),
		),
		celgo.Function("call",
			celgo.Overload("call_string", []*celgo.Type{celgo.StringType}, celgo.DynType,
				celgo.UnaryBinding(func(name ref.Val) ref.Val {
					return e.callBinding(name, nil)
				})),
			celgo.Overload("call_string_list", []*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)}, celgo.DynType,
				celgo.BinaryBinding(func(name, arguments ref.Val) ref.Val {
					return e.callBinding(name, arguments)
				})),
		),
	}
	for _, name := range variables {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) activation(ctx RuleContext) map[string]any {
	activation := make(map[string]any, len(ctx.Snapshot)+4)
	for key, value := range ctx.Snapshot {
		activation[key] = value
	}
	scope := ctx.scopeBinding()
	if scope == nil {
		scope = map[string]any{}
	}
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	activation["metadata"] = ctx.Metadata
	activation["scope"] = scope
	return activation
}

func (e *celEvaluator) settingBinding(arg ref.Val) ref.Val {
	key, ok := arg.Value().(string)
	if !ok {
		return types.NewErr("settings: setting key must be a string")
	}
	if e.lookup == nil {
		return types.NullValue
	}
	value := e.lookup(key)
	if value == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(value)
}

func (e *celEvaluator) callBinding(nameVal, arguments ref.Val) ref.Val {
	if e.registry == nil {
		return types.NewErr("settings: function registry not configured")
	}
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("settings: call name must be string")
	}
	var args []any
	if arguments != nil {
		native, err := arguments.ConvertToNative(nativeList)
		if err != nil {
			return types.NewErr("settings: call arguments: %v", err)
		}
		args, _ = native.([]any)
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	program    celgo.Program
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, engineError("cel", ErrDetachedRule)
	}
	ctx = ctx.withDefaults()
	out, err := r.evaluator.run(r.program, ctx)
	if err != nil {
		return nil, evaluationError("cel", r.expression, ctx.scopeLabel(), err)
	}
	return out, nil
}

// celVariables returns the sorted snapshot keys CEL can declare as variables.
func celVariables(snapshot map[string]any) []string {
	names := make([]string, 0, len(snapshot))
	for key := range snapshot {
		if _, reserved := celReserved[key]; reserved {
			continue
		}
		if !celIdentifier.MatchString(key) {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

func celToNative(out ref.Val) (any, error) {
	switch out.(type) {
	case traits.Mapper:
		return out.ConvertToNative(nativeMap)
	case traits.Lister:
		return out.ConvertToNative(nativeList)
	}
	if out == types.NullValue {
		return nil, nil
	}
	return out.Value(), nil
}
