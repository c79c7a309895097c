package settings

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("settings: evaluator not configured")

// Evaluate runs expr against the settings tree. Top-level groups are exposed
// as variables and setting(key) looks up any flat key.
func (s *Settings) Evaluate(expr string) (any, error) {
	return s.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr using ctx. A nil Snapshot or Lookup falls back to
// these settings.
func (s *Settings) EvaluateWith(ctx RuleContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("settings: %w", ErrEmptyExpression)
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot, _ = s.Tree().Native().(map[string]any)
	}
	if ctx.Lookup == nil {
		ctx.Lookup = s.lookupNative
	}
	ctx = ctx.withDefaultScope(s.cfg.scope).withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = evaluationError(engine, expr, ctx.scopeLabel(), evalErr)
	s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// Evaluator returns the configured evaluator, building the default expr
// engine on first use.
func (s *Settings) Evaluator() (Evaluator, error) {
	return s.resolveEvaluator()
}

func (s *Settings) lookupNative(key string) (any, bool) {
	value, ok := s.Value(key)
	if !ok {
		return nil, false
	}
	return value.Native(), true
}

func (s *Settings) resolveEvaluator() (Evaluator, error) {
	s.evalOnce.Do(func() {
		if s.cfg.evaluator != nil {
			s.evaluator = s.cfg.evaluator
			return
		}
		var exprOpts []ExprEvaluatorOption
		if s.cfg.programCache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(s.cfg.programCache))
		}
		if s.cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(s.cfg.functions))
		}
		s.evaluator = NewExprEvaluator(exprOpts...)
	})
	if s.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.evaluator, nil
}

func (s *Settings) evaluatorLogger() EvaluatorLogger {
	if s.cfg.evalLogger != nil {
		return s.cfg.evalLogger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch e.(type) {
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	}
	if name := jsEngineName(e); name != "" {
		return name
	}
	return "custom"
}
