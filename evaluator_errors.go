package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyExpression is returned for blank expressions.
	ErrEmptyExpression = errors.New("expression must not be empty")
	// ErrDetachedRule is returned by a CompiledRule whose evaluator is gone.
	ErrDetachedRule = errors.New("compiled rule missing evaluator")
	// ErrEvaluationTimeout is returned when a script outlives its time limit.
	ErrEvaluationTimeout = errors.New("evaluation timed out")
)

// EvaluationError reports which engine failed on which expression, and the
// scope the settings were resolved for.
type EvaluationError struct {
	Engine string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "settings: %s evaluator", e.Engine)
	if e.Expr == "" {
		b.WriteString(" expr=<empty>")
	} else {
		fmt.Fprintf(&b, " expr=%q", e.Expr)
	}
	if e.Scope != "" {
		fmt.Fprintf(&b, " scope=%s", e.Scope)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// engineError tags err with engine unless it already carries a settings
// prefix or an EvaluationError.
func engineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "settings:") {
		return err
	}
	return fmt.Errorf("settings: %s evaluator: %w", engine, err)
}

// evaluationError wraps err as an EvaluationError. An existing
// EvaluationError in the chain is completed in place rather than nested.
func evaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}
	var existing *EvaluationError
	if errors.As(err, &existing) {
		if existing.Engine == "" {
			existing.Engine = engine
		}
		if existing.Expr == "" {
			existing.Expr = expr
		}
		if existing.Scope == "" {
			existing.Scope = scope
		}
		return existing
	}
	return &EvaluationError{Engine: engine, Expr: expr, Scope: scope, Err: err}
}
