package settings

import (
	"errors"
	"strings"
	"testing"
)

func TestEvaluationErrorCarriesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := evaluationError("expr", "setting('logs/level') == 'debug'", "user", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Scope != "user" {
		t.Fatalf("unexpected metadata: %+v", evalErr)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	want := `settings: expr evaluator expr="setting('logs/level') == 'debug'" scope=user: boom`
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestEvaluationErrorOmitsEmptyScope(t *testing.T) {
	err := evaluationError("cel", "", "", ErrEmptyExpression)
	if err.Error() != "settings: cel evaluator expr=<empty>: expression must not be empty" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected ErrEmptyExpression in chain")
	}
}

func TestEvaluationErrorCompletesExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{Engine: "expr", Err: base}

	err := evaluationError("cel", "rule", "tenant", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" || existing.Scope != "tenant" {
		t.Fatalf("expression and scope should be filled, got %+v", existing)
	}
}

func TestEngineError(t *testing.T) {
	if got := engineError("cel", nil); got != nil {
		t.Fatalf("nil should stay nil, got %v", got)
	}
	prefixed := errors.New("settings: already wrapped")
	if got := engineError("cel", prefixed); got != prefixed {
		t.Fatalf("prefixed errors pass through, got %v", got)
	}
	got := engineError("cel", ErrDetachedRule)
	if got.Error() != "settings: cel evaluator: compiled rule missing evaluator" || !errors.Is(got, ErrDetachedRule) {
		t.Fatalf("unexpected wrap %q", got)
	}
	if !strings.HasPrefix(engineError("js", errors.New("raw")).Error(), "settings: js evaluator") {
		t.Fatalf("expected engine prefix")
	}
}
