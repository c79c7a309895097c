package settings

import (
	"context"
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Scope    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogEvaluatorLogger writes evaluation events to an slog.Logger. Successful
// evaluations log at debug level, failures at warn.
type SlogEvaluatorLogger struct {
	Logger *slog.Logger
}

// LogEvaluation implements EvaluatorLogger.
func (l SlogEvaluatorLogger) LogEvaluation(event EvaluatorLogEvent) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("engine", event.Engine),
		slog.String("expr", event.Expr),
		slog.String("scope", event.Scope),
		slog.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
		logger.LogAttrs(context.Background(), slog.LevelWarn, "settings evaluation failed", attrs...)
		return
	}
	logger.LogAttrs(context.Background(), slog.LevelDebug, "settings evaluation", attrs...)
}
