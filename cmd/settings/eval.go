package main

import (
	"fmt"
	"io"

	"github.com/scott-cotton/cli"

	settings "github.com/goliatone/go-settings"
)

func eval(cfg *EvalConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Eval.Parse(cc, args)
	if err != nil {
		cfg.Eval.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: eval requires a file and an expression, got %v", cli.ErrUsage, args)
	}
	evaluator, err := engine(cfg.Engine)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return evalExpression(cfg.MainConfig, cc.Out, args[0], args[1], evaluator)
}

func engine(name string) (settings.Evaluator, error) {
	switch name {
	case "", "expr":
		return settings.NewExprEvaluator(), nil
	case "cel":
		return settings.NewCELEvaluator(), nil
	case "js":
		if !settings.JSEvaluatorAvailable() {
			return nil, fmt.Errorf("js engine not built in (rebuild with -tags js_eval)")
		}
		return settings.NewJSEvaluator(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

func evalExpression(cfg *MainConfig, w io.Writer, path, expr string, evaluator settings.Evaluator) error {
	s, err := cfg.open(path, settings.WithEvaluator(evaluator))
	if err != nil {
		return err
	}
	result, err := s.Evaluate(expr)
	if err != nil {
		return err
	}
	value, err := settings.FromAny(result)
	if err != nil {
		_, err = fmt.Fprintf(w, "%v\n", result)
		return err
	}
	_, err = fmt.Fprintln(w, value)
	return err
}
