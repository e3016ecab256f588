package calculator

import (
	"fmt"
	"math"

	"github.com/maja42/goval"
)

// ExpressionVariables are the names available to a custom score
// expression.
type ExpressionVariables struct {
	NormROE   float64
	NormPER   float64
	ROE       float64
	PER       float64
	RoeWeight float64
}

type ExpressionEvaluator struct {
	expression string
	eval       *goval.Evaluator
	functions  map[string]goval.ExpressionFunction
}

func NewExpressionEvaluator(expression string) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		expression: expression,
		eval:       goval.NewEvaluator(),
		functions:  constructFunctionMap(),
	}
}

func constructFunctionMap() map[string]goval.ExpressionFunction {
	return map[string]goval.ExpressionFunction{
		"abs": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return 0, fmt.Errorf("abs needs 1 arg, got %d", len(args))
			}
			v, err := toFloat(args[0])
			if err != nil {
				return 0, err
			}
			return math.Abs(v), nil
		},
		"min": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return 0, fmt.Errorf("min needs 2 args, got %d", len(args))
			}
			a, err := toFloat(args[0])
			if err != nil {
				return 0, err
			}
			b, err := toFloat(args[1])
			if err != nil {
				return 0, err
			}
			return math.Min(a, b), nil
		},
		"max": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return 0, fmt.Errorf("max needs 2 args, got %d", len(args))
			}
			a, err := toFloat(args[0])
			if err != nil {
				return 0, err
			}
			b, err := toFloat(args[1])
			if err != nil {
				return 0, err
			}
			return math.Max(a, b), nil
		},
	}
}

func (e *ExpressionEvaluator) Evaluate(vars ExpressionVariables) (float64, error) {
	variables := map[string]interface{}{
		"normRoe":   vars.NormROE,
		"normPer":   vars.NormPER,
		"roe":       vars.ROE,
		"per":       vars.PER,
		"roeWeight": vars.RoeWeight,
	}
	result, err := e.eval.Evaluate(e.expression, variables, e.functions)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate score expression: %w", err)
	}

	r, err := toFloat(result)
	if err != nil {
		return 0, err
	} else if math.IsNaN(r) {
		return 0, fmt.Errorf("calculated NaN as expression result")
	} else if math.IsInf(r, 0) {
		return 0, fmt.Errorf("calculated infinity as expression result")
	}
	return r, nil
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
