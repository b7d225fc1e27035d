// Copyright (c) 2026, the Kitforge Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package validator evaluates boolean expr-lang expressions against a map
// environment. It backs schema property validation and interactive prompt
// validators.
package validator

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/expr-lang/expr"
)

func environment(env map[string]any) map[string]any {
	merged := map[string]any{
		"isInt": func(v any) bool {
			switch val := v.(type) {
			case int, int32, int64, uint, uint32, uint64:
				return true
			case float64:
				return val == float64(int64(val))
			case string:
				_, err := strconv.Atoi(val)
				return err == nil
			default:
				return false
			}
		},
		"isFloat": func(v any) bool {
			switch val := v.(type) {
			case int, int32, int64, uint, uint32, uint64, float32, float64:
				return true
			case string:
				_, err := strconv.ParseFloat(val, 64)
				return err == nil
			default:
				return false
			}
		},
		"matches": func(pattern string, v any) (bool, error) {
			return regexp.MatchString(pattern, fmt.Sprintf("%v", v))
		},
	}

	for k, v := range env {
		merged[k] = v
	}

	return merged
}

// Validate evaluates expression against env and returns its boolean result.
func Validate(env map[string]any, expression string) (bool, error) {
	e := environment(env)

	program, err := expr.Compile(expression, expr.Env(e), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	out, err := expr.Run(program, e)
	if err != nil {
		return false, err
	}

	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("expression %q did not evaluate to a boolean", expression)
	}

	return ok, nil
}

// SurveyValidator adapts an expression to a survey validator function. The
// answer is available in the expression as "value". Empty answers pass unless
// required is set.
func SurveyValidator(expression string, required bool) func(any) error {
	return func(answer any) error {
		s := fmt.Sprintf("%v", answer)
		if s == "" {
			if required {
				return fmt.Errorf("a value is required")
			}
			return nil
		}

		ok, err := Validate(map[string]any{"value": s}, expression)
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("did not pass validation %q", expression)
		}

		return nil
	}
}
