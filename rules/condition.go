package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// EvaluateCondition evaluates a condition tree against an event context.
// It is total: unknown fields, type mismatches, and unrecognized node
// kinds all evaluate to false rather than erroring. A nil condition is
// the implicit Always.
func EvaluateCondition(cond *Condition, ctx Context) bool {
	if cond == nil {
		return true
	}

	switch cond.Type {
	case ConditionAlways:
		return true

	case ConditionFieldExists:
		_, ok := ctx[cond.Field]
		return ok

	case ConditionFieldEquals:
		v, ok := ctx[cond.Field]
		return ok && stringify(v) == cond.Value

	case ConditionFieldContains:
		v, ok := ctx[cond.Field]
		return ok && strings.Contains(stringify(v), cond.Value)

	case ConditionFieldGreaterThan:
		left, right, ok := numericPair(ctx, cond.Field, cond.Value)
		return ok && left > right

	case ConditionFieldLessThan:
		left, right, ok := numericPair(ctx, cond.Field, cond.Value)
		return ok && left < right

	case ConditionNot:
		return !EvaluateCondition(cond.Condition, ctx)

	case ConditionAnd:
		// Empty conjunction is true (identity element).
		for i := range cond.Conditions {
			if !EvaluateCondition(&cond.Conditions[i], ctx) {
				return false
			}
		}
		return true

	case ConditionOr:
		// Empty disjunction is false (identity element).
		for i := range cond.Conditions {
			if EvaluateCondition(&cond.Conditions[i], ctx) {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// stringify renders a context value for string comparison. Numbers use
// their shortest decimal representation so "5" matches both 5 and 5.0.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// numericPair extracts the context field and the comparison value as
// numbers. Either side failing to parse makes the comparison false.
func numericPair(ctx Context, field, value string) (float64, float64, bool) {
	v, exists := ctx[field]
	if !exists {
		return 0, 0, false
	}
	left, err := strconv.ParseFloat(stringify(v), 64)
	if err != nil {
		return 0, 0, false
	}
	right, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, 0, false
	}
	return left, right, true
}
