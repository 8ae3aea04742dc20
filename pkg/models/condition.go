package models

import (
	"fmt"
	"strings"
)

// ConditionOperator is the fixed, flat operator set a condition may use.
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpNotEquals   ConditionOperator = "not_equals"
	OpGreaterThan ConditionOperator = "greater_than"
	OpLessThan    ConditionOperator = "less_than"
	OpContains    ConditionOperator = "contains"
	OpStartsWith  ConditionOperator = "starts_with"
	OpEndsWith    ConditionOperator = "ends_with"
	OpIn          ConditionOperator = "in"
	OpNotIn       ConditionOperator = "not_in"
	OpIsNull      ConditionOperator = "is_null"
	OpIsNotNull   ConditionOperator = "is_not_null"
)

// LogicalOperator joins a condition to the NEXT condition in the list.
// Evaluation is left to right: the operator stored on condition N combines
// the running result with condition N+1's result.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
)

// WorkflowCondition is one boolean predicate over a dotted field path
// resolved against the trigger context.
type WorkflowCondition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    any               `json:"value,omitempty"`
	Logical  LogicalOperator   `json:"logical,omitempty"`
}

// Match applies the condition's operator to a resolved context value.
// present is false when the field path did not resolve; a missing field is
// treated as null, never as an evaluation error.
func (c WorkflowCondition) Match(value any, present bool) (bool, error) {
	switch c.Operator {
	case OpIsNull:
		return !present || value == nil, nil
	case OpIsNotNull:
		return present && value != nil, nil
	case OpEquals:
		return looseEqual(value, c.Value), nil
	case OpNotEquals:
		return !looseEqual(value, c.Value), nil
	case OpGreaterThan, OpLessThan:
		left, ok := toFloat(value)
		if !ok {
			return false, fmt.Errorf("field %q: value %v is not numeric", c.Field, value)
		}

		right, ok := toFloat(c.Value)
		if !ok {
			return false, fmt.Errorf("field %q: comparison value %v is not numeric", c.Field, c.Value)
		}

		if c.Operator == OpGreaterThan {
			return left > right, nil
		}

		return left < right, nil
	case OpContains:
		return strings.Contains(stringify(value), stringify(c.Value)), nil
	case OpStartsWith:
		return strings.HasPrefix(stringify(value), stringify(c.Value)), nil
	case OpEndsWith:
		return strings.HasSuffix(stringify(value), stringify(c.Value)), nil
	case OpIn, OpNotIn:
		member, err := isMember(value, c.Value)
		if err != nil {
			return false, fmt.Errorf("field %q: %w", c.Field, err)
		}

		if c.Operator == OpIn {
			return member, nil
		}

		return !member, nil
	default:
		return false, fmt.Errorf("unknown condition operator %q", c.Operator)
	}
}

func isMember(value, set any) (bool, error) {
	list, ok := set.([]any)
	if !ok {
		return false, fmt.Errorf("comparison value %v is not a list", set)
	}

	for _, candidate := range list {
		if looseEqual(value, candidate) {
			return true, nil
		}
	}

	return false, nil
}

// looseEqual compares numerically when both sides are numbers, otherwise by
// string form. Trigger contexts arrive via JSON so numbers are float64 while
// stored comparison values may be ints.
func looseEqual(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)

	if aok && bok {
		return fa == fb
	}

	return stringify(a) == stringify(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}

	return fmt.Sprintf("%v", v)
}
