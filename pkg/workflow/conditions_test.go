package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-io/stockflow/pkg/models"
)

func TestEvaluateConditions_Empty(t *testing.T) {
	result, err := EvaluateConditions(nil, map[string]any{})

	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvaluateConditions_Single(t *testing.T) {
	conditions := []models.WorkflowCondition{
		{Field: "item.on_hand", Operator: models.OpLessThan, Value: 10.0},
	}

	result, err := EvaluateConditions(conditions, map[string]any{
		"item": map[string]any{"on_hand": 5.0},
	})

	require.NoError(t, err)
	assert.True(t, result)
}

// Chaining joins each condition with the logical operator on the condition
// BEFORE it: [A(and), B(or), C] must evaluate as (A AND B) OR C, not
// A AND (B OR C).
func TestEvaluateConditions_LeftAssociativeChaining(t *testing.T) {
	conditions := func(aField, bField, cField string) []models.WorkflowCondition {
		return []models.WorkflowCondition{
			{Field: aField, Operator: models.OpEquals, Value: true, Logical: models.LogicalAnd},
			{Field: bField, Operator: models.OpEquals, Value: true, Logical: models.LogicalOr},
			{Field: cField, Operator: models.OpEquals, Value: true},
		}
	}

	data := map[string]any{"yes": true, "no": false}

	tests := []struct {
		name     string
		a, b, c  string
		expected bool
	}{
		// (false AND false) OR true = true; A AND (B OR C) would give false.
		{name: "distinguishing case", a: "no", b: "no", c: "yes", expected: true},
		{name: "all true", a: "yes", b: "yes", c: "yes", expected: true},
		{name: "only left pair true", a: "yes", b: "yes", c: "no", expected: true},
		{name: "all false", a: "no", b: "no", c: "no", expected: false},
		// (true AND false) OR false = false.
		{name: "left pair broken", a: "yes", b: "no", c: "no", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EvaluateConditions(conditions(tt.a, tt.b, tt.c), data)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEvaluateConditions_MissingFieldIsNull(t *testing.T) {
	conditions := []models.WorkflowCondition{
		{Field: "ghost.path", Operator: models.OpIsNull},
	}

	result, err := EvaluateConditions(conditions, map[string]any{})

	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvaluateConditions_EvaluationError(t *testing.T) {
	conditions := []models.WorkflowCondition{
		{Field: "item.name", Operator: models.OpGreaterThan, Value: 10.0},
	}

	_, err := EvaluateConditions(conditions, map[string]any{
		"item": map[string]any{"name": "not a number"},
	})

	require.Error(t, err)
}

func TestEvaluateConditions_UnknownLogicalOperator(t *testing.T) {
	conditions := []models.WorkflowCondition{
		{Field: "a", Operator: models.OpIsNull, Logical: "xor"},
		{Field: "b", Operator: models.OpIsNull},
	}

	_, err := EvaluateConditions(conditions, map[string]any{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown logical operator")
}
