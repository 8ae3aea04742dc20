package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowCondition_Match(t *testing.T) {
	tests := []struct {
		name      string
		condition WorkflowCondition
		value     any
		present   bool
		expected  bool
	}{
		{
			name:      "equals numeric across types",
			condition: WorkflowCondition{Field: "qty", Operator: OpEquals, Value: 5},
			value:     5.0,
			present:   true,
			expected:  true,
		},
		{
			name:      "equals string",
			condition: WorkflowCondition{Field: "status", Operator: OpEquals, Value: "open"},
			value:     "open",
			present:   true,
			expected:  true,
		},
		{
			name:      "not_equals",
			condition: WorkflowCondition{Field: "status", Operator: OpNotEquals, Value: "open"},
			value:     "closed",
			present:   true,
			expected:  true,
		},
		{
			name:      "greater_than",
			condition: WorkflowCondition{Field: "qty", Operator: OpGreaterThan, Value: 10},
			value:     11.0,
			present:   true,
			expected:  true,
		},
		{
			name:      "less_than false at boundary",
			condition: WorkflowCondition{Field: "qty", Operator: OpLessThan, Value: 10},
			value:     10.0,
			present:   true,
			expected:  false,
		},
		{
			name:      "contains",
			condition: WorkflowCondition{Field: "sku", Operator: OpContains, Value: "WID"},
			value:     "A-WIDGET",
			present:   true,
			expected:  true,
		},
		{
			name:      "starts_with",
			condition: WorkflowCondition{Field: "sku", Operator: OpStartsWith, Value: "PO-"},
			value:     "PO-123",
			present:   true,
			expected:  true,
		},
		{
			name:      "ends_with",
			condition: WorkflowCondition{Field: "sku", Operator: OpEndsWith, Value: "-A"},
			value:     "PO-123",
			present:   true,
			expected:  false,
		},
		{
			name:      "in list",
			condition: WorkflowCondition{Field: "status", Operator: OpIn, Value: []any{"open", "pending"}},
			value:     "pending",
			present:   true,
			expected:  true,
		},
		{
			name:      "not_in list",
			condition: WorkflowCondition{Field: "status", Operator: OpNotIn, Value: []any{"open", "pending"}},
			value:     "cancelled",
			present:   true,
			expected:  true,
		},
		{
			name:      "is_null on absent field",
			condition: WorkflowCondition{Field: "ghost", Operator: OpIsNull},
			value:     nil,
			present:   false,
			expected:  true,
		},
		{
			name:      "is_not_null on present value",
			condition: WorkflowCondition{Field: "qty", Operator: OpIsNotNull},
			value:     0.0,
			present:   true,
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.condition.Match(tt.value, tt.present)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestWorkflowCondition_Match_Errors(t *testing.T) {
	_, err := WorkflowCondition{Field: "qty", Operator: OpGreaterThan, Value: 10}.Match("text", true)
	require.Error(t, err)

	_, err = WorkflowCondition{Field: "status", Operator: OpIn, Value: "not a list"}.Match("open", true)
	require.Error(t, err)

	_, err = WorkflowCondition{Field: "qty", Operator: "between"}.Match(5.0, true)
	require.Error(t, err)
}
