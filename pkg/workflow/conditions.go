package workflow

import (
	"fmt"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/template"
)

// EvaluateConditions evaluates a condition list against trigger context data.
// An empty list is vacuously true.
//
// Chaining is left to right and left-associative: the first condition seeds
// the running result, and each later condition joins the running result
// using the logical operator stored on the condition BEFORE it. So
// [A(and), B(or), C] evaluates as (A AND B) OR C. This mirrors how stored
// rule chains have always been evaluated; changing it would silently change
// the meaning of existing workflows.
func EvaluateConditions(conditions []models.WorkflowCondition, data map[string]any) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}

	result, err := evaluateOne(conditions[0], data)
	if err != nil {
		return false, err
	}

	for i := 1; i < len(conditions); i++ {
		current, err := evaluateOne(conditions[i], data)
		if err != nil {
			return false, err
		}

		switch conditions[i-1].Logical {
		case models.LogicalOr:
			result = result || current
		case models.LogicalAnd, "":
			result = result && current
		default:
			return false, fmt.Errorf("unknown logical operator %q", conditions[i-1].Logical)
		}
	}

	return result, nil
}

func evaluateOne(condition models.WorkflowCondition, data map[string]any) (bool, error) {
	value, present := template.ResolvePath(data, condition.Field)

	return condition.Match(value, present)
}
