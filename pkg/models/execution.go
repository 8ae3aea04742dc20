package models

import "time"

// ExecutionStatus is the terminal outcome of an execution. There is no
// retry, pause, or resume: running transitions once to one of the other
// three states and the record is final.
type ExecutionStatus string

const (
	StatusRunning ExecutionStatus = "running"
	StatusSuccess ExecutionStatus = "success"
	StatusPartial ExecutionStatus = "partial"
	StatusFailed  ExecutionStatus = "failed"
)

// ActionResult is the recorded outcome of a single action within a workflow
// execution.
type ActionResult struct {
	ActionType ActionType `json:"action_type"`
	Success    bool       `json:"success"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// WorkflowExecution is the single persisted record of one workflow run.
type WorkflowExecution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	TriggeredBy string          `json:"triggered_by"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Status      ExecutionStatus `json:"status"`
	Results     []ActionResult  `json:"results"`
	Duration    time.Duration   `json:"duration"`
}

// TriggerContext carries a fired trigger's event data into condition
// evaluation and action execution. Data is an arbitrary nested key-value
// structure; condition field paths and template tokens resolve against it.
type TriggerContext struct {
	TenantID    string         `json:"tenant_id"`
	TriggerType TriggerType    `json:"trigger_type"`
	Data        map[string]any `json:"data"`
}

// TriggeredBy returns the acting user from the context, or "system" when the
// trigger was not fired on behalf of a user.
func (tc TriggerContext) TriggeredBy() string {
	if userID, ok := tc.Data["user_id"].(string); ok && userID != "" {
		return userID
	}

	return "system"
}
