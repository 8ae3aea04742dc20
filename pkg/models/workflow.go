package models

import "time"

// TriggerType is a named event category workflows subscribe to. Triggers are
// fired synchronously by callers; there is no event bus in this engine.
type TriggerType string

const (
	TriggerItemCreated        TriggerType = "item_created"
	TriggerItemUpdated        TriggerType = "item_updated"
	TriggerStockLevelChanged  TriggerType = "stock_level_changed"
	TriggerOrderCreated       TriggerType = "order_created"
	TriggerOrderStatusChanged TriggerType = "order_status_changed"
	TriggerProductionComplete TriggerType = "production_completed"
	TriggerAlertTriggered     TriggerType = "alert_triggered"
	TriggerScheduledTick      TriggerType = "scheduled_tick"
	TriggerManual             TriggerType = "manual"
)

// WorkflowTrigger describes what fires a workflow. Schedule carries the
// trigger-specific configuration when Type is scheduled_tick.
type WorkflowTrigger struct {
	Type     TriggerType    `json:"type" validate:"required"`
	Schedule map[string]any `json:"schedule,omitempty"`
}

// Workflow is a stored trigger-condition-action definition. Conditions and
// actions are structured configuration, not code.
type Workflow struct {
	ID             string              `json:"id"`
	TenantID       string              `json:"tenant_id" validate:"required"`
	Name           string              `json:"name"      validate:"required,min=3"`
	Enabled        bool                `json:"enabled"`
	Trigger        WorkflowTrigger     `json:"trigger"`
	Conditions     []WorkflowCondition `json:"conditions,omitempty"`
	Actions        []WorkflowAction    `json:"actions"   validate:"required,min=1,dive"`
	ExecutionCount int64               `json:"execution_count"`
	LastExecutedAt *time.Time          `json:"last_executed_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
