package models

// ActionType selects the handler a workflow action dispatches to.
type ActionType string

const (
	ActionSendEmail           ActionType = "send_email"
	ActionCreatePurchaseOrder ActionType = "create_purchase_order"
	ActionAdjustInventory     ActionType = "adjust_inventory"
	ActionUpdateItem          ActionType = "update_item"
	ActionCreateAlert         ActionType = "create_alert"
	ActionCallWebhook         ActionType = "call_webhook"
	ActionUpdateStatus        ActionType = "update_status"
	ActionRunReport           ActionType = "run_report"
	ActionAssignUser          ActionType = "assign_user"
	ActionExecuteScript       ActionType = "execute_script"
)

// WorkflowAction is one unit of side-effecting work. Actions always execute
// in ascending Order, never concurrently with each other.
type WorkflowAction struct {
	Type          ActionType     `json:"type"  validate:"required"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Order         int            `json:"order"`
}
