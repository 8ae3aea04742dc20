// Package persistence provides the data-store abstraction consumed by the
// monitor, scheduler, and workflow engine.
package persistence

import (
	"context"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
)

// Persistence is the data-store capability. The engine owns the automation
// records (workflows, alerts, tasks, executions, notifications) and has read
// plus narrow write access to the domain entities owned by the surrounding
// application.
type Persistence interface {
	Workflows() WorkflowRepository
	WorkflowExecutions() WorkflowExecutionRepository
	Alerts() AlertRepository
	Tasks() TaskRepository
	TaskExecutions() TaskExecutionRepository
	Notifications() NotificationRepository
	Users() UserRepository
	Inventory() InventoryRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	List(ctx context.Context, tenantID string) ([]*models.Workflow, error)
	ListEnabledByTrigger(ctx context.Context, tenantID string, trigger models.TriggerType) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error

	// RecordExecution bumps the workflow's execution statistics.
	RecordExecution(ctx context.Context, id string, at time.Time) error
}

// WorkflowExecutionRepository stores append-only execution records.
type WorkflowExecutionRepository interface {
	Create(ctx context.Context, execution *models.WorkflowExecution) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Type       models.AlertType
	Unresolved bool
}

// AlertRepository stores alert records.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context, tenantID string, filter AlertFilter) ([]*models.Alert, error)
	Update(ctx context.Context, alert *models.Alert) error

	// LatestForEntity returns the most recently triggered alert for the
	// tenant/type/entity dedup key, or ErrAlertNotFound.
	LatestForEntity(ctx context.Context, tenantID string, alertType models.AlertType, entityID string) (*models.Alert, error)

	// PurgeResolvedBefore removes resolved alerts older than cutoff.
	PurgeResolvedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// TaskRepository stores scheduled task definitions.
type TaskRepository interface {
	Create(ctx context.Context, task *models.ScheduledTask) error
	GetByID(ctx context.Context, id string) (*models.ScheduledTask, error)
	List(ctx context.Context, tenantID string) ([]*models.ScheduledTask, error)
	Update(ctx context.Context, task *models.ScheduledTask) error

	// ListDue returns enabled tasks whose next run time has passed.
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledTask, error)
}

// TaskExecutionRepository stores append-only task execution records.
type TaskExecutionRepository interface {
	Create(ctx context.Context, execution *models.TaskExecution) error
	Update(ctx context.Context, execution *models.TaskExecution) error
	ListByTask(ctx context.Context, taskID string) ([]*models.TaskExecution, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// NotificationRepository stores in-app notification records.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, tenantID, userID string) ([]*models.Notification, error)
}

// UserRepository reads the user slice the notifier needs.
type UserRepository interface {
	// ListNotifiable returns the tenant's administrators and supervisors.
	ListNotifiable(ctx context.Context, tenantID string) ([]*models.User, error)
}

// InventoryRepository reads domain entities filtered by tenant and optional
// site (empty siteID means all sites), plus the narrow writes action
// handlers perform.
type InventoryRepository interface {
	Items(ctx context.Context, tenantID, siteID string) ([]*models.Item, error)
	ItemByID(ctx context.Context, tenantID, itemID string) (*models.Item, error)
	Lots(ctx context.Context, tenantID, siteID string) ([]*models.Lot, error)
	OpenProductionOrders(ctx context.Context, tenantID, siteID string) ([]*models.ProductionOrder, error)
	OpenPurchaseOrders(ctx context.Context, tenantID, siteID string) ([]*models.PurchaseOrder, error)
	Movements(ctx context.Context, tenantID, siteID string, since time.Time) ([]*models.StockMovement, error)

	CreatePurchaseOrder(ctx context.Context, order *models.PurchaseOrder) error
	AdjustStock(ctx context.Context, tenantID, itemID string, delta float64, reason string) error
	UpdateItem(ctx context.Context, tenantID, itemID string, fields map[string]any) error
	UpdateOrderStatus(ctx context.Context, tenantID, entityType, entityID, status string) error
}
