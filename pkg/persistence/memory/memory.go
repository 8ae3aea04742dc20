// Package memory provides an in-memory persistence implementation. It backs
// the test suites and lets the engine run without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// Persistence implements persistence.Persistence with mutex-guarded maps.
type Persistence struct {
	mu sync.RWMutex

	workflows          map[string]*models.Workflow
	workflowExecutions map[string]*models.WorkflowExecution
	alerts             map[string]*models.Alert
	tasks              map[string]*models.ScheduledTask
	taskExecutions     map[string]*models.TaskExecution
	notifications      map[string]*models.Notification
	users              map[string]*models.User

	items            map[string]*models.Item
	lots             map[string]*models.Lot
	productionOrders map[string]*models.ProductionOrder
	purchaseOrders   map[string]*models.PurchaseOrder
	movements        []*models.StockMovement
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{
		workflows:          make(map[string]*models.Workflow),
		workflowExecutions: make(map[string]*models.WorkflowExecution),
		alerts:             make(map[string]*models.Alert),
		tasks:              make(map[string]*models.ScheduledTask),
		taskExecutions:     make(map[string]*models.TaskExecution),
		notifications:      make(map[string]*models.Notification),
		users:              make(map[string]*models.User),
		items:              make(map[string]*models.Item),
		lots:               make(map[string]*models.Lot),
		productionOrders:   make(map[string]*models.ProductionOrder),
		purchaseOrders:     make(map[string]*models.PurchaseOrder),
	}
}

func (p *Persistence) Workflows() persistence.WorkflowRepository { return &workflowRepo{p} }

func (p *Persistence) WorkflowExecutions() persistence.WorkflowExecutionRepository {
	return &workflowExecutionRepo{p}
}

func (p *Persistence) Alerts() persistence.AlertRepository { return &alertRepo{p} }

func (p *Persistence) Tasks() persistence.TaskRepository { return &taskRepo{p} }

func (p *Persistence) TaskExecutions() persistence.TaskExecutionRepository {
	return &taskExecutionRepo{p}
}

func (p *Persistence) Notifications() persistence.NotificationRepository {
	return &notificationRepo{p}
}

func (p *Persistence) Users() persistence.UserRepository { return &userRepo{p} }

func (p *Persistence) Inventory() persistence.InventoryRepository { return &inventoryRepo{p} }

// HealthCheck always succeeds for the in-memory store.
func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (p *Persistence) Close(_ context.Context) error { return nil }

// Seed helpers used by tests and local runs.

// AddUser stores a user record.
func (p *Persistence) AddUser(user *models.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[user.ID] = user
}

// AddItem stores a domain item.
func (p *Persistence) AddItem(item *models.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[item.ID] = item
}

// AddLot stores a domain lot.
func (p *Persistence) AddLot(lot *models.Lot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lots[lot.ID] = lot
}

// AddProductionOrder stores a production order.
func (p *Persistence) AddProductionOrder(order *models.ProductionOrder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.productionOrders[order.ID] = order
}

// AddPurchaseOrder stores a purchase order.
func (p *Persistence) AddPurchaseOrder(order *models.PurchaseOrder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purchaseOrders[order.ID] = order
}

// AddMovement stores a stock movement event.
func (p *Persistence) AddMovement(movement *models.StockMovement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.movements = append(p.movements, movement)
}

type workflowRepo struct{ p *Persistence }

func (r *workflowRepo) List(_ context.Context, tenantID string) ([]*models.Workflow, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.Workflow, 0)
	for _, wf := range r.p.workflows {
		if wf.TenantID == tenantID {
			out = append(out, wf)
		}
	}

	sortByID(out, func(wf *models.Workflow) string { return wf.ID })

	return out, nil
}

func (r *workflowRepo) ListEnabledByTrigger(_ context.Context, tenantID string, trigger models.TriggerType) ([]*models.Workflow, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.Workflow, 0)
	for _, wf := range r.p.workflows {
		if wf.TenantID == tenantID && wf.Enabled && wf.Trigger.Type == trigger {
			out = append(out, wf)
		}
	}

	sortByID(out, func(wf *models.Workflow) string { return wf.ID })

	return out, nil
}

func (r *workflowRepo) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	wf, ok := r.p.workflows[id]
	if !ok {
		return nil, persistence.ErrWorkflowNotFound
	}

	return wf, nil
}

func (r *workflowRepo) Save(_ context.Context, workflow *models.Workflow) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.workflows[workflow.ID] = workflow

	return nil
}

func (r *workflowRepo) Delete(_ context.Context, id string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if _, ok := r.p.workflows[id]; !ok {
		return persistence.ErrWorkflowNotFound
	}

	delete(r.p.workflows, id)

	return nil
}

func (r *workflowRepo) RecordExecution(_ context.Context, id string, at time.Time) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	wf, ok := r.p.workflows[id]
	if !ok {
		return persistence.ErrWorkflowNotFound
	}

	wf.ExecutionCount++
	wf.LastExecutedAt = &at

	return nil
}

type workflowExecutionRepo struct{ p *Persistence }

func (r *workflowExecutionRepo) Create(_ context.Context, execution *models.WorkflowExecution) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.workflowExecutions[execution.ID] = execution

	return nil
}

func (r *workflowExecutionRepo) ListByWorkflow(_ context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.WorkflowExecution, 0)
	for _, ex := range r.p.workflowExecutions {
		if ex.WorkflowID == workflowID {
			out = append(out, ex)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })

	return out, nil
}

func (r *workflowExecutionRepo) PurgeBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	purged := 0
	for id, ex := range r.p.workflowExecutions {
		if ex.StartedAt.Before(cutoff) {
			delete(r.p.workflowExecutions, id)
			purged++
		}
	}

	return purged, nil
}

type alertRepo struct{ p *Persistence }

func (r *alertRepo) Create(_ context.Context, alert *models.Alert) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.alerts[alert.ID] = alert

	return nil
}

func (r *alertRepo) GetByID(_ context.Context, id string) (*models.Alert, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	alert, ok := r.p.alerts[id]
	if !ok {
		return nil, persistence.ErrAlertNotFound
	}

	return alert, nil
}

func (r *alertRepo) List(_ context.Context, tenantID string, filter persistence.AlertFilter) ([]*models.Alert, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.Alert, 0)

	for _, alert := range r.p.alerts {
		if alert.TenantID != tenantID {
			continue
		}

		if filter.Type != "" && alert.Type != filter.Type {
			continue
		}

		if filter.Unresolved && alert.Resolved {
			continue
		}

		out = append(out, alert)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })

	return out, nil
}

func (r *alertRepo) Update(_ context.Context, alert *models.Alert) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if _, ok := r.p.alerts[alert.ID]; !ok {
		return persistence.ErrAlertNotFound
	}

	r.p.alerts[alert.ID] = alert

	return nil
}

func (r *alertRepo) LatestForEntity(_ context.Context, tenantID string, alertType models.AlertType, entityID string) (*models.Alert, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	var latest *models.Alert

	for _, alert := range r.p.alerts {
		if alert.TenantID != tenantID || alert.Type != alertType || alert.EntityID != entityID {
			continue
		}

		if latest == nil || alert.TriggeredAt.After(latest.TriggeredAt) {
			latest = alert
		}
	}

	if latest == nil {
		return nil, persistence.ErrAlertNotFound
	}

	return latest, nil
}

func (r *alertRepo) PurgeResolvedBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	purged := 0
	for id, alert := range r.p.alerts {
		if alert.Resolved && alert.ResolvedAt != nil && alert.ResolvedAt.Before(cutoff) {
			delete(r.p.alerts, id)
			purged++
		}
	}

	return purged, nil
}

type taskRepo struct{ p *Persistence }

func (r *taskRepo) Create(_ context.Context, task *models.ScheduledTask) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.tasks[task.ID] = task

	return nil
}

func (r *taskRepo) GetByID(_ context.Context, id string) (*models.ScheduledTask, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	task, ok := r.p.tasks[id]
	if !ok {
		return nil, persistence.ErrTaskNotFound
	}

	return task, nil
}

func (r *taskRepo) List(_ context.Context, tenantID string) ([]*models.ScheduledTask, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.ScheduledTask, 0)
	for _, task := range r.p.tasks {
		if task.TenantID == tenantID {
			out = append(out, task)
		}
	}

	sortByID(out, func(t *models.ScheduledTask) string { return t.ID })

	return out, nil
}

func (r *taskRepo) Update(_ context.Context, task *models.ScheduledTask) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if _, ok := r.p.tasks[task.ID]; !ok {
		return persistence.ErrTaskNotFound
	}

	r.p.tasks[task.ID] = task

	return nil
}

func (r *taskRepo) ListDue(_ context.Context, now time.Time) ([]*models.ScheduledTask, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.ScheduledTask, 0)
	for _, task := range r.p.tasks {
		if task.Enabled && !task.NextRunAt.After(now) {
			out = append(out, task)
		}
	}

	sortByID(out, func(t *models.ScheduledTask) string { return t.ID })

	return out, nil
}

type taskExecutionRepo struct{ p *Persistence }

func (r *taskExecutionRepo) Create(_ context.Context, execution *models.TaskExecution) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.taskExecutions[execution.ID] = execution

	return nil
}

func (r *taskExecutionRepo) Update(_ context.Context, execution *models.TaskExecution) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if _, ok := r.p.taskExecutions[execution.ID]; !ok {
		return persistence.ErrExecutionNotFound
	}

	r.p.taskExecutions[execution.ID] = execution

	return nil
}

func (r *taskExecutionRepo) ListByTask(_ context.Context, taskID string) ([]*models.TaskExecution, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.TaskExecution, 0)
	for _, ex := range r.p.taskExecutions {
		if ex.TaskID == taskID {
			out = append(out, ex)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })

	return out, nil
}

func (r *taskExecutionRepo) PurgeBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	purged := 0
	for id, ex := range r.p.taskExecutions {
		if ex.StartedAt.Before(cutoff) {
			delete(r.p.taskExecutions, id)
			purged++
		}
	}

	return purged, nil
}

type notificationRepo struct{ p *Persistence }

func (r *notificationRepo) Create(_ context.Context, notification *models.Notification) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.notifications[notification.ID] = notification

	return nil
}

func (r *notificationRepo) ListByUser(_ context.Context, tenantID, userID string) ([]*models.Notification, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.Notification, 0)
	for _, n := range r.p.notifications {
		if n.TenantID == tenantID && n.UserID == userID {
			out = append(out, n)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

type userRepo struct{ p *Persistence }

func (r *userRepo) ListNotifiable(_ context.Context, tenantID string) ([]*models.User, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.User, 0)
	for _, user := range r.p.users {
		if user.TenantID != tenantID {
			continue
		}

		if user.Role == models.RoleAdmin || user.Role == models.RoleSupervisor {
			out = append(out, user)
		}
	}

	sortByID(out, func(u *models.User) string { return u.ID })

	return out, nil
}

type inventoryRepo struct{ p *Persistence }

func (r *inventoryRepo) Items(_ context.Context, tenantID, siteID string) ([]*models.Item, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.Item, 0)
	for _, item := range r.p.items {
		if item.TenantID == tenantID && matchSite(item.SiteID, siteID) {
			out = append(out, item)
		}
	}

	sortByID(out, func(i *models.Item) string { return i.ID })

	return out, nil
}

func (r *inventoryRepo) ItemByID(_ context.Context, tenantID, itemID string) (*models.Item, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	item, ok := r.p.items[itemID]
	if !ok || item.TenantID != tenantID {
		return nil, persistence.ErrItemNotFound
	}

	return item, nil
}

func (r *inventoryRepo) Lots(_ context.Context, tenantID, siteID string) ([]*models.Lot, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.Lot, 0)
	for _, lot := range r.p.lots {
		if lot.TenantID == tenantID && matchSite(lot.SiteID, siteID) {
			out = append(out, lot)
		}
	}

	sortByID(out, func(l *models.Lot) string { return l.ID })

	return out, nil
}

func (r *inventoryRepo) OpenProductionOrders(_ context.Context, tenantID, siteID string) ([]*models.ProductionOrder, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.ProductionOrder, 0)
	for _, order := range r.p.productionOrders {
		if order.TenantID == tenantID && matchSite(order.SiteID, siteID) && order.Status == models.OrderStatusOpen {
			out = append(out, order)
		}
	}

	sortByID(out, func(o *models.ProductionOrder) string { return o.ID })

	return out, nil
}

func (r *inventoryRepo) OpenPurchaseOrders(_ context.Context, tenantID, siteID string) ([]*models.PurchaseOrder, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.PurchaseOrder, 0)
	for _, order := range r.p.purchaseOrders {
		if order.TenantID == tenantID && matchSite(order.SiteID, siteID) && order.Status == models.OrderStatusOpen {
			out = append(out, order)
		}
	}

	sortByID(out, func(o *models.PurchaseOrder) string { return o.ID })

	return out, nil
}

func (r *inventoryRepo) Movements(_ context.Context, tenantID, siteID string, since time.Time) ([]*models.StockMovement, error) {
	r.p.mu.RLock()
	defer r.p.mu.RUnlock()

	out := make([]*models.StockMovement, 0)
	for _, movement := range r.p.movements {
		if movement.TenantID != tenantID || !matchSite(movement.SiteID, siteID) {
			continue
		}

		if movement.OccurredAt.Before(since) {
			continue
		}

		out = append(out, movement)
	}

	return out, nil
}

func (r *inventoryRepo) CreatePurchaseOrder(_ context.Context, order *models.PurchaseOrder) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.purchaseOrders[order.ID] = order

	return nil
}

func (r *inventoryRepo) AdjustStock(_ context.Context, tenantID, itemID string, delta float64, reason string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	item, ok := r.p.items[itemID]
	if !ok || item.TenantID != tenantID {
		return persistence.ErrItemNotFound
	}

	item.OnHand += delta

	r.p.movements = append(r.p.movements, &models.StockMovement{
		ID:         itemID + "-adj-" + time.Now().UTC().Format("20060102150405.000"),
		TenantID:   tenantID,
		SiteID:     item.SiteID,
		ItemID:     itemID,
		Type:       models.MovementAdjustment,
		Quantity:   delta,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	})

	return nil
}

func (r *inventoryRepo) UpdateItem(_ context.Context, tenantID, itemID string, fields map[string]any) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	item, ok := r.p.items[itemID]
	if !ok || item.TenantID != tenantID {
		return persistence.ErrItemNotFound
	}

	for key, value := range fields {
		switch key {
		case "name":
			if s, ok := value.(string); ok {
				item.Name = s
			}
		case "status":
			if s, ok := value.(string); ok {
				item.Status = s
			}
		case "reorder_point":
			if f, ok := toFloat(value); ok {
				item.ReorderPoint = f
			}
		case "unit_cost":
			if f, ok := toFloat(value); ok {
				item.UnitCost = f
			}
		}
	}

	return nil
}

func (r *inventoryRepo) UpdateOrderStatus(_ context.Context, tenantID, entityType, entityID, status string) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	switch entityType {
	case "production_order":
		order, ok := r.p.productionOrders[entityID]
		if !ok || order.TenantID != tenantID {
			return persistence.ErrOrderNotFound
		}

		order.Status = status
	case "purchase_order":
		order, ok := r.p.purchaseOrders[entityID]
		if !ok || order.TenantID != tenantID {
			return persistence.ErrOrderNotFound
		}

		order.Status = status
	default:
		return persistence.ErrOrderNotFound
	}

	return nil
}

func matchSite(siteID, filter string) bool {
	return filter == "" || siteID == filter
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortByID[T any](items []T, id func(T) string) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
