// Package web provides the HTTP surface for the automation engine: workflow
// management, trigger firing, alert operations, and scheduled tasks.
package web

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/monitor"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/scheduler"
	"github.com/stockflow-io/stockflow/pkg/workflow"
)

type APIHandlers struct {
	persistence persistence.Persistence
	engine      *workflow.Engine
	monitor     *monitor.Monitor
	scheduler   *scheduler.Scheduler
	validator   *validator.Validate
}

func NewAPIHandlers(
	p persistence.Persistence,
	engine *workflow.Engine,
	m *monitor.Monitor,
	s *scheduler.Scheduler,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: p,
		engine:      engine,
		monitor:     m,
		scheduler:   s,
		validator:   validate,
	}
}

var errMissingTenant = errors.New("tenant_id query parameter is required")

// tenantID is required on every collection endpoint; records are never
// listed across tenants.
func tenantID(c fiber.Ctx) (string, error) {
	tenant := c.Query("tenant_id")
	if tenant == "" {
		return "", errMissingTenant
	}

	return tenant, nil
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	tenant, err := tenantID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	workflows, err := h.persistence.Workflows().List(c.Context(), tenant)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows, "total_count": len(workflows)})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	wf, err := h.persistence.Workflows().GetByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var wf models.Workflow
	if err := c.Bind().JSON(&wf); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&wf); err != nil {
		return badRequest(c, err.Error())
	}

	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	wf.CreatedAt = now
	wf.UpdatedAt = now

	if err := h.persistence.Workflows().Save(c.Context(), &wf); err != nil {
		return handleRepositoryError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(wf)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	existing, err := h.persistence.Workflows().GetByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	var wf models.Workflow
	if err := c.Bind().JSON(&wf); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	wf.ID = existing.ID
	wf.TenantID = existing.TenantID
	wf.ExecutionCount = existing.ExecutionCount
	wf.LastExecutedAt = existing.LastExecutedAt
	wf.CreatedAt = existing.CreatedAt
	wf.UpdatedAt = time.Now().UTC()

	if err := h.validator.Struct(&wf); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.Workflows().Save(c.Context(), &wf); err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.persistence.Workflows().Delete(c.Context(), c.Params("id")); err != nil {
		return handleRepositoryError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	executions, err := h.persistence.WorkflowExecutions().ListByWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions, "total_count": len(executions)})
}

type fireTriggerRequest struct {
	TenantID string         `json:"tenant_id" validate:"required"`
	Data     map[string]any `json:"data"`
}

// FireTrigger runs every enabled workflow registered for the trigger type.
func (h *APIHandlers) FireTrigger(c fiber.Ctx) error {
	triggerType := models.TriggerType(c.Params("type"))

	var req fireTriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	executions, err := h.engine.ExecuteTrigger(c.Context(), req.TenantID, triggerType, req.Data)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions, "total_count": len(executions)})
}

// CheckAlerts runs the threshold monitor for a tenant. Alerts raised before
// a category scan failed are still returned alongside the problem.
func (h *APIHandlers) CheckAlerts(c fiber.Ctx) error {
	tenant, err := tenantID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	alerts, err := h.monitor.CheckAlerts(c.Context(), tenant, c.Query("site_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"alerts":      alerts,
			"total_count": len(alerts),
			"error":       err.Error(),
		})
	}

	return c.JSON(fiber.Map{"alerts": alerts, "total_count": len(alerts)})
}

func (h *APIHandlers) GetAlerts(c fiber.Ctx) error {
	tenant, err := tenantID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter := persistence.AlertFilter{
		Type: models.AlertType(c.Query("type")),
	}

	if unresolvedStr := c.Query("unresolved"); unresolvedStr != "" {
		unresolved, err := strconv.ParseBool(unresolvedStr)
		if err != nil {
			return badRequest(c, "unresolved must be a boolean")
		}

		filter.Unresolved = unresolved
	}

	alerts, err := h.persistence.Alerts().List(c.Context(), tenant, filter)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(fiber.Map{"alerts": alerts, "total_count": len(alerts)})
}

type acknowledgeRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *APIHandlers) AcknowledgeAlert(c fiber.Ctx) error {
	var req acknowledgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	alert, err := h.monitor.Acknowledge(c.Context(), c.Params("id"), req.UserID)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(alert)
}

func (h *APIHandlers) ResolveAlert(c fiber.Ctx) error {
	alert, err := h.monitor.Resolve(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(alert)
}

func (h *APIHandlers) GetTasks(c fiber.Ctx) error {
	tenant, err := tenantID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	tasks, err := h.persistence.Tasks().List(c.Context(), tenant)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(fiber.Map{"tasks": tasks, "total_count": len(tasks)})
}

type createTaskRequest struct {
	TenantID       string               `json:"tenant_id" validate:"required"`
	Name           string               `json:"name"      validate:"required,min=3"`
	Type           models.TaskType      `json:"type"      validate:"required"`
	Frequency      models.TaskFrequency `json:"frequency" validate:"required"`
	CronExpression string               `json:"cron_expression"`
	Configuration  map[string]any       `json:"configuration"`
	Enabled        *bool                `json:"enabled"`
	Recipients     []string             `json:"recipients"`
}

func (h *APIHandlers) CreateTask(c fiber.Ctx) error {
	var req createTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	// Tasks are enabled unless the request says otherwise.
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	task := &models.ScheduledTask{
		TenantID:       req.TenantID,
		Name:           req.Name,
		Type:           req.Type,
		Frequency:      req.Frequency,
		CronExpression: req.CronExpression,
		Configuration:  req.Configuration,
		Enabled:        enabled,
		Recipients:     req.Recipients,
	}

	taskID, err := h.scheduler.CreateTask(c.Context(), task)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.persistence.Tasks().GetByID(c.Context(), taskID)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) ExecuteTask(c fiber.Ctx) error {
	execution, err := h.scheduler.ExecuteTask(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetTaskExecutions(c fiber.Ctx) error {
	executions, err := h.persistence.TaskExecutions().ListByTask(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(fiber.Map{"executions": executions, "total_count": len(executions)})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}
