// Package workflow implements the trigger-condition-action engine.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/otelhelper"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/registry"
)

// conditionCheck labels the single result recorded when a workflow's
// conditions were not satisfied or could not be evaluated.
const conditionCheck = models.ActionType("condition_check")

// Engine loads matching workflows for a fired trigger, evaluates their
// conditions, and executes their actions in declared order.
type Engine struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewEngine creates an engine. tracer may be nil when tracing is disabled.
func NewEngine(p persistence.Persistence, r *registry.Registry, tracer trace.Tracer, logger *slog.Logger) *Engine {
	return &Engine{
		persistence: p,
		registry:    r,
		tracer:      tracer,
		logger:      logger.With("module", "workflow_engine"),
	}
}

// ExecuteTrigger runs every enabled workflow registered for the trigger
// type. Workflows execute sequentially; one workflow's failure does not stop
// evaluation of the others.
func (e *Engine) ExecuteTrigger(ctx context.Context, tenantID string, triggerType models.TriggerType, data map[string]any) ([]*models.WorkflowExecution, error) {
	workflows, err := e.persistence.Workflows().ListEnabledByTrigger(ctx, tenantID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows for trigger %s: %w", triggerType, err)
	}

	tctx := models.TriggerContext{
		TenantID:    tenantID,
		TriggerType: triggerType,
		Data:        data,
	}

	executions := make([]*models.WorkflowExecution, 0, len(workflows))

	for _, wf := range workflows {
		execution, err := e.ExecuteWorkflow(ctx, wf, tctx)
		if err != nil {
			e.logger.ErrorContext(ctx, "workflow execution could not be recorded",
				"workflow_id", wf.ID, "error", err)
		}

		if execution != nil {
			executions = append(executions, execution)
		}
	}

	return executions, nil
}

// ExecuteWorkflow evaluates the workflow's conditions against the trigger
// context and, when satisfied, executes its actions in ascending order.
// Action failures downgrade the execution to partial but never stop later
// actions. The returned error only reports record-keeping failures; the
// execution outcome itself is in the returned record.
func (e *Engine) ExecuteWorkflow(ctx context.Context, wf *models.Workflow, tctx models.TriggerContext) (*models.WorkflowExecution, error) {
	execution := &models.WorkflowExecution{
		ID:          "exec-" + uuid.New().String()[:8],
		WorkflowID:  wf.ID,
		TriggeredBy: tctx.TriggeredBy(),
		StartedAt:   time.Now().UTC(),
		Status:      models.StatusRunning,
		Results:     make([]models.ActionResult, 0, len(wf.Actions)),
	}

	var span trace.Span
	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, wf.ID),
			attribute.String(otelhelper.WorkflowNameKey, wf.Name),
			attribute.String(otelhelper.TriggerTypeKey, string(tctx.TriggerType)),
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		)
		defer span.End()
	}

	logger := e.logger.With("workflow_id", wf.ID, "execution_id", execution.ID)

	satisfied, err := EvaluateConditions(wf.Conditions, tctx.Data)

	switch {
	case err != nil:
		// Condition evaluation blowing up is fatal for this execution only.
		execution.Status = models.StatusFailed
		execution.Results = append(execution.Results, models.ActionResult{
			ActionType: conditionCheck,
			Success:    false,
			Error:      err.Error(),
		})

		if span != nil {
			otelhelper.SetError(span, err)
		}

		logger.ErrorContext(ctx, "condition evaluation failed", "error", err)
	case !satisfied:
		execution.Status = models.StatusFailed
		execution.Results = append(execution.Results, models.ActionResult{
			ActionType: conditionCheck,
			Success:    false,
			Message:    "conditions not satisfied",
		})

		logger.InfoContext(ctx, "conditions not satisfied, skipping actions")
	default:
		execution.Status = e.runActions(ctx, wf, tctx, execution, logger)
	}

	completed := time.Now().UTC()
	execution.CompletedAt = &completed
	execution.Duration = completed.Sub(execution.StartedAt)

	if err := e.persistence.WorkflowExecutions().Create(ctx, execution); err != nil {
		return execution, fmt.Errorf("failed to persist execution: %w", err)
	}

	if err := e.persistence.Workflows().RecordExecution(ctx, wf.ID, completed); err != nil {
		return execution, fmt.Errorf("failed to update workflow statistics: %w", err)
	}

	logger.InfoContext(ctx, "workflow execution finished",
		"status", execution.Status,
		"actions", len(execution.Results),
		"duration", execution.Duration,
	)

	return execution, nil
}

func (e *Engine) runActions(ctx context.Context, wf *models.Workflow, tctx models.TriggerContext, execution *models.WorkflowExecution, logger *slog.Logger) models.ExecutionStatus {
	actions := make([]models.WorkflowAction, len(wf.Actions))
	copy(actions, wf.Actions)
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].Order < actions[j].Order })

	failed := false

	for _, actionDef := range actions {
		result := e.runAction(ctx, actionDef, tctx, logger)
		execution.Results = append(execution.Results, result)

		if !result.Success {
			failed = true
		}
	}

	if failed {
		return models.StatusPartial
	}

	return models.StatusSuccess
}

func (e *Engine) runAction(ctx context.Context, actionDef models.WorkflowAction, tctx models.TriggerContext, logger *slog.Logger) models.ActionResult {
	actionLogger := logger.With("action_type", actionDef.Type, "action_order", actionDef.Order)

	action, err := e.registry.CreateAction(actionDef.Type, actionDef.Configuration)
	if err != nil {
		actionLogger.ErrorContext(ctx, "failed to create action", "error", err)

		return models.ActionResult{
			ActionType: actionDef.Type,
			Success:    false,
			Error:      err.Error(),
		}
	}

	result, err := action.Execute(ctx, tctx, actionLogger)
	result.ActionType = actionDef.Type

	if err != nil {
		result.Success = false

		if result.Error == "" {
			result.Error = err.Error()
		}

		actionLogger.ErrorContext(ctx, "action failed", "error", err)
	}

	return result
}
