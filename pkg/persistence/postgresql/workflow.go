package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// WorkflowRepository handles workflow definition storage.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const workflowColumns = `
	id
  , tenant_id
  , name
  , enabled
  , trigger_type
  , trigger_schedule
  , conditions
  , actions
  , execution_count
  , last_executed_at
  , created_at
  , updated_at
`

func (r *WorkflowRepository) List(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE tenant_id = $1 ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query, tenantID)
}

func (r *WorkflowRepository) ListEnabledByTrigger(ctx context.Context, tenantID string, trigger models.TriggerType) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE tenant_id = $1 AND trigger_type = $2 AND enabled
		ORDER BY created_at`

	return r.queryWorkflows(ctx, query, tenantID, string(trigger))
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	schedule, err := json.Marshal(workflow.Trigger.Schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger schedule: %w", err)
	}

	conditions, err := json.Marshal(workflow.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	actions, err := json.Marshal(workflow.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO workflows (id, tenant_id, name, enabled, trigger_type, trigger_schedule,
			conditions, actions, execution_count, last_executed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			trigger_type = EXCLUDED.trigger_type,
			trigger_schedule = EXCLUDED.trigger_schedule,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID, workflow.TenantID, workflow.Name, workflow.Enabled,
		string(workflow.Trigger.Type), schedule, conditions, actions,
		workflow.ExecutionCount, workflow.LastExecutedAt,
		workflow.CreatedAt, workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewRecordError("Save", "workflow", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewRecordError("Delete", "workflow", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

func (r *WorkflowRepository) RecordExecution(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE workflows SET execution_count = execution_count + 1, last_executed_at = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return persistence.NewRecordError("RecordExecution", "workflow", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow            models.Workflow
		triggerType         string
		schedule            []byte
		conditions, actions []byte
		lastExecutedAt      sql.NullTime
	)

	err := row.Scan(
		&workflow.ID, &workflow.TenantID, &workflow.Name, &workflow.Enabled,
		&triggerType, &schedule, &conditions, &actions,
		&workflow.ExecutionCount, &lastExecutedAt,
		&workflow.CreatedAt, &workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Trigger.Type = models.TriggerType(triggerType)

	if lastExecutedAt.Valid {
		workflow.LastExecutedAt = &lastExecutedAt.Time
	}

	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &workflow.Trigger.Schedule); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger schedule: %w", err)
		}
	}

	if err := json.Unmarshal(conditions, &workflow.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}

	if err := json.Unmarshal(actions, &workflow.Actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	return &workflow, nil
}

// WorkflowExecutionRepository stores append-only execution records.
type WorkflowExecutionRepository struct {
	db *sql.DB
}

func (r *WorkflowExecutionRepository) Create(ctx context.Context, execution *models.WorkflowExecution) error {
	results, err := json.Marshal(execution.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	query := `
		INSERT INTO workflow_executions (id, workflow_id, triggered_by, started_at, completed_at, status, results, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, execution.WorkflowID, execution.TriggeredBy,
		execution.StartedAt, execution.CompletedAt, string(execution.Status),
		results, execution.Duration.Milliseconds(),
	)
	if err != nil {
		return persistence.NewRecordError("Create", "workflow_execution", execution.ID, err)
	}

	return nil
}

func (r *WorkflowExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowExecution, error) {
	query := `
		SELECT id, workflow_id, triggered_by, started_at, completed_at, status, results, duration_ms
		FROM workflow_executions
		WHERE workflow_id = $1
		ORDER BY started_at
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		var (
			execution   models.WorkflowExecution
			status      string
			results     []byte
			completedAt sql.NullTime
			durationMS  int64
		)

		err := rows.Scan(&execution.ID, &execution.WorkflowID, &execution.TriggeredBy,
			&execution.StartedAt, &completedAt, &status, &results, &durationMS)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow execution: %w", err)
		}

		execution.Status = models.ExecutionStatus(status)
		execution.Duration = time.Duration(durationMS) * time.Millisecond

		if completedAt.Valid {
			execution.CompletedAt = &completedAt.Time
		}

		if err := json.Unmarshal(results, &execution.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}

		executions = append(executions, &execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflow executions: %w", err)
	}

	return executions, nil
}

func (r *WorkflowExecutionRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_executions WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge workflow executions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return int(affected), nil
}
