package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// TaskRepository stores scheduled task definitions.
type TaskRepository struct {
	db *sql.DB
}

const taskColumns = `
	id
  , tenant_id
  , name
  , type
  , frequency
  , cron_expression
  , configuration
  , enabled
  , last_run_at
  , last_run_status
  , next_run_at
  , recipients
  , created_at
  , updated_at
`

func (r *TaskRepository) Create(ctx context.Context, task *models.ScheduledTask) error {
	configuration, err := json.Marshal(task.Configuration)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	recipients, err := json.Marshal(task.Recipients)
	if err != nil {
		return fmt.Errorf("failed to marshal recipients: %w", err)
	}

	query := `
		INSERT INTO scheduled_tasks (id, tenant_id, name, type, frequency, cron_expression,
			configuration, enabled, last_run_at, last_run_status, next_run_at, recipients,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.ExecContext(ctx, query,
		task.ID, task.TenantID, task.Name, string(task.Type), string(task.Frequency),
		task.CronExpression, configuration, task.Enabled,
		task.LastRunAt, task.LastRunStatus, task.NextRunAt, recipients,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return persistence.NewRecordError("Create", "scheduled_task", task.ID, err)
	}

	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.ScheduledTask, error) {
	query := `SELECT ` + taskColumns + ` FROM scheduled_tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrTaskNotFound
		}

		return nil, fmt.Errorf("failed to scan scheduled task: %w", err)
	}

	return task, nil
}

func (r *TaskRepository) List(ctx context.Context, tenantID string) ([]*models.ScheduledTask, error) {
	query := `SELECT ` + taskColumns + ` FROM scheduled_tasks WHERE tenant_id = $1 ORDER BY created_at`

	return r.queryTasks(ctx, query, tenantID)
}

func (r *TaskRepository) Update(ctx context.Context, task *models.ScheduledTask) error {
	configuration, err := json.Marshal(task.Configuration)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	recipients, err := json.Marshal(task.Recipients)
	if err != nil {
		return fmt.Errorf("failed to marshal recipients: %w", err)
	}

	query := `
		UPDATE scheduled_tasks SET
			name = $2,
			type = $3,
			frequency = $4,
			cron_expression = $5,
			configuration = $6,
			enabled = $7,
			last_run_at = $8,
			last_run_status = $9,
			next_run_at = $10,
			recipients = $11,
			updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		task.ID, task.Name, string(task.Type), string(task.Frequency),
		task.CronExpression, configuration, task.Enabled,
		task.LastRunAt, task.LastRunStatus, task.NextRunAt, recipients,
		task.UpdatedAt,
	)
	if err != nil {
		return persistence.NewRecordError("Update", "scheduled_task", task.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledTask, error) {
	query := `SELECT ` + taskColumns + ` FROM scheduled_tasks WHERE enabled AND next_run_at <= $1 ORDER BY next_run_at`

	return r.queryTasks(ctx, query, now)
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.ScheduledTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*models.ScheduledTask, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled task: %w", err)
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled tasks: %w", err)
	}

	return tasks, nil
}

func scanTask(row rowScanner) (*models.ScheduledTask, error) {
	var (
		task          models.ScheduledTask
		taskType      string
		frequency     string
		configuration []byte
		recipients    []byte
		lastRunAt     sql.NullTime
	)

	err := row.Scan(
		&task.ID, &task.TenantID, &task.Name, &taskType, &frequency,
		&task.CronExpression, &configuration, &task.Enabled,
		&lastRunAt, &task.LastRunStatus, &task.NextRunAt, &recipients,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Type = models.TaskType(taskType)
	task.Frequency = models.TaskFrequency(frequency)

	if lastRunAt.Valid {
		task.LastRunAt = &lastRunAt.Time
	}

	if len(configuration) > 0 {
		if err := json.Unmarshal(configuration, &task.Configuration); err != nil {
			return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
		}
	}

	if len(recipients) > 0 {
		if err := json.Unmarshal(recipients, &task.Recipients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
		}
	}

	return &task, nil
}

// TaskExecutionRepository stores append-only task execution records.
type TaskExecutionRepository struct {
	db *sql.DB
}

func (r *TaskExecutionRepository) Create(ctx context.Context, execution *models.TaskExecution) error {
	output, err := json.Marshal(execution.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	query := `
		INSERT INTO task_executions (id, task_id, started_at, completed_at, status, output, error, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, execution.TaskID, execution.StartedAt, execution.CompletedAt,
		string(execution.Status), output, execution.Error, execution.Duration.Milliseconds(),
	)
	if err != nil {
		return persistence.NewRecordError("Create", "task_execution", execution.ID, err)
	}

	return nil
}

func (r *TaskExecutionRepository) Update(ctx context.Context, execution *models.TaskExecution) error {
	output, err := json.Marshal(execution.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	query := `
		UPDATE task_executions SET
			completed_at = $2,
			status = $3,
			output = $4,
			error = $5,
			duration_ms = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID, execution.CompletedAt, string(execution.Status),
		output, execution.Error, execution.Duration.Milliseconds(),
	)
	if err != nil {
		return persistence.NewRecordError("Update", "task_execution", execution.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrExecutionNotFound
	}

	return nil
}

func (r *TaskExecutionRepository) ListByTask(ctx context.Context, taskID string) ([]*models.TaskExecution, error) {
	query := `
		SELECT id, task_id, started_at, completed_at, status, output, error, duration_ms
		FROM task_executions
		WHERE task_id = $1
		ORDER BY started_at
	`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	executions := make([]*models.TaskExecution, 0)

	for rows.Next() {
		var (
			execution   models.TaskExecution
			status      string
			output      []byte
			completedAt sql.NullTime
			durationMS  int64
		)

		err := rows.Scan(&execution.ID, &execution.TaskID, &execution.StartedAt,
			&completedAt, &status, &output, &execution.Error, &durationMS)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task execution: %w", err)
		}

		execution.Status = models.ExecutionStatus(status)
		execution.Duration = time.Duration(durationMS) * time.Millisecond

		if completedAt.Valid {
			execution.CompletedAt = &completedAt.Time
		}

		if len(output) > 0 {
			if err := json.Unmarshal(output, &execution.Output); err != nil {
				return nil, fmt.Errorf("failed to unmarshal output: %w", err)
			}
		}

		executions = append(executions, &execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task executions: %w", err)
	}

	return executions, nil
}

func (r *TaskExecutionRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM task_executions WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge task executions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return int(affected), nil
}
