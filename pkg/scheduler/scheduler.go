// Package scheduler implements the recurring task scheduler: cadence-based
// next-run computation, due-task polling, and handler dispatch.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/otelhelper"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/registry"
)

// Scheduler owns the task polling loop. A Locker guards each tick so only
// one instance executes the task set.
type Scheduler struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	dispatcher  *notifier.Dispatcher
	locker      Locker
	tracer      trace.Tracer
	logger      *slog.Logger
	validator   *validator.Validate

	now func() time.Time
}

// NewScheduler creates a scheduler. tracer may be nil when tracing is
// disabled; locker may be nil for single-instance deployments.
func NewScheduler(p persistence.Persistence, r *registry.Registry, d *notifier.Dispatcher, locker Locker, tracer trace.Tracer, logger *slog.Logger) *Scheduler {
	if locker == nil {
		locker = NoopLocker{}
	}

	return &Scheduler{
		persistence: p,
		registry:    r,
		dispatcher:  d,
		locker:      locker,
		tracer:      tracer,
		logger:      logger.With("module", "scheduler"),
		validator:   validator.New(),
		now:         time.Now,
	}
}

// CreateTask validates the definition, computes the initial next-run time,
// and persists the task. The Enabled flag is stored as given; the HTTP create
// endpoint defaults it to true when the request omits it.
func (s *Scheduler) CreateTask(ctx context.Context, task *models.ScheduledTask) (string, error) {
	if err := s.validator.Struct(task); err != nil {
		return "", fmt.Errorf("invalid task definition: %w", err)
	}

	if _, err := s.registry.TaskHandler(task.Type); err != nil {
		return "", err
	}

	now := s.now()

	nextRun, err := NextRun(task.Frequency, task.CronExpression, now)
	if err != nil && task.Frequency != models.FrequencyCustom {
		return "", err
	}

	if err != nil {
		s.logger.WarnContext(ctx, "cron expression invalid, using fallback cadence",
			"task_name", task.Name, "error", err)
	}

	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	task.NextRunAt = nextRun
	task.CreatedAt = now.UTC()
	task.UpdatedAt = now.UTC()

	if err := s.persistence.Tasks().Create(ctx, task); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.InfoContext(ctx, "task created",
		"task_id", task.ID, "type", task.Type, "next_run_at", task.NextRunAt)

	return task.ID, nil
}

// GetDueTasks returns enabled tasks whose next run time has passed.
func (s *Scheduler) GetDueTasks(ctx context.Context) ([]*models.ScheduledTask, error) {
	return s.persistence.Tasks().ListDue(ctx, s.now())
}

// ExecuteTask runs one task by ID: dispatches to the registered handler,
// records an execution, advances the task's schedule, and notifies the
// task's recipients of the outcome (failures included).
func (s *Scheduler) ExecuteTask(ctx context.Context, taskID string) (*models.TaskExecution, error) {
	task, err := s.persistence.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, task)
}

func (s *Scheduler) execute(ctx context.Context, task *models.ScheduledTask) (*models.TaskExecution, error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, s.tracer, "scheduler.execute_task",
			attribute.String(otelhelper.TaskIDKey, task.ID),
			attribute.String(otelhelper.TaskTypeKey, string(task.Type)),
			attribute.String(otelhelper.TenantIDKey, task.TenantID),
		)
		defer span.End()
	}

	started := s.now().UTC()
	execution := &models.TaskExecution{
		ID:        "task-exec-" + uuid.New().String()[:8],
		TaskID:    task.ID,
		StartedAt: started,
		Status:    models.StatusRunning,
	}

	if err := s.persistence.TaskExecutions().Create(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to record task execution: %w", err)
	}

	output, runErr := s.runHandler(ctx, task)

	completed := s.now().UTC()
	execution.CompletedAt = &completed
	execution.Duration = completed.Sub(started)
	execution.Output = output

	if runErr != nil {
		execution.Status = models.StatusFailed
		execution.Error = runErr.Error()

		if span != nil {
			otelhelper.SetError(span, runErr)
		}

		s.logger.ErrorContext(ctx, "task failed",
			"task_id", task.ID, "type", task.Type, "error", runErr)
	} else {
		execution.Status = models.StatusSuccess
		s.logger.InfoContext(ctx, "task completed",
			"task_id", task.ID, "type", task.Type, "duration", execution.Duration)
	}

	if err := s.persistence.TaskExecutions().Update(ctx, execution); err != nil {
		s.logger.ErrorContext(ctx, "failed to update task execution",
			"execution_id", execution.ID, "error", err)
	}

	if err := s.advance(ctx, task, execution); err != nil {
		s.logger.ErrorContext(ctx, "failed to advance task schedule",
			"task_id", task.ID, "error", err)
	}

	if len(task.Recipients) > 0 {
		s.dispatcher.DispatchTaskCompletion(ctx, task, execution)
	}

	return execution, nil
}

func (s *Scheduler) runHandler(ctx context.Context, task *models.ScheduledTask) (map[string]any, error) {
	handler, err := s.registry.TaskHandler(task.Type)
	if err != nil {
		return nil, err
	}

	return handler.Execute(ctx, task, s.logger)
}

// advance stamps the last run and recomputes the next one.
func (s *Scheduler) advance(ctx context.Context, task *models.ScheduledTask, execution *models.TaskExecution) error {
	now := s.now()

	nextRun, err := NextRun(task.Frequency, task.CronExpression, now)
	if err != nil && task.Frequency != models.FrequencyCustom {
		return err
	}

	if err != nil {
		s.logger.WarnContext(ctx, "cron expression invalid, using fallback cadence",
			"task_id", task.ID, "error", err)
	}

	lastRun := now.UTC()
	task.LastRunAt = &lastRun
	task.LastRunStatus = string(execution.Status)
	task.NextRunAt = nextRun
	task.UpdatedAt = lastRun

	return s.persistence.Tasks().Update(ctx, task)
}

// RunScheduler executes all currently due tasks sequentially. A failing task
// is logged and does not prevent the tasks behind it from running.
func (s *Scheduler) RunScheduler(ctx context.Context) error {
	owned, err := s.locker.Acquire(ctx)
	if err != nil {
		return err
	}

	if !owned {
		s.logger.DebugContext(ctx, "scheduler tick skipped, lock held elsewhere")
		return nil
	}

	defer func() {
		if err := s.locker.Release(ctx); err != nil {
			s.logger.ErrorContext(ctx, "failed to release scheduler lock", "error", err)
		}
	}()

	due, err := s.GetDueTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list due tasks: %w", err)
	}

	s.logger.InfoContext(ctx, "scheduler tick", "due_tasks", len(due))

	for _, task := range due {
		if _, err := s.execute(ctx, task); err != nil {
			s.logger.ErrorContext(ctx, "task execution aborted",
				"task_id", task.ID, "error", err)
		}
	}

	return nil
}

// Start runs a tick immediately, then on a fixed interval until the context
// is cancelled.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	s.logger.InfoContext(ctx, "scheduler started", "interval", interval)

	if err := s.RunScheduler(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduler tick failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunScheduler(ctx); err != nil {
				s.logger.ErrorContext(ctx, "scheduler tick failed", "error", err)
			}
		}
	}
}
