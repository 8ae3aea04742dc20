package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

const defaultRetentionDays = 90

// CleanupHandler purges old execution records and resolved alerts past the
// configured retention window.
type CleanupHandler struct {
	persistence persistence.Persistence
}

func NewCleanupHandler(p persistence.Persistence) *CleanupHandler {
	return &CleanupHandler{persistence: p}
}

func (h *CleanupHandler) ID() models.TaskType {
	return models.TaskCleanup
}

func (h *CleanupHandler) Execute(ctx context.Context, task *models.ScheduledTask, logger *slog.Logger) (map[string]any, error) {
	retention := defaultRetentionDays
	if days, ok := task.Configuration["retention_days"].(float64); ok && days > 0 {
		retention = int(days)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retention)

	workflowExecs, err := h.persistence.WorkflowExecutions().PurgeBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge workflow executions: %w", err)
	}

	taskExecs, err := h.persistence.TaskExecutions().PurgeBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge task executions: %w", err)
	}

	alerts, err := h.persistence.Alerts().PurgeResolvedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge resolved alerts: %w", err)
	}

	logger.InfoContext(ctx, "cleanup completed",
		"cutoff", cutoff,
		"workflow_executions", workflowExecs,
		"task_executions", taskExecs,
		"resolved_alerts", alerts)

	return map[string]any{
		"cutoff":              cutoff.Format(time.RFC3339),
		"workflow_executions": workflowExecs,
		"task_executions":     taskExecs,
		"resolved_alerts":     alerts,
	}, nil
}
