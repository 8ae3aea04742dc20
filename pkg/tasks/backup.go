package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// BackupHandler snapshots the tenant's automation records (workflows and
// scheduled tasks) to a JSON file. Domain data backup belongs to the
// database, not this engine.
type BackupHandler struct {
	persistence persistence.Persistence
}

func NewBackupHandler(p persistence.Persistence) *BackupHandler {
	return &BackupHandler{persistence: p}
}

func (h *BackupHandler) ID() models.TaskType {
	return models.TaskBackup
}

func (h *BackupHandler) Execute(ctx context.Context, task *models.ScheduledTask, logger *slog.Logger) (map[string]any, error) {
	directory, _ := task.Configuration["directory"].(string)
	if directory == "" {
		directory = os.TempDir()
	}

	workflows, err := h.persistence.Workflows().List(ctx, task.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	scheduled, err := h.persistence.Tasks().List(ctx, task.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	snapshot := map[string]any{
		"tenant_id": task.TenantID,
		"taken_at":  time.Now().UTC().Format(time.RFC3339),
		"workflows": workflows,
		"tasks":     scheduled,
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	filename := filepath.Join(directory,
		fmt.Sprintf("automation-backup-%s-%s.json", task.TenantID, time.Now().UTC().Format("20060102T150405")))

	if err := os.WriteFile(filename, payload, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}

	logger.InfoContext(ctx, "backup written",
		"file", filename, "workflows", len(workflows), "tasks", len(scheduled))

	return map[string]any{
		"file":      filename,
		"workflows": len(workflows),
		"tasks":     len(scheduled),
	}, nil
}
