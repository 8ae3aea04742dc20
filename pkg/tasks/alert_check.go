package tasks

import (
	"context"
	"log/slog"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/monitor"
)

// AlertCheckHandler delegates a scheduled alert sweep to the threshold
// monitor. Partial scan failures surface on the execution error while the
// alerts that did fire are still reported in the output.
type AlertCheckHandler struct {
	monitor *monitor.Monitor
}

func NewAlertCheckHandler(m *monitor.Monitor) *AlertCheckHandler {
	return &AlertCheckHandler{monitor: m}
}

func (h *AlertCheckHandler) ID() models.TaskType {
	return models.TaskAlertCheck
}

func (h *AlertCheckHandler) Execute(ctx context.Context, task *models.ScheduledTask, logger *slog.Logger) (map[string]any, error) {
	siteID, _ := task.Configuration["site_id"].(string)

	alerts, err := h.monitor.CheckAlerts(ctx, task.TenantID, siteID)

	byType := make(map[string]int)
	for _, alert := range alerts {
		byType[string(alert.Type)]++
	}

	output := map[string]any{
		"triggered": len(alerts),
		"by_type":   byType,
	}

	if err != nil {
		return output, err
	}

	logger.InfoContext(ctx, "alert check sweep completed",
		"tenant_id", task.TenantID, "triggered", len(alerts))

	return output, nil
}
