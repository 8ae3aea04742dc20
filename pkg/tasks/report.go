// Package tasks implements the handlers scheduled tasks dispatch to.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// ReportHandler generates inventory summary reports. The report payload is
// returned on the task execution; rendering to PDF or a dashboard is the
// surrounding application's concern.
type ReportHandler struct {
	persistence persistence.Persistence
}

func NewReportHandler(p persistence.Persistence) *ReportHandler {
	return &ReportHandler{persistence: p}
}

func (h *ReportHandler) ID() models.TaskType {
	return models.TaskReport
}

func (h *ReportHandler) Execute(ctx context.Context, task *models.ScheduledTask, logger *slog.Logger) (map[string]any, error) {
	reportType, _ := task.Configuration["report_type"].(string)
	if reportType == "" {
		reportType = "stock_levels"
	}

	siteID, _ := task.Configuration["site_id"].(string)

	return h.Run(ctx, task.TenantID, reportType, map[string]any{"site_id": siteID})
}

// Run generates a report directly; the run_report workflow action uses this
// as its runner.
func (h *ReportHandler) Run(ctx context.Context, tenantID, reportType string, params map[string]any) (map[string]any, error) {
	siteID, _ := params["site_id"].(string)

	switch reportType {
	case "stock_levels":
		return h.stockLevels(ctx, tenantID, siteID)
	case "inventory_valuation":
		return h.inventoryValuation(ctx, tenantID, siteID)
	default:
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}
}

func (h *ReportHandler) stockLevels(ctx context.Context, tenantID, siteID string) (map[string]any, error) {
	items, err := h.persistence.Inventory().Items(ctx, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	var belowReorder, outOfStock int

	rows := make([]map[string]any, 0, len(items))

	for _, item := range items {
		if item.OnHand <= 0 {
			outOfStock++
		} else if item.ReorderPoint > 0 && item.OnHand <= item.ReorderPoint {
			belowReorder++
		}

		rows = append(rows, map[string]any{
			"sku":           item.SKU,
			"name":          item.Name,
			"on_hand":       item.OnHand,
			"reorder_point": item.ReorderPoint,
		})
	}

	return map[string]any{
		"report_type":   "stock_levels",
		"generated_at":  time.Now().UTC().Format(time.RFC3339),
		"rows":          len(rows),
		"items":         rows,
		"below_reorder": belowReorder,
		"out_of_stock":  outOfStock,
	}, nil
}

func (h *ReportHandler) inventoryValuation(ctx context.Context, tenantID, siteID string) (map[string]any, error) {
	items, err := h.persistence.Inventory().Items(ctx, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	var total float64

	rows := make([]map[string]any, 0, len(items))

	for _, item := range items {
		value := item.OnHand * item.UnitCost
		total += value

		rows = append(rows, map[string]any{
			"sku":   item.SKU,
			"name":  item.Name,
			"value": value,
		})
	}

	return map[string]any{
		"report_type":  "inventory_valuation",
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"rows":         len(rows),
		"items":        rows,
		"total_value":  total,
	}, nil
}
