package tasks

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// ExportHandler writes the tenant's item list to a CSV file in the
// configured directory.
type ExportHandler struct {
	persistence persistence.Persistence
}

func NewExportHandler(p persistence.Persistence) *ExportHandler {
	return &ExportHandler{persistence: p}
}

func (h *ExportHandler) ID() models.TaskType {
	return models.TaskExport
}

func (h *ExportHandler) Execute(ctx context.Context, task *models.ScheduledTask, logger *slog.Logger) (map[string]any, error) {
	directory, _ := task.Configuration["directory"].(string)
	if directory == "" {
		directory = os.TempDir()
	}

	siteID, _ := task.Configuration["site_id"].(string)

	items, err := h.persistence.Inventory().Items(ctx, task.TenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	filename := filepath.Join(directory,
		fmt.Sprintf("items-%s-%s.csv", task.TenantID, time.Now().UTC().Format("20060102T150405")))

	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"sku", "name", "site_id", "on_hand", "reorder_point", "unit_cost", "status"}); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.SKU,
			item.Name,
			item.SiteID,
			strconv.FormatFloat(item.OnHand, 'f', -1, 64),
			strconv.FormatFloat(item.ReorderPoint, 'f', -1, 64),
			strconv.FormatFloat(item.UnitCost, 'f', -1, 64),
			item.Status,
		}

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}

	logger.InfoContext(ctx, "export written", "file", filename, "rows", len(items))

	return map[string]any{
		"file": filename,
		"rows": len(items),
	}, nil
}
