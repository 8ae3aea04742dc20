package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

const syncTimeout = 60 * time.Second

// SyncHandler pushes the tenant's current stock levels to a configured
// external endpoint.
type SyncHandler struct {
	persistence persistence.Persistence
	client      *http.Client
}

func NewSyncHandler(p persistence.Persistence) *SyncHandler {
	return &SyncHandler{
		persistence: p,
		client:      &http.Client{},
	}
}

func (h *SyncHandler) ID() models.TaskType {
	return models.TaskSync
}

func (h *SyncHandler) Execute(ctx context.Context, task *models.ScheduledTask, logger *slog.Logger) (map[string]any, error) {
	endpoint, _ := task.Configuration["endpoint"].(string)
	if endpoint == "" {
		return nil, errors.New("sync task requires an endpoint in its configuration")
	}

	siteID, _ := task.Configuration["site_id"].(string)

	items, err := h.persistence.Inventory().Items(ctx, task.TenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	levels := make([]map[string]any, 0, len(items))
	for _, item := range items {
		levels = append(levels, map[string]any{
			"sku":     item.SKU,
			"site_id": item.SiteID,
			"on_hand": item.OnHand,
		})
	}

	payload, err := json.Marshal(map[string]any{
		"tenant_id": task.TenantID,
		"synced_at": time.Now().UTC().Format(time.RFC3339),
		"items":     levels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build sync request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sync request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("sync endpoint returned status %d", resp.StatusCode)
	}

	logger.InfoContext(ctx, "inventory synced", "endpoint", endpoint, "items", len(items))

	return map[string]any{
		"endpoint": endpoint,
		"items":    len(items),
	}, nil
}
