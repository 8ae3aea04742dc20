// Package adjust_inventory implements the stock adjustment workflow action.
package adjust_inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/template"
)

// AdjustInventoryAction applies a signed quantity delta to an item's on-hand
// stock and records the matching adjustment movement.
type AdjustInventoryAction struct {
	ItemID string
	Delta  float64
	Reason string

	persistence persistence.Persistence
}

func NewAdjustInventoryAction(config map[string]any, p persistence.Persistence) (*AdjustInventoryAction, error) {
	delta, ok := config["quantity"].(float64)
	if !ok {
		return nil, errors.New("quantity is required and must be a number")
	}

	if delta == 0 {
		return nil, errors.New("quantity must be non-zero")
	}

	itemID, _ := config["item_id"].(string)
	reason, _ := config["reason"].(string)

	if reason == "" {
		reason = "workflow adjustment"
	}

	return &AdjustInventoryAction{
		ItemID:      itemID,
		Delta:       delta,
		Reason:      reason,
		persistence: p,
	}, nil
}

func (a *AdjustInventoryAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	itemID := template.Render(a.ItemID, tctx.Data)
	if itemID == "" {
		itemID, _ = tctx.Data["item_id"].(string)
	}

	if itemID == "" {
		return models.ActionResult{}, errors.New("no item to adjust: configuration and trigger context both lack item_id")
	}

	reason := template.Render(a.Reason, tctx.Data)

	if err := a.persistence.Inventory().AdjustStock(ctx, tctx.TenantID, itemID, a.Delta, reason); err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to adjust stock for item %s: %w", itemID, err)
	}

	logger.InfoContext(ctx, "inventory adjusted", "item_id", itemID, "delta", a.Delta)

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("adjusted item %s by %s", itemID, strconv.FormatFloat(a.Delta, 'f', -1, 64)),
	}, nil
}
