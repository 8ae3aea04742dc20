// Package update_item implements the item field update workflow action.
package update_item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/template"
)

// UpdateItemAction patches a whitelisted set of item fields. String values
// in the fields map support template tokens.
type UpdateItemAction struct {
	ItemID string
	Fields map[string]any

	persistence persistence.Persistence
}

func NewUpdateItemAction(config map[string]any, p persistence.Persistence) (*UpdateItemAction, error) {
	fields, ok := config["fields"].(map[string]any)
	if !ok || len(fields) == 0 {
		return nil, errors.New("fields is required and must be a non-empty object")
	}

	itemID, _ := config["item_id"].(string)

	return &UpdateItemAction{
		ItemID:      itemID,
		Fields:      fields,
		persistence: p,
	}, nil
}

func (a *UpdateItemAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	itemID := template.Render(a.ItemID, tctx.Data)
	if itemID == "" {
		itemID, _ = tctx.Data["item_id"].(string)
	}

	if itemID == "" {
		return models.ActionResult{}, errors.New("no item to update: configuration and trigger context both lack item_id")
	}

	fields := template.RenderConfig(a.Fields, tctx.Data)

	if err := a.persistence.Inventory().UpdateItem(ctx, tctx.TenantID, itemID, fields); err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to update item %s: %w", itemID, err)
	}

	logger.InfoContext(ctx, "item updated", "item_id", itemID, "fields", len(fields))

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("updated %d field(s) on item %s", len(fields), itemID),
	}, nil
}
