// Package update_status implements the order status transition workflow action.
package update_status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/template"
)

// UpdateStatusAction moves a production or purchase order to a new status.
type UpdateStatusAction struct {
	EntityType string
	EntityID   string
	Status     string

	persistence persistence.Persistence
}

func NewUpdateStatusAction(config map[string]any, p persistence.Persistence) (*UpdateStatusAction, error) {
	entityType, _ := config["entity_type"].(string)
	if entityType != "production_order" && entityType != "purchase_order" {
		return nil, fmt.Errorf("entity_type must be production_order or purchase_order, got %q", entityType)
	}

	status, _ := config["status"].(string)
	if status == "" {
		return nil, errors.New("status is required")
	}

	entityID, _ := config["entity_id"].(string)

	return &UpdateStatusAction{
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      status,
		persistence: p,
	}, nil
}

func (a *UpdateStatusAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	entityID := template.Render(a.EntityID, tctx.Data)
	if entityID == "" {
		entityID, _ = tctx.Data["entity_id"].(string)
	}

	if entityID == "" {
		return models.ActionResult{}, errors.New("no entity to update: configuration and trigger context both lack entity_id")
	}

	if err := a.persistence.Inventory().UpdateOrderStatus(ctx, tctx.TenantID, a.EntityType, entityID, a.Status); err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to update %s %s: %w", a.EntityType, entityID, err)
	}

	logger.InfoContext(ctx, "order status updated",
		"entity_type", a.EntityType, "entity_id", entityID, "status", a.Status)

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("%s %s moved to %s", a.EntityType, entityID, a.Status),
	}, nil
}
