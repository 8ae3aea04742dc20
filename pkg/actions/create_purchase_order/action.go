// Package create_purchase_order implements the replenishment workflow action.
package create_purchase_order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/template"
)

const defaultLeadTimeDays = 7

// CreatePurchaseOrderAction opens a purchase order for an item. The item and
// quantity can come from the configuration or from the trigger context (the
// usual wiring for reorder-point workflows).
type CreatePurchaseOrderAction struct {
	ItemID       string
	SupplierID   string
	SiteID       string
	Quantity     float64
	LeadTimeDays int

	persistence persistence.Persistence
}

func NewCreatePurchaseOrderAction(config map[string]any, p persistence.Persistence) (*CreatePurchaseOrderAction, error) {
	itemID, _ := config["item_id"].(string)
	supplierID, _ := config["supplier_id"].(string)
	siteID, _ := config["site_id"].(string)

	var quantity float64
	if q, ok := config["quantity"].(float64); ok {
		quantity = q
	}

	leadTime := defaultLeadTimeDays
	if days, ok := config["lead_time_days"].(float64); ok && days > 0 {
		leadTime = int(days)
	}

	return &CreatePurchaseOrderAction{
		ItemID:       itemID,
		SupplierID:   supplierID,
		SiteID:       siteID,
		Quantity:     quantity,
		LeadTimeDays: leadTime,
		persistence:  p,
	}, nil
}

func (a *CreatePurchaseOrderAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	itemID := template.Render(a.ItemID, tctx.Data)
	if itemID == "" {
		itemID, _ = tctx.Data["item_id"].(string)
	}

	if itemID == "" {
		return models.ActionResult{}, errors.New("no item to order: configuration and trigger context both lack item_id")
	}

	item, err := a.persistence.Inventory().ItemByID(ctx, tctx.TenantID, itemID)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to load item %s: %w", itemID, err)
	}

	quantity := a.Quantity
	if quantity <= 0 {
		quantity = reorderQuantity(item)
	}

	siteID := a.SiteID
	if siteID == "" {
		siteID = item.SiteID
	}

	now := time.Now().UTC()
	order := &models.PurchaseOrder{
		ID:               uuid.New().String(),
		TenantID:         tctx.TenantID,
		SiteID:           siteID,
		Number:           "PO-" + now.Format("20060102") + "-" + uuid.New().String()[:8],
		SupplierID:       template.Render(a.SupplierID, tctx.Data),
		ItemID:           itemID,
		Quantity:         quantity,
		Status:           models.OrderStatusOpen,
		ExpectedDelivery: now.AddDate(0, 0, a.LeadTimeDays),
		CreatedAt:        now,
	}

	if err := a.persistence.Inventory().CreatePurchaseOrder(ctx, order); err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to create purchase order: %w", err)
	}

	logger.InfoContext(ctx, "purchase order created",
		"order_number", order.Number, "item_id", itemID, "quantity", quantity)

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("purchase order %s created for %s units of %s",
			order.Number, strconv.FormatFloat(quantity, 'f', -1, 64), item.SKU),
	}, nil
}

// reorderQuantity covers the item back to twice its reorder point, the stock
// level the monitor stops flagging at with room for consumption during lead
// time.
func reorderQuantity(item *models.Item) float64 {
	target := item.ReorderPoint * 2
	if target <= 0 {
		return 1
	}

	quantity := target - item.OnHand
	if quantity < 1 {
		quantity = 1
	}

	return quantity
}
