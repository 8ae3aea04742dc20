package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/stockflow-io/stockflow/pkg/models"
)

const (
	lowStockCriticalRatio = 0.5
	consumptionWindow     = 30 * 24 * time.Hour
	slowMovingWindow      = 90 * 24 * time.Hour
	expiryHorizon         = 30 * 24 * time.Hour
	productionCritical    = 7 * 24 * time.Hour
	deliveryHorizon       = 7 * 24 * time.Hour
	deliveryWarning       = 2 * 24 * time.Hour
)

// scanLowStock flags items sitting at or below their reorder point but not
// yet out of stock. The message carries a stockout horizon estimated from
// trailing 30-day consumption.
func (m *Monitor) scanLowStock(ctx context.Context, tenantID, siteID string) ([]*models.Alert, error) {
	items, err := m.persistence.Inventory().Items(ctx, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	var alerts []*models.Alert

	for _, item := range items {
		if item.ReorderPoint <= 0 || item.OnHand <= 0 || item.OnHand > item.ReorderPoint {
			continue
		}

		severity := models.SeverityWarning
		if item.OnHand <= item.ReorderPoint*lowStockCriticalRatio {
			severity = models.SeverityCritical
		}

		horizon, err := m.stockoutHorizon(ctx, item)
		if err != nil {
			return nil, err
		}

		alerts = append(alerts, m.newAlert(tenantID, models.AlertLowStock, severity,
			fmt.Sprintf("Low stock: %s", item.Name),
			fmt.Sprintf("%s has %.0f units on hand (reorder point %.0f). %s",
				item.SKU, item.OnHand, item.ReorderPoint, horizon),
			"item", item.ID,
			map[string]any{
				"sku":           item.SKU,
				"on_hand":       item.OnHand,
				"reorder_point": item.ReorderPoint,
			}))
	}

	return alerts, nil
}

// stockoutHorizon estimates days until stockout from trailing 30-day
// consumption volume. No consumption history means no measurable risk.
func (m *Monitor) stockoutHorizon(ctx context.Context, item *models.Item) (string, error) {
	since := m.now().Add(-consumptionWindow)

	movements, err := m.persistence.Inventory().Movements(ctx, item.TenantID, item.SiteID, since)
	if err != nil {
		return "", fmt.Errorf("failed to list movements: %w", err)
	}

	var consumed float64

	for _, mv := range movements {
		if mv.ItemID == item.ID && mv.Type == models.MovementConsumption {
			consumed += math.Abs(mv.Quantity)
		}
	}

	if consumed == 0 {
		return "No recent consumption; no immediate stockout risk.", nil
	}

	days := item.OnHand / (consumed / 30)

	return fmt.Sprintf("Estimated stockout in %.1f days at current consumption.", days), nil
}

// scanOutOfStock flags items with zero or negative on-hand quantity.
func (m *Monitor) scanOutOfStock(ctx context.Context, tenantID, siteID string) ([]*models.Alert, error) {
	items, err := m.persistence.Inventory().Items(ctx, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	var alerts []*models.Alert

	for _, item := range items {
		if item.OnHand > 0 {
			continue
		}

		alerts = append(alerts, m.newAlert(tenantID, models.AlertOutOfStock, models.SeverityCritical,
			fmt.Sprintf("Out of stock: %s", item.Name),
			fmt.Sprintf("%s has no stock on hand.", item.SKU),
			"item", item.ID,
			map[string]any{"sku": item.SKU, "on_hand": item.OnHand}))
	}

	return alerts, nil
}

// scanExpiring flags lots expiring within 30 days that still hold quantity.
func (m *Monitor) scanExpiring(ctx context.Context, tenantID, siteID string) ([]*models.Alert, error) {
	lots, err := m.persistence.Inventory().Lots(ctx, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}

	now := m.now()

	var alerts []*models.Alert

	for _, lot := range lots {
		if lot.ExpiresAt == nil || lot.Quantity <= 0 {
			continue
		}

		remaining := lot.ExpiresAt.Sub(now)
		if remaining < 0 || remaining > expiryHorizon {
			continue
		}

		severity := models.SeverityInfo

		switch {
		case remaining <= 7*24*time.Hour:
			severity = models.SeverityCritical
		case remaining <= 14*24*time.Hour:
			severity = models.SeverityWarning
		}

		days := int(remaining.Hours() / 24)

		alerts = append(alerts, m.newAlert(tenantID, models.AlertExpiringInventory, severity,
			fmt.Sprintf("Expiring inventory: lot %s", lot.LotNumber),
			fmt.Sprintf("Lot %s (%.0f units) expires in %d day(s).", lot.LotNumber, lot.Quantity, days),
			"lot", lot.ID,
			map[string]any{
				"lot_number": lot.LotNumber,
				"item_id":    lot.ItemID,
				"quantity":   lot.Quantity,
				"expires_at": lot.ExpiresAt.Format(time.RFC3339),
			}))
	}

	return alerts, nil
}

// scanSlowMoving flags stocked items with no movement in the trailing 90
// days and reports the inventory value at risk.
func (m *Monitor) scanSlowMoving(ctx context.Context, tenantID, siteID string) ([]*models.Alert, error) {
	items, err := m.persistence.Inventory().Items(ctx, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	since := m.now().Add(-slowMovingWindow)

	movements, err := m.persistence.Inventory().Movements(ctx, tenantID, siteID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	moved := make(map[string]bool, len(movements))
	for _, mv := range movements {
		moved[mv.ItemID] = true
	}

	var alerts []*models.Alert

	for _, item := range items {
		if item.OnHand <= 0 || moved[item.ID] {
			continue
		}

		value := item.OnHand * item.UnitCost

		alerts = append(alerts, m.newAlert(tenantID, models.AlertSlowMoving, models.SeverityInfo,
			fmt.Sprintf("Slow moving: %s", item.Name),
			fmt.Sprintf("%s has had no movement in 90 days; $%.2f of inventory at risk.", item.SKU, value),
			"item", item.ID,
			map[string]any{"sku": item.SKU, "on_hand": item.OnHand, "value_at_risk": value}))
	}

	return alerts, nil
}

// scanProductionDelay flags open production orders past their scheduled end.
func (m *Monitor) scanProductionDelay(ctx context.Context, tenantID, siteID string) ([]*models.Alert, error) {
	orders, err := m.persistence.Inventory().OpenProductionOrders(ctx, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list production orders: %w", err)
	}

	now := m.now()

	var alerts []*models.Alert

	for _, order := range orders {
		overdue := now.Sub(order.ScheduledEnd)
		if overdue <= 0 {
			continue
		}

		severity := models.SeverityWarning
		if overdue > productionCritical {
			severity = models.SeverityCritical
		}

		days := int(overdue.Hours() / 24)

		alerts = append(alerts, m.newAlert(tenantID, models.AlertProductionDelay, severity,
			fmt.Sprintf("Production delay: order %s", order.Number),
			fmt.Sprintf("Production order %s is %d day(s) past its scheduled end.", order.Number, days),
			"production_order", order.ID,
			map[string]any{"order_number": order.Number, "item_id": order.ItemID, "days_overdue": days}))
	}

	return alerts, nil
}

// scanPurchaseOrderDue flags open purchase orders expected within 7 days.
func (m *Monitor) scanPurchaseOrderDue(ctx context.Context, tenantID, siteID string) ([]*models.Alert, error) {
	orders, err := m.persistence.Inventory().OpenPurchaseOrders(ctx, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	now := m.now()

	var alerts []*models.Alert

	for _, order := range orders {
		until := order.ExpectedDelivery.Sub(now)
		if until < 0 || until > deliveryHorizon {
			continue
		}

		severity := models.SeverityInfo
		if until <= deliveryWarning {
			severity = models.SeverityWarning
		}

		days := int(until.Hours() / 24)

		alerts = append(alerts, m.newAlert(tenantID, models.AlertPurchaseOrderDue, severity,
			fmt.Sprintf("Purchase order due: %s", order.Number),
			fmt.Sprintf("Purchase order %s is expected in %d day(s).", order.Number, days),
			"purchase_order", order.ID,
			map[string]any{"order_number": order.Number, "supplier_id": order.SupplierID, "days_until": days}))
	}

	return alerts, nil
}

func (m *Monitor) newAlert(tenantID string, alertType models.AlertType, severity models.AlertSeverity, title, message, entityType, entityID string, metadata map[string]any) *models.Alert {
	return &models.Alert{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Type:        alertType,
		Severity:    severity,
		Title:       title,
		Message:     message,
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata:    metadata,
		TriggeredAt: m.now().UTC(),
	}
}
