package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// InventoryRepository reads the domain tables owned by the surrounding
// application and performs the narrow writes action handlers need.
type InventoryRepository struct {
	db *sql.DB
}

func (r *InventoryRepository) Items(ctx context.Context, tenantID, siteID string) ([]*models.Item, error) {
	query := `
		SELECT id, tenant_id, site_id, sku, name, on_hand, reorder_point, unit_cost, status
		FROM items
		WHERE tenant_id = $1 AND ($2 = '' OR site_id = $2)
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*models.Item, 0)

	for rows.Next() {
		var item models.Item

		err := rows.Scan(&item.ID, &item.TenantID, &item.SiteID, &item.SKU, &item.Name,
			&item.OnHand, &item.ReorderPoint, &item.UnitCost, &item.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (r *InventoryRepository) ItemByID(ctx context.Context, tenantID, itemID string) (*models.Item, error) {
	query := `
		SELECT id, tenant_id, site_id, sku, name, on_hand, reorder_point, unit_cost, status
		FROM items
		WHERE tenant_id = $1 AND id = $2
	`

	var item models.Item

	err := r.db.QueryRowContext(ctx, query, tenantID, itemID).Scan(
		&item.ID, &item.TenantID, &item.SiteID, &item.SKU, &item.Name,
		&item.OnHand, &item.ReorderPoint, &item.UnitCost, &item.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrItemNotFound
		}

		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	return &item, nil
}

func (r *InventoryRepository) Lots(ctx context.Context, tenantID, siteID string) ([]*models.Lot, error) {
	query := `
		SELECT id, tenant_id, site_id, item_id, lot_number, quantity, expires_at
		FROM lots
		WHERE tenant_id = $1 AND ($2 = '' OR site_id = $2)
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	lots := make([]*models.Lot, 0)

	for rows.Next() {
		var (
			lot       models.Lot
			expiresAt sql.NullTime
		)

		err := rows.Scan(&lot.ID, &lot.TenantID, &lot.SiteID, &lot.ItemID,
			&lot.LotNumber, &lot.Quantity, &expiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}

		if expiresAt.Valid {
			lot.ExpiresAt = &expiresAt.Time
		}

		lots = append(lots, &lot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}

	return lots, nil
}

func (r *InventoryRepository) OpenProductionOrders(ctx context.Context, tenantID, siteID string) ([]*models.ProductionOrder, error) {
	query := `
		SELECT id, tenant_id, site_id, number, item_id, status, scheduled_end
		FROM production_orders
		WHERE tenant_id = $1 AND ($2 = '' OR site_id = $2) AND status = 'open'
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query production orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	orders := make([]*models.ProductionOrder, 0)

	for rows.Next() {
		var order models.ProductionOrder

		err := rows.Scan(&order.ID, &order.TenantID, &order.SiteID, &order.Number,
			&order.ItemID, &order.Status, &order.ScheduledEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to scan production order: %w", err)
		}

		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating production orders: %w", err)
	}

	return orders, nil
}

func (r *InventoryRepository) OpenPurchaseOrders(ctx context.Context, tenantID, siteID string) ([]*models.PurchaseOrder, error) {
	query := `
		SELECT id, tenant_id, site_id, number, supplier_id, item_id, quantity, status, expected_delivery, created_at
		FROM purchase_orders
		WHERE tenant_id = $1 AND ($2 = '' OR site_id = $2) AND status = 'open'
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	orders := make([]*models.PurchaseOrder, 0)

	for rows.Next() {
		var order models.PurchaseOrder

		err := rows.Scan(&order.ID, &order.TenantID, &order.SiteID, &order.Number,
			&order.SupplierID, &order.ItemID, &order.Quantity, &order.Status,
			&order.ExpectedDelivery, &order.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}

		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase orders: %w", err)
	}

	return orders, nil
}

func (r *InventoryRepository) Movements(ctx context.Context, tenantID, siteID string, since time.Time) ([]*models.StockMovement, error) {
	query := `
		SELECT id, tenant_id, site_id, item_id, type, quantity, reason, occurred_at
		FROM stock_movements
		WHERE tenant_id = $1 AND ($2 = '' OR site_id = $2) AND occurred_at >= $3
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, siteID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	movements := make([]*models.StockMovement, 0)

	for rows.Next() {
		var (
			movement     models.StockMovement
			movementType string
		)

		err := rows.Scan(&movement.ID, &movement.TenantID, &movement.SiteID, &movement.ItemID,
			&movementType, &movement.Quantity, &movement.Reason, &movement.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}

		movement.Type = models.MovementType(movementType)
		movements = append(movements, &movement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock movements: %w", err)
	}

	return movements, nil
}

func (r *InventoryRepository) CreatePurchaseOrder(ctx context.Context, order *models.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, tenant_id, site_id, number, supplier_id, item_id, quantity, status, expected_delivery, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.TenantID, order.SiteID, order.Number, order.SupplierID,
		order.ItemID, order.Quantity, order.Status, order.ExpectedDelivery, order.CreatedAt)
	if err != nil {
		return persistence.NewRecordError("CreatePurchaseOrder", "purchase_order", order.ID, err)
	}

	return nil
}

func (r *InventoryRepository) AdjustStock(ctx context.Context, tenantID, itemID string, delta float64, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET on_hand = on_hand + $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, itemID, delta)
	if err != nil {
		_ = tx.Rollback()

		return persistence.NewRecordError("AdjustStock", "item", itemID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		_ = tx.Rollback()

		return persistence.ErrItemNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_movements (id, tenant_id, site_id, item_id, type, quantity, reason, occurred_at)
		SELECT $1, tenant_id, site_id, id, 'adjustment', $4, $5, $6 FROM items WHERE tenant_id = $2 AND id = $3
	`, uuid.New().String(), tenantID, itemID, delta, reason, time.Now().UTC())
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("failed to record adjustment movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	return nil
}

func (r *InventoryRepository) UpdateItem(ctx context.Context, tenantID, itemID string, fields map[string]any) error {
	allowed := map[string]string{
		"name":          "name",
		"status":        "status",
		"reorder_point": "reorder_point",
		"unit_cost":     "unit_cost",
	}

	set := ""
	args := []any{tenantID, itemID}

	for key, value := range fields {
		column, ok := allowed[key]
		if !ok {
			return fmt.Errorf("field %q is not updatable: %w", key, persistence.ErrItemNotFound)
		}

		args = append(args, normalizeValue(value))

		if set != "" {
			set += ", "
		}

		set += fmt.Sprintf("%s = $%d", column, len(args))
	}

	if set == "" {
		return nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE items SET `+set+` WHERE tenant_id = $1 AND id = $2`, args...)
	if err != nil {
		return persistence.NewRecordError("UpdateItem", "item", itemID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrItemNotFound
	}

	return nil
}

func (r *InventoryRepository) UpdateOrderStatus(ctx context.Context, tenantID, entityType, entityID, status string) error {
	var table string

	switch entityType {
	case "production_order":
		table = "production_orders"
	case "purchase_order":
		table = "purchase_orders"
	default:
		return fmt.Errorf("unknown order entity type %q: %w", entityType, persistence.ErrOrderNotFound)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE `+table+` SET status = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, entityID, status)
	if err != nil {
		return persistence.NewRecordError("UpdateOrderStatus", entityType, entityID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrOrderNotFound
	}

	return nil
}

// normalizeValue flattens JSON-decoded values into driver-friendly types.
func normalizeValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		b, err := json.Marshal(m)
		if err != nil {
			return nil
		}

		return b
	}

	return v
}
