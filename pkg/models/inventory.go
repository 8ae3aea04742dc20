package models

import "time"

// Domain read models. These entities are owned by the surrounding
// application; the automation engine only reads them (and performs the
// narrow writes the action handlers need) through the persistence layer.

// Item is a stocked product at a site.
type Item struct {
	ID           string  `json:"id"`
	TenantID     string  `json:"tenant_id"`
	SiteID       string  `json:"site_id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	OnHand       float64 `json:"on_hand"`
	ReorderPoint float64 `json:"reorder_point"`
	UnitCost     float64 `json:"unit_cost"`
	Status       string  `json:"status"`
}

// Lot is a produced batch with an optional expiration date.
type Lot struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	SiteID    string     `json:"site_id"`
	ItemID    string     `json:"item_id"`
	LotNumber string     `json:"lot_number"`
	Quantity  float64    `json:"quantity"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ProductionOrder tracks manufacturing work with a scheduled end date.
type ProductionOrder struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	SiteID       string    `json:"site_id"`
	Number       string    `json:"number"`
	ItemID       string    `json:"item_id"`
	Status       string    `json:"status"`
	ScheduledEnd time.Time `json:"scheduled_end"`
}

// PurchaseOrder tracks inbound supply with an expected delivery date.
type PurchaseOrder struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	SiteID           string    `json:"site_id"`
	Number           string    `json:"number"`
	SupplierID       string    `json:"supplier_id"`
	ItemID           string    `json:"item_id"`
	Quantity         float64   `json:"quantity"`
	Status           string    `json:"status"`
	ExpectedDelivery time.Time `json:"expected_delivery"`
	CreatedAt        time.Time `json:"created_at"`
}

// MovementType classifies a stock movement event.
type MovementType string

const (
	MovementConsumption MovementType = "consumption"
	MovementReceipt     MovementType = "receipt"
	MovementAdjustment  MovementType = "adjustment"
	MovementTransfer    MovementType = "transfer"
)

// StockMovement is one inventory movement event.
type StockMovement struct {
	ID         string       `json:"id"`
	TenantID   string       `json:"tenant_id"`
	SiteID     string       `json:"site_id"`
	ItemID     string       `json:"item_id"`
	Type       MovementType `json:"type"`
	Quantity   float64      `json:"quantity"`
	Reason     string       `json:"reason,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Order statuses shared by production and purchase orders.
const (
	OrderStatusOpen      = "open"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)
