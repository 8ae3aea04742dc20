// Package models defines the core domain models for the inventory automation engine.
package models

import (
	"fmt"
	"time"
)

// AlertType identifies the breach category that produced an alert.
type AlertType string

const (
	AlertLowStock            AlertType = "low_stock"
	AlertOutOfStock          AlertType = "out_of_stock"
	AlertOverstock           AlertType = "overstock"
	AlertExpiringInventory   AlertType = "expiring_inventory"
	AlertQualityIssue        AlertType = "quality_issue"
	AlertCycleCountVariance  AlertType = "cycle_count_variance"
	AlertSlowMoving          AlertType = "slow_moving"
	AlertProductionDelay     AlertType = "production_delay"
	AlertPurchaseOrderDue    AlertType = "purchase_order_due"
	AlertReorderPointReached AlertType = "reorder_point_reached"
	AlertSafetyStockBreach   AlertType = "safety_stock_breach"
	AlertHighScrapRate       AlertType = "high_scrap_rate"
)

// AlertSeverity is assigned once at creation and never changes afterwards.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is an immutable record of a detected breach condition. Only the
// acknowledgement and resolution fields are mutated after creation.
type Alert struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"      validate:"required"`
	Type           AlertType      `json:"type"           validate:"required"`
	Severity       AlertSeverity  `json:"severity"       validate:"required"`
	Title          string         `json:"title"          validate:"required"`
	Message        string         `json:"message"`
	EntityType     string         `json:"entity_type"`
	EntityID       string         `json:"entity_id"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	TriggeredAt    time.Time      `json:"triggered_at"`
	AcknowledgedBy string         `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitempty"`
	Resolved       bool           `json:"resolved"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
}

// DedupKey is the stable identity used for cooldown suppression: re-scanning
// the same breach within a rule's cooldown window must not produce a second
// alert row.
func (a *Alert) DedupKey() string {
	return fmt.Sprintf("%s:%s:%s", a.TenantID, a.Type, a.EntityID)
}

// Acknowledge marks the alert as seen by a user. Acknowledging twice keeps
// the original acknowledgement.
func (a *Alert) Acknowledge(userID string, at time.Time) {
	if a.AcknowledgedAt != nil {
		return
	}

	a.AcknowledgedBy = userID
	a.AcknowledgedAt = &at
}

// Resolve marks the alert resolved. Resolution is terminal.
func (a *Alert) Resolve(at time.Time) {
	a.Resolved = true
	a.ResolvedAt = &at
}
