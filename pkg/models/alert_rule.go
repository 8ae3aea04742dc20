package models

import "time"

// AlertRule is the first-class configuration for a breach category: whether
// the scan runs, how long the same breach is suppressed after firing, and who
// gets notified. Severity itself is decided by the category scanner since it
// depends on how far past the threshold the entity is.
type AlertRule struct {
	Type       AlertType     `json:"type"     validate:"required"`
	Enabled    bool          `json:"enabled"`
	Cooldown   time.Duration `json:"cooldown"`
	Recipients []string      `json:"recipients,omitempty"`
}

// DefaultAlertRules returns the built-in rule set, one per scanned category.
// Callers may override individual rules before handing them to the monitor.
func DefaultAlertRules() map[AlertType]AlertRule {
	rules := make(map[AlertType]AlertRule)

	for _, t := range []AlertType{
		AlertLowStock,
		AlertOutOfStock,
		AlertExpiringInventory,
		AlertSlowMoving,
		AlertProductionDelay,
		AlertPurchaseOrderDue,
	} {
		rules[t] = AlertRule{
			Type:     t,
			Enabled:  true,
			Cooldown: 24 * time.Hour,
		}
	}

	return rules
}
