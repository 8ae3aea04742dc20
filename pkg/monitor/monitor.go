// Package monitor implements the threshold monitor: per-category scans over
// a tenant's inventory state that emit immutable alert records.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/otelhelper"
	"github.com/stockflow-io/stockflow/pkg/persistence"
)

// Monitor scans domain state for breach conditions. Each category runs
// independently; one category's scan failure never suppresses the others.
type Monitor struct {
	persistence persistence.Persistence
	dispatcher  *notifier.Dispatcher
	rules       map[models.AlertType]models.AlertRule
	tracer      trace.Tracer
	logger      *slog.Logger

	now func() time.Time
}

func NewMonitor(p persistence.Persistence, d *notifier.Dispatcher, rules map[models.AlertType]models.AlertRule, tracer trace.Tracer, logger *slog.Logger) *Monitor {
	if rules == nil {
		rules = models.DefaultAlertRules()
	}

	return &Monitor{
		persistence: p,
		dispatcher:  d,
		rules:       rules,
		tracer:      tracer,
		logger:      logger.With("module", "monitor"),
		now:         time.Now,
	}
}

type scanner struct {
	alertType models.AlertType
	run       func(ctx context.Context, tenantID, siteID string) ([]*models.Alert, error)
}

// CheckAlerts runs every enabled category scan for the tenant, persists and
// dispatches the resulting alerts, and returns them. Scan failures are
// collected per category and joined into the returned error; alerts from the
// categories that succeeded are still persisted and returned.
func (m *Monitor) CheckAlerts(ctx context.Context, tenantID, siteID string) ([]*models.Alert, error) {
	var span trace.Span
	if m.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, m.tracer, "monitor.check_alerts",
			attribute.String(otelhelper.TenantIDKey, tenantID))
		defer span.End()
	}

	scanners := []scanner{
		{models.AlertLowStock, m.scanLowStock},
		{models.AlertOutOfStock, m.scanOutOfStock},
		{models.AlertExpiringInventory, m.scanExpiring},
		{models.AlertSlowMoving, m.scanSlowMoving},
		{models.AlertProductionDelay, m.scanProductionDelay},
		{models.AlertPurchaseOrderDue, m.scanPurchaseOrderDue},
	}

	var (
		alerts   []*models.Alert
		scanErrs []error
	)

	for _, s := range scanners {
		rule, ok := m.rules[s.alertType]
		if !ok || !rule.Enabled {
			continue
		}

		found, err := s.run(ctx, tenantID, siteID)
		if err != nil {
			m.logger.ErrorContext(ctx, "category scan failed",
				"alert_type", s.alertType, "error", err)
			scanErrs = append(scanErrs, fmt.Errorf("%s scan: %w", s.alertType, err))

			continue
		}

		alerts = append(alerts, found...)
	}

	triggered := make([]*models.Alert, 0, len(alerts))

	for _, alert := range alerts {
		created, err := m.raise(ctx, alert)
		if err != nil {
			scanErrs = append(scanErrs, fmt.Errorf("raising %s alert for %s: %w", alert.Type, alert.EntityID, err))
			continue
		}

		if created {
			triggered = append(triggered, alert)
		}
	}

	err := errors.Join(scanErrs...)
	if err != nil && span != nil {
		otelhelper.SetError(span, err)
	}

	m.logger.InfoContext(ctx, "alert check completed",
		"tenant_id", tenantID, "triggered", len(triggered), "scan_errors", len(scanErrs))

	return triggered, err
}

// raise persists and dispatches the alert unless the same breach (tenant,
// type, entity) fired within the category's cooldown window.
func (m *Monitor) raise(ctx context.Context, alert *models.Alert) (bool, error) {
	rule := m.rules[alert.Type]

	if rule.Cooldown > 0 {
		latest, err := m.persistence.Alerts().LatestForEntity(ctx, alert.TenantID, alert.Type, alert.EntityID)

		switch {
		case err == nil:
			if m.now().Sub(latest.TriggeredAt) < rule.Cooldown {
				m.logger.DebugContext(ctx, "alert suppressed by cooldown",
					"dedup_key", alert.DedupKey())

				return false, nil
			}
		case errors.Is(err, persistence.ErrAlertNotFound):
			// First occurrence for this entity.
		default:
			return false, fmt.Errorf("cooldown lookup failed: %w", err)
		}
	}

	if err := m.persistence.Alerts().Create(ctx, alert); err != nil {
		return false, fmt.Errorf("failed to persist alert: %w", err)
	}

	if err := m.dispatcher.DispatchAlert(ctx, alert); err != nil {
		return false, fmt.Errorf("failed to dispatch alert: %w", err)
	}

	return true, nil
}

// Acknowledge marks an alert as seen. Acknowledging twice keeps the first
// acknowledgement.
func (m *Monitor) Acknowledge(ctx context.Context, alertID, userID string) (*models.Alert, error) {
	alert, err := m.persistence.Alerts().GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	alert.Acknowledge(userID, m.now().UTC())

	if err := m.persistence.Alerts().Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to save acknowledgement: %w", err)
	}

	return alert, nil
}

// Resolve marks an alert resolved. Resolution is terminal.
func (m *Monitor) Resolve(ctx context.Context, alertID string) (*models.Alert, error) {
	alert, err := m.persistence.Alerts().GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	alert.Resolve(m.now().UTC())

	if err := m.persistence.Alerts().Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to save resolution: %w", err)
	}

	return alert, nil
}
