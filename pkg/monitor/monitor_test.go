package monitor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/persistence/memory"
)

type fakeChannel struct {
	sent []string
}

func (c *fakeChannel) Send(_ context.Context, _ []string, subject, _ string) bool {
	c.sent = append(c.sent, subject)

	return true
}

func newTestMonitor(t *testing.T, p persistence.Persistence) (*Monitor, *fakeChannel) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	channel := &fakeChannel{}
	dispatcher := notifier.NewDispatcher(p, channel, "http://app.local", logger)

	return NewMonitor(p, dispatcher, models.DefaultAlertRules(), nil, logger), channel
}

func seedUser(p *memory.Persistence) {
	p.AddUser(&models.User{
		ID:       "u1",
		TenantID: "t1",
		Email:    "ops@example.com",
		Role:     models.RoleAdmin,
	})
}

func TestCheckAlerts_LowStock(t *testing.T) {
	tests := []struct {
		name             string
		onHand           float64
		reorderPoint     float64
		expectAlert      bool
		expectedSeverity models.AlertSeverity
	}{
		{name: "above reorder point", onHand: 20, reorderPoint: 10, expectAlert: false},
		{name: "at reorder point is warning", onHand: 10, reorderPoint: 10, expectAlert: true, expectedSeverity: models.SeverityWarning},
		{name: "above half is warning", onHand: 6, reorderPoint: 10, expectAlert: true, expectedSeverity: models.SeverityWarning},
		{name: "at half is critical", onHand: 5, reorderPoint: 10, expectAlert: true, expectedSeverity: models.SeverityCritical},
		{name: "zero on hand is out of stock not low stock", onHand: 0, reorderPoint: 10, expectAlert: false},
		{name: "no reorder point configured", onHand: 1, reorderPoint: 0, expectAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := memory.NewPersistence()
			seedUser(p)
			p.AddItem(&models.Item{
				ID: "i1", TenantID: "t1", SiteID: "s1", SKU: "WID-1", Name: "Widget",
				OnHand: tt.onHand, ReorderPoint: tt.reorderPoint,
			})

			m, _ := newTestMonitor(t, p)

			alerts, err := m.CheckAlerts(context.Background(), "t1", "")
			require.NoError(t, err)

			found := filterByType(alerts, models.AlertLowStock)
			if !tt.expectAlert {
				assert.Empty(t, found)
				return
			}

			require.Len(t, found, 1)
			assert.Equal(t, tt.expectedSeverity, found[0].Severity)
			assert.Equal(t, "i1", found[0].EntityID)
		})
	}
}

func TestCheckAlerts_LowStockHorizon(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddItem(&models.Item{
		ID: "i1", TenantID: "t1", SiteID: "s1", SKU: "WID-1", Name: "Widget",
		OnHand: 10, ReorderPoint: 10,
	})
	p.AddMovement(&models.StockMovement{
		ID: "m1", TenantID: "t1", SiteID: "s1", ItemID: "i1",
		Type: models.MovementConsumption, Quantity: 30,
		OccurredAt: time.Now().Add(-48 * time.Hour),
	})

	m, _ := newTestMonitor(t, p)

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)

	found := filterByType(alerts, models.AlertLowStock)
	require.Len(t, found, 1)
	// 30 units over 30 days = 1/day, 10 on hand = 10 days.
	assert.Contains(t, found[0].Message, "10.0 days")
}

func TestCheckAlerts_LowStockNoConsumptionHistory(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddItem(&models.Item{
		ID: "i1", TenantID: "t1", SiteID: "s1", SKU: "WID-1", Name: "Widget",
		OnHand: 10, ReorderPoint: 10,
	})

	m, _ := newTestMonitor(t, p)

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)

	found := filterByType(alerts, models.AlertLowStock)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Message, "no immediate stockout risk")
}

func TestCheckAlerts_OutOfStock(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddItem(&models.Item{ID: "i1", TenantID: "t1", SKU: "A", Name: "A", OnHand: 0})
	p.AddItem(&models.Item{ID: "i2", TenantID: "t1", SKU: "B", Name: "B", OnHand: -2})
	p.AddItem(&models.Item{ID: "i3", TenantID: "t1", SKU: "C", Name: "C", OnHand: 1})

	m, _ := newTestMonitor(t, p)

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)

	found := filterByType(alerts, models.AlertOutOfStock)
	require.Len(t, found, 2)

	for _, alert := range found {
		assert.Equal(t, models.SeverityCritical, alert.Severity)
	}
}

func TestCheckAlerts_ExpiringInventorySeverityTiers(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name             string
		expiresIn        time.Duration
		quantity         float64
		expectAlert      bool
		expectedSeverity models.AlertSeverity
	}{
		{name: "5 days is critical", expiresIn: 5 * 24 * time.Hour, quantity: 10, expectAlert: true, expectedSeverity: models.SeverityCritical},
		{name: "10 days is warning", expiresIn: 10 * 24 * time.Hour, quantity: 10, expectAlert: true, expectedSeverity: models.SeverityWarning},
		{name: "25 days is info", expiresIn: 25 * 24 * time.Hour, quantity: 10, expectAlert: true, expectedSeverity: models.SeverityInfo},
		{name: "beyond horizon ignored", expiresIn: 45 * 24 * time.Hour, quantity: 10, expectAlert: false},
		{name: "already expired ignored", expiresIn: -24 * time.Hour, quantity: 10, expectAlert: false},
		{name: "empty lot ignored", expiresIn: 5 * 24 * time.Hour, quantity: 0, expectAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := memory.NewPersistence()
			seedUser(p)

			expiry := now.Add(tt.expiresIn)
			p.AddLot(&models.Lot{
				ID: "l1", TenantID: "t1", ItemID: "i1", LotNumber: "LOT-1",
				Quantity: tt.quantity, ExpiresAt: &expiry,
			})

			m, _ := newTestMonitor(t, p)

			alerts, err := m.CheckAlerts(context.Background(), "t1", "")
			require.NoError(t, err)

			found := filterByType(alerts, models.AlertExpiringInventory)
			if !tt.expectAlert {
				assert.Empty(t, found)
				return
			}

			require.Len(t, found, 1)
			assert.Equal(t, tt.expectedSeverity, found[0].Severity)
		})
	}
}

func TestCheckAlerts_SlowMoving(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddItem(&models.Item{ID: "i1", TenantID: "t1", SKU: "SLOW", Name: "Dusty", OnHand: 4, UnitCost: 25})
	p.AddItem(&models.Item{ID: "i2", TenantID: "t1", SKU: "FAST", Name: "Mover", OnHand: 4, UnitCost: 25})
	p.AddMovement(&models.StockMovement{
		ID: "m1", TenantID: "t1", ItemID: "i2",
		Type: models.MovementConsumption, Quantity: 1,
		OccurredAt: time.Now().Add(-24 * time.Hour),
	})

	m, _ := newTestMonitor(t, p)

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)

	found := filterByType(alerts, models.AlertSlowMoving)
	require.Len(t, found, 1)
	assert.Equal(t, "i1", found[0].EntityID)
	assert.Equal(t, models.SeverityInfo, found[0].Severity)
	assert.Contains(t, found[0].Message, "$100.00")
}

func TestCheckAlerts_ProductionDelay(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddProductionOrder(&models.ProductionOrder{
		ID: "po1", TenantID: "t1", Number: "MO-1", Status: models.OrderStatusOpen,
		ScheduledEnd: time.Now().Add(-2 * 24 * time.Hour),
	})
	p.AddProductionOrder(&models.ProductionOrder{
		ID: "po2", TenantID: "t1", Number: "MO-2", Status: models.OrderStatusOpen,
		ScheduledEnd: time.Now().Add(-10 * 24 * time.Hour),
	})
	p.AddProductionOrder(&models.ProductionOrder{
		ID: "po3", TenantID: "t1", Number: "MO-3", Status: models.OrderStatusOpen,
		ScheduledEnd: time.Now().Add(24 * time.Hour),
	})

	m, _ := newTestMonitor(t, p)

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)

	found := filterByType(alerts, models.AlertProductionDelay)
	require.Len(t, found, 2)

	bySeverity := map[string]models.AlertSeverity{}
	for _, alert := range found {
		bySeverity[alert.EntityID] = alert.Severity
	}

	assert.Equal(t, models.SeverityWarning, bySeverity["po1"])
	assert.Equal(t, models.SeverityCritical, bySeverity["po2"])
}

func TestCheckAlerts_PurchaseOrderDue(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddPurchaseOrder(&models.PurchaseOrder{
		ID: "po1", TenantID: "t1", Number: "PO-1", Status: models.OrderStatusOpen,
		ExpectedDelivery: time.Now().Add(24 * time.Hour),
	})
	p.AddPurchaseOrder(&models.PurchaseOrder{
		ID: "po2", TenantID: "t1", Number: "PO-2", Status: models.OrderStatusOpen,
		ExpectedDelivery: time.Now().Add(5 * 24 * time.Hour),
	})
	p.AddPurchaseOrder(&models.PurchaseOrder{
		ID: "po3", TenantID: "t1", Number: "PO-3", Status: models.OrderStatusOpen,
		ExpectedDelivery: time.Now().Add(20 * 24 * time.Hour),
	})

	m, _ := newTestMonitor(t, p)

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)

	found := filterByType(alerts, models.AlertPurchaseOrderDue)
	require.Len(t, found, 2)

	bySeverity := map[string]models.AlertSeverity{}
	for _, alert := range found {
		bySeverity[alert.EntityID] = alert.Severity
	}

	assert.Equal(t, models.SeverityWarning, bySeverity["po1"])
	assert.Equal(t, models.SeverityInfo, bySeverity["po2"])
}

// A second pass within the cooldown window must not raise the same breach
// again.
func TestCheckAlerts_CooldownSuppression(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddItem(&models.Item{ID: "i1", TenantID: "t1", SKU: "A", Name: "A", OnHand: 0})

	m, _ := newTestMonitor(t, p)

	first, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)
	assert.Empty(t, second)

	// Step past the cooldown window: the breach fires again.
	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	third, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)
	assert.Len(t, third, 1)
}

// failingInventory makes one category scan fail while the others keep
// working.
type failingInventory struct {
	persistence.InventoryRepository
}

func (f *failingInventory) Lots(context.Context, string, string) ([]*models.Lot, error) {
	return nil, errors.New("lots table unavailable")
}

type failingPersistence struct {
	*memory.Persistence
}

func (f *failingPersistence) Inventory() persistence.InventoryRepository {
	return &failingInventory{InventoryRepository: f.Persistence.Inventory()}
}

func TestCheckAlerts_CategoryFailureIsolated(t *testing.T) {
	mem := memory.NewPersistence()
	seedUser(mem)
	mem.AddItem(&models.Item{ID: "i1", TenantID: "t1", SKU: "A", Name: "A", OnHand: 0})

	m, _ := newTestMonitor(t, &failingPersistence{Persistence: mem})

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")

	// The expiring-inventory scan failed but out-of-stock still fired.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expiring_inventory scan")
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertOutOfStock, alerts[0].Type)
}

func TestCheckAlerts_DispatchesNotifications(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddUser(&models.User{
		ID: "u2", TenantID: "t1", Email: "optout@example.com", Role: models.RoleSupervisor,
		AlertPreferences: map[string]bool{string(models.AlertOutOfStock): false},
	})
	p.AddItem(&models.Item{ID: "i1", TenantID: "t1", SKU: "A", Name: "A", OnHand: 0})

	m, channel := newTestMonitor(t, p)

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// One email batch went out, and both users got in-app records.
	assert.Len(t, channel.sent, 1)

	for _, userID := range []string{"u1", "u2"} {
		notifications, err := p.Notifications().ListByUser(context.Background(), "t1", userID)
		require.NoError(t, err)
		assert.Len(t, notifications, 1)
	}
}

func TestAcknowledgeAndResolve(t *testing.T) {
	p := memory.NewPersistence()
	seedUser(p)
	p.AddItem(&models.Item{ID: "i1", TenantID: "t1", SKU: "A", Name: "A", OnHand: 0})

	m, _ := newTestMonitor(t, p)

	alerts, err := m.CheckAlerts(context.Background(), "t1", "")
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alertID := alerts[0].ID

	acked, err := m.Acknowledge(context.Background(), alertID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", acked.AcknowledgedBy)
	require.NotNil(t, acked.AcknowledgedAt)

	firstAck := *acked.AcknowledgedAt

	// Acknowledging twice keeps the original acknowledgement.
	again, err := m.Acknowledge(context.Background(), alertID, "u2")
	require.NoError(t, err)
	assert.Equal(t, "u1", again.AcknowledgedBy)
	assert.Equal(t, firstAck, *again.AcknowledgedAt)

	resolved, err := m.Resolve(context.Background(), alertID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedAt)
}

func TestAcknowledge_UnknownAlert(t *testing.T) {
	m, _ := newTestMonitor(t, memory.NewPersistence())

	_, err := m.Acknowledge(context.Background(), "missing", "u1")
	require.ErrorIs(t, err, persistence.ErrAlertNotFound)
}

func filterByType(alerts []*models.Alert, alertType models.AlertType) []*models.Alert {
	var out []*models.Alert

	for _, alert := range alerts {
		if alert.Type == alertType {
			out = append(out, alert)
		}
	}

	return out
}
