package create_purchase_order

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestExecute_OrdersUpToTwiceReorderPoint(t *testing.T) {
	p := memory.NewPersistence()
	p.AddItem(&models.Item{
		ID: "i1", TenantID: "t1", SiteID: "s1", SKU: "WID-1", Name: "Widget",
		OnHand: 3, ReorderPoint: 10,
	})

	action, err := NewCreatePurchaseOrderAction(map[string]any{
		"supplier_id": "sup-1",
	}, p)
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.TriggerContext{
		TenantID:    "t1",
		TriggerType: models.TriggerStockLevelChanged,
		Data:        map[string]any{"item_id": "i1"},
	}, testLogger())

	require.NoError(t, err)
	assert.True(t, result.Success)

	orders, err := p.Inventory().OpenPurchaseOrders(context.Background(), "t1", "")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	// Target 2*10 minus 3 on hand.
	assert.Equal(t, 17.0, orders[0].Quantity)
	assert.Equal(t, "i1", orders[0].ItemID)
	assert.Equal(t, "sup-1", orders[0].SupplierID)
	assert.Equal(t, models.OrderStatusOpen, orders[0].Status)
}

func TestExecute_ExplicitQuantityWins(t *testing.T) {
	p := memory.NewPersistence()
	p.AddItem(&models.Item{
		ID: "i1", TenantID: "t1", SiteID: "s1", SKU: "WID-1", Name: "Widget",
		OnHand: 3, ReorderPoint: 10,
	})

	action, err := NewCreatePurchaseOrderAction(map[string]any{
		"item_id":  "i1",
		"quantity": 100.0,
	}, p)
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), models.TriggerContext{
		TenantID: "t1",
		Data:     map[string]any{},
	}, testLogger())
	require.NoError(t, err)

	orders, err := p.Inventory().OpenPurchaseOrders(context.Background(), "t1", "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 100.0, orders[0].Quantity)
}

func TestExecute_UnknownItem(t *testing.T) {
	action, err := NewCreatePurchaseOrderAction(map[string]any{
		"item_id": "ghost",
	}, memory.NewPersistence())
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), models.TriggerContext{
		TenantID: "t1",
		Data:     map[string]any{},
	}, testLogger())

	require.Error(t, err)
}

func TestExecute_NoItemAnywhere(t *testing.T) {
	action, err := NewCreatePurchaseOrderAction(map[string]any{}, memory.NewPersistence())
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), models.TriggerContext{
		TenantID: "t1",
		Data:     map[string]any{},
	}, testLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no item to order")
}
