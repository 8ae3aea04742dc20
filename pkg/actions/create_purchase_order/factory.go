package create_purchase_order

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the create_purchase_order action factory.
func NewFactory(p persistence.Persistence) protocol.ActionFactory {
	return &Factory{persistence: p}
}

type Factory struct {
	persistence persistence.Persistence
}

func (f *Factory) ID() models.ActionType {
	return models.ActionCreatePurchaseOrder
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_id": map[string]any{
				"type":        "string",
				"description": "Item to order; falls back to the trigger context item_id",
			},
			"supplier_id": map[string]any{
				"type": "string",
			},
			"site_id": map[string]any{
				"type": "string",
			},
			"quantity": map[string]any{
				"type":        "number",
				"description": "Units to order; computed from the reorder point when omitted",
			},
			"lead_time_days": map[string]any{
				"type":    "number",
				"default": 7,
			},
		},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewCreatePurchaseOrderAction(config, f.persistence)
}
