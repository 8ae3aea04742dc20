package adjust_inventory

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the adjust_inventory action factory.
func NewFactory(p persistence.Persistence) protocol.ActionFactory {
	return &Factory{persistence: p}
}

type Factory struct {
	persistence persistence.Persistence
}

func (f *Factory) ID() models.ActionType {
	return models.ActionAdjustInventory
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_id": map[string]any{
				"type":        "string",
				"description": "Item to adjust; falls back to the trigger context item_id",
			},
			"quantity": map[string]any{
				"type":        "number",
				"description": "Signed delta applied to on-hand stock",
			},
			"reason": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"quantity"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAdjustInventoryAction(config, f.persistence)
}
