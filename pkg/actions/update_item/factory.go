package update_item

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the update_item action factory.
func NewFactory(p persistence.Persistence) protocol.ActionFactory {
	return &Factory{persistence: p}
}

type Factory struct {
	persistence persistence.Persistence
}

func (f *Factory) ID() models.ActionType {
	return models.ActionUpdateItem
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_id": map[string]any{
				"type":        "string",
				"description": "Item to update; falls back to the trigger context item_id",
			},
			"fields": map[string]any{
				"type":        "object",
				"description": "Field name to new value; string values support {{dotted.path}} tokens",
			},
		},
		"required": []string{"fields"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewUpdateItemAction(config, f.persistence)
}
