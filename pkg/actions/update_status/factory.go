package update_status

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the update_status action factory.
func NewFactory(p persistence.Persistence) protocol.ActionFactory {
	return &Factory{persistence: p}
}

type Factory struct {
	persistence persistence.Persistence
}

func (f *Factory) ID() models.ActionType {
	return models.ActionUpdateStatus
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"entity_type": map[string]any{
				"type": "string",
				"enum": []string{"production_order", "purchase_order"},
			},
			"entity_id": map[string]any{
				"type":        "string",
				"description": "Order to update; falls back to the trigger context entity_id",
			},
			"status": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"entity_type", "status"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewUpdateStatusAction(config, f.persistence)
}
