package assign_user

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the assign_user action factory.
func NewFactory(p persistence.Persistence) protocol.ActionFactory {
	return &Factory{persistence: p}
}

type Factory struct {
	persistence persistence.Persistence
}

func (f *Factory) ID() models.ActionType {
	return models.ActionAssignUser
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{
				"type":        "string",
				"description": "Assignee; supports {{dotted.path}} tokens",
			},
			"title": map[string]any{
				"type": "string",
			},
			"message": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"user_id"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewAssignUserAction(config, f.persistence)
}
