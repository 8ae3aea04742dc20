package create_alert

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the create_alert action factory.
func NewFactory(p persistence.Persistence, d *notifier.Dispatcher) protocol.ActionFactory {
	return &Factory{persistence: p, dispatcher: d}
}

type Factory struct {
	persistence persistence.Persistence
	dispatcher  *notifier.Dispatcher
}

func (f *Factory) ID() models.ActionType {
	return models.ActionCreateAlert
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"alert_type": map[string]any{
				"type":        "string",
				"description": "Alert category, e.g. low_stock or production_delay",
			},
			"severity": map[string]any{
				"type": "string",
				"enum": []string{"info", "warning", "critical"},
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Alert title; supports {{dotted.path}} tokens",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Alert message; supports {{dotted.path}} tokens",
			},
		},
		"required": []string{"alert_type", "title"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewCreateAlertAction(config, f.persistence, f.dispatcher)
}
