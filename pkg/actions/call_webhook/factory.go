package call_webhook

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the call_webhook action factory.
func NewFactory() protocol.ActionFactory {
	return &Factory{}
}

type Factory struct{}

func (f *Factory) ID() models.ActionType {
	return models.ActionCallWebhook
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Endpoint URL; supports {{dotted.path}} tokens",
			},
			"method": map[string]any{
				"type":    "string",
				"default": "POST",
			},
			"headers": map[string]any{
				"type": "object",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body; supports {{dotted.path}} tokens",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds",
			},
			"retry": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"attempts": map[string]any{"type": "number"},
					"delay":    map[string]any{"type": "number"},
				},
			},
		},
		"required": []string{"url"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewCallWebhookAction(config)
}
