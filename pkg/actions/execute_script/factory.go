package execute_script

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the execute_script action factory.
func NewFactory() protocol.ActionFactory {
	return &Factory{}
}

type Factory struct{}

func (f *Factory) ID() models.ActionType {
	return models.ActionExecuteScript
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"script_id": map[string]any{
				"type":        "string",
				"description": "Identifier of the script in the job runner",
			},
		},
		"required": []string{"script_id"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewExecuteScriptAction(config)
}
