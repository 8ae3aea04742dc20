package run_report

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the run_report action factory bound to a report runner.
func NewFactory(runner Runner) protocol.ActionFactory {
	return &Factory{runner: runner}
}

type Factory struct {
	runner Runner
}

func (f *Factory) ID() models.ActionType {
	return models.ActionRunReport
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"report_type": map[string]any{
				"type":        "string",
				"description": "Report to generate, e.g. inventory_valuation or stock_levels",
			},
			"params": map[string]any{
				"type":        "object",
				"description": "Report parameters; string values support {{dotted.path}} tokens",
			},
		},
		"required": []string{"report_type"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewRunReportAction(config, f.runner)
}
