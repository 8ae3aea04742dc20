// Package run_report implements the report generation workflow action.
package run_report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/template"
)

// Runner produces a report and returns summary metadata about what it wrote.
// The scheduler's report task handler satisfies this.
type Runner func(ctx context.Context, tenantID, reportType string, params map[string]any) (map[string]any, error)

// RunReportAction generates a report through the injected runner.
type RunReportAction struct {
	ReportType string
	Params     map[string]any

	runner Runner
}

func NewRunReportAction(config map[string]any, runner Runner) (*RunReportAction, error) {
	reportType, _ := config["report_type"].(string)
	if reportType == "" {
		return nil, errors.New("report_type is required")
	}

	params, _ := config["params"].(map[string]any)

	return &RunReportAction{
		ReportType: reportType,
		Params:     params,
		runner:     runner,
	}, nil
}

func (a *RunReportAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	params := template.RenderConfig(a.Params, tctx.Data)

	summary, err := a.runner(ctx, tctx.TenantID, a.ReportType, params)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("report %s failed: %w", a.ReportType, err)
	}

	logger.InfoContext(ctx, "report generated", "report_type", a.ReportType)

	message := fmt.Sprintf("report %s generated", a.ReportType)
	if rows, ok := summary["rows"].(int); ok {
		message = fmt.Sprintf("report %s generated (%d rows)", a.ReportType, rows)
	}

	return models.ActionResult{
		Success: true,
		Message: message,
	}, nil
}
