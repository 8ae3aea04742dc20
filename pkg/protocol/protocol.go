// Package protocol defines the interfaces and contracts for pluggable
// actions, task handlers, and notification channels.
package protocol

import (
	"context"
	"log/slog"

	"github.com/stockflow-io/stockflow/pkg/models"
)

// Action is one unit of side-effecting work performed by a workflow after
// its conditions pass. An action reports failure either through the returned
// error or through ActionResult.Success = false; both downgrade the
// execution to partial without stopping later actions.
type Action interface {
	Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error)
}

// ActionFactory creates action instances from stored configuration and
// provides the JSON schema that configuration is validated against.
type ActionFactory interface {
	// Create builds an action bound to the given configuration.
	Create(config map[string]any) (Action, error)

	// ID returns the action type this factory produces.
	ID() models.ActionType

	// Schema returns the JSON schema for this action's configuration.
	Schema() map[string]any
}

// TaskHandler executes one scheduled task type. The returned payload is
// recorded on the task execution.
type TaskHandler interface {
	// ID returns the task type this handler serves.
	ID() models.TaskType

	// Execute runs the task with its stored configuration.
	Execute(ctx context.Context, task *models.ScheduledTask, logger *slog.Logger) (map[string]any, error)
}

// NotificationChannel delivers a rendered message to one or more recipients.
// Send must not fail the caller: it returns false on delivery failure.
type NotificationChannel interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) bool
}
