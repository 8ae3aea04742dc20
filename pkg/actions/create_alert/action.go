// Package create_alert implements the workflow action that raises an alert.
package create_alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/template"
)

// CreateAlertAction persists an alert built from configuration and fans out
// notifications for it. Title and message support template tokens.
type CreateAlertAction struct {
	Type     models.AlertType
	Severity models.AlertSeverity
	Title    string
	Message  string

	persistence persistence.Persistence
	dispatcher  *notifier.Dispatcher
}

func NewCreateAlertAction(config map[string]any, p persistence.Persistence, d *notifier.Dispatcher) (*CreateAlertAction, error) {
	alertType, _ := config["alert_type"].(string)
	if alertType == "" {
		return nil, errors.New("alert_type is required")
	}

	severity, _ := config["severity"].(string)
	if severity == "" {
		severity = string(models.SeverityInfo)
	}

	title, _ := config["title"].(string)
	if title == "" {
		return nil, errors.New("title is required")
	}

	message, _ := config["message"].(string)

	return &CreateAlertAction{
		Type:        models.AlertType(alertType),
		Severity:    models.AlertSeverity(severity),
		Title:       title,
		Message:     message,
		persistence: p,
		dispatcher:  d,
	}, nil
}

func (a *CreateAlertAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	entityType, _ := tctx.Data["entity_type"].(string)
	entityID, _ := tctx.Data["entity_id"].(string)

	alert := &models.Alert{
		ID:          uuid.New().String(),
		TenantID:    tctx.TenantID,
		Type:        a.Type,
		Severity:    a.Severity,
		Title:       template.Render(a.Title, tctx.Data),
		Message:     template.Render(a.Message, tctx.Data),
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata:    map[string]any{"trigger_type": string(tctx.TriggerType)},
		TriggeredAt: time.Now().UTC(),
	}

	if err := a.persistence.Alerts().Create(ctx, alert); err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to create alert: %w", err)
	}

	if err := a.dispatcher.DispatchAlert(ctx, alert); err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to dispatch alert notifications: %w", err)
	}

	logger.InfoContext(ctx, "alert created", "alert_id", alert.ID, "type", alert.Type)

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("alert %s created", alert.ID),
	}, nil
}
