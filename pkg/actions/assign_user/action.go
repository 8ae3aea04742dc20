// Package assign_user implements the user assignment workflow action.
package assign_user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/template"
)

// AssignUserAction notifies a user that they now own the triggering entity.
// The assignment itself lives in the surrounding application; this action
// records the in-app notification that makes it visible.
type AssignUserAction struct {
	UserID  string
	Title   string
	Message string

	persistence persistence.Persistence
}

func NewAssignUserAction(config map[string]any, p persistence.Persistence) (*AssignUserAction, error) {
	userID, _ := config["user_id"].(string)
	if userID == "" {
		return nil, errors.New("user_id is required")
	}

	title, _ := config["title"].(string)
	if title == "" {
		title = "You have been assigned a task"
	}

	message, _ := config["message"].(string)

	return &AssignUserAction{
		UserID:      userID,
		Title:       title,
		Message:     message,
		persistence: p,
	}, nil
}

func (a *AssignUserAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	userID := template.Render(a.UserID, tctx.Data)
	if userID == "" {
		return models.ActionResult{}, errors.New("user_id resolved to an empty value")
	}

	notification := &models.Notification{
		ID:        uuid.New().String(),
		TenantID:  tctx.TenantID,
		UserID:    userID,
		Category:  "assignment",
		Title:     template.Render(a.Title, tctx.Data),
		Message:   template.Render(a.Message, tctx.Data),
		CreatedAt: time.Now().UTC(),
	}

	if err := a.persistence.Notifications().Create(ctx, notification); err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to notify user %s: %w", userID, err)
	}

	logger.InfoContext(ctx, "user assigned", "user_id", userID)

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("user %s notified of assignment", userID),
	}, nil
}
