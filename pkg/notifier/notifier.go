// Package notifier renders and delivers notifications for alerts and task
// completions. Delivery is best effort: persistence of the in-app record can
// fail the caller, email delivery never does.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/persistence"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// Dispatcher fans a single alert or task-completion event out to in-app
// notification records and the notification channel.
type Dispatcher struct {
	persistence persistence.Persistence
	channel     protocol.NotificationChannel
	baseURL     string
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher. baseURL is used to build links back
// into the application.
func NewDispatcher(p persistence.Persistence, channel protocol.NotificationChannel, baseURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		channel:     channel,
		baseURL:     baseURL,
		logger:      logger.With("module", "notifier"),
	}
}

// DispatchAlert persists an in-app notification per notifiable user and
// emails the users who have opted in to the alert's category. Email failure
// is logged and swallowed.
func (d *Dispatcher) DispatchAlert(ctx context.Context, alert *models.Alert) error {
	users, err := d.persistence.Users().ListNotifiable(ctx, alert.TenantID)
	if err != nil {
		return fmt.Errorf("failed to list notifiable users: %w", err)
	}

	link := fmt.Sprintf("%s/alerts/%s", d.baseURL, alert.ID)

	for _, user := range users {
		notification := &models.Notification{
			ID:        uuid.New().String(),
			TenantID:  alert.TenantID,
			UserID:    user.ID,
			Category:  string(alert.Type),
			Title:     alert.Title,
			Message:   alert.Message,
			Link:      link,
			CreatedAt: time.Now().UTC(),
		}

		if err := d.persistence.Notifications().Create(ctx, notification); err != nil {
			return fmt.Errorf("failed to persist notification for user %s: %w", user.ID, err)
		}
	}

	recipients := make([]string, 0, len(users))

	for _, user := range users {
		if user.WantsAlert(alert.Type) {
			recipients = append(recipients, user.Email)
		}
	}

	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[%s] %s", alert.Severity, alert.Title)
	body := alertBody(alert, link)

	if !d.channel.Send(ctx, recipients, subject, body) {
		d.logger.ErrorContext(ctx, "alert email delivery failed",
			"alert_id", alert.ID,
			"type", alert.Type,
			"recipients", len(recipients),
		)
	}

	return nil
}

// DispatchTaskCompletion emails a task's configured recipients about an
// execution outcome, including failures with the error in the body. Email
// failure is logged and swallowed.
func (d *Dispatcher) DispatchTaskCompletion(ctx context.Context, task *models.ScheduledTask, execution *models.TaskExecution) {
	if len(task.Recipients) == 0 {
		return
	}

	subject := fmt.Sprintf("Task %q completed: %s", task.Name, execution.Status)
	body := taskBody(task, execution, d.baseURL)

	if !d.channel.Send(ctx, task.Recipients, subject, body) {
		d.logger.ErrorContext(ctx, "task completion email delivery failed",
			"task_id", task.ID,
			"status", execution.Status,
		)
	}
}

func alertBody(alert *models.Alert, link string) string {
	return fmt.Sprintf(
		`<h2>%s</h2>
<p>%s</p>
<p>Severity: <strong>%s</strong><br>
Triggered: %s</p>
<p><a href="%s">View alert</a></p>`,
		alert.Title,
		alert.Message,
		alert.Severity,
		alert.TriggeredAt.Format(time.RFC1123),
		link,
	)
}

func taskBody(task *models.ScheduledTask, execution *models.TaskExecution, baseURL string) string {
	body := fmt.Sprintf(
		`<h2>Scheduled task %q finished with status %s</h2>
<p>Started: %s<br>
Duration: %s</p>`,
		task.Name,
		execution.Status,
		execution.StartedAt.Format(time.RFC1123),
		execution.Duration.Round(time.Millisecond),
	)

	if execution.Error != "" {
		body += fmt.Sprintf("<p>Error: %s</p>", execution.Error)
	}

	body += fmt.Sprintf(`<p><a href="%s/tasks/%s">View task</a></p>`, baseURL, task.ID)

	return body
}
