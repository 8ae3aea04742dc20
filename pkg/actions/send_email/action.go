// Package send_email implements the email workflow action.
package send_email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/protocol"
	"github.com/stockflow-io/stockflow/pkg/template"
)

// SendEmailAction renders the configured subject and body against the
// trigger context and delivers through the notification channel.
type SendEmailAction struct {
	To      []string
	Subject string
	Body    string

	channel protocol.NotificationChannel
}

// NewSendEmailAction parses the stored configuration.
func NewSendEmailAction(config map[string]any, channel protocol.NotificationChannel) (*SendEmailAction, error) {
	to, err := stringList(config["to"])
	if err != nil {
		return nil, fmt.Errorf("invalid 'to' field: %w", err)
	}

	if len(to) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	subject, _ := config["subject"].(string)
	body, _ := config["body"].(string)

	return &SendEmailAction{
		To:      to,
		Subject: subject,
		Body:    body,
		channel: channel,
	}, nil
}

func (a *SendEmailAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	subject := template.Render(a.Subject, tctx.Data)
	body := template.Render(a.Body, tctx.Data)

	if !a.channel.Send(ctx, a.To, subject, body) {
		return models.ActionResult{
			Success: false,
			Error:   "email delivery failed",
		}, nil
	}

	logger.InfoContext(ctx, "email sent", "recipients", len(a.To))

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("email sent to %d recipient(s)", len(a.To)),
	}, nil
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))

		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}

			out = append(out, s)
		}

		return out, nil
	case string:
		return []string{list}, nil
	default:
		return nil, fmt.Errorf("expected string or list of strings, got %T", v)
	}
}
