package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

// SMTPChannel delivers email through a plain SMTP relay. It implements
// protocol.NotificationChannel: Send never returns an error, only false.
type SMTPChannel struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPChannel creates an SMTP-backed notification channel.
func NewSMTPChannel(cfg SMTPConfig, logger *slog.Logger) *SMTPChannel {
	return &SMTPChannel{cfg: cfg, logger: logger.With("module", "smtp_channel")}
}

// Send delivers one message to all recipients. Returns false on any failure.
func (c *SMTPChannel) Send(ctx context.Context, to []string, subject, htmlBody string) bool {
	if c.cfg.Host == "" || len(to) == 0 {
		return false
	}

	msg := strings.Join([]string{
		"From: " + c.cfg.From,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		htmlBody,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	var auth smtp.Auth
	if c.cfg.Password != "" {
		auth = smtp.PlainAuth("", c.cfg.From, c.cfg.Password, c.cfg.Host)
	}

	done := make(chan error, 1)

	go func() {
		done <- smtp.SendMail(addr, auth, c.cfg.From, to, []byte(msg))
	}()

	// smtp.SendMail has no context support; honor cancellation by giving up
	// on the result while the dial finishes in the background.
	select {
	case err := <-done:
		if err != nil {
			c.logger.ErrorContext(ctx, "smtp delivery failed", "error", err, "recipients", len(to))

			return false
		}

		return true
	case <-ctx.Done():
		c.logger.ErrorContext(ctx, "smtp delivery abandoned", "error", ctx.Err())

		return false
	}
}
