// Package call_webhook implements the outbound HTTP workflow action.
package call_webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/template"
)

const defaultTimeout = 30 * time.Second

// CallWebhookAction posts the trigger payload to an external endpoint. URL,
// headers and body support template tokens. A non-2xx status is a failed
// action result, not an error.
type CallWebhookAction struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration
	Retry   RetryConfig

	client *http.Client
}

type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

func NewCallWebhookAction(config map[string]any) (*CallWebhookAction, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return nil, errors.New("url is required")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)
	if raw, ok := config["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	retry := RetryConfig{Attempts: 1}
	if raw, ok := config["retry"].(map[string]any); ok {
		if attempts, ok := raw["attempts"].(float64); ok && attempts >= 1 {
			retry.Attempts = int(attempts)
		}

		if delay, ok := raw["delay"].(float64); ok && delay >= 0 {
			retry.Delay = time.Duration(delay) * time.Second
		}
	}

	timeout := defaultTimeout
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &CallWebhookAction{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: headers,
		Body:    body,
		Timeout: timeout,
		Retry:   retry,
		client:  &http.Client{},
	}, nil
}

func (a *CallWebhookAction) Execute(ctx context.Context, tctx models.TriggerContext, logger *slog.Logger) (models.ActionResult, error) {
	url := template.Render(a.URL, tctx.Data)
	body := template.Render(a.Body, tctx.Data)

	var (
		status   int
		respBody []byte
		lastErr  error
	)

	for attempt := 1; attempt <= a.Retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "retrying webhook", "attempt", attempt, "attempts", a.Retry.Attempts)

			select {
			case <-ctx.Done():
				return models.ActionResult{}, ctx.Err()
			case <-time.After(a.Retry.Delay):
			}
		}

		status, respBody, lastErr = a.do(ctx, url, body, tctx)
		if lastErr == nil && status < http.StatusInternalServerError {
			break
		}

		if lastErr == nil {
			lastErr = fmt.Errorf("server error (status %d)", status)
			status = 0
		}
	}

	if status == 0 {
		return models.ActionResult{
			Success: false,
			Error:   fmt.Sprintf("webhook call failed: %v", lastErr),
		}, nil
	}

	logger.InfoContext(ctx, "webhook called", "url", url, "status", status)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return models.ActionResult{
			Success: false,
			Error:   fmt.Sprintf("webhook returned status %d: %s", status, strings.TrimSpace(string(respBody))),
		}, nil
	}

	return models.ActionResult{
		Success: true,
		Message: fmt.Sprintf("webhook returned status %d", status),
	}, nil
}

// do performs one request attempt and drains the response before the
// per-attempt timeout context is cancelled; reading the body after cancel
// would fail even on a 2xx response.
func (a *CallWebhookAction) do(ctx context.Context, url, body string, tctx models.TriggerContext) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(reqCtx, a.Method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build webhook request: %w", err)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range a.Headers {
		req.Header.Set(key, template.Render(value, tctx.Data))
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read webhook response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
