package call_webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-io/stockflow/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestNewCallWebhookAction(t *testing.T) {
	action, err := NewCallWebhookAction(map[string]any{
		"url":     "https://hooks.example.com/stock",
		"method":  "put",
		"timeout": 5.0,
		"retry":   map[string]any{"attempts": 3.0, "delay": 1.0},
		"headers": map[string]any{"X-Token": "abc"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, action.Method)
	assert.Equal(t, 5*time.Second, action.Timeout)
	assert.Equal(t, 3, action.Retry.Attempts)
	assert.Equal(t, time.Second, action.Retry.Delay)
	assert.Equal(t, "abc", action.Headers["X-Token"])
}

func TestNewCallWebhookAction_Defaults(t *testing.T) {
	action, err := NewCallWebhookAction(map[string]any{"url": "https://example.com"})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, action.Method)
	assert.Equal(t, defaultTimeout, action.Timeout)
	assert.Equal(t, 1, action.Retry.Attempts)
}

func TestNewCallWebhookAction_MissingURL(t *testing.T) {
	_, err := NewCallWebhookAction(map[string]any{})

	require.Error(t, err)
}

func TestExecute_Success(t *testing.T) {
	var gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	action, err := NewCallWebhookAction(map[string]any{
		"url":  server.URL,
		"body": `{"sku": "{{item.sku}}"}`,
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.TriggerContext{
		TenantID:    "t1",
		TriggerType: models.TriggerStockLevelChanged,
		Data:        map[string]any{"item": map[string]any{"sku": "WID-1"}},
	}, testLogger())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, `{"sku": "WID-1"}`, gotBody)
}

// A 2xx response whose body arrives after the headers must still succeed;
// the response has to be drained before the request timeout is cancelled.
func TestExecute_SlowBodySucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()

		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	action, err := NewCallWebhookAction(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.TriggerContext{
		Data: map[string]any{},
	}, testLogger())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "200")
}

// A non-2xx status is a failed action result, not an error.
func TestExecute_Non2xxFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	action, err := NewCallWebhookAction(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.TriggerContext{
		Data: map[string]any{},
	}, testLogger())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "404")
}

func TestExecute_RetriesServerErrors(t *testing.T) {
	var attempts int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++

		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	action, err := NewCallWebhookAction(map[string]any{
		"url":   server.URL,
		"retry": map[string]any{"attempts": 3.0, "delay": 0.0},
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.TriggerContext{
		Data: map[string]any{},
	}, testLogger())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, attempts)
}

func TestExecute_ConnectionFailure(t *testing.T) {
	action, err := NewCallWebhookAction(map[string]any{
		"url": "http://127.0.0.1:1/unreachable",
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.TriggerContext{
		Data: map[string]any{},
	}, testLogger())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "webhook call failed")
}
