package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/monitor"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/persistence/memory"
	"github.com/stockflow-io/stockflow/pkg/registry"
	"github.com/stockflow-io/stockflow/pkg/scheduler"
	"github.com/stockflow-io/stockflow/pkg/tasks"
	"github.com/stockflow-io/stockflow/pkg/web"
	"github.com/stockflow-io/stockflow/pkg/workflow"
)

type silentChannel struct{}

func (silentChannel) Send(context.Context, []string, string, string) bool { return true }

func setupTestApp(t *testing.T) (*fiber.App, *memory.Persistence) {
	t.Helper()

	p := memory.NewPersistence()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	dispatcher := notifier.NewDispatcher(p, silentChannel{}, "https://app.example.com", logger)
	mon := monitor.NewMonitor(p, dispatcher, nil, nil, logger)

	reg := registry.NewRegistry(logger)
	reg.RegisterTaskHandler(tasks.NewCleanupHandler(p))

	engine := workflow.NewEngine(p, reg, nil, logger)
	sched := scheduler.NewScheduler(p, reg, dispatcher, nil, nil, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(p, engine, mon, sched, validate)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)

	al := app.Group("/alerts")
	al.Get("/", handlers.GetAlerts)

	ts := app.Group("/tasks")
	ts.Get("/", handlers.GetTasks)
	ts.Post("/", handlers.CreateTask)

	return app, p
}

// A missing tenant_id must produce a problem document, not an empty
// collection for no tenant at all.
func TestCollectionEndpoints_RequireTenantID(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/workflows/", "/alerts/", "/tasks/"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), "tenant_id query parameter is required")
			assert.NotContains(t, string(body), "total_count")
		})
	}
}

func TestGetWorkflows(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)

	require.NoError(t, p.Workflows().Save(context.Background(), &models.Workflow{
		ID:       "wf-1",
		TenantID: "tenant-1",
		Name:     "reorder widgets",
		Enabled:  true,
		Trigger:  models.WorkflowTrigger{Type: models.TriggerStockLevelChanged},
		Actions:  []models.WorkflowAction{{Type: models.ActionCreatePurchaseOrder, Order: 1}},
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/?tenant_id=tenant-1", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Workflows  []models.Workflow `json:"workflows"`
		TotalCount int               `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 1, payload.TotalCount)
	assert.Equal(t, "reorder widgets", payload.Workflows[0].Name)
}

func TestGetWorkflow_NotFound(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workflows/ghost", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateWorkflow_ValidationError(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	body, err := json.Marshal(map[string]any{
		"tenant_id": "tenant-1",
		"name":      "no actions",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/workflows/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// Tasks created without an explicit enabled value come back enabled.
func TestCreateTask_EnabledByDefault(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	body, err := json.Marshal(map[string]any{
		"tenant_id": "tenant-1",
		"name":      "nightly cleanup",
		"type":      "cleanup",
		"frequency": "daily",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/tasks/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.ScheduledTask
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.True(t, created.Enabled)
	assert.False(t, created.NextRunAt.IsZero())
}

func TestCreateTask_ExplicitlyDisabled(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	body, err := json.Marshal(map[string]any{
		"tenant_id": "tenant-1",
		"name":      "paused cleanup",
		"type":      "cleanup",
		"frequency": "daily",
		"enabled":   false,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/tasks/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.ScheduledTask
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.False(t, created.Enabled)
}
