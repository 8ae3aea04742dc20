package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

type echoAction struct{}

func (echoAction) Execute(context.Context, models.TriggerContext, *slog.Logger) (models.ActionResult, error) {
	return models.ActionResult{Success: true}, nil
}

type echoFactory struct {
	schema map[string]any
}

func (f *echoFactory) ID() models.ActionType { return models.ActionType("echo") }

func (f *echoFactory) Schema() map[string]any { return f.schema }

func (f *echoFactory) Create(map[string]any) (protocol.Action, error) {
	return echoAction{}, nil
}

func newTestRegistry(schema map[string]any) *Registry {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	reg := NewRegistry(logger)
	reg.RegisterAction(&echoFactory{schema: schema})

	return reg
}

func TestCreateAction_UnknownType(t *testing.T) {
	reg := newTestRegistry(nil)

	_, err := reg.CreateAction(models.ActionType("ghost"), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestCreateAction_SchemaValidation(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string"},
		},
		"required": []string{"url"},
	}

	reg := newTestRegistry(schema)

	_, err := reg.CreateAction(models.ActionType("echo"), map[string]any{"url": "https://x"})
	require.NoError(t, err)

	_, err = reg.CreateAction(models.ActionType("echo"), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = reg.CreateAction(models.ActionType("echo"), map[string]any{"url": 42})
	require.Error(t, err)
}

func TestCreateAction_NilSchemaSkipsValidation(t *testing.T) {
	reg := newTestRegistry(nil)

	_, err := reg.CreateAction(models.ActionType("echo"), map[string]any{"anything": true})

	require.NoError(t, err)
}

type noopHandler struct{}

func (noopHandler) ID() models.TaskType { return models.TaskCleanup }

func (noopHandler) Execute(context.Context, *models.ScheduledTask, *slog.Logger) (map[string]any, error) {
	return nil, nil
}

func TestTaskHandlerLookup(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	reg := NewRegistry(logger)
	reg.RegisterTaskHandler(noopHandler{})

	handler, err := reg.TaskHandler(models.TaskCleanup)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCleanup, handler.ID())

	_, err = reg.TaskHandler(models.TaskSync)
	require.Error(t, err)
}

func TestActionTypes(t *testing.T) {
	reg := newTestRegistry(nil)

	assert.Equal(t, []models.ActionType{models.ActionType("echo")}, reg.ActionTypes())
}
