// Package registry maps action and task types to their factories and
// handlers.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// Registry holds the registered action factories and task handlers. Adding a
// new action or task type means registering a new factory here; dispatch is
// never string-keyed outside this package.
type Registry struct {
	logger          *slog.Logger
	actionFactories map[models.ActionType]protocol.ActionFactory
	taskHandlers    map[models.TaskType]protocol.TaskHandler
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[models.ActionType]protocol.ActionFactory),
		taskHandlers:    make(map[models.TaskType]protocol.TaskHandler),
	}
}

// RegisterAction registers an action factory under its type.
func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// RegisterTaskHandler registers a task handler under its type.
func (r *Registry) RegisterTaskHandler(handler protocol.TaskHandler) {
	r.taskHandlers[handler.ID()] = handler
}

// CreateAction validates the configuration against the factory's schema and
// builds the action.
func (r *Registry) CreateAction(actionType models.ActionType, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	if err := validateConfig(factory.Schema(), config); err != nil {
		return nil, fmt.Errorf("invalid configuration for action %q: %w", actionType, err)
	}

	return factory.Create(config)
}

// TaskHandler returns the handler registered for a task type.
func (r *Registry) TaskHandler(taskType models.TaskType) (protocol.TaskHandler, error) {
	handler, ok := r.taskHandlers[taskType]
	if !ok {
		return nil, fmt.Errorf("task type %q not registered", taskType)
	}

	return handler, nil
}

// ActionTypes returns the registered action types.
func (r *Registry) ActionTypes() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.actionFactories))
	for actionType := range r.actionFactories {
		types = append(types, actionType)
	}

	return types
}

func validateConfig(schema map[string]any, config map[string]any) error {
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("configuration does not match schema: %s", errs[0].String())
		}

		return fmt.Errorf("configuration does not match schema")
	}

	return nil
}
