package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error values all implementations return.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrAlertNotFound indicates an alert was not found by the given identifier or dedup key.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrTaskNotFound indicates a scheduled task was not found by the given identifier.
	ErrTaskNotFound = errors.New("scheduled task not found")

	// ErrExecutionNotFound indicates an execution record was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrItemNotFound indicates a domain item was not found.
	ErrItemNotFound = errors.New("item not found")

	// ErrOrderNotFound indicates a domain order was not found.
	ErrOrderNotFound = errors.New("order not found")
)

// RecordError wraps a persistence failure with the operation and record it
// concerned.
type RecordError struct {
	Op       string // Operation being performed (e.g., "GetByID", "Save")
	Record   string // Record kind (e.g., "workflow", "alert")
	RecordID string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Record, e.RecordID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRecordError creates a persistence error with record context.
func NewRecordError(op, record, recordID string, err error) *RecordError {
	return &RecordError{Op: op, Record: record, RecordID: recordID, Err: err}
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrAlertNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrExecutionNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}
