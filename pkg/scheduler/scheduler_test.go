package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/notifier"
	"github.com/stockflow-io/stockflow/pkg/persistence/memory"
	"github.com/stockflow-io/stockflow/pkg/registry"
)

type recordingChannel struct {
	subjects []string
	bodies   []string
}

func (c *recordingChannel) Send(_ context.Context, _ []string, subject, body string) bool {
	c.subjects = append(c.subjects, subject)
	c.bodies = append(c.bodies, body)

	return true
}

type stubHandler struct {
	id    models.TaskType
	err   error
	calls int
}

func (h *stubHandler) ID() models.TaskType { return h.id }

func (h *stubHandler) Execute(context.Context, *models.ScheduledTask, *slog.Logger) (map[string]any, error) {
	h.calls++

	if h.err != nil {
		return nil, h.err
	}

	return map[string]any{"rows": 3}, nil
}

func newTestScheduler(t *testing.T, handlers ...*stubHandler) (*Scheduler, *memory.Persistence, *recordingChannel) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	p := memory.NewPersistence()
	reg := registry.NewRegistry(logger)

	for _, handler := range handlers {
		reg.RegisterTaskHandler(handler)
	}

	channel := &recordingChannel{}
	dispatcher := notifier.NewDispatcher(p, channel, "http://app.local", logger)

	return NewScheduler(p, reg, dispatcher, nil, nil, logger), p, channel
}

func TestCreateTask(t *testing.T) {
	s, p, _ := newTestScheduler(t, &stubHandler{id: models.TaskReport})

	taskID, err := s.CreateTask(context.Background(), &models.ScheduledTask{
		TenantID:  "t1",
		Name:      "daily stock report",
		Type:      models.TaskReport,
		Frequency: models.FrequencyDaily,
		Enabled:   true,
	})

	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	stored, err := p.Tasks().GetByID(context.Background(), taskID)
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.False(t, stored.NextRunAt.IsZero())
	assert.True(t, stored.NextRunAt.After(time.Now()))
}

func TestCreateTask_ValidationFailure(t *testing.T) {
	s, _, _ := newTestScheduler(t, &stubHandler{id: models.TaskReport})

	_, err := s.CreateTask(context.Background(), &models.ScheduledTask{
		TenantID:  "t1",
		Name:      "x",
		Type:      models.TaskReport,
		Frequency: models.FrequencyDaily,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid task definition")
}

func TestCreateTask_UnregisteredType(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	_, err := s.CreateTask(context.Background(), &models.ScheduledTask{
		TenantID:  "t1",
		Name:      "orphan task",
		Type:      models.TaskBackup,
		Frequency: models.FrequencyDaily,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestGetDueTasks_ExcludesDisabled(t *testing.T) {
	s, p, _ := newTestScheduler(t, &stubHandler{id: models.TaskReport})

	past := time.Now().Add(-time.Hour)

	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "due", TenantID: "t1", Name: "due task", Type: models.TaskReport,
		Frequency: models.FrequencyHourly, Enabled: true, NextRunAt: past,
	}))
	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "disabled", TenantID: "t1", Name: "disabled task", Type: models.TaskReport,
		Frequency: models.FrequencyHourly, Enabled: false, NextRunAt: past,
	}))
	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "future", TenantID: "t1", Name: "future task", Type: models.TaskReport,
		Frequency: models.FrequencyHourly, Enabled: true, NextRunAt: time.Now().Add(time.Hour),
	}))

	due, err := s.GetDueTasks(context.Background())

	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].ID)
}

func TestExecuteTask_Success(t *testing.T) {
	handler := &stubHandler{id: models.TaskReport}
	s, p, _ := newTestScheduler(t, handler)

	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "task-1", TenantID: "t1", Name: "report task", Type: models.TaskReport,
		Frequency: models.FrequencyHourly, Enabled: true, NextRunAt: time.Now().Add(-time.Minute),
	}))

	execution, err := s.ExecuteTask(context.Background(), "task-1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, execution.Status)
	assert.Equal(t, map[string]any{"rows": 3}, execution.Output)
	assert.Equal(t, 1, handler.calls)
	require.NotNil(t, execution.CompletedAt)

	stored, err := p.Tasks().GetByID(context.Background(), "task-1")
	require.NoError(t, err)
	require.NotNil(t, stored.LastRunAt)
	assert.Equal(t, string(models.StatusSuccess), stored.LastRunStatus)
	assert.True(t, stored.NextRunAt.After(time.Now()))
}

func TestExecuteTask_FailureRecordedAndNotified(t *testing.T) {
	handler := &stubHandler{id: models.TaskBackup, err: errors.New("disk full")}
	s, p, channel := newTestScheduler(t, handler)

	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "task-2", TenantID: "t1", Name: "backup task", Type: models.TaskBackup,
		Frequency: models.FrequencyDaily, Enabled: true, NextRunAt: time.Now().Add(-time.Minute),
		Recipients: []string{"ops@example.com"},
	}))

	execution, err := s.ExecuteTask(context.Background(), "task-2")

	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, execution.Status)
	assert.Equal(t, "disk full", execution.Error)

	stored, err := p.Tasks().GetByID(context.Background(), "task-2")
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusFailed), stored.LastRunStatus)

	// Failure still notifies the recipients, with the error in the body.
	require.Len(t, channel.subjects, 1)
	assert.Contains(t, channel.subjects[0], "failed")
	assert.Contains(t, channel.bodies[0], "disk full")
}

func TestExecuteTask_NoNotificationWithoutRecipients(t *testing.T) {
	handler := &stubHandler{id: models.TaskReport}
	s, p, channel := newTestScheduler(t, handler)

	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "task-3", TenantID: "t1", Name: "quiet task", Type: models.TaskReport,
		Frequency: models.FrequencyHourly, Enabled: true, NextRunAt: time.Now().Add(-time.Minute),
	}))

	_, err := s.ExecuteTask(context.Background(), "task-3")

	require.NoError(t, err)
	assert.Empty(t, channel.subjects)
}

// One failing task must not prevent the tasks behind it from running in the
// same tick.
func TestRunScheduler_FailingTaskIsIsolated(t *testing.T) {
	failing := &stubHandler{id: models.TaskBackup, err: errors.New("boom")}
	healthy := &stubHandler{id: models.TaskReport}
	s, p, _ := newTestScheduler(t, failing, healthy)

	past := time.Now().Add(-time.Minute)

	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "fails", TenantID: "t1", Name: "failing task", Type: models.TaskBackup,
		Frequency: models.FrequencyDaily, Enabled: true, NextRunAt: past,
	}))
	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "works", TenantID: "t1", Name: "working task", Type: models.TaskReport,
		Frequency: models.FrequencyDaily, Enabled: true, NextRunAt: past,
	}))

	require.NoError(t, s.RunScheduler(context.Background()))

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls)

	executions, err := p.TaskExecutions().ListByTask(context.Background(), "works")
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, models.StatusSuccess, executions[0].Status)
}

// A tick that cannot take the lock does nothing.
type deniedLocker struct{}

func (deniedLocker) Acquire(context.Context) (bool, error) { return false, nil }

func (deniedLocker) Release(context.Context) error { return nil }

func TestRunScheduler_SkipsWhenLockHeldElsewhere(t *testing.T) {
	handler := &stubHandler{id: models.TaskReport}
	s, p, _ := newTestScheduler(t, handler)
	s.locker = deniedLocker{}

	require.NoError(t, p.Tasks().Create(context.Background(), &models.ScheduledTask{
		ID: "due", TenantID: "t1", Name: "due task", Type: models.TaskReport,
		Frequency: models.FrequencyHourly, Enabled: true, NextRunAt: time.Now().Add(-time.Minute),
	}))

	require.NoError(t, s.RunScheduler(context.Background()))
	assert.Equal(t, 0, handler.calls)
}
