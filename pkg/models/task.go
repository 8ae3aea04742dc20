package models

import "time"

// TaskType selects the handler a scheduled task dispatches to.
type TaskType string

const (
	TaskReport     TaskType = "report"
	TaskExport     TaskType = "export"
	TaskBackup     TaskType = "backup"
	TaskAlertCheck TaskType = "alert_check"
	TaskSync       TaskType = "sync"
	TaskCleanup    TaskType = "cleanup"
)

// TaskFrequency controls next-run computation.
type TaskFrequency string

const (
	FrequencyHourly  TaskFrequency = "hourly"
	FrequencyDaily   TaskFrequency = "daily"
	FrequencyWeekly  TaskFrequency = "weekly"
	FrequencyMonthly TaskFrequency = "monthly"
	FrequencyCustom  TaskFrequency = "custom"
)

// ScheduledTask is a recurring unit of work. NextRunAt is recomputed after
// every execution; disabled tasks are excluded from due-task polling but kept.
type ScheduledTask struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id" validate:"required"`
	Name           string         `json:"name"      validate:"required,min=3"`
	Type           TaskType       `json:"type"      validate:"required"`
	Frequency      TaskFrequency  `json:"frequency" validate:"required"`
	CronExpression string         `json:"cron_expression,omitempty"`
	Configuration  map[string]any `json:"configuration,omitempty"`
	Enabled        bool           `json:"enabled"`
	LastRunAt      *time.Time     `json:"last_run_at,omitempty"`
	LastRunStatus  string         `json:"last_run_status,omitempty"`
	NextRunAt      time.Time      `json:"next_run_at"`
	Recipients     []string       `json:"recipients,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TaskExecution is one append-only record per task invocation.
type TaskExecution struct {
	ID          string          `json:"id"`
	TaskID      string          `json:"task_id"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Status      ExecutionStatus `json:"status"`
	Output      map[string]any  `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	Duration    time.Duration   `json:"duration"`
}
