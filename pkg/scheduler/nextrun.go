package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stockflow-io/stockflow/pkg/models"
)

// cronFallback is applied when a custom cron expression does not parse.
const cronFallback = 24 * time.Hour

// NextRun computes when a task should run next, counted from now in now's
// location. Daily, weekly and monthly tasks run at local midnight.
func NextRun(frequency models.TaskFrequency, cronExpression string, now time.Time) (time.Time, error) {
	switch frequency {
	case models.FrequencyHourly:
		return now.Add(time.Hour), nil

	case models.FrequencyDaily:
		return startOfDay(now).AddDate(0, 0, 1), nil

	case models.FrequencyWeekly:
		return startOfDay(now).AddDate(0, 0, 7), nil

	case models.FrequencyMonthly:
		return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location()), nil

	case models.FrequencyCustom:
		schedule, err := cron.ParseStandard(cronExpression)
		if err != nil {
			// Documented fallback: an unparseable expression degrades
			// to a daily cadence instead of wedging the task.
			return now.Add(cronFallback), fmt.Errorf("invalid cron expression %q, falling back to 24h: %w", cronExpression, err)
		}

		return schedule.Next(now), nil

	default:
		return time.Time{}, fmt.Errorf("unknown task frequency %q", frequency)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
