package calendar

import (
	"testing"

	"habitgrid/internal/model"
)

func logsFor(habitID int64, date string, n int) []model.HabitLog {
	logs := make([]model.HabitLog, n)
	for i := range logs {
		logs[i] = model.HabitLog{ID: int64(i + 1), HabitID: habitID, Date: date}
	}
	return logs
}

func TestIsCompleteThreshold(t *testing.T) {
	habit := model.Habit{ID: 1, TimesPerDay: 3}

	logs := logsFor(1, "2025-06-01", 2)
	if IsComplete(habit, logs, "2025-06-01") {
		t.Error("2 of 3 logs should not be complete")
	}
	count, target := Progress(habit, logs, "2025-06-01")
	if count != 2 || target != 3 {
		t.Errorf("Progress = %d/%d, want 2/3", count, target)
	}

	logs = append(logs, model.HabitLog{ID: 3, HabitID: 1, Date: "2025-06-01"})
	if !IsComplete(habit, logs, "2025-06-01") {
		t.Error("3 of 3 logs should be complete")
	}
}

func TestIsCompleteMonotonicInLogCount(t *testing.T) {
	for target := 1; target <= 4; target++ {
		habit := model.Habit{ID: 1, TimesPerDay: target}
		wasComplete := false
		for n := 0; n <= target+2; n++ {
			complete := IsComplete(habit, logsFor(1, "2025-06-01", n), "2025-06-01")
			if wasComplete && !complete {
				t.Fatalf("target %d: adding a log flipped complete back to incomplete at n=%d", target, n)
			}
			if complete != (n >= target) {
				t.Fatalf("target %d, %d logs: complete = %v", target, n, complete)
			}
			wasComplete = complete
		}
	}
}

func TestCountLogsIgnoresOtherHabitsAndDates(t *testing.T) {
	habit := model.Habit{ID: 1, TimesPerDay: 1}
	logs := []model.HabitLog{
		{ID: 1, HabitID: 1, Date: "2025-06-01"},
		{ID: 2, HabitID: 2, Date: "2025-06-01"}, // other habit
		{ID: 3, HabitID: 1, Date: "2025-06-02"}, // other day
	}
	if got := CountLogs(habit, logs, "2025-06-01"); got != 1 {
		t.Errorf("CountLogs = %d, want 1", got)
	}
}

func TestCountLogsNormalizesTimestamps(t *testing.T) {
	habit := model.Habit{ID: 1, TimesPerDay: 2}
	logs := []model.HabitLog{
		{ID: 1, HabitID: 1, Date: "2025-06-01"},
		{ID: 2, HabitID: 1, Date: "2025-06-01T22:15:00Z"},
	}
	if !IsComplete(habit, logs, "2025-06-01") {
		t.Error("mixed date and timestamp logs on the same day should both count")
	}
}

func TestTargetNeverBelowOne(t *testing.T) {
	if got := Target(model.Habit{}); got != 1 {
		t.Errorf("Target of zero-valued habit = %d, want 1", got)
	}
	if got := Target(model.Habit{TimesPerDay: 4}); got != 4 {
		t.Errorf("Target = %d, want 4", got)
	}
}
