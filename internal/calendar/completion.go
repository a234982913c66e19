package calendar

import "habitgrid/internal/model"

// CountLogs returns how many of the given logs belong to the habit and fall
// on the given date key. Log dates may be bare dates or full timestamps.
func CountLogs(habit model.Habit, logs []model.HabitLog, dateKey string) int {
	if dateKey == "" {
		return 0
	}
	n := 0
	for _, l := range logs {
		if l.HabitID != habit.ID {
			continue
		}
		if NormalizeDateString(l.Date) == dateKey {
			n++
		}
	}
	return n
}

// Target returns the habit's daily target, never less than 1.
func Target(habit model.Habit) int {
	if habit.TimesPerDay < 1 {
		return 1
	}
	return habit.TimesPerDay
}

// IsComplete reports whether the habit met its daily target on the date.
func IsComplete(habit model.Habit, logs []model.HabitLog, dateKey string) bool {
	return CountLogs(habit, logs, dateKey) >= Target(habit)
}

// Progress returns the (count, target) pair for partial-progress display.
func Progress(habit model.Habit, logs []model.HabitLog, dateKey string) (int, int) {
	return CountLogs(habit, logs, dateKey), Target(habit)
}
