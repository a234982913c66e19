package calendar

import "time"

// DateKeyLayout is the canonical YYYY-MM-DD form used as the join key between
// habit logs and calendar cells.
const DateKeyLayout = "2006-01-02"

// WeekStart returns the Sunday at or before t, at midnight in t's location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// WeekDays returns the 7 days from weekStart through weekStart+6.
func WeekDays(weekStart time.Time) []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}

// TrailingFiveWeeks returns the 4 weeks preceding today's week followed by
// the current week, oldest first. Each element is a 7-day WeekDays sequence.
func TrailingFiveWeeks(today time.Time) [][]time.Time {
	currentStart := WeekStart(today)
	weeks := make([][]time.Time, 0, 5)
	for i := 4; i >= 0; i-- {
		weeks = append(weeks, WeekDays(currentStart.AddDate(0, 0, -i*7)))
	}
	return weeks
}

// DateKey formats t as YYYY-MM-DD in t's location. The zero time maps to the
// empty string so a missing date never matches a real calendar cell.
func DateKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateKeyLayout)
}

// ParseKey parses a canonical date key back into a local-midnight time.
func ParseKey(key string) (time.Time, error) {
	return time.ParseInLocation(DateKeyLayout, key, time.Local)
}

// NormalizeDateString reduces a date value that may be either a bare
// YYYY-MM-DD string or a full ISO-8601 timestamp to its date-key form.
func NormalizeDateString(s string) string {
	if len(s) > len(DateKeyLayout) {
		return s[:len(DateKeyLayout)]
	}
	return s
}
