package client

import (
	"context"
	"sync"
	"time"

	"habitgrid/internal/cache"
	"habitgrid/internal/calendar"
	"habitgrid/internal/model"
)

// Feed drives a calendar screen: it decides when to hit the cache and when
// to force a refetch, fetches the trailing five-week window, and tolerates
// responses that land after a newer fetch has started.
type Feed struct {
	client *Client
	cache  *cache.Cache
	now    func() time.Time

	mu      sync.Mutex
	focused bool
	gen     uint64
	habits  []model.Habit
	logs    []model.HabitLog

	// hasFullMonthData flips once a full window fetch has succeeded; the
	// month layout stays gated until then.
	hasFullMonthData bool
}

func NewFeed(c *Client) *Feed {
	return &Feed{
		client: c,
		cache:  cache.New(cache.DefaultTTL),
		now:    time.Now,
	}
}

// SetClock replaces the time source for tests.
func (f *Feed) SetClock(now func() time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
	f.cache.SetClock(now)
}

// Window returns the five-week range bounds as date keys, oldest day first.
func (f *Feed) Window() (start, end string) {
	f.mu.Lock()
	today := f.now()
	f.mu.Unlock()
	weeks := calendar.TrailingFiveWeeks(today)
	first := weeks[0][0]
	lastWeek := weeks[len(weeks)-1]
	last := lastWeek[len(lastWeek)-1]
	return calendar.DateKey(first), calendar.DateKey(last)
}

// OnFocus loads the feed. The first focus after mount serves cached data
// when fresh; every re-focus forces a refetch so edits made on other screens
// appear immediately.
func (f *Feed) OnFocus(ctx context.Context, userID int64) error {
	f.mu.Lock()
	force := f.focused
	f.focused = true
	f.mu.Unlock()
	return f.load(ctx, userID, force)
}

// Refresh forces a refetch regardless of cache freshness (pull-to-refresh).
func (f *Feed) Refresh(ctx context.Context, userID int64) error {
	return f.load(ctx, userID, true)
}

// InvalidateLogs drops cached log windows after a completion toggle so the
// next focus refetches.
func (f *Feed) InvalidateLogs() {
	start, end := f.Window()
	f.cache.Invalidate(cache.RangeKey(start, end))
}

// InvalidateHabits drops the cached habit list after a habit mutation.
func (f *Feed) InvalidateHabits() {
	f.cache.Invalidate(cache.HabitsKey)
}

func (f *Feed) load(ctx context.Context, userID int64, force bool) error {
	start, end := f.Window()
	rangeKey := cache.RangeKey(start, end)

	if force {
		f.cache.Invalidate(cache.HabitsKey)
		f.cache.Invalidate(rangeKey)
	}

	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	habits, err := f.loadHabits(ctx, userID)
	if err != nil {
		return err
	}
	logs, err := f.loadLogs(ctx, userID, start, end, rangeKey)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// A newer load superseded this one; drop the stale result.
	if gen != f.gen {
		return nil
	}
	f.habits = habits
	f.logs = logs
	f.hasFullMonthData = true
	return nil
}

func (f *Feed) loadHabits(ctx context.Context, userID int64) ([]model.Habit, error) {
	if cached, ok := f.cache.Get(cache.HabitsKey); ok {
		return cached.([]model.Habit), nil
	}
	habits, err := f.client.Habits(ctx, userID)
	if err != nil {
		return nil, err
	}
	f.cache.Put(cache.HabitsKey, habits)
	return habits, nil
}

func (f *Feed) loadLogs(ctx context.Context, userID int64, start, end, key string) ([]model.HabitLog, error) {
	if cached, ok := f.cache.Get(key); ok {
		return cached.([]model.HabitLog), nil
	}
	logs, err := f.client.LogsRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	f.cache.Put(key, logs)
	return logs, nil
}

// Snapshot returns the current habits, logs and month-data flag.
func (f *Feed) Snapshot() ([]model.Habit, []model.HabitLog, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.habits, f.logs, f.hasFullMonthData
}

// LogsByDate groups the loaded logs under their normalized date key.
func (f *Feed) LogsByDate() map[string][]model.HabitLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	byDate := make(map[string][]model.HabitLog)
	for _, l := range f.logs {
		key := calendar.NormalizeDateString(l.Date)
		if key == "" {
			continue
		}
		byDate[key] = append(byDate[key], l)
	}
	return byDate
}
