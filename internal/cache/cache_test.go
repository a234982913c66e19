package cache

import (
	"testing"
	"time"
)

func TestGetAfterPutWithinTTL(t *testing.T) {
	c := New(5 * time.Minute)
	c.Put("habits", []string{"run", "read"})

	v, ok := c.Get("habits")
	if !ok {
		t.Fatal("expected hit immediately after Put")
	}
	list, ok := v.([]string)
	if !ok || len(list) != 2 {
		t.Fatalf("unexpected cached value %v", v)
	}
}

func TestGetMissesAfterTTL(t *testing.T) {
	c := New(5 * time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	c.Put("habits", "value")

	now = now.Add(4 * time.Minute)
	if _, ok := c.Get("habits"); !ok {
		t.Error("expected hit before TTL elapsed")
	}

	now = now.Add(time.Minute) // exactly TTL
	if _, ok := c.Get("habits"); ok {
		t.Error("expected miss once TTL elapsed")
	}
}

func TestInvalidateForcesMiss(t *testing.T) {
	c := New(time.Hour)
	c.Put("habits", "value")
	c.Invalidate("habits")
	if _, ok := c.Get("habits"); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestInvalidateAll(t *testing.T) {
	c := New(time.Hour)
	c.Put("habits", "a")
	c.Put(RangeKey("2025-06-01", "2025-07-05"), "b")
	c.InvalidateAll()
	if _, ok := c.Get("habits"); ok {
		t.Error("habits entry survived InvalidateAll")
	}
	if _, ok := c.Get(RangeKey("2025-06-01", "2025-07-05")); ok {
		t.Error("range entry survived InvalidateAll")
	}
}

func TestPutReplacesPriorEntry(t *testing.T) {
	c := New(5 * time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	c.Put("habits", "old")
	now = now.Add(4 * time.Minute)
	c.Put("habits", "new")

	// The replacement resets the timestamp, so the entry is still fresh
	// 4 minutes later.
	now = now.Add(4 * time.Minute)
	v, ok := c.Get("habits")
	if !ok {
		t.Fatal("expected hit after replacement")
	}
	if v != "new" {
		t.Errorf("got %v, want new", v)
	}
}

func TestRangeKeyDistinguishesRanges(t *testing.T) {
	a := RangeKey("2025-06-01", "2025-07-05")
	b := RangeKey("2025-06-08", "2025-07-12")
	if a == b {
		t.Error("distinct ranges must map to distinct keys")
	}
}
