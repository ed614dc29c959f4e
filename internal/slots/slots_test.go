package slots

import (
	"errors"
	"testing"
	"time"

	"postpilot/internal/queue"
)

func testCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := NewCalendar([]Slot{
		{Name: "morning", Hour: 9},
		{Name: "afternoon", Hour: 16},
		{Name: "evening", Hour: 21},
	}, time.UTC)
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	return cal
}

func pendingAt(id string, at time.Time) queue.Item {
	return queue.Item{ID: id, PlainText: "x", ScheduledFor: at.UnixMilli(), Status: queue.StatusPending}
}

func TestFindNextAvailableSlotDeterminism(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// 9:00 is past, 16:00 is occupied; the answer must be today's 21:00.
	occupied := []queue.Item{pendingAt("a", time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC))}

	got, err := cal.FindNextAvailableSlot(now, occupied, DefaultHorizonDays)
	if err != nil {
		t.Fatalf("FindNextAvailableSlot: %v", err)
	}
	want := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("slot = %v, want %v", got, want)
	}
}

func TestFindNextAvailableSlotRollsToNextDay(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC) // all of today is past

	got, err := cal.FindNextAvailableSlot(now, nil, DefaultHorizonDays)
	if err != nil {
		t.Fatalf("FindNextAvailableSlot: %v", err)
	}
	want := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("slot = %v, want %v", got, want)
	}
}

func TestFindNextAvailableSlotHorizonExhausted(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	// Occupy every slot within a 2-day horizon.
	var items []queue.Item
	for day := 0; day < 2; day++ {
		for _, h := range []int{9, 16, 21} {
			at := time.Date(2026, 3, 14+day, h, 0, 0, 0, time.UTC)
			items = append(items, pendingAt(at.String(), at))
		}
	}

	_, err := cal.FindNextAvailableSlot(now, items, 2)
	if !errors.Is(err, ErrNoFreeSlot) {
		t.Fatalf("err = %v, want ErrNoFreeSlot", err)
	}
}

func TestNonPendingItemsDoNotOccupySlots(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	posted := pendingAt("a", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	posted.Status = queue.StatusPosted

	got, err := cal.FindNextAvailableSlot(now, []queue.Item{posted}, DefaultHorizonDays)
	if err != nil {
		t.Fatalf("FindNextAvailableSlot: %v", err)
	}
	want := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("slot = %v, want %v", got, want)
	}
}

func TestWeekGrid(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) // a Monday
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

	it := pendingAt("a", time.Date(2026, 3, 12, 16, 0, 0, 0, time.UTC))
	days := cal.Week(weekStart, now, []queue.Item{it})

	if len(days) != 7 {
		t.Fatalf("days = %d, want 7", len(days))
	}
	for _, d := range days {
		if len(d.Cells) != 3 {
			t.Fatalf("cells = %d, want 3", len(d.Cells))
		}
	}

	// Wednesday 9:00 is in the past; Thursday 16:00 holds the item.
	wed := days[2]
	if !wed.Cells[0].Past {
		t.Fatal("wednesday 9:00 should be past")
	}
	thu := days[3]
	if thu.Cells[1].Past {
		t.Fatal("thursday 16:00 should not be past")
	}
	if thu.Cells[1].Item == nil || thu.Cells[1].Item.ID != "a" {
		t.Fatalf("thursday 16:00 should hold item a, got %+v", thu.Cells[1].Item)
	}
}

func TestNewCalendarRejectsBadHours(t *testing.T) {
	t.Parallel()
	if _, err := NewCalendar([]Slot{{Name: "bad", Hour: 24}}, time.UTC); err == nil {
		t.Fatal("expected error for hour out of range")
	}
	if _, err := NewCalendar(nil, time.UTC); err == nil {
		t.Fatal("expected error for empty slot list")
	}
}
