package queue

import (
	"errors"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	if _, err := New("<p>x</p>", "  ", nil, now.Add(time.Hour), now); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrEmptyContent", err)
	}
	if _, err := New("<p>x</p>", "x", nil, now, now); !errors.Is(err, ErrPastSchedule) {
		t.Fatalf("err = %v, want ErrPastSchedule", err)
	}
	if _, err := New("<p>x</p>", "x", nil, now.Add(-time.Minute), now); !errors.Is(err, ErrPastSchedule) {
		t.Fatalf("err = %v, want ErrPastSchedule", err)
	}

	it, err := New("<p>x</p>", "x", &Media{Kind: "photo", Ref: "/tmp/a.jpg"}, now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if it.ID == "" {
		t.Fatal("ID not assigned")
	}
	if it.Status != StatusPending {
		t.Fatalf("status = %s, want pending", it.Status)
	}
	if it.ScheduledFor != now.Add(time.Hour).UnixMilli() {
		t.Fatalf("ScheduledFor = %d", it.ScheduledFor)
	}
	if it.Media == nil || it.Media.Ref != "/tmp/a.jpg" {
		t.Fatalf("media not carried: %+v", it.Media)
	}
}

func TestSortBySchedule(t *testing.T) {
	t.Parallel()
	items := []Item{
		{ID: "c", ScheduledFor: 300},
		{ID: "a", ScheduledFor: 100},
		{ID: "b2", ScheduledFor: 200},
		{ID: "b1", ScheduledFor: 200},
	}
	SortBySchedule(items)

	want := []string{"a", "b1", "b2", "c"}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("items[%d] = %s, want %s", i, items[i].ID, id)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	items := []Item{
		{ID: "a", Content: "<p>a</p>", PlainText: "a", ScheduledFor: 200, Status: StatusPending},
		{ID: "b", Content: "<p>b</p>", PlainText: "b", ScheduledFor: 100, Status: StatusBacklog, Error: "x"},
	}

	data, err := Export(items)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	got, err := Import(nil, data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("imported = %d, want 2", len(got))
	}
	// Export sorts by schedule, so "b" comes first.
	if got[0].ID != "b" || got[0].Error != "x" {
		t.Fatalf("unexpected first item: %+v", got[0])
	}
	if got[1].ID != "a" {
		t.Fatalf("unexpected second item: %+v", got[1])
	}
}

func TestImportResolvesCollisions(t *testing.T) {
	t.Parallel()
	existing := []Item{{ID: "dup", ScheduledFor: 100, Status: StatusPending}}
	data := []byte(`[
		{"id":"dup","plain_text":"a","scheduled_for":200,"status":"pending"},
		{"id":"dup","plain_text":"b","scheduled_for":300,"status":"pending"},
		{"plain_text":"c","scheduled_for":400,"status":"weird"}
	]`)

	added, err := Import(existing, data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(added) != 3 {
		t.Fatalf("added = %d, want 3", len(added))
	}
	seen := map[string]bool{"dup": true}
	for _, it := range added {
		if it.ID == "" {
			t.Fatal("missing ID after import")
		}
		if seen[it.ID] {
			t.Fatalf("ID %s not unique after import", it.ID)
		}
		seen[it.ID] = true
		if !it.Status.Valid() {
			t.Fatalf("invalid status %q survived import", it.Status)
		}
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	t.Parallel()
	if _, err := Import(nil, []byte(`{"not":"an array"}`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPendingFilter(t *testing.T) {
	t.Parallel()
	items := []Item{
		{ID: "a", Status: StatusPending},
		{ID: "b", Status: StatusPosted},
		{ID: "c", Status: StatusPending},
		{ID: "d", Status: StatusBacklog},
	}
	got := Pending(items)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected pending set: %+v", got)
	}
}
