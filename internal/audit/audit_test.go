package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"postpilot/pkg/logx"
)

func nopLogger() logx.Logger { return logx.Nop() }

func TestAppendNewestFirst(t *testing.T) {
	t.Parallel()
	l := New(nil, nopLogger())

	l.Append(context.Background(), LevelInfo, "first", "", nil)
	l.Append(context.Background(), LevelSuccess, "second", "item-1", nil)

	got := l.Entries()
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Message != "second" || got[1].Message != "first" {
		t.Fatalf("unexpected order: %q, %q", got[0].Message, got[1].Message)
	}
	if got[0].ItemID != "item-1" {
		t.Fatalf("ItemID = %q", got[0].ItemID)
	}
}

func TestCapEvictsOldest(t *testing.T) {
	t.Parallel()
	l := New(nil, nopLogger())

	for i := 0; i < MaxEntries+1; i++ {
		l.Append(context.Background(), LevelInfo, fmt.Sprintf("entry %d", i), "", nil)
	}

	got := l.Entries()
	if len(got) != MaxEntries {
		t.Fatalf("entries = %d, want %d", len(got), MaxEntries)
	}
	// Entry 0 is the oldest and must be the one evicted.
	if got[len(got)-1].Message != "entry 1" {
		t.Fatalf("oldest surviving entry = %q, want %q", got[len(got)-1].Message, "entry 1")
	}
	if got[0].Message != fmt.Sprintf("entry %d", MaxEntries) {
		t.Fatalf("newest entry = %q", got[0].Message)
	}
}

func TestRestoreTruncatesBeyondCap(t *testing.T) {
	t.Parallel()
	l := New(nil, nopLogger())

	entries := make([]Entry, MaxEntries+50)
	for i := range entries {
		entries[i] = Entry{ID: fmt.Sprint(i), At: time.Now().UnixMilli(), Level: LevelInfo, Message: fmt.Sprint(i)}
	}
	l.Restore(entries)

	if got := l.Len(); got != MaxEntries {
		t.Fatalf("len = %d, want %d", got, MaxEntries)
	}
}
