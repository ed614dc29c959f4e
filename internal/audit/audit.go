// Package audit keeps a bounded, newest-first record of engine events.
//
// The log is display-only: nothing in the scheduling path reads it back.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"postpilot/pkg/logx"
)

// MaxEntries caps the log; appends beyond the cap evict the oldest entry.
const MaxEntries = 500

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Entry struct {
	ID      string         `json:"id"`
	At      int64          `json:"at"` // unix milli
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	ItemID  string         `json:"item_id,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Sink persists entries. It is optional; a nil sink keeps the log in memory.
type Sink interface {
	AppendAudit(ctx context.Context, e Entry) error
	PruneAudit(ctx context.Context, keep int) error
}

// Log is the in-memory source of truth, mirrored to the sink when present.
type Log struct {
	mu      sync.Mutex
	entries []Entry // newest first

	sink Sink
	log  logx.Logger
	now  func() time.Time
}

func New(sink Sink, log logx.Logger) *Log {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Log{sink: sink, log: log, now: time.Now}
}

// Restore seeds the in-memory log, e.g. from storage at startup.
// Entries must already be newest-first; anything beyond the cap is dropped.
func (l *Log) Restore(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	l.entries = append([]Entry(nil), entries...)
}

func (l *Log) Append(ctx context.Context, level Level, msg, itemID string, details map[string]any) Entry {
	e := Entry{
		ID:      uuid.NewString(),
		At:      l.now().UnixMilli(),
		Level:   level,
		Message: msg,
		ItemID:  itemID,
		Details: details,
	}

	l.mu.Lock()
	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[:MaxEntries]
	}
	l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.AppendAudit(ctx, e); err != nil {
			l.log.Warn("audit persist failed", logx.Err(err))
		} else if err := l.sink.PruneAudit(ctx, MaxEntries); err != nil {
			l.log.Warn("audit prune failed", logx.Err(err))
		}
	}
	return e
}

// Entries returns a newest-first snapshot for display.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
