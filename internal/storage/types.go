package storage

import (
	"context"
	"errors"
	"time"

	"postpilot/internal/audit"
	"postpilot/internal/queue"
)

var (
	ErrDisabled = errors.New("storage disabled")
	ErrNotFound = queue.ErrNotFound
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "file":   dependency-free JSON snapshot
//
// If Driver is "none", storage is disabled and the queue is memory-only.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the engine.
//
// All item mutations are atomic per item. There is no multi-item
// transaction: callers moving several items accept partial-failure risk.
type Store interface {
	ListItems(ctx context.Context) ([]queue.Item, error)
	InsertItem(ctx context.Context, it queue.Item) error
	UpdateItem(ctx context.Context, it queue.Item) error
	DeleteItem(ctx context.Context, id string) error

	AppendAudit(ctx context.Context, e audit.Entry) error
	ListAudit(ctx context.Context, limit int) ([]audit.Entry, error)
	PruneAudit(ctx context.Context, keep int) error

	SetBadge(ctx context.Context, count int) error
	GetBadge(ctx context.Context) (int, error)

	Close() error
}
