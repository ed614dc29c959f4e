package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"postpilot/internal/audit"
	"postpilot/internal/queue"
	"postpilot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// The whole state lives in one JSON snapshot which is rewritten atomically
// (temp file + rename) on every mutation. Fine for a personal queue of a few
// hundred items; use the sqlite driver for anything bigger.
type fileStore struct {
	log  logx.Logger
	path string

	mu   sync.Mutex
	snap snapshot
}

type snapshot struct {
	Items []queue.Item  `json:"items"`
	Audit []audit.Entry `json:"audit"` // newest first
	Badge int           `json:"badge"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{log: log, path: path}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fresh store
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(b, &s.snap); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *fileStore) Close() error { return nil }

// flushLocked writes the snapshot via temp+rename so a crash mid-write
// never truncates the previous state.
func (s *fileStore) flushLocked() error {
	b, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) ListItems(ctx context.Context) ([]queue.Item, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]queue.Item(nil), s.snap.Items...), nil
}

func (s *fileStore) InsertItem(ctx context.Context, it queue.Item) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Items = append(s.snap.Items, it)
	return s.flushLocked()
}

func (s *fileStore) UpdateItem(ctx context.Context, it queue.Item) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snap.Items {
		if s.snap.Items[i].ID == it.ID {
			s.snap.Items[i] = it
			return s.flushLocked()
		}
	}
	return ErrNotFound
}

func (s *fileStore) DeleteItem(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snap.Items {
		if s.snap.Items[i].ID == id {
			s.snap.Items = append(s.snap.Items[:i], s.snap.Items[i+1:]...)
			return s.flushLocked()
		}
	}
	return ErrNotFound
}

func (s *fileStore) AppendAudit(ctx context.Context, e audit.Entry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Audit = append([]audit.Entry{e}, s.snap.Audit...)
	return s.flushLocked()
}

func (s *fileStore) ListAudit(ctx context.Context, limit int) ([]audit.Entry, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]audit.Entry(nil), s.snap.Audit...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fileStore) PruneAudit(ctx context.Context, keep int) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep >= 0 && len(s.snap.Audit) > keep {
		s.snap.Audit = s.snap.Audit[:keep]
		return s.flushLocked()
	}
	return nil
}

func (s *fileStore) SetBadge(ctx context.Context, count int) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Badge == count {
		return nil
	}
	s.snap.Badge = count
	return s.flushLocked()
}

func (s *fileStore) GetBadge(ctx context.Context) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Badge, nil
}
