package engine

import (
	"context"
	"fmt"
	"time"

	"postpilot/internal/audit"
	"postpilot/internal/poster"
	"postpilot/internal/queue"
	"postpilot/pkg/logx"
)

// Create validates and schedules a new Pending item.
func (s *Service) Create(ctx context.Context, content, plainText string, media *queue.Media, at time.Time) (queue.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := queue.New(content, plainText, media, at, s.now())
	if err != nil {
		s.audit.Append(ctx, audit.LevelWarning, "Rejected: "+err.Error(), "", nil)
		return queue.Item{}, err
	}
	if err := s.store.InsertItem(ctx, it); err != nil {
		s.audit.Append(ctx, audit.LevelError, "Storage write failed: "+err.Error(), it.ID, nil)
		return queue.Item{}, err
	}
	s.audit.Append(ctx, audit.LevelInfo, "Scheduled for "+at.Format(time.RFC3339), it.ID, nil)
	s.log.Info("item scheduled", logx.String("item", it.ID), logx.Time("at", at))
	s.publishItemLocked(it)
	return it, nil
}

// Delete removes an item in any state.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.audit.Append(ctx, audit.LevelInfo, "Deleted", id, nil)
	s.publishBadgeLocked(ctx)
	return nil
}

// Retry re-enters the publish path for a backlog item: flip to Posting,
// one poster call, terminal outcome. The overdue check is deliberately
// skipped; the user asked for it now.
func (s *Service) Retry(ctx context.Context, id string) (queue.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.findLocked(ctx, id)
	if err != nil {
		return queue.Item{}, err
	}
	if it.Status != queue.StatusBacklog {
		return queue.Item{}, fmt.Errorf("%w: %s", ErrNotBacklog, it.Status)
	}

	s.audit.Append(ctx, audit.LevelInfo, "Retrying from backlog", it.ID, nil)
	s.attemptLocked(ctx, it)
	s.publishBadgeLocked(ctx)
	return s.findLocked(ctx, id)
}

// Reschedule removes a backlog item and hands its content back so the caller
// can create a replacement with a fresh schedule (commonly via SuggestSlot).
// The replacement gets a new identity; audit entries keep referring to the
// original item.
func (s *Service) Reschedule(ctx context.Context, id string) (queue.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.findLocked(ctx, id)
	if err != nil {
		return queue.Item{}, err
	}
	if it.Status != queue.StatusBacklog {
		return queue.Item{}, fmt.Errorf("%w: %s", ErrNotBacklog, it.Status)
	}
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return queue.Item{}, err
	}
	s.audit.Append(ctx, audit.LevelInfo, "Removed from backlog for rescheduling", id, nil)
	s.publishBadgeLocked(ctx)
	return it, nil
}

// PostNow publishes caller-supplied content immediately, bypassing the
// queue, the schedule and the Posting lock. The outcome is returned
// synchronously. A duplicate manual submission can double-publish; that
// trade-off is inherited from the manual path being lock-free.
func (s *Service) PostNow(ctx context.Context, req poster.Request) error {
	postCtx, cancel := context.WithTimeout(ctx, s.cfg.PostTimeout)
	defer cancel()

	err := s.post.Post(postCtx, req)
	if err != nil {
		s.audit.Append(ctx, audit.LevelError, "Manual publish failed: "+err.Error(), "", nil)
		return err
	}
	s.audit.Append(ctx, audit.LevelSuccess, "Published manually", "", nil)
	return nil
}

// SuggestSlot returns the next free planning slot for new content.
func (s *Service) SuggestSlot(ctx context.Context) (time.Time, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return s.cal.FindNextAvailableSlot(s.now(), queue.Pending(items), s.cfg.HorizonDays)
}

// Export serializes the full queue to a transportable JSON array.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return queue.Export(items)
}

// Import appends an exported array to the queue. ID collisions get fresh
// IDs. Inserts are per item; a mid-import storage error leaves the already
// inserted items in place.
func (s *Service) Import(ctx context.Context, data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListItems(ctx)
	if err != nil {
		return 0, err
	}
	added, err := queue.Import(existing, data)
	if err != nil {
		return 0, err
	}
	for i, it := range added {
		if err := s.store.InsertItem(ctx, it); err != nil {
			return i, fmt.Errorf("import stopped after %d items: %w", i, err)
		}
	}
	s.audit.Append(ctx, audit.LevelInfo, fmt.Sprintf("Imported %d items", len(added)), "", nil)
	s.publishBadgeLocked(ctx)
	return len(added), nil
}

func (s *Service) findLocked(ctx context.Context, id string) (queue.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return queue.Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return queue.Item{}, queue.ErrNotFound
}
