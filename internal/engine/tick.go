package engine

import (
	"context"

	"postpilot/internal/audit"
	"postpilot/internal/eventbus"
	"postpilot/internal/poster"
	"postpilot/internal/queue"
	"postpilot/pkg/logx"
)

// Tick runs one pass over the Pending queue. It is safe to call at any time;
// concurrent callers serialize on the engine mutex, and the durable Posting
// flip keeps even a re-entered tick from double-publishing.
func (s *Service) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	items, err := s.store.ListItems(ctx)
	if err != nil {
		s.log.Error("tick: list items failed", logx.Err(err))
		return
	}

	due := make([]queue.Item, 0, len(items))
	for _, it := range items {
		if it.Status == queue.StatusPending && it.ScheduledFor <= now.UnixMilli() {
			due = append(due, it)
		}
	}
	if len(due) == 0 {
		return
	}
	// Deterministic order: earliest schedule first.
	queue.SortBySchedule(due)

	s.log.Debug("tick", logx.Int("due", len(due)))

	anyBacklog := false
	for _, it := range due {
		overdue := now.UnixMilli() - it.ScheduledFor
		if overdue <= s.cfg.GracePeriod.Milliseconds() {
			if !s.attemptLocked(ctx, it) {
				anyBacklog = true
			}
			continue
		}

		// Too late to post automatically. Never attempted, so no error text.
		it.Status = queue.StatusBacklog
		it.BacklogAt = now.UnixMilli()
		if err := s.store.UpdateItem(ctx, it); err != nil {
			s.audit.Append(ctx, audit.LevelError, "Storage write failed: "+err.Error(), it.ID, nil)
			s.log.Error("tick: backlog move failed", logx.String("item", it.ID), logx.Err(err))
			continue
		}
		anyBacklog = true
		s.audit.Append(ctx, audit.LevelWarning, "Missed schedule beyond grace period, moved to backlog", it.ID, nil)
		s.log.Warn("item overdue beyond grace", logx.String("item", it.ID), logx.Int64("overdue_ms", overdue))
		s.publishItemLocked(it)
	}

	if anyBacklog {
		s.publishBadgeLocked(ctx)
	}
}

// attemptLocked publishes one item: durable flip to Posting, one poster
// call, then a terminal transition. Returns false when the item landed in
// the backlog.
func (s *Service) attemptLocked(ctx context.Context, it queue.Item) bool {
	now := s.now()
	it.Status = queue.StatusPosting
	it.PostingStartedAt = now.UnixMilli()
	it.Error = ""
	// This write must land before the poster runs; it is the idempotency
	// lock that makes a second tick skip the item.
	if err := s.store.UpdateItem(ctx, it); err != nil {
		s.audit.Append(ctx, audit.LevelError, "Storage write failed: "+err.Error(), it.ID, nil)
		s.log.Error("posting flip failed", logx.String("item", it.ID), logx.Err(err))
		return true
	}

	postCtx, cancel := context.WithTimeout(ctx, s.cfg.PostTimeout)
	err := s.post.Post(postCtx, poster.FromItem(it))
	cancel()

	done := s.now()
	if err != nil {
		it.Status = queue.StatusBacklog
		it.Error = err.Error()
		it.BacklogAt = done.UnixMilli()
		if uerr := s.store.UpdateItem(ctx, it); uerr != nil {
			s.audit.Append(ctx, audit.LevelError, "Storage write failed: "+uerr.Error(), it.ID, nil)
			s.log.Error("backlog move failed", logx.String("item", it.ID), logx.Err(uerr))
			return false
		}
		s.audit.Append(ctx, audit.LevelError, "Publishing failed: "+err.Error(), it.ID, nil)
		s.log.Warn("publish failed", logx.String("item", it.ID), logx.Err(err))
		s.publishItemLocked(it)
		return false
	}

	it.Status = queue.StatusPosted
	it.PostedAt = done.UnixMilli()
	if uerr := s.store.UpdateItem(ctx, it); uerr != nil {
		// The content is live; losing the state write means the sweep will
		// eventually park it as interrupted, where retry is harmless to skip.
		s.audit.Append(ctx, audit.LevelError, "Storage write failed: "+uerr.Error(), it.ID, nil)
		s.log.Error("posted state write failed", logx.String("item", it.ID), logx.Err(uerr))
		return true
	}
	s.audit.Append(ctx, audit.LevelSuccess, "Published", it.ID, nil)
	s.log.Info("published", logx.String("item", it.ID))
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypePosted, Data: it})
	}
	return true
}

// Sweep moves items stuck in Posting beyond the threshold to the backlog.
// Run once at startup; harmless to re-run.
func (s *Service) Sweep(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return err
	}

	swept := 0
	for _, it := range items {
		if it.Status != queue.StatusPosting {
			continue
		}
		if now.UnixMilli()-it.PostingStartedAt <= s.cfg.StuckThreshold.Milliseconds() {
			continue
		}
		it.Status = queue.StatusBacklog
		it.Error = InterruptedError
		it.BacklogAt = now.UnixMilli()
		if err := s.store.UpdateItem(ctx, it); err != nil {
			s.audit.Append(ctx, audit.LevelError, "Storage write failed: "+err.Error(), it.ID, nil)
			s.log.Error("sweep: backlog move failed", logx.String("item", it.ID), logx.Err(err))
			continue
		}
		swept++
		s.audit.Append(ctx, audit.LevelWarning, InterruptedError, it.ID, nil)
		s.log.Warn("swept interrupted item", logx.String("item", it.ID))
		s.publishItemLocked(it)
	}

	if swept > 0 {
		s.publishBadgeLocked(ctx)
	}
	return nil
}

func (s *Service) publishItemLocked(it queue.Item) {
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeItem, Data: it})
	}
}
