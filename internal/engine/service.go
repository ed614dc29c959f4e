package engine

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"postpilot/internal/audit"
	"postpilot/internal/eventbus"
	"postpilot/internal/poster"
	"postpilot/internal/queue"
	"postpilot/internal/slots"
	"postpilot/internal/storage"
	"postpilot/pkg/logx"
)

// Service owns the item store and serializes every mutation to it: ticks and
// user actions alike go through one mutex, so there is never more than one
// writer per item.
type Service struct {
	cfg   Config
	sched cron.Schedule

	store storage.Store
	post  poster.Poster
	audit *audit.Log
	cal   *slots.Calendar
	bus   eventbus.Bus
	log   logx.Logger

	mu  sync.Mutex
	now func() time.Time
}

func New(cfg Config, store storage.Store, post poster.Poster, auditLog *audit.Log, cal *slots.Calendar, bus eventbus.Bus, log logx.Logger) (*Service, error) {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}

	// SecondOptional allows both 5-field and 6-field (with seconds) specs.
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(cfg.TickSpec)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:   cfg,
		sched: sched,
		store: store,
		post:  post,
		audit: auditLog,
		cal:   cal,
		bus:   bus,
		log:   log,
		now:   time.Now,
	}, nil
}

// Run sweeps stuck items once, then ticks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Sweep(ctx); err != nil {
		s.log.Error("startup sweep failed", logx.Err(err))
	}

	s.log.Info("engine started",
		logx.String("tick", s.cfg.TickSpec),
		logx.Duration("grace", s.cfg.GracePeriod),
		logx.Duration("stuck_threshold", s.cfg.StuckThreshold))

	for {
		now := s.now()
		timer := time.NewTimer(s.sched.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("engine stopped")
			return nil
		case <-timer.C:
			s.Tick(ctx)
		}
	}
}

// Items returns the full queue ordered by publish instant.
func (s *Service) Items(ctx context.Context) ([]queue.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	queue.SortBySchedule(items)
	return items, nil
}

// AuditEntries returns a newest-first snapshot of the audit log.
func (s *Service) AuditEntries() []audit.Entry { return s.audit.Entries() }

// WeekView renders the planning grid for the week starting at weekStart.
func (s *Service) WeekView(ctx context.Context, weekStart time.Time) ([]slots.Day, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return s.cal.Week(weekStart, s.now(), queue.Pending(items)), nil
}

// publishBadgeLocked persists and broadcasts the current backlog size.
func (s *Service) publishBadgeLocked(ctx context.Context) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		s.log.Warn("badge recount failed", logx.Err(err))
		return
	}
	count := 0
	for _, it := range items {
		if it.Status == queue.StatusBacklog {
			count++
		}
	}
	if err := s.store.SetBadge(ctx, count); err != nil {
		s.log.Warn("badge persist failed", logx.Err(err))
	}
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeBadge, Data: count})
	}
}
