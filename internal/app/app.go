// Package app wires configuration, storage, the poster adapter and the
// engine into one runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"postpilot/internal/audit"
	"postpilot/internal/config"
	"postpilot/internal/engine"
	"postpilot/internal/eventbus"
	"postpilot/internal/poster"
	"postpilot/internal/poster/telegram"
	"postpilot/internal/poster/webhook"
	"postpilot/internal/slots"
	"postpilot/internal/storage"
	"postpilot/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	logs *logx.Service
	log  logx.Logger

	bus   eventbus.Bus
	store storage.Store
	al    *audit.Log
	eng   *engine.Service
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	bus := eventbus.New()

	busyTimeout, err := config.Duration("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("storage is required; set storage.driver to sqlite or file")
	}

	al := audit.New(store, log.With(logx.String("comp", "audit")))
	if entries, err := store.ListAudit(context.Background(), audit.MaxEntries); err != nil {
		log.Warn("audit restore failed", logx.Err(err))
	} else {
		al.Restore(entries)
	}

	post, err := buildPoster(cfg, log)
	if err != nil {
		return nil, err
	}

	cal, err := buildCalendar(cfg)
	if err != nil {
		return nil, err
	}

	engCfg, err := mapEngineConfig(cfg)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(engCfg, store, post, al, cal, bus, log.With(logx.String("comp", "engine")))
	if err != nil {
		return nil, err
	}

	return &App{
		cfgm:  cfgm,
		logs:  logSvc,
		log:   log,
		bus:   bus,
		store: store,
		al:    al,
		eng:   eng,
	}, nil
}

// Engine exposes the scheduler to callers embedding the app.
func (a *App) Engine() *engine.Service { return a.eng }

// Bus exposes UI-facing signals (badge count, item transitions).
func (a *App) Bus() eventbus.Bus { return a.bus }

// Run blocks until ctx is cancelled, then shuts down cleanly.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	// Config hot reload: logging applies live; engine knobs need a restart.
	sub := a.cfgm.Subscribe(1)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.cfgm.Watch(ctx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
				a.log.Info("logging config applied; engine changes take effect on restart")
			}
		}
	}()

	err := a.eng.Run(ctx)

	cancel()
	wg.Wait()
	a.cfgm.Unsubscribe(sub)

	if cerr := a.store.Close(); cerr != nil {
		a.log.Warn("store close failed", logx.Err(cerr))
	}
	_ = a.logs.Close()
	return err
}

func buildPoster(cfg *config.Config, log logx.Logger) (poster.Poster, error) {
	switch cfg.Poster.Kind {
	case "telegram":
		tg := cfg.Poster.Telegram
		timeout, err := config.Duration("poster.telegram.timeout", tg.Timeout, 45*time.Second)
		if err != nil {
			return nil, err
		}
		return telegram.New(telegram.Config{
			Token:      tg.Token,
			ChannelID:  tg.ChannelID,
			Timeout:    timeout,
			RatePerMin: tg.RatePerMin,
		}, log.With(logx.String("comp", "poster")))
	case "webhook":
		wh := cfg.Poster.Webhook
		timeout, err := config.Duration("poster.webhook.timeout", wh.Timeout, 45*time.Second)
		if err != nil {
			return nil, err
		}
		return webhook.New(webhook.Config{
			URL:        wh.URL,
			AuthToken:  wh.AuthToken,
			Timeout:    timeout,
			RatePerMin: wh.RatePerMin,
		}, log.With(logx.String("comp", "poster")))
	default:
		return nil, fmt.Errorf("unknown poster.kind %q", cfg.Poster.Kind)
	}
}

func buildCalendar(cfg *config.Config) (*slots.Calendar, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("timezone: %w", err)
		}
		loc = l
	}

	scs := cfg.Slots
	if len(scs) == 0 {
		scs = config.DefaultSlots()
	}
	ss := make([]slots.Slot, 0, len(scs))
	for _, sc := range scs {
		ss = append(ss, slots.Slot{Name: sc.Name, Hour: sc.Hour})
	}
	return slots.NewCalendar(ss, loc)
}

func mapEngineConfig(cfg *config.Config) (engine.Config, error) {
	grace, err := config.Duration("engine.grace_period", cfg.Engine.GracePeriod, 2*time.Minute)
	if err != nil {
		return engine.Config{}, err
	}
	stuck, err := config.Duration("engine.stuck_threshold", cfg.Engine.StuckThreshold, 5*time.Minute)
	if err != nil {
		return engine.Config{}, err
	}
	postTimeout, err := config.Duration("engine.post_timeout", cfg.Engine.PostTimeout, 45*time.Second)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		GracePeriod:    grace,
		StuckThreshold: stuck,
		TickSpec:       cfg.Engine.Tick,
		PostTimeout:    postTimeout,
		HorizonDays:    cfg.Engine.HorizonDays,
	}, nil
}
