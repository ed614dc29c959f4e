package engine

import (
	"errors"
	"time"
)

// InterruptedError is the fixed message attached to items swept out of a
// crashed Posting state. Displayed to the user next to the backlog entry.
const InterruptedError = "Posting was interrupted"

var (
	ErrNotBacklog = errors.New("item is not in the backlog")
)

// Config controls the engine.
//
// TickSpec accepts the same syntaxes as robfig/cron's parser with optional
// seconds, including descriptors like "@every 1m".
type Config struct {
	GracePeriod    time.Duration // max overdue for an automatic attempt; default 2m
	StuckThreshold time.Duration // max time in Posting before presumed crashed; default 5m
	TickSpec       string        // cadence of the periodic check; default "@every 1m"
	PostTimeout    time.Duration // in-process cap on one poster call; default 45s
	HorizonDays    int           // slot suggestion horizon; default 14
}

func (c Config) withDefaults() Config {
	if c.GracePeriod <= 0 {
		c.GracePeriod = 2 * time.Minute
	}
	if c.StuckThreshold <= 0 {
		c.StuckThreshold = 5 * time.Minute
	}
	if c.TickSpec == "" {
		c.TickSpec = "@every 1m"
	}
	if c.PostTimeout <= 0 {
		c.PostTimeout = 45 * time.Second
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 14
	}
	return c
}
