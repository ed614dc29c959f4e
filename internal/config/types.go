// Package config loads and watches postpilot's configuration file.
//
// YAML and JSON are both accepted; YAML is coerced to JSON so one strict
// decoder (DisallowUnknownFields) covers both. All durations are Go duration
// strings ("2m", "45s").
package config

import "fmt"

type Config struct {
	Logging LoggingConfig `json:"logging"`
	Storage StorageConfig `json:"storage"`
	Poster  PosterConfig  `json:"poster"`
	Engine  EngineConfig  `json:"engine"`

	// Slots define the recurring daily publish windows, in suggestion order.
	// Omitted: three windows at 9:00, 16:00 and 21:00.
	Slots []SlotConfig `json:"slots,omitempty"`

	// Timezone is the IANA zone slot hours are resolved in. Default: local.
	Timezone string `json:"timezone,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"` // default INFO
	Console bool          `json:"console"`
	File    FileLogConfig `json:"file,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig selects the persistence driver.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./postpilot.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"` // sqlite (default), file, none
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// PosterConfig selects the publish destination.
type PosterConfig struct {
	Kind     string                `json:"kind"` // "telegram" or "webhook"
	Telegram *TelegramPosterConfig `json:"telegram,omitempty"`
	Webhook  *WebhookPosterConfig  `json:"webhook,omitempty"`
}

type TelegramPosterConfig struct {
	Token      string `json:"token"`
	ChannelID  int64  `json:"channel_id"`
	RatePerMin int    `json:"rate_per_min,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
}

type WebhookPosterConfig struct {
	URL        string `json:"url"`
	AuthToken  string `json:"auth_token,omitempty"`
	RatePerMin int    `json:"rate_per_min,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
}

// EngineConfig tunes the scheduler.
//
// Defaults (when fields are omitted):
//   - grace_period: "2m"
//   - stuck_threshold: "5m"
//   - tick: "@every 1m" (cron expressions also accepted)
//   - post_timeout: "45s"
//   - horizon_days: 14
type EngineConfig struct {
	GracePeriod    string `json:"grace_period,omitempty"`
	StuckThreshold string `json:"stuck_threshold,omitempty"`
	Tick           string `json:"tick,omitempty"`
	PostTimeout    string `json:"post_timeout,omitempty"`
	HorizonDays    int    `json:"horizon_days,omitempty"`
}

type SlotConfig struct {
	Name string `json:"name"`
	Hour int    `json:"hour"`
}

// DefaultSlots is used when the config omits the slots list.
func DefaultSlots() []SlotConfig {
	return []SlotConfig{
		{Name: "morning", Hour: 9},
		{Name: "afternoon", Hour: 16},
		{Name: "evening", Hour: 21},
	}
}

// Validate rejects configs the engine could not run with.
func (c *Config) Validate() error {
	switch c.Poster.Kind {
	case "telegram":
		if c.Poster.Telegram == nil {
			return fmt.Errorf("poster.telegram block is required for kind=telegram")
		}
	case "webhook":
		if c.Poster.Webhook == nil {
			return fmt.Errorf("poster.webhook block is required for kind=webhook")
		}
	case "":
		return fmt.Errorf("poster.kind is required")
	default:
		return fmt.Errorf("unknown poster.kind %q", c.Poster.Kind)
	}
	for _, s := range c.Slots {
		if s.Hour < 0 || s.Hour > 23 {
			return fmt.Errorf("slots: %q hour %d out of range", s.Name, s.Hour)
		}
	}
	return nil
}
