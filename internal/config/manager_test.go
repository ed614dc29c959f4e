package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
logging:
  level: DEBUG
  console: true
storage:
  driver: file
  path: ./store.json
poster:
  kind: webhook
  webhook:
    url: https://example.test/hook
engine:
  grace_period: 2m
  tick: "@every 30s"
slots:
  - name: morning
    hour: 9
  - name: evening
    hour: 21
`

func TestParseYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.yaml", validYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.Poster.Kind != "webhook" || cfg.Poster.Webhook.URL != "https://example.test/hook" {
		t.Fatalf("poster = %+v", cfg.Poster)
	}
	if len(cfg.Slots) != 2 || cfg.Slots[1].Hour != 21 {
		t.Fatalf("slots = %+v", cfg.Slots)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.json",
		`{"logging":{"console":true},"storage":{"driver":"sqlite","path":"./p.db"},"poster":{"kind":"telegram","telegram":{"token":"t","channel_id":-100123}},"engine":{}}`))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Poster.Telegram.ChannelID != -100123 {
		t.Fatalf("channel_id = %d", cfg.Poster.Telegram.ChannelID)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.json",
		`{"poster":{"kind":"webhook","webhook":{"url":"x"}},"bogus_field":1}`))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateRejectsBadPoster(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{name: "missing kind", body: `{"poster":{}}`},
		{name: "unknown kind", body: `{"poster":{"kind":"carrier-pigeon"}}`},
		{name: "kind without block", body: `{"poster":{"kind":"telegram"}}`},
		{name: "slot hour out of range", body: `{"poster":{"kind":"webhook","webhook":{"url":"x"}},"slots":[{"name":"x","hour":24}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewManager(writeConfig(t, "config.json", tt.body))
			if _, err := m.Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{name: "explicit", raw: "2m", want: 2 * time.Minute},
		{name: "empty falls back", raw: "", want: 5 * time.Second},
		{name: "zero falls back", raw: "0s", want: 5 * time.Second},
		{name: "garbage", raw: "not-a-duration", wantErr: true},
		{name: "negative", raw: "-1s", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, err := Duration("x", tt.raw, 5*time.Second)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil || d != tt.want {
				t.Fatalf("d=%v err=%v, want %v", d, err, tt.want)
			}
		})
	}
}
