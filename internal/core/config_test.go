package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flashwire/pkg/logx"
)

const testYAML = `
telegram:
  token: "file-token"
  poll_timeout: "15s"
  operator_chat_id: 12345
logging:
  level: "debug"
  console: true
feed:
  url: "https://example.com/rss"
  max_items: 5
  timeout: "10s"
storage:
  path: "./data/bot.db"
poll:
  interval: "30m"
  initial_delay: "5s"
broadcast:
  workers: 2
  rate_per_sec: 20
  retry_max: 1
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	m := NewConfigManager(writeConfig(t, "config.yaml", testYAML), logx.Nop())

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "file-token" || cfg.Telegram.OperatorChatID != 12345 {
		t.Fatalf("telegram section = %+v", cfg.Telegram)
	}
	if cfg.Feed.URL != "https://example.com/rss" || cfg.Feed.MaxItems != 5 {
		t.Fatalf("feed section = %+v", cfg.Feed)
	}
	if cfg.Broadcast.Workers != 2 || cfg.Broadcast.RatePerSec != 20 {
		t.Fatalf("broadcast section = %+v", cfg.Broadcast)
	}
	if got := durationOrDefault(cfg.Poll.Interval, 0); got != 30*time.Minute {
		t.Fatalf("poll interval = %v", got)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tok")
	bad := testYAML + "\nmystery_knob: true\n"
	m := NewConfigManager(writeConfig(t, "config.yaml", bad), logx.Nop())
	if _, err := m.Load(); err == nil {
		t.Fatalf("unknown fields should be rejected")
	}
}

func TestTokenEnvPrecedence(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "file-token"}}

	t.Setenv("TELEGRAM_TOKEN", "env-token")
	if got := cfg.ResolveToken(); got != "env-token" {
		t.Fatalf("env should win: %q", got)
	}

	t.Setenv("TELEGRAM_TOKEN", "")
	if got := cfg.ResolveToken(); got != "file-token" {
		t.Fatalf("file fallback: %q", got)
	}
}

func TestValidateMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	cfg := &Config{
		Feed:    FeedConfig{URL: "https://example.com/rss"},
		Storage: StorageConfig{Path: "./bot.db"},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestValidateMissingFeedURL(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tok")
	cfg := &Config{Storage: StorageConfig{Path: "./bot.db"}}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "feed.url") {
		t.Fatalf("expected feed.url error, got %v", err)
	}
}

func TestValidateBadDuration(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tok")
	cfg := &Config{
		Feed:    FeedConfig{URL: "https://example.com/rss", Timeout: "soon"},
		Storage: StorageConfig{Path: "./bot.db"},
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "feed.timeout") {
		t.Fatalf("expected duration error, got %v", err)
	}
}

func TestValidateNegativeDuration(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tok")
	cfg := &Config{
		Feed:    FeedConfig{URL: "https://example.com/rss"},
		Storage: StorageConfig{Path: "./bot.db"},
		Poll:    PollConfig{Interval: "-5m"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("negative durations should be rejected")
	}
}

func TestDurationOrDefault(t *testing.T) {
	if got := durationOrDefault("", time.Minute); got != time.Minute {
		t.Fatalf("empty: %v", got)
	}
	if got := durationOrDefault("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("explicit: %v", got)
	}
	if got := durationOrDefault("garbage", time.Minute); got != time.Minute {
		t.Fatalf("invalid falls back: %v", got)
	}
}
