package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the full on-disk configuration. Durations are Go duration
// strings ("10s", "30m") so they read naturally in YAML.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Feed      FeedConfig      `json:"feed"`
	Storage   StorageConfig   `json:"storage"`
	Poll      PollConfig      `json:"poll"`
	Broadcast BroadcastConfig `json:"broadcast"`
	Session   SessionConfig   `json:"session,omitempty"`
}

type TelegramConfig struct {
	// Token may be left empty in the file; the TELEGRAM_TOKEN environment
	// variable takes precedence either way.
	Token          string `json:"token,omitempty"`
	PollTimeout    string `json:"poll_timeout,omitempty"`
	OperatorChatID int64  `json:"operator_chat_id,omitempty"`
}

type LoggingConfig struct {
	Level    string            `json:"level,omitempty"`
	Console  bool              `json:"console"`
	File     LogFileConfig     `json:"file,omitempty"`
	Telegram LogTelegramConfig `json:"telegram,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type LogTelegramConfig struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

type FeedConfig struct {
	URL          string `json:"url"`
	MaxItems     int    `json:"max_items,omitempty"`
	Timeout      string `json:"timeout,omitempty"`
	UserAgent    string `json:"user_agent,omitempty"`
	SnapshotFile string `json:"snapshot_file,omitempty"`
}

type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type PollConfig struct {
	Interval     string `json:"interval,omitempty"`
	InitialDelay string `json:"initial_delay,omitempty"`
}

type BroadcastConfig struct {
	Workers    int `json:"workers,omitempty"`
	RatePerSec int `json:"rate_per_sec,omitempty"`
	RetryMax   int `json:"retry_max,omitempty"`
}

type SessionConfig struct {
	TTL string `json:"ttl,omitempty"`
}

// decodeConfig strictly decodes JSON bytes (possibly coerced from YAML).
// Unknown fields are rejected so typos surface at startup instead of being
// silently ignored.
func decodeConfig(data []byte) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveToken returns the bot token: environment first, then the file.
func (c *Config) ResolveToken() string {
	if tok := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(c.Telegram.Token)
}

// Validate rejects configs that cannot produce a working bot. The token is
// checked here so a missing secret fails startup, not the first send.
func (c *Config) Validate() error {
	if c.ResolveToken() == "" {
		return fmt.Errorf("telegram token missing: set TELEGRAM_TOKEN or telegram.token")
	}
	if strings.TrimSpace(c.Feed.URL) == "" {
		return fmt.Errorf("feed.url is required")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Broadcast.Workers < 0 {
		return fmt.Errorf("broadcast.workers must be >= 0")
	}
	if c.Broadcast.RetryMax < 0 {
		return fmt.Errorf("broadcast.retry_max must be >= 0")
	}
	for _, f := range []struct{ name, raw string }{
		{"telegram.poll_timeout", c.Telegram.PollTimeout},
		{"feed.timeout", c.Feed.Timeout},
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"poll.interval", c.Poll.Interval},
		{"poll.initial_delay", c.Poll.InitialDelay},
		{"session.ttl", c.Session.TTL},
	} {
		if _, err := parseDurationField(f.name, f.raw); err != nil {
			return err
		}
	}
	return nil
}

// parseDurationField parses an optional Go duration string; empty means
// "use the default" and yields zero.
func parseDurationField(name, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", name, raw)
	}
	return d, nil
}

func durationOrDefault(raw string, def time.Duration) time.Duration {
	d, err := parseDurationField("", raw)
	if err != nil || d == 0 {
		return def
	}
	return d
}
