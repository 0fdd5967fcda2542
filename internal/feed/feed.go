// Package feed retrieves headline items from a remote syndication feed.
package feed

import (
	"fmt"
	"strings"
	"time"
)

// Item is a single feed entry. Title doubles as the item's identity for
// deduplication; Link is carried verbatim from the feed.
type Item struct {
	Title string
	Link  string
}

// StatusError reports a non-2xx response from the feed source.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed: unexpected status %d from %s", e.Code, e.URL)
}

// Config controls a Fetcher. Zero values fall back to defaults.
type Config struct {
	URL       string
	MaxItems  int
	Timeout   time.Duration
	UserAgent string

	// SnapshotFile, when set, receives a plain-text record of every fetched
	// batch. Auxiliary only; fetch results never depend on it.
	SnapshotFile string
}

const (
	defaultMaxItems = 10
	defaultTimeout  = 20 * time.Second

	// A desktop browser identity; some feed hosts reject obvious bots.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/114.0.0.0 Safari/537.36"
)

func (c Config) withDefaults() Config {
	if c.MaxItems <= 0 {
		c.MaxItems = defaultMaxItems
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}
