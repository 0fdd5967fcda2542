package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"flashwire/pkg/logx"
)

// Fetcher retrieves the most recent entries from a single feed URL.
// It is safe for concurrent use; Apply() may swap config at runtime.
type Fetcher struct {
	mu  sync.Mutex
	cfg Config

	client *http.Client
	parser *gofeed.Parser
	log    logx.Logger
}

func NewFetcher(cfg Config, log logx.Logger) (*Fetcher, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("feed: url is required")
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		parser: gofeed.NewParser(),
		log:    log,
	}, nil
}

// Apply swaps the fetcher config (hot reload). A fresh client is built so
// in-flight requests keep the client they started with.
func (f *Fetcher) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	f.mu.Lock()
	f.cfg = cfg
	f.client = &http.Client{Timeout: cfg.Timeout}
	f.mu.Unlock()
}

// Fetch returns up to MaxItems of the most recent entries in source order,
// titles and links trimmed. A non-2xx response yields a *StatusError;
// callers are expected to treat any error as "try again later", never as an
// authoritative empty feed.
func (f *Fetcher) Fetch(ctx context.Context) ([]Item, error) {
	f.mu.Lock()
	cfg := f.cfg
	client := f.client
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: get %s: %w", cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: cfg.URL}
	}

	doc, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", cfg.URL, err)
	}

	items := make([]Item, 0, cfg.MaxItems)
	for _, e := range doc.Items {
		if len(items) >= cfg.MaxItems {
			break
		}
		title := strings.TrimSpace(e.Title)
		if title == "" {
			continue
		}
		items = append(items, Item{Title: title, Link: strings.TrimSpace(e.Link)})
	}

	f.log.Debug("feed fetched", logx.String("url", cfg.URL), logx.Int("items", len(items)))

	if cfg.SnapshotFile != "" {
		f.writeSnapshot(cfg.SnapshotFile, items)
	}
	return items, nil
}

// writeSnapshot appends the fetched batch to a plain-text file. Best effort;
// failures are logged and never surface to the caller.
func (f *Fetcher) writeSnapshot(path string, items []Item) {
	var b strings.Builder
	now := time.Now().Format(time.RFC3339)
	for _, it := range items {
		b.WriteString(now)
		b.WriteString("\t")
		b.WriteString(it.Title)
		b.WriteString("\t")
		b.WriteString(it.Link)
		b.WriteString("\n")
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		f.log.Warn("feed snapshot open failed", logx.String("path", path), logx.Err(err))
		return
	}
	defer fh.Close()
	if _, err := fh.WriteString(b.String()); err != nil {
		f.log.Warn("feed snapshot write failed", logx.String("path", path), logx.Err(err))
	}
}
