package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"flashwire/pkg/logx"
)

func rssBody(items ...[2]string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>t</title>`)
	for _, it := range items {
		fmt.Fprintf(&b, "<item><title>%s</title><link>%s</link></item>", it[0], it[1])
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func serveRSS(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchReturnsItemsInOrder(t *testing.T) {
	srv := serveRSS(t, rssBody(
		[2]string{"First", "https://e/1"},
		[2]string{"Second", "https://e/2"},
		[2]string{"Third", "https://e/3"},
	), http.StatusOK)

	f, err := NewFetcher(Config{URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []Item{
		{Title: "First", Link: "https://e/1"},
		{Title: "Second", Link: "https://e/2"},
		{Title: "Third", Link: "https://e/3"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchTrimsAndSkipsEmptyTitles(t *testing.T) {
	srv := serveRSS(t, rssBody(
		[2]string{"  Padded  ", "  https://e/1  "},
		[2]string{"   ", "https://e/skip"},
		[2]string{"Kept", "https://e/2"},
	), http.StatusOK)

	f, err := NewFetcher(Config{URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].Title != "Padded" || items[0].Link != "https://e/1" {
		t.Fatalf("trimming failed: %+v", items[0])
	}
	if items[1].Title != "Kept" {
		t.Fatalf("blank title not skipped: %+v", items)
	}
}

func TestFetchCapsAtMaxItems(t *testing.T) {
	entries := make([][2]string, 0, 15)
	for i := 0; i < 15; i++ {
		entries = append(entries, [2]string{fmt.Sprintf("T%d", i), fmt.Sprintf("https://e/%d", i)})
	}
	srv := serveRSS(t, rssBody(entries...), http.StatusOK)

	f, err := NewFetcher(Config{URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	items, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != defaultMaxItems {
		t.Fatalf("got %d items, want %d", len(items), defaultMaxItems)
	}
	if items[0].Title != "T0" || items[9].Title != "T9" {
		t.Fatalf("cap should keep the newest entries in order: %+v", items)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := serveRSS(t, "", http.StatusInternalServerError)

	f, err := NewFetcher(Config{URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	_, err = f.Fetch(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", se.Code)
	}
}

func TestFetcherRequiresURL(t *testing.T) {
	if _, err := NewFetcher(Config{}, logx.Nop()); err == nil {
		t.Fatalf("expected error for missing url")
	}
}

func TestApplyDuringFetch(t *testing.T) {
	srv := serveRSS(t, rssBody([2]string{"T", "https://e/t"}), http.StatusOK)

	f, err := NewFetcher(Config{URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			f.Apply(Config{URL: srv.URL, Timeout: time.Duration(i+1) * time.Second})
		}
	}()
	for i := 0; i < 50; i++ {
		if _, err := f.Fetch(context.Background()); err != nil {
			t.Fatalf("Fetch during Apply: %v", err)
		}
	}
	<-done
}

func TestFetchWritesSnapshot(t *testing.T) {
	srv := serveRSS(t, rssBody([2]string{"Snap", "https://e/s"}), http.StatusOK)
	snap := filepath.Join(t.TempDir(), "feed.log")

	f, err := NewFetcher(Config{URL: srv.URL, SnapshotFile: snap}, logx.Nop())
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if _, err := f.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	b, err := os.ReadFile(snap)
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if !strings.Contains(string(b), "Snap\thttps://e/s") {
		t.Fatalf("snapshot content: %q", string(b))
	}
}
