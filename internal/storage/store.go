package storage

import (
	"context"
	"time"

	"flashwire/internal/feed"
)

// Store is the durable dedup-and-recipients boundary.
//
// AdmitNew records each item's title and returns exactly the subset whose
// title was not previously present, preserving input order. Admission is
// atomic per item at the database layer (insert-if-absent), so overlapping
// pipeline passes cannot both see the same title as novel.
type Store interface {
	AdmitNew(ctx context.Context, items []feed.Item) ([]feed.Item, error)
	RegisterRecipient(ctx context.Context, chatID int64) error
	Recipients(ctx context.Context) ([]int64, error)
	Close() error
}

// Config selects and tunes the backing database.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}
