package news

import (
	"sync"
	"time"

	"flashwire/internal/feed"
)

// Sessions is an in-memory TTL cache of per-chat headline snapshots.
//
// A snapshot is taken when a chat requests /news and then paged through via
// callbacks, so every page of one browsing session shows the same batch even
// if the upstream feed changes in between. Snapshots are ephemeral and never
// persisted.
type Sessions struct {
	mu sync.RWMutex

	ttl time.Duration

	// cleanupInterval controls how often we run an O(n) sweep to drop
	// expired snapshots, so Get/Put don't scan the whole map.
	cleanupInterval time.Duration
	nextCleanup     time.Time

	m map[int64]sessionEntry
}

type sessionEntry struct {
	items []feed.Item
	exp   time.Time
}

const (
	defaultSessionTTL    = 15 * time.Minute
	defaultSweepInterval = time.Minute
)

// NewSessions creates a session cache. ttl <= 0 uses the default (15m).
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{
		ttl:             ttl,
		cleanupInterval: defaultSweepInterval,
		m:               map[int64]sessionEntry{},
	}
}

// Put stores (or replaces) the snapshot for a chat.
func (s *Sessions) Put(chatID int64, items []feed.Item) {
	now := time.Now()
	s.maybeCleanup(now)

	cp := append([]feed.Item(nil), items...)
	s.mu.Lock()
	s.m[chatID] = sessionEntry{items: cp, exp: now.Add(s.ttl)}
	s.mu.Unlock()
}

// Get returns the live snapshot for a chat, if any.
func (s *Sessions) Get(chatID int64) ([]feed.Item, bool) {
	now := time.Now()
	s.maybeCleanup(now)

	s.mu.RLock()
	e, ok := s.m[chatID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if now.After(e.exp) {
		s.mu.Lock()
		if e2, ok2 := s.m[chatID]; ok2 && now.After(e2.exp) {
			delete(s.m, chatID)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.items, true
}

// Drop removes a chat's snapshot.
func (s *Sessions) Drop(chatID int64) {
	s.mu.Lock()
	delete(s.m, chatID)
	s.mu.Unlock()
}

func (s *Sessions) maybeCleanup(now time.Time) {
	s.mu.RLock()
	next := s.nextCleanup
	s.mu.RUnlock()

	if next.IsZero() {
		s.mu.Lock()
		if s.nextCleanup.IsZero() {
			s.nextCleanup = now.Add(s.cleanupInterval)
		}
		s.mu.Unlock()
		return
	}
	if now.Before(next) {
		return
	}

	s.mu.Lock()
	if !now.Before(s.nextCleanup) {
		for k, e := range s.m {
			if now.After(e.exp) {
				delete(s.m, k)
			}
		}
		s.nextCleanup = now.Add(s.cleanupInterval)
	}
	s.mu.Unlock()
}
