package news

import (
	"testing"
	"time"

	"flashwire/internal/feed"
)

func TestSessionsPutGet(t *testing.T) {
	s := NewSessions(time.Minute)
	items := []feed.Item{{Title: "A"}, {Title: "B"}}
	s.Put(10, items)

	got, ok := s.Get(10)
	if !ok || len(got) != 2 || got[0].Title != "A" {
		t.Fatalf("Get = %v ok=%v", got, ok)
	}
	if _, ok := s.Get(11); ok {
		t.Fatalf("unknown chat should miss")
	}
}

func TestSessionsCopyOnPut(t *testing.T) {
	s := NewSessions(time.Minute)
	items := []feed.Item{{Title: "A"}}
	s.Put(1, items)
	items[0].Title = "mutated"

	got, _ := s.Get(1)
	if got[0].Title != "A" {
		t.Fatalf("snapshot should not alias caller slice: %v", got)
	}
}

func TestSessionsExpiry(t *testing.T) {
	s := NewSessions(20 * time.Millisecond)
	s.Put(1, []feed.Item{{Title: "A"}})

	if _, ok := s.Get(1); !ok {
		t.Fatalf("fresh snapshot should hit")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := s.Get(1); ok {
		t.Fatalf("expired snapshot should miss")
	}
}

func TestSessionsDrop(t *testing.T) {
	s := NewSessions(time.Minute)
	s.Put(1, []feed.Item{{Title: "A"}})
	s.Drop(1)
	if _, ok := s.Get(1); ok {
		t.Fatalf("dropped snapshot should miss")
	}
}
