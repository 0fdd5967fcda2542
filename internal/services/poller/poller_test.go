package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"flashwire/pkg/logx"
)

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.Interval != defaultInterval {
		t.Fatalf("interval = %v", c.Interval)
	}
	if c.InitialDelay != defaultInitialDelay {
		t.Fatalf("initial delay = %v", c.InitialDelay)
	}

	c = Config{Interval: time.Minute, InitialDelay: 0}.withDefaults()
	if c.Interval != time.Minute || c.InitialDelay != 0 {
		t.Fatalf("explicit values overwritten: %+v", c)
	}
}

func TestInitialPassFires(t *testing.T) {
	var runs atomic.Int32
	s := New(Config{Interval: time.Hour, InitialDelay: 10 * time.Millisecond}, func(context.Context) {
		runs.Add(1)
	}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() != 1 {
		t.Fatalf("initial pass count = %d", runs.Load())
	}
}

func TestStopPreventsFurtherPasses(t *testing.T) {
	var runs atomic.Int32
	s := New(Config{Interval: time.Hour, InitialDelay: 50 * time.Millisecond}, func(context.Context) {
		runs.Add(1)
	}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Stop(context.Background())

	time.Sleep(100 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Fatalf("job ran %d times after stop", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	s := New(Config{Interval: time.Hour, InitialDelay: time.Hour}, func(context.Context) {}, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	s.Start(ctx)
	s.Stop(context.Background())
	// Second stop is a no-op.
	s.Stop(context.Background())
}
