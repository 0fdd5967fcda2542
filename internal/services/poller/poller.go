// Package poller arms the periodic pipeline trigger: one pass shortly after
// startup, then one per fixed interval.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"flashwire/pkg/logx"
)

type Config struct {
	Interval     time.Duration
	InitialDelay time.Duration
}

const (
	defaultInterval     = 30 * time.Minute
	defaultInitialDelay = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = defaultInitialDelay
	}
	return c
}

// Service fires a job on a fixed wall-clock interval. There is deliberately
// no overlap guard: the job must be independently safe when passes overlap,
// which the storage layer's atomic admission guarantees.
type Service struct {
	mu  sync.Mutex
	cfg Config
	job func(ctx context.Context)
	log logx.Logger

	c       *cron.Cron
	entry   cron.EntryID
	initial *time.Timer
	runCtx  context.Context
	runStop context.CancelFunc
}

func New(cfg Config, job func(ctx context.Context), log logx.Logger) *Service {
	return &Service{cfg: cfg.withDefaults(), job: job, log: log}
}

// Apply re-arms the periodic trigger with a new interval (hot reload).
// The initial-delay pass only ever runs once, at Start.
func (s *Service) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.Interval == s.cfg.Interval {
		s.cfg = cfg
		return
	}
	s.cfg = cfg
	if s.c == nil {
		return
	}
	s.c.Remove(s.entry)
	s.armLocked()
	s.log.Info("poll interval updated", logx.Duration("interval", cfg.Interval))
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}

	s.runCtx, s.runStop = context.WithCancel(ctx)
	s.c = cron.New()
	s.armLocked()
	s.c.Start()

	// First pass shortly after startup so a fresh deployment catches up
	// without waiting a full interval.
	delay := s.cfg.InitialDelay
	runCtx := s.runCtx
	s.initial = time.AfterFunc(delay, func() {
		if runCtx.Err() != nil {
			return
		}
		s.runOnce(runCtx, "initial")
	})

	s.log.Info("poller started",
		logx.Duration("interval", s.cfg.Interval),
		logx.Duration("initial_delay", delay),
	)
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	initial := s.initial
	s.initial = nil
	stop := s.runStop
	s.runStop = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	if initial != nil {
		initial.Stop()
	}
	if stop != nil {
		stop()
	}

	done := c.Stop().Done()
	select {
	case <-done:
		s.log.Info("poller stopped")
	case <-ctx.Done():
		s.log.Warn("poller stop cut short", logx.Err(ctx.Err()))
	}
}

func (s *Service) armLocked() {
	runCtx := s.runCtx
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	id, err := s.c.AddFunc(spec, func() {
		s.runOnce(runCtx, "interval")
	})
	if err != nil {
		// Interval specs are generated, not user input; this only fires on
		// a programming error.
		s.log.Error("poll schedule rejected", logx.String("spec", spec), logx.Err(err))
		return
	}
	s.entry = id
}

func (s *Service) runOnce(ctx context.Context, kind string) {
	if ctx == nil || ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in poll pass", logx.Any("panic", r))
		}
	}()
	s.log.Debug("poll pass begin", logx.String("trigger", kind))
	start := time.Now()
	s.job(ctx)
	s.log.Debug("poll pass end", logx.String("trigger", kind), logx.Duration("took", time.Since(start)))
}
