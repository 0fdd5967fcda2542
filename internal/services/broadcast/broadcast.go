package broadcast

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"flashwire/internal/kit"
	"flashwire/pkg/logx"
)

type Config struct {
	Workers    int
	RatePerSec int
	RetryMax   int
}

// job is one fan-out: every text delivered to every target, iterating
// targets in the outer loop so each recipient receives the texts in order.
type job struct {
	id      string
	name    string
	targets []kit.ChatTarget
	texts   []string
	opt     *kit.SendOptions
}

// JobStatus tracks one fan-out. Done counts successful sends only; once the
// job finishes, Done+Failed == Total.
type JobStatus struct {
	ID        string
	Name      string
	Total     int
	Done      int
	Failed    int
	Failures  []kit.ChatTarget
	CreatedAt time.Time
	StartedAt time.Time
	DoneAt    time.Time
	Running   bool
}

type Service struct {
	mu sync.Mutex

	cfg     Config
	adapter kit.Adapter
	log     logx.Logger

	limiter *rate.Limiter
	queue   chan job
	// stopDone is non-nil while a Stop() is in progress; it is closed when
	// workers fully exit.
	stopDone chan struct{}

	statusMu sync.RWMutex
	status   map[string]*JobStatus

	runCancel context.CancelFunc
	workerWG  sync.WaitGroup

	seq atomic.Uint64
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger) *Service {
	return &Service{
		cfg:     cfg,
		adapter: adapter,
		log:     log,
		status:  map[string]*JobStatus{},
	}
}

// Apply updates rate limiting and retry knobs at runtime. Worker count
// changes take effect on the next Start.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.limiter = newLimiter(cfg.RatePerSec)
	s.mu.Unlock()
}

func newLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), rps)
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil {
		return
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	s.limiter = newLimiter(s.cfg.RatePerSec)
	s.queue = make(chan job, 64)

	runCtx, cancel := context.WithCancel(ctx)
	s.runCancel = cancel
	queue := s.queue

	s.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		idx := i
		go func() {
			defer s.workerWG.Done()
			s.worker(runCtx, queue, idx)
		}()
	}
	s.log.Info("dispatcher started", logx.Int("workers", workers), logx.Int("rate_per_sec", s.cfg.RatePerSec))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.queue == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	done := make(chan struct{})
	s.stopDone = done
	cancel := s.runCancel
	s.runCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	go func() {
		s.workerWG.Wait()
		s.mu.Lock()
		s.queue = nil
		s.stopDone = nil
		s.mu.Unlock()
		close(done)
		s.log.Info("dispatcher stopped")
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// stop continues in background
	}
}

// Enqueue submits one fan-out job: every text delivered to every target.
// Returns the job id for Status lookups. If the service is not running or
// the queue is full, the job is dropped and marked failed.
func (s *Service) Enqueue(name string, targets []kit.ChatTarget, texts []string, opt *kit.SendOptions) string {
	now := time.Now()
	id := fmt.Sprintf("bc:%d", s.seq.Add(1))
	st := &JobStatus{ID: id, Name: name, Total: len(targets) * len(texts), CreatedAt: now}
	s.statusMu.Lock()
	s.status[id] = st
	s.pruneStatusLocked(now)
	s.statusMu.Unlock()

	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		s.log.Warn("dispatcher not running; dropping job", logx.String("job", id), logx.String("name", name))
		s.failAll(id)
		return id
	}
	select {
	case q <- job{id: id, name: name, targets: targets, texts: texts, opt: opt}:
		s.log.Debug("broadcast job enqueued", logx.String("job", id), logx.String("name", name), logx.Int("targets", len(targets)), logx.Int("texts", len(texts)))
	default:
		s.log.Warn("broadcast queue full; dropping job", logx.String("job", id), logx.String("name", name))
		s.failAll(id)
	}
	return id
}

// Status returns a copy of the job's current state.
func (s *Service) Status(jobID string) (JobStatus, bool) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st, ok := s.status[jobID]
	if !ok || st == nil {
		return JobStatus{}, false
	}
	cp := *st
	if len(st.Failures) > 0 {
		cp.Failures = append([]kit.ChatTarget(nil), st.Failures...)
	}
	return cp, true
}

func (s *Service) failAll(id string) {
	s.statusMu.Lock()
	if st := s.status[id]; st != nil {
		st.DoneAt = time.Now()
		st.Failed = st.Total
	}
	s.statusMu.Unlock()
}

// pruneStatusLocked drops finished statuses older than an hour so the map
// does not grow unbounded on a long-running daemon.
func (s *Service) pruneStatusLocked(now time.Time) {
	cutoff := now.Add(-1 * time.Hour)
	for id, st := range s.status {
		if st == nil || st.Running || st.DoneAt.IsZero() {
			continue
		}
		if st.DoneAt.Before(cutoff) {
			delete(s.status, id)
		}
	}
}
