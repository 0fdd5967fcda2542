package broadcast

import (
	"context"
	"time"

	"flashwire/internal/kit"
	"flashwire/pkg/logx"
)

func (s *Service) worker(ctx context.Context, queue <-chan job, idx int) {
	for {
		// fast-exit so stop wins over queued work
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case j := <-queue:
			s.execJob(ctx, j)
		}
	}
}

func (s *Service) execJob(ctx context.Context, j job) {
	start := time.Now()
	s.setRunning(j.id, true)
	defer s.setRunning(j.id, false)

	s.log.Debug("broadcast job started", logx.String("job", j.id), logx.String("name", j.name), logx.Int("targets", len(j.targets)), logx.Int("texts", len(j.texts)))

	// Recipients in the outer loop: each recipient sees the texts in input
	// order, and a failure for one (recipient, text) pair never stops the
	// rest of the fan-out.
	for _, t := range j.targets {
		for _, text := range j.texts {
			if ctx.Err() != nil {
				return
			}
			if err := s.sendOne(ctx, j, t, text); err != nil {
				s.markFail(j.id, t)
			} else {
				s.markDone(j.id)
			}
		}
	}
	s.finish(j.id)

	if st, ok := s.Status(j.id); ok {
		fields := []logx.Field{
			logx.String("job", j.id),
			logx.String("name", j.name),
			logx.Int("total", st.Total),
			logx.Int("failed", st.Failed),
			logx.Duration("dur", time.Since(start)),
		}
		if st.Failed > 0 {
			s.log.Warn("broadcast job finished with failures", fields...)
		} else {
			s.log.Info("broadcast job finished", fields...)
		}
	}
}

func (s *Service) sendOne(ctx context.Context, j job, t kit.ChatTarget, text string) error {
	// Snapshot mutable dependencies to avoid races with Apply().
	s.mu.Lock()
	lim := s.limiter
	retry := s.cfg.RetryMax
	adapter := s.adapter
	s.mu.Unlock()

	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
	}
	var last error
	for i := 0; i <= retry; i++ {
		_, err := adapter.SendText(ctx, t, text, j.opt)
		if err == nil {
			return nil
		}
		last = err
		if i == retry {
			break
		}
		delay := time.Duration(200+100*i) * time.Millisecond
		tmr := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			if !tmr.Stop() {
				<-tmr.C
			}
			return ctx.Err()
		case <-tmr.C:
		}
	}
	if last != nil {
		s.log.Warn("broadcast send failed", logx.String("job", j.id), logx.Int64("chat_id", t.ChatID), logx.Err(last))
	}
	return last
}

func (s *Service) setRunning(id string, v bool) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		if v {
			st.StartedAt = time.Now()
			st.Running = true
		} else {
			st.Running = false
		}
	}
}

func (s *Service) markDone(id string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		st.Done++
	}
}

func (s *Service) markFail(id string, t kit.ChatTarget) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		st.Failed++
		if len(st.Failures) < 200 {
			st.Failures = append(st.Failures, t)
		}
	}
}

func (s *Service) finish(id string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		st.DoneAt = time.Now()
	}
}
