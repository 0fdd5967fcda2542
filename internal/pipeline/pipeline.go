// Package pipeline runs one ingestion-and-delivery pass:
// fetch → admit new → fan out to recipients.
package pipeline

import (
	"context"

	"flashwire/internal/feed"
	"flashwire/internal/kit"
	"flashwire/internal/news"
	"flashwire/internal/services/broadcast"
	"flashwire/internal/storage"
	"flashwire/pkg/logx"
)

type Pipeline struct {
	fetcher    *feed.Fetcher
	store      storage.Store
	dispatcher *broadcast.Service
	log        logx.Logger
}

// PassStats summarizes one pipeline pass for logging and tests.
type PassStats struct {
	Fetched    int
	Novel      int
	Recipients int
	JobID      string
}

func New(fetcher *feed.Fetcher, store storage.Store, dispatcher *broadcast.Service, log logx.Logger) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		store:      store,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Pass executes a single fetch → dedup → broadcast cycle.
//
// Every failure mode is recovered locally: a fetch error ends the pass with
// an empty batch, a storage error ends it before fan-out, and delivery
// failures are the dispatcher's business. The scheduler simply tries again
// on the next tick, and overlapping passes are safe because admission is
// atomic per title at the storage layer.
func (p *Pipeline) Pass(ctx context.Context) PassStats {
	var st PassStats

	items, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.log.Warn("feed fetch failed", logx.Err(err))
		return st
	}
	st.Fetched = len(items)
	if len(items) == 0 {
		return st
	}

	novel, err := p.store.AdmitNew(ctx, items)
	if err != nil {
		p.log.Error("dedup admission failed", logx.Err(err))
		return st
	}
	st.Novel = len(novel)
	if len(novel) == 0 {
		p.log.Debug("no novel items this pass", logx.Int("fetched", st.Fetched))
		return st
	}

	chatIDs, err := p.store.Recipients(ctx)
	if err != nil {
		p.log.Error("recipient listing failed", logx.Err(err))
		return st
	}
	st.Recipients = len(chatIDs)
	if len(chatIDs) == 0 {
		p.log.Info("novel items but no recipients yet", logx.Int("novel", st.Novel))
		return st
	}

	targets := make([]kit.ChatTarget, 0, len(chatIDs))
	for _, id := range chatIDs {
		targets = append(targets, kit.ChatTarget{ChatID: id})
	}
	texts := make([]string, 0, len(novel))
	var opt *kit.SendOptions
	for _, it := range novel {
		msg := news.BroadcastMessage(it)
		texts = append(texts, msg.Text)
		opt = msg.Opt
	}

	st.JobID = p.dispatcher.Enqueue("news:push", targets, texts, opt)
	p.log.Info("pipeline pass dispatched",
		logx.Int("fetched", st.Fetched),
		logx.Int("novel", st.Novel),
		logx.Int("recipients", st.Recipients),
		logx.String("job", st.JobID),
	)
	return st
}
