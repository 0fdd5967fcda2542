package news

import (
	"context"
	"errors"
	"strconv"

	"flashwire/internal/feed"
	"flashwire/internal/kit"
	"flashwire/internal/storage"
	"flashwire/pkg/logx"
)

// Handler serves the interactive browsing path: /start, /help, /news and the
// pager callbacks. Presentation lives here; the pipeline never depends on it.
type Handler struct {
	fetcher  *feed.Fetcher
	store    storage.Store
	sessions *Sessions
	adapter  kit.Adapter
	log      logx.Logger
}

func NewHandler(fetcher *feed.Fetcher, store storage.Store, sessions *Sessions, adapter kit.Adapter, log logx.Logger) *Handler {
	return &Handler{
		fetcher:  fetcher,
		store:    store,
		sessions: sessions,
		adapter:  adapter,
		log:      log,
	}
}

// Start registers the chat as a broadcast recipient and shows the menu.
// Registration failures are logged but never block the greeting.
func (h *Handler) Start(ctx context.Context, m *kit.Message) error {
	if err := h.store.RegisterRecipient(ctx, m.ChatID); err != nil {
		h.log.Warn("recipient registration failed", logx.Int64("chat_id", m.ChatID), logx.Err(err))
	} else {
		h.log.Info("recipient registered", logx.Int64("chat_id", m.ChatID))
	}
	_, err := WelcomeMessage().Send(ctx, h.adapter, kit.ChatTarget{ChatID: m.ChatID})
	return err
}

func (h *Handler) Help(ctx context.Context, m *kit.Message) error {
	_, err := HelpMessage().Send(ctx, h.adapter, kit.ChatTarget{ChatID: m.ChatID})
	return err
}

// News takes a fresh snapshot for the chat and shows the first headline.
func (h *Handler) News(ctx context.Context, m *kit.Message) error {
	items := h.fetchForDisplay(ctx, m.ChatID)
	if len(items) == 0 {
		_, err := NoContentMessage().Send(ctx, h.adapter, kit.ChatTarget{ChatID: m.ChatID})
		return err
	}
	_, err := PageMessage(items, 0).Send(ctx, h.adapter, kit.ChatTarget{ChatID: m.ChatID})
	return err
}

// Callback dispatches "news:*" button presses. The pressed message is edited
// in place, mirroring how the pager was presented.
func (h *Handler) Callback(ctx context.Context, cb *kit.Callback, action, payload string) error {
	// Ack first so the client stops its spinner even if rendering fails.
	_ = h.adapter.AnswerCallback(ctx, cb.ID, "")

	ref := kit.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
	switch action {
	case ActionGet:
		items := h.fetchForDisplay(ctx, cb.ChatID)
		if len(items) == 0 {
			_, err := NoContentMessage().Send(ctx, h.adapter, kit.ChatTarget{ChatID: cb.ChatID})
			return err
		}
		return PageMessage(items, 0).Edit(ctx, h.adapter, ref)

	case ActionPage:
		idx, err := strconv.Atoi(payload)
		if err != nil || idx < 0 {
			return errors.New("news: bad page payload " + strconv.Quote(payload))
		}
		items, ok := h.sessions.Get(cb.ChatID)
		if !ok {
			// Session expired mid-browse: take a fresh snapshot and clamp.
			items = h.fetchForDisplay(ctx, cb.ChatID)
		}
		if len(items) == 0 {
			_, err := NoContentMessage().Send(ctx, h.adapter, kit.ChatTarget{ChatID: cb.ChatID})
			return err
		}
		if idx >= len(items) {
			idx = len(items) - 1
		}
		return PageMessage(items, idx).Edit(ctx, h.adapter, ref)

	default:
		h.log.Debug("unknown news callback action", logx.String("action", action))
		return nil
	}
}

// fetchForDisplay fetches the latest batch for interactive use and caches it
// as the chat's session snapshot. A fetch failure yields an empty slice; the
// caller shows the no-content reply and the user can simply retry.
func (h *Handler) fetchForDisplay(ctx context.Context, chatID int64) []feed.Item {
	items, err := h.fetcher.Fetch(ctx)
	if err != nil {
		h.log.Warn("interactive fetch failed", logx.Err(err))
		return nil
	}
	if len(items) > 0 {
		h.sessions.Put(chatID, items)
	}
	return items
}
