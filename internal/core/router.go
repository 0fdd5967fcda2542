package core

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"flashwire/internal/kit"
	"flashwire/internal/news"
	"flashwire/pkg/logx"
	"flashwire/pkg/tgui"
)

// handleTimeout bounds one update's processing so a slow send can't wedge
// the dispatch loop's workers forever.
const handleTimeout = 30 * time.Second

// Router fans inbound updates out to the news handler. Commands come from
// message text ("/news"), callbacks from "news:action:payload" data.
type Router struct {
	handler *news.Handler
	adapter kit.Adapter
	log     logx.Logger
}

func NewRouter(handler *news.Handler, adapter kit.Adapter, log logx.Logger) *Router {
	return &Router{handler: handler, adapter: adapter, log: log}
}

// Commands returns the menu entries the bot advertises.
func (r *Router) Commands() []kit.BotCommand {
	return []kit.BotCommand{
		{Command: "start", Description: "subscribe and show the menu"},
		{Command: "help", Description: "how to use the bot"},
		{Command: "news", Description: "browse the latest headlines"},
	}
}

// DispatchLoop consumes updates until ctx is done. Each update is handled in
// its own goroutine; ordering between updates is not significant here.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			go r.handle(ctx, up)
		}
	}
}

func (r *Router) handle(ctx context.Context, up kit.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic handling update", logx.Any("panic", rec), logx.String("stack", string(debug.Stack())))
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	switch up.Kind {
	case kit.UpdateMessage:
		if up.Message == nil {
			return
		}
		r.handleCommand(hctx, up.Message)
	case kit.UpdateCallback:
		if up.Callback == nil {
			return
		}
		r.handleCallback(hctx, up.Callback)
	}
}

func (r *Router) handleCommand(ctx context.Context, m *kit.Message) {
	cmd := commandName(m.Text)
	if cmd == "" {
		return
	}

	var err error
	switch cmd {
	case "start":
		err = r.handler.Start(ctx, m)
	case "help":
		err = r.handler.Help(ctx, m)
	case "news":
		err = r.handler.News(ctx, m)
	default:
		r.log.Debug("unknown command", logx.String("cmd", cmd), logx.Int64("chat_id", m.ChatID))
		return
	}
	if err != nil {
		r.log.Warn("command failed", logx.String("cmd", cmd), logx.Int64("chat_id", m.ChatID), logx.Err(err))
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *kit.Callback) {
	scope, action, payload := tgui.ParseData(strings.TrimSpace(cb.Data))
	if scope != news.CallbackScope {
		r.log.Debug("unknown callback scope", logx.String("scope", scope))
		return
	}
	if err := r.handler.Callback(ctx, cb, action, payload); err != nil {
		r.log.Warn("callback failed", logx.String("action", action), logx.Int64("chat_id", cb.ChatID), logx.Err(err))
	}
}

// commandName extracts "news" from "/news" or "/news@SomeBot arg...".
// Non-command text yields "".
func commandName(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	first := strings.Fields(text)[0]
	first = strings.TrimPrefix(first, "/")
	if at := strings.IndexByte(first, '@'); at >= 0 {
		first = first[:at]
	}
	return strings.ToLower(first)
}
