// Package news owns the presentation of feed items: broadcast message text,
// the interactive pager, and the per-chat session snapshots backing it.
package news

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"flashwire/internal/feed"
	"flashwire/pkg/tgui"
)

// Callback routes understood by the news handler.
const (
	CallbackScope = "news"
	ActionGet     = "get"
	ActionPage    = "page"
)

// ItemText renders one item the way broadcast messages look:
// a bold headline plus the source link.
func ItemText(it feed.Item) string {
	return tgui.JoinH("\n",
		tgui.Raw("🗞️ ")+tgui.B(it.Title),
		tgui.Raw("🔗 ")+tgui.Esc(it.Link),
	).String()
}

// BroadcastMessage builds the push-delivery form of an item (no keyboard).
// Link previews stay on so pushed headlines show the article card.
func BroadcastMessage(it feed.Item) tgui.Message {
	return tgui.New().
		DisablePreview(false).
		RawLine(ItemText(it)).
		Build()
}

// PageMessage builds the interactive form of item idx out of items, with
// prev/next buttons where the neighbouring index exists. The first item
// offers only "next", the last only "prev".
func PageMessage(items []feed.Item, idx int) tgui.Message {
	sub, page, hasPrev, hasNext := tgui.PaginateSlice(items, idx, 1)
	if len(sub) == 0 {
		return NoContentMessage()
	}

	var btns []tele.Btn
	if hasPrev {
		btns = append(btns, tgui.Btn("⬅️ Prev", tgui.Data(CallbackScope, ActionPage, strconv.Itoa(page-1))))
	}
	if hasNext {
		btns = append(btns, tgui.Btn("Next ➡️", tgui.Data(CallbackScope, ActionPage, strconv.Itoa(page+1))))
	}

	b := tgui.New().
		RawLine(ItemText(sub[0])).
		Blank().
		RawLine(tgui.I(tgui.PageLabel(page, len(items))).String())
	if len(btns) > 0 {
		b.Inline(tgui.NewInline().Row(btns...))
	}
	return b.Build()
}

// WelcomeMessage greets a newly started chat and offers the news button.
func WelcomeMessage() tgui.Message {
	return tgui.New().
		Title("⚡", "Welcome to FlashWire!").
		Blank().
		Line("I push the latest headlines to you as they appear,").
		Line("and you can browse them any time with /news.").
		Inline(tgui.NewInline().Row(tgui.Btn("📢 Get news", tgui.Data(CallbackScope, ActionGet, "")))).
		Build()
}

// HelpMessage lists the available commands.
func HelpMessage() tgui.Message {
	return tgui.New().
		Title("📘", "FlashWire commands").
		Blank().
		Bullets(
			"/start - subscribe and show the menu",
			"/help - this help",
			"/news - browse the latest headlines",
		).
		Build()
}

// NoContentMessage is the user-visible reply when the feed has nothing to
// show right now. Not an error; the next request simply tries again.
func NoContentMessage() tgui.Message {
	return tgui.New().
		Line("❗ No news available right now, try again later.").
		Build()
}

