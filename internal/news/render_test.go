package news

import (
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"flashwire/internal/feed"
)

func inlineButtons(t *testing.T, markup any) []tele.InlineButton {
	t.Helper()
	rm, ok := markup.(*tele.ReplyMarkup)
	if !ok || rm == nil {
		t.Fatalf("expected *tele.ReplyMarkup, got %T", markup)
	}
	var btns []tele.InlineButton
	for _, row := range rm.InlineKeyboard {
		btns = append(btns, row...)
	}
	return btns
}

func tenItems() []feed.Item {
	items := make([]feed.Item, 0, 10)
	for _, title := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		items = append(items, feed.Item{Title: title, Link: "https://e/" + title})
	}
	return items
}

func TestItemText(t *testing.T) {
	got := ItemText(feed.Item{Title: "Big <News>", Link: "https://e/x"})
	if !strings.Contains(got, "<b>Big &lt;News&gt;</b>") {
		t.Fatalf("title not escaped/bolded: %q", got)
	}
	if !strings.Contains(got, "https://e/x") {
		t.Fatalf("link missing: %q", got)
	}
}

func TestBroadcastMessageKeepsPreview(t *testing.T) {
	m := BroadcastMessage(feed.Item{Title: "T", Link: "https://e/t"})
	if m.Opt.DisablePreview {
		t.Fatalf("broadcast messages should keep the link preview")
	}
	if m.Opt.ReplyMarkupAdapter != nil {
		t.Fatalf("broadcast messages carry no keyboard")
	}
}

func TestPageMessageFirstPage(t *testing.T) {
	m := PageMessage(tenItems(), 0)
	if !strings.Contains(m.Text, "1/10") {
		t.Fatalf("missing page label: %q", m.Text)
	}
	btns := inlineButtons(t, m.Opt.ReplyMarkupAdapter)
	if len(btns) != 1 {
		t.Fatalf("first page should offer one button, got %v", btns)
	}
	if btns[0].Data != "news:page:1" {
		t.Fatalf("next button data = %q", btns[0].Data)
	}
}

func TestPageMessageLastPage(t *testing.T) {
	m := PageMessage(tenItems(), 9)
	if !strings.Contains(m.Text, "10/10") {
		t.Fatalf("missing page label: %q", m.Text)
	}
	btns := inlineButtons(t, m.Opt.ReplyMarkupAdapter)
	if len(btns) != 1 {
		t.Fatalf("last page should offer one button, got %v", btns)
	}
	if btns[0].Data != "news:page:8" {
		t.Fatalf("prev button data = %q", btns[0].Data)
	}
}

func TestPageMessageMiddlePage(t *testing.T) {
	m := PageMessage(tenItems(), 4)
	btns := inlineButtons(t, m.Opt.ReplyMarkupAdapter)
	if len(btns) != 2 {
		t.Fatalf("middle page should offer both buttons, got %v", btns)
	}
	if btns[0].Data != "news:page:3" || btns[1].Data != "news:page:5" {
		t.Fatalf("button data = %q / %q", btns[0].Data, btns[1].Data)
	}
}

func TestPageMessageSingleItem(t *testing.T) {
	m := PageMessage([]feed.Item{{Title: "only", Link: "https://e/1"}}, 0)
	if m.Opt.ReplyMarkupAdapter != nil {
		t.Fatalf("single item needs no pager buttons")
	}
	if !strings.Contains(m.Text, "1/1") {
		t.Fatalf("missing page label: %q", m.Text)
	}
}

func TestPageMessageEmpty(t *testing.T) {
	m := PageMessage(nil, 0)
	if m.Text != NoContentMessage().Text {
		t.Fatalf("empty items should render the no-content reply: %q", m.Text)
	}
}
