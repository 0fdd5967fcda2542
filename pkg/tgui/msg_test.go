package tgui

import (
	"strings"
	"testing"
)

func TestBuilderEscapesLines(t *testing.T) {
	m := New().Line("a <b> & c").Build()
	if m.Text != "a &lt;b&gt; &amp; c" {
		t.Fatalf("escaped text: %q", m.Text)
	}
	if m.Opt == nil || m.Opt.ParseMode != "HTML" || !m.Opt.DisablePreview {
		t.Fatalf("unexpected defaults: %+v", m.Opt)
	}
}

func TestBuilderRawLineAndPreview(t *testing.T) {
	m := New().DisablePreview(false).RawLine("<b>x</b>").Build()
	if m.Text != "<b>x</b>" {
		t.Fatalf("raw line: %q", m.Text)
	}
	if m.Opt.DisablePreview {
		t.Fatalf("preview should stay enabled")
	}
}

func TestBuilderTitleAndBullets(t *testing.T) {
	m := New().Title("⚡", "Hi & bye").Blank().Bullets("one", "", "two").Build()
	lines := strings.Split(m.Text, "\n")
	if lines[0] != "⚡ <b>Hi &amp; bye</b>" {
		t.Fatalf("title line: %q", lines[0])
	}
	if lines[len(lines)-1] != "• two" || lines[len(lines)-2] != "• one" {
		t.Fatalf("bullets: %q", lines)
	}
}

func TestBuilderInlineMarkup(t *testing.T) {
	kb := NewInline().Row(Btn("Go", "x:y"))
	m := New().Line("hi").Inline(kb).Build()
	if m.Opt.ReplyMarkupAdapter == nil {
		t.Fatalf("expected markup attached")
	}
}

func TestEscAndHelpers(t *testing.T) {
	if Esc("<x>").String() != "&lt;x&gt;" {
		t.Fatalf("Esc: %q", Esc("<x>"))
	}
	if B("a").String() != "<b>a</b>" {
		t.Fatalf("B: %q", B("a"))
	}
	if got := JoinH("|", Raw("a"), Raw(" "), Raw("b")).String(); got != "a|b" {
		t.Fatalf("JoinH skips blanks: %q", got)
	}
}

func TestTruncRunes(t *testing.T) {
	if got := TruncRunes("héllo", 3); got != "hél…" {
		t.Fatalf("TruncRunes: %q", got)
	}
	if got := TruncRunes("ok", 10); got != "ok" {
		t.Fatalf("TruncRunes no-op: %q", got)
	}
	if got := TruncRunes("x", 0); got != "" {
		t.Fatalf("TruncRunes zero: %q", got)
	}
}
