package tgui

import (
	"reflect"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestDataSplitRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		ns     string
		action string
		args   []string
		want   string
	}{
		{name: "no args", ns: "menu", action: "open", want: "menu:open"},
		{name: "one arg", ns: "bingo", action: "toggle", args: []string{"safety_car"}, want: "bingo:toggle:safety_car"},
		{name: "three args", ns: "admin", action: "approve", args: []string{"pre_race", "monaco-2026", "ru"}, want: "admin:approve:pre_race:monaco-2026:ru"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Data(tc.ns, tc.action, tc.args...)
			if got != tc.want {
				t.Fatalf("Data() = %q, want %q", got, tc.want)
			}

			ns, action, args := Split(got)
			if ns != tc.ns || action != tc.action {
				t.Fatalf("Split = (%q, %q), want (%q, %q)", ns, action, tc.ns, tc.action)
			}
			if len(tc.args) > 0 && !reflect.DeepEqual(args, tc.args) {
				t.Fatalf("Split args = %v, want %v", args, tc.args)
			}
		})
	}
}

func TestDataTrimsNamespaceAndAction(t *testing.T) {
	if got := Data(" lang ", " set ", "ru"); got != "lang:set:ru" {
		t.Fatalf("got %q", got)
	}
}

func TestSplitShortData(t *testing.T) {
	ns, action, args := Split("menu")
	if ns != "menu" || action != "" || args != nil {
		t.Fatalf("got (%q, %q, %v)", ns, action, args)
	}

	ns, action, args = Split("")
	if ns != "" || action != "" || args != nil {
		t.Fatalf("got (%q, %q, %v)", ns, action, args)
	}
}

func TestInlineRows(t *testing.T) {
	kb := NewInline().
		Row(Btn("A", "x:a"), Btn("B", "x:b")).
		Row(Btn("C", "x:c")).
		Markup()

	if got := len(kb.InlineKeyboard); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	if got := len(kb.InlineKeyboard[0]); got != 2 {
		t.Fatalf("row 0 buttons = %d, want 2", got)
	}
	btn := kb.InlineKeyboard[0][1]
	if btn.Text != "B" || btn.Data != "x:b" {
		t.Fatalf("unexpected button %+v", btn)
	}
}

func TestGrid(t *testing.T) {
	btns := make([]tele.Btn, 0, 5)
	for _, s := range []string{"1", "2", "3", "4", "5"} {
		btns = append(btns, Btn(s, "g:"+s))
	}
	rm := Grid(2, btns)
	if got := len(rm.InlineKeyboard); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
	if got := len(rm.InlineKeyboard[2]); got != 1 {
		t.Fatalf("last row = %d buttons, want 1", got)
	}
}
