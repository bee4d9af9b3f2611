package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"racebot/internal/admin"
	"racebot/internal/domain"
	"racebot/pkg/tgui"
)

const cellTitleLimit = 15

func mainMenuMarkup(lang string) *tele.ReplyMarkup {
	return tgui.NewInline().
		Row(tgui.Btn(T("menu.pre_race", lang), tgui.Data(nsMenu, "pre_race"))).
		Row(tgui.Btn(T("menu.bingo", lang), tgui.Data(nsMenu, "bingo"))).
		Row(tgui.Btn(T("menu.post_race", lang), tgui.Data(nsMenu, "post_race"))).
		Row(tgui.Btn(T("menu.language", lang), tgui.Data(nsMenu, "language"))).
		Markup()
}

func languageMarkup() *tele.ReplyMarkup {
	return tgui.NewInline().
		Row(
			tgui.Btn("🇷🇺 Русский", tgui.Data(nsLang, "ru")),
			tgui.Btn("🇬🇧 English", tgui.Data(nsLang, "en")),
		).
		Markup()
}

// contentCTAMarkup is the keyboard under a published item, both in the menu
// view and on broadcast: pre-race links to the bingo card, post-race to the
// next race preview.
func contentCTAMarkup(kind domain.ContentKind, lang string) *tele.ReplyMarkup {
	b := tgui.NewInline()
	switch kind {
	case domain.KindPreRace:
		b.Row(tgui.Btn(T("menu.open_bingo", lang), tgui.Data(nsMenu, "bingo")))
	case domain.KindPostRace:
		b.Row(tgui.Btn(T("menu.next_race", lang), tgui.Data(nsMenu, "pre_race")))
	}
	b.Row(tgui.Btn(T("menu.back", lang), tgui.Data(nsMenu, "main")))
	return b.Markup()
}

// BroadcastMarkup builds the fan-out call-to-action keyboard for item. It is
// injected into the fan-out service at wiring time.
func BroadcastMarkup(item domain.ContentItem) any {
	return contentCTAMarkup(item.Key.Kind, item.Key.Lang)
}

func truncateTitle(title string) string {
	r := []rune(title)
	if len(r) <= cellTitleLimit {
		return title
	}
	return string(r[:cellTitleLimit-3]) + "..."
}

// bingoMarkup renders the 4x4 card plus the finish row. Cell status comes
// from the user state; absent entries render as unchecked.
func bingoMarkup(tpl domain.BingoTemplate, st domain.BingoUserState, lang string) *tele.ReplyMarkup {
	b := tgui.NewInline()
	for i := 0; i < len(tpl.Cells); i += 4 {
		row := make([]tele.Btn, 0, 4)
		for j := i; j < i+4 && j < len(tpl.Cells); j++ {
			cell := tpl.Cells[j]
			mark := "⬜"
			if st.Cells[cell.ID].Done() {
				mark = "✅"
			}
			row = append(row, tgui.Btn(
				mark+" "+truncateTitle(cell.Title),
				tgui.Data(nsBingo, "toggle", cell.ID),
			))
		}
		b.Row(row...)
	}
	finish := T("bingo.finish", lang,
		"count", fmt.Sprintf("%d", st.CompletionCount()),
		"total", fmt.Sprintf("%d", domain.TemplateSize))
	b.Row(tgui.Btn(finish, tgui.Data(nsBingo, "finish")))
	return b.Markup()
}

func adminMenuMarkup() *tele.ReplyMarkup {
	return tgui.NewInline().
		Row(tgui.Btn("📋 Pending Pre-Race", tgui.Data(nsAdmin, "list", string(domain.KindPreRace)))).
		Row(tgui.Btn("🏁 Pending Post-Race", tgui.Data(nsAdmin, "list", string(domain.KindPostRace)))).
		Row(tgui.Btn("🔄 Generate Post-Race", tgui.Data(nsAdmin, "generate", string(domain.KindPostRace)))).
		Markup()
}

func decisionRow(key domain.ContentKey) []tele.Btn {
	label := fmt.Sprintf("%s (%s)", key.EventID, key.Lang)
	return []tele.Btn{
		tgui.Btn("✅ "+label, tgui.Data(nsAdmin, string(admin.ActionApprove), string(key.Kind), key.EventID, key.Lang)),
		tgui.Btn("❌ "+label, tgui.Data(nsAdmin, string(admin.ActionCancel), string(key.Kind), key.EventID, key.Lang)),
	}
}

func pendingListMarkup(items []domain.ContentItem) *tele.ReplyMarkup {
	b := tgui.NewInline()
	for _, item := range items {
		b.Row(decisionRow(item.Key)...)
	}
	return b.Markup()
}
