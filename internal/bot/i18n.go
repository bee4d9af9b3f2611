package bot

import "strings"

// translations holds all user-facing strings. English is the fallback for
// unknown languages; unknown keys come back verbatim so a missed entry is
// visible in the chat instead of silently blank.
var translations = map[string]map[string]string{
	"ru": {
		"menu.welcome":               "🏎️ Добро пожаловать в F1 Bot!\n\nВыберите действие:",
		"menu.pre_race":              "📋 F1 in 60 Seconds",
		"menu.bingo":                 "🎯 Bingo Cards",
		"menu.post_race":             "🏁 Race Result in 60 Seconds",
		"menu.language":              "🌐 Язык",
		"menu.pre_race_coming_soon":  "Скоро здесь будет превью гонки!",
		"menu.bingo_coming_soon":     "Скоро здесь будут Bingo Cards!",
		"menu.post_race_coming_soon": "Скоро здесь будут итоги гонки!",
		"menu.back":                  "🔙 Назад",
		"menu.open_bingo":            "🎯 Открыть Bingo Cards",
		"menu.next_race":             "📋 Следующая гонка",
		"bingo.title":                "🎯 Bingo Cards\n\nГонка: {race_name}\n\nОтмечайте события во время гонки:",
		"bingo.finish":               "✅ Завершить ({count}/{total})",
		"bingo.finish_result":        "🎉 Bingo завершён!\n\nЗакрашено: {checked} из {total} клеток\nГонка: {race_name}",
		"bingo.no_race":              "❌ Нет предстоящих гонок",
		"lang.choose":                "Выберите язык / Choose language:",
		"admin.denied":               "У вас нет прав администратора.",
		"admin.panel":                "Админ-панель:",
		"admin.approved":             "✅ Контент одобрен и опубликован!",
		"admin.cancelled":            "❌ Контент отменён",
		"admin.generating":           "🔄 Генерация запущена",
		"admin.no_pending":           "Нет контента на модерации",
		"admin.pending_header":       "Контент на модерации ({kind}):",
		"admin.new_pending":          "🆕 Новый контент на модерации: {key}",
		"admin.gone":                 "Этого контента уже нет",
		"error.generic":              "⚠️ Что-то пошло не так. Попробуйте ещё раз.",
	},
	"en": {
		"menu.welcome":               "🏎️ Welcome to F1 Bot!\n\nChoose an action:",
		"menu.pre_race":              "📋 F1 in 60 Seconds",
		"menu.bingo":                 "🎯 Bingo Cards",
		"menu.post_race":             "🏁 Race Result in 60 Seconds",
		"menu.language":              "🌐 Language",
		"menu.pre_race_coming_soon":  "Pre-race preview coming soon!",
		"menu.bingo_coming_soon":     "Bingo Cards coming soon!",
		"menu.post_race_coming_soon": "Race results coming soon!",
		"menu.back":                  "🔙 Back",
		"menu.open_bingo":            "🎯 Open Bingo Cards",
		"menu.next_race":             "📋 Next Race",
		"bingo.title":                "🎯 Bingo Cards\n\nRace: {race_name}\n\nMark events during the race:",
		"bingo.finish":               "✅ Finish ({count}/{total})",
		"bingo.finish_result":        "🎉 Bingo completed!\n\nMarked: {checked} out of {total} cells\nRace: {race_name}",
		"bingo.no_race":              "❌ No upcoming races",
		"lang.choose":                "Выберите язык / Choose language:",
		"admin.denied":               "You do not have admin rights.",
		"admin.panel":                "Admin panel:",
		"admin.approved":             "✅ Content approved and published!",
		"admin.cancelled":            "❌ Content cancelled",
		"admin.generating":           "🔄 Generation triggered",
		"admin.no_pending":           "No pending content",
		"admin.pending_header":       "Pending content ({kind}):",
		"admin.new_pending":          "🆕 New content pending approval: {key}",
		"admin.gone":                 "This content is already gone",
		"error.generic":              "⚠️ Something went wrong. Please try again.",
	},
}

// T translates key into lang, substituting {name} placeholders from pairs of
// (name, value) arguments.
func T(key, lang string, kv ...string) string {
	table, ok := translations[lang]
	if !ok {
		table = translations["en"]
	}
	text, ok := table[key]
	if !ok {
		text = key
	}
	for i := 0; i+1 < len(kv); i += 2 {
		text = strings.ReplaceAll(text, "{"+kv[i]+"}", kv[i+1])
	}
	return text
}
