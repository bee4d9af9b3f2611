package bingo

import "racebot/internal/domain"

// maxMemeCells caps how much of the card generated cells may occupy.
const maxMemeCells = 6

// standardCells is the fixed race-agnostic part of every card, 12 cells so
// that 4-6 meme cells still fit into the 16-cell grid.
func standardCells(lang string) []domain.BingoCell {
	type cell struct{ id, ru, en string }
	base := []cell{
		{"safety_car", "Сейфти-кар", "Safety car"},
		{"red_flag", "Красный флаг", "Red flag"},
		{"first_lap_overtake", "Обгон на первом круге", "First lap overtake"},
		{"dnf", "Сход с дистанции", "DNF"},
		{"pit_stop_fail", "Провальный пит-стоп", "Botched pit stop"},
		{"fastest_lap_change", "Смена быстрого круга", "Fastest lap changes hands"},
		{"team_orders", "Командная тактика", "Team orders"},
		{"rain", "Дождь во время гонки", "Rain during the race"},
		{"penalty", "Штраф пилоту", "Driver penalty"},
		{"undercut", "Успешный андеркат", "Successful undercut"},
		{"drs_train", "DRS-паровозик", "DRS train"},
		{"podium_rookie", "Новичок в топ-5", "Rookie in top 5"},
	}
	cells := make([]domain.BingoCell, len(base))
	for i, c := range base {
		title := c.en
		if lang == "ru" {
			title = c.ru
		}
		cells[i] = domain.BingoCell{ID: c.id, Title: title, Category: domain.CellStandard}
	}
	return cells
}

// defaultMemeCells mirrors the fallback used when generation is unavailable.
func defaultMemeCells(lang string) []domain.BingoCell {
	if lang == "ru" {
		return []domain.BingoCell{
			{ID: "meme_1", Title: "Пилот обвиняет команду", Category: domain.CellMeme},
			{ID: "meme_2", Title: "Комментатор говорит 'Here we go'", Category: domain.CellMeme},
			{ID: "meme_3", Title: "Пилот делает жест", Category: domain.CellMeme},
			{ID: "meme_4", Title: "Мемный момент в радио", Category: domain.CellMeme},
		}
	}
	return []domain.BingoCell{
		{ID: "meme_1", Title: "Driver blames team", Category: domain.CellMeme},
		{ID: "meme_2", Title: "Commentator says 'Here we go'", Category: domain.CellMeme},
		{ID: "meme_3", Title: "Driver makes gesture", Category: domain.CellMeme},
		{ID: "meme_4", Title: "Meme moment on radio", Category: domain.CellMeme},
	}
}

func fillerTitle(lang string) string {
	if lang == "ru" {
		return "Неожиданный момент"
	}
	return "Unexpected moment"
}
