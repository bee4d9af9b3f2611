package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"racebot/internal/domain"
	"racebot/pkg/logx"
)

const systemPrompt = "You are a Gen Z F1 content creator. Be concise, engaging, and authentic."
const systemPromptJSON = "You are a Gen Z F1 content creator. Return only valid JSON."

// GenerateContent produces the body of a pre- or post-race post in the given
// language, using recent headlines as grounding context.
func (c *Client) GenerateContent(ctx context.Context, kind domain.ContentKind, ev domain.Event, lang string, headlines []string) (string, error) {
	var prompt string
	switch kind {
	case domain.KindPreRace:
		prompt = preRacePrompt(ev, lang, headlines)
	case domain.KindPostRace:
		prompt = postRacePrompt(ev, lang, headlines)
	default:
		return "", fmt.Errorf("unknown content kind %q", kind)
	}

	text, err := c.complete(ctx, systemPrompt, prompt)
	if err != nil {
		c.log.Warn("content generation failed",
			logx.String("event", ev.ID),
			logx.String("kind", string(kind)),
			logx.String("lang", lang),
			logx.Err(err))
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	return text, nil
}

// MemeCells asks for 4-6 verifiable-but-funny bingo events. The model is told
// to answer with a bare JSON array; code fences around it are tolerated.
func (c *Client) MemeCells(ctx context.Context, ev domain.Event, lang string) ([]domain.BingoCell, error) {
	text, err := c.complete(ctx, systemPromptJSON, memePrompt(ev, lang))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	var raw []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: meme json: %v", domain.ErrGenerationFailed, err)
	}

	cells := make([]domain.BingoCell, 0, len(raw))
	for i, r := range raw {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = fmt.Sprintf("meme_%d", i+1)
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		cells = append(cells, domain.BingoCell{ID: id, Title: title, Category: domain.CellMeme})
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: meme json: no usable cells", domain.ErrGenerationFailed)
	}
	return cells, nil
}

// stripFences removes a leading ```json / ``` fence pair if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func headlineBlock(headlines []string) string {
	if len(headlines) > 5 {
		headlines = headlines[:5]
	}
	var b strings.Builder
	for _, h := range headlines {
		b.WriteString("- ")
		b.WriteString(h)
		b.WriteString("\n")
	}
	return b.String()
}

func preRacePrompt(ev domain.Event, lang string, headlines []string) string {
	track := ev.Meta["track"]
	if track == "" {
		track = "Unknown Track"
	}
	if lang == "ru" {
		return fmt.Sprintf(`Создай краткое превью гонки F1 для Gen Z аудитории. Будь нативным, используй эмодзи, но не переборщи.

Гонка: %s
Трасса: %s

Контекст из новостей:
%s
Требования:
- 5-7 буллетов
- Формат: каждый буллет с новой строки, начинается с эмодзи
- Включи: контекст трассы (1-2 факта), главную интригу, 2-3 пилота за кем следить, погоду/шины (кратко)
- Стиль: Gen Z, но информативно
- Не выдумывай факты, если не уверен - укажи "вероятно" или "по сообщениям"

Ответ (только текст, без дополнительных пояснений):`, ev.Name, track, headlineBlock(headlines))
	}
	return fmt.Sprintf(`Create a brief F1 race preview for Gen Z audience. Be native, use emojis, but don't overdo it.

Race: %s
Track: %s

News context:
%s
Requirements:
- 5-7 bullets
- Format: each bullet on a new line, starts with emoji
- Include: track context (1-2 facts), main intrigue, 2-3 drivers to watch, weather/tires (briefly)
- Style: Gen Z, but informative
- Don't make up facts, if unsure - mention "probably" or "according to reports"

Response (text only, no additional explanations):`, ev.Name, track, headlineBlock(headlines))
}

func postRacePrompt(ev domain.Event, lang string, headlines []string) string {
	if lang == "ru" {
		return fmt.Sprintf(`Создай краткий итог гонки F1 для Gen Z аудитории. Будь нативным, используй эмодзи.

Гонка: %s

Контекст из новостей:
%s
Требования:
- 5-7 буллетов
- Формат: каждый буллет с новой строки, начинается с эмодзи
- Включи: победитель, ключевой момент гонки, что сломало стратегию, влияние на чемпионат, главный хайлайт
- Стиль: Gen Z, но информативно
- Не выдумывай факты, если не уверен - укажи "вероятно" или "по сообщениям"

Ответ (только текст, без дополнительных пояснений):`, ev.Name, headlineBlock(headlines))
	}
	return fmt.Sprintf(`Create a brief F1 race recap for Gen Z audience. Be native, use emojis.

Race: %s

News context:
%s
Requirements:
- 5-7 bullets
- Format: each bullet on a new line, starts with emoji
- Include: winner, key moment of the race, what broke the strategy, championship impact, main highlight
- Style: Gen Z, but informative
- Don't make up facts, if unsure - mention "probably" or "according to reports"

Response (text only, no additional explanations):`, ev.Name, headlineBlock(headlines))
}

func memePrompt(ev domain.Event, lang string) string {
	if lang == "ru" {
		return fmt.Sprintf(`Создай 4-6 мемных/контекстных событий для Bingo-карточки F1 гонки. События должны быть проверяемыми во время гонки, но с юмором/мемностью.

Гонка: %s

Требования:
- 4-6 событий
- Каждое событие должно быть проверяемым (можно подтвердить во время гонки)
- Стиль: мемный, но реалистичный
- Формат JSON: [{"id": "unique_id", "title": "Название события", "type": "meme"}]

Примеры хороших событий:
- "Пилот обвиняет команду в радио"
- "Комментатор говорит 'Here we go'"
- "Пилот делает жест после обгона"

Ответ (только JSON массив, без дополнительного текста):`, ev.Name)
	}
	return fmt.Sprintf(`Create 4-6 meme/contextual events for F1 race Bingo card. Events should be verifiable during the race, but with humor/meme quality.

Race: %s

Requirements:
- 4-6 events
- Each event should be verifiable (can be confirmed during the race)
- Style: meme, but realistic
- JSON format: [{"id": "unique_id", "title": "Event title", "type": "meme"}]

Examples of good events:
- "Driver blames team on radio"
- "Commentator says 'Here we go'"
- "Driver makes gesture after overtake"

Response (JSON array only, no additional text):`, ev.Name)
}
