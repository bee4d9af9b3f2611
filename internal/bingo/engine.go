// Package bingo issues per-race bingo templates and tracks per-user card
// progress. A template is built once per (event, lang) from a fixed standard
// set plus a few generated meme cells, and never changes afterwards.
package bingo

import (
	"context"
	"fmt"

	"racebot/internal/domain"
	"racebot/pkg/logx"
)

type Store interface {
	GetTemplate(ctx context.Context, eventID, lang string) (domain.BingoTemplate, bool, error)
	PutTemplate(ctx context.Context, tpl domain.BingoTemplate) (domain.BingoTemplate, error)
	GetBingoState(ctx context.Context, eventID string, recipientID int64) (domain.BingoUserState, bool, error)
	PutBingoState(ctx context.Context, st domain.BingoUserState) error
}

// MemeSource produces the contextual meme cells for a template. Failures are
// tolerated: the engine falls back to a fixed default set.
type MemeSource interface {
	MemeCells(ctx context.Context, ev domain.Event, lang string) ([]domain.BingoCell, error)
}

type Engine struct {
	store Store
	memes MemeSource
	log   logx.Logger
}

func NewEngine(store Store, memes MemeSource, log logx.Logger) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{store: store, memes: memes, log: log}
}

// GetOrCreateTemplate returns the stored template for (ev, lang), building
// and persisting it on first use. Concurrent first calls race on the insert;
// the store keeps whichever landed first and everyone reads that one back.
func (e *Engine) GetOrCreateTemplate(ctx context.Context, ev domain.Event, lang string) (domain.BingoTemplate, error) {
	tpl, ok, err := e.store.GetTemplate(ctx, ev.ID, lang)
	if err != nil {
		return domain.BingoTemplate{}, err
	}
	if ok {
		return tpl, nil
	}

	cells := e.buildCells(ctx, ev, lang)
	tpl, err = domain.NewBingoTemplate(ev.ID, lang, cells)
	if err != nil {
		return domain.BingoTemplate{}, fmt.Errorf("build template: %w", err)
	}
	stored, err := e.store.PutTemplate(ctx, tpl)
	if err != nil {
		return domain.BingoTemplate{}, err
	}
	e.log.Info("bingo template issued",
		logx.String("event", ev.ID),
		logx.String("lang", lang))
	return stored, nil
}

// buildCells merges the standard set with meme cells into exactly
// domain.TemplateSize cells, dropping duplicate ids, truncating overflow and
// padding shortfall with spare standard cells.
func (e *Engine) buildCells(ctx context.Context, ev domain.Event, lang string) []domain.BingoCell {
	memes, err := e.memes.MemeCells(ctx, ev, lang)
	if err != nil || len(memes) == 0 {
		if err != nil {
			e.log.Warn("meme cells unavailable, using defaults",
				logx.String("event", ev.ID), logx.String("lang", lang), logx.Err(err))
		}
		memes = defaultMemeCells(lang)
	}
	if len(memes) > maxMemeCells {
		memes = memes[:maxMemeCells]
	}

	seen := map[string]bool{}
	cells := make([]domain.BingoCell, 0, domain.TemplateSize)
	add := func(c domain.BingoCell) {
		if len(cells) >= domain.TemplateSize || seen[c.ID] {
			return
		}
		seen[c.ID] = true
		cells = append(cells, c)
	}

	std := standardCells(lang)
	keep := domain.TemplateSize - len(memes)
	if keep > len(std) {
		keep = len(std)
	}
	for _, c := range std[:keep] {
		add(c)
	}
	for _, c := range memes {
		add(c)
	}
	// Duplicate meme ids or a short meme set can leave gaps; spare standard
	// cells fill them.
	for _, c := range std {
		if len(cells) == domain.TemplateSize {
			break
		}
		add(c)
	}
	for i := 1; len(cells) < domain.TemplateSize; i++ {
		add(domain.BingoCell{
			ID:       fmt.Sprintf("extra_%d", i),
			Title:    fillerTitle(lang),
			Category: domain.CellStandard,
		})
	}
	return cells
}

// Toggle flips one cell of the recipient's card and persists the whole state.
func (e *Engine) Toggle(ctx context.Context, eventID string, recipientID int64, cellID string) (domain.BingoUserState, error) {
	st, ok, err := e.store.GetBingoState(ctx, eventID, recipientID)
	if err != nil {
		return domain.BingoUserState{}, err
	}
	if !ok {
		st = domain.BingoUserState{EventID: eventID, RecipientID: recipientID}
	}
	st.Toggle(cellID)
	if err := e.store.PutBingoState(ctx, st); err != nil {
		return domain.BingoUserState{}, err
	}
	return st, nil
}

// State returns the recipient's card state, empty when none is stored yet.
func (e *Engine) State(ctx context.Context, eventID string, recipientID int64) (domain.BingoUserState, error) {
	st, ok, err := e.store.GetBingoState(ctx, eventID, recipientID)
	if err != nil {
		return domain.BingoUserState{}, err
	}
	if !ok {
		st = domain.BingoUserState{EventID: eventID, RecipientID: recipientID}
	}
	return st, nil
}
