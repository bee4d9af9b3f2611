package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TemplateSize is the fixed number of cells in every bingo template (4x4).
const TemplateSize = 16

type CellCategory string

const (
	CellStandard CellCategory = "standard"
	CellMeme     CellCategory = "meme"
)

type BingoCell struct {
	ID       string
	Title    string
	Category CellCategory
}

// BingoTemplate is the fixed 16-cell checklist issued once per (event, lang)
// and immutable thereafter.
type BingoTemplate struct {
	EventID   string
	Lang      string
	Cells     []BingoCell
	CreatedAt time.Time
}

func NewBingoTemplate(eventID, lang string, cells []BingoCell) (BingoTemplate, error) {
	eventID = strings.TrimSpace(eventID)
	lang = strings.TrimSpace(lang)
	if eventID == "" {
		return BingoTemplate{}, errors.New("bingo template: event id is required")
	}
	if lang == "" {
		return BingoTemplate{}, errors.New("bingo template: lang is required")
	}
	if len(cells) != TemplateSize {
		return BingoTemplate{}, fmt.Errorf("bingo template: want %d cells, got %d", TemplateSize, len(cells))
	}
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		if strings.TrimSpace(c.ID) == "" {
			return BingoTemplate{}, errors.New("bingo template: cell id is required")
		}
		if seen[c.ID] {
			return BingoTemplate{}, fmt.Errorf("bingo template: duplicate cell id %q", c.ID)
		}
		seen[c.ID] = true
	}
	cp := make([]BingoCell, len(cells))
	copy(cp, cells)
	return BingoTemplate{EventID: eventID, Lang: lang, Cells: cp}, nil
}

// Cell returns the template cell with the given id.
func (t BingoTemplate) Cell(id string) (BingoCell, bool) {
	for _, c := range t.Cells {
		if c.ID == id {
			return c, true
		}
	}
	return BingoCell{}, false
}

type CellStatus string

const (
	// CellEmpty is the zero value: absent map keys mean empty.
	CellEmpty    CellStatus = ""
	CellChecked  CellStatus = "checked"
	CellVerified CellStatus = "verified"
)

// Done reports whether the cell counts toward completion.
func (s CellStatus) Done() bool { return s == CellChecked || s == CellVerified }

// BingoUserState is one recipient's per-cell progress against a template.
// Cells map cell id to status; absent keys are implicitly empty.
type BingoUserState struct {
	EventID     string
	RecipientID int64
	Cells       map[string]CellStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Toggle flips the named cell between empty and checked. A verified cell also
// returns to empty: the toggle is a two-state operation over the three
// nominal statuses. Unknown cell ids are accepted and produce entries with no
// template cell behind them.
func (st *BingoUserState) Toggle(cellID string) CellStatus {
	if st.Cells == nil {
		st.Cells = make(map[string]CellStatus)
	}
	next := CellChecked
	if st.Cells[cellID].Done() {
		next = CellEmpty
	}
	if next == CellEmpty {
		delete(st.Cells, cellID)
	} else {
		st.Cells[cellID] = next
	}
	return next
}

// CompletionCount returns the number of cells in checked or verified state.
func (st BingoUserState) CompletionCount() int {
	n := 0
	for _, s := range st.Cells {
		if s.Done() {
			n++
		}
	}
	return n
}
