package domain

import (
	"testing"
	"time"
)

func TestContentStatusOrder(t *testing.T) {
	t.Parallel()
	order := []ContentStatus{StatusDraft, StatusPendingApproval, StatusApproved, StatusPublished}
	for i, lo := range order {
		for j, hi := range order {
			got := hi.AtLeast(lo)
			want := j >= i
			if got != want {
				t.Fatalf("%s.AtLeast(%s) = %v, want %v", hi, lo, got, want)
			}
		}
	}
	if ContentStatus("cancelled").Valid() {
		t.Fatal("unknown status must not be valid")
	}
}

func TestNewContentKeyValidation(t *testing.T) {
	t.Parallel()
	if _, err := NewContentKey("", KindPreRace, "ru"); err == nil {
		t.Fatal("expected error for empty event id")
	}
	if _, err := NewContentKey("monaco-2026", "weather", "ru"); err == nil {
		t.Fatal("expected error for invalid kind")
	}
	if _, err := NewContentKey("monaco-2026", KindPostRace, ""); err == nil {
		t.Fatal("expected error for empty lang")
	}
	k, err := NewContentKey(" monaco-2026 ", KindPreRace, "en")
	if err != nil {
		t.Fatalf("NewContentKey: %v", err)
	}
	if k.EventID != "monaco-2026" || k.Lang != "en" {
		t.Fatalf("unexpected key: %+v", k)
	}
}

func TestNewBingoTemplateValidation(t *testing.T) {
	t.Parallel()
	cells := make([]BingoCell, TemplateSize)
	for i := range cells {
		cells[i] = BingoCell{ID: "c" + string(rune('a'+i)), Title: "t", Category: CellStandard}
	}

	if _, err := NewBingoTemplate("monaco-2026", "ru", cells[:15]); err == nil {
		t.Fatal("expected error for 15 cells")
	}

	dup := append([]BingoCell(nil), cells...)
	dup[1].ID = dup[0].ID
	if _, err := NewBingoTemplate("monaco-2026", "ru", dup); err == nil {
		t.Fatal("expected error for duplicate cell id")
	}

	tpl, err := NewBingoTemplate("monaco-2026", "ru", cells)
	if err != nil {
		t.Fatalf("NewBingoTemplate: %v", err)
	}
	if len(tpl.Cells) != TemplateSize {
		t.Fatalf("expected %d cells, got %d", TemplateSize, len(tpl.Cells))
	}
	// Constructor copies the slice.
	cells[0].Title = "mutated"
	if tpl.Cells[0].Title == "mutated" {
		t.Fatal("template cells must be a copy")
	}
}

func TestToggleInvolution(t *testing.T) {
	t.Parallel()
	st := BingoUserState{EventID: "monaco-2026", RecipientID: 7}

	if got := st.Toggle("sc"); got != CellChecked {
		t.Fatalf("first toggle = %q, want checked", got)
	}
	if got := st.Toggle("sc"); got != CellEmpty {
		t.Fatalf("second toggle = %q, want empty", got)
	}
	if _, ok := st.Cells["sc"]; ok {
		t.Fatal("empty cell should not be stored")
	}

	// Verified cells toggle back to empty in one step.
	st.Cells = map[string]CellStatus{"rf": CellVerified}
	if got := st.Toggle("rf"); got != CellEmpty {
		t.Fatalf("toggle of verified = %q, want empty", got)
	}
}

func TestCompletionCount(t *testing.T) {
	t.Parallel()
	st := BingoUserState{Cells: map[string]CellStatus{
		"a": CellChecked,
		"b": CellVerified,
		"c": CellEmpty,
	}}
	if got := st.CompletionCount(); got != 2 {
		t.Fatalf("CompletionCount = %d, want 2", got)
	}
	if got := (BingoUserState{}).CompletionCount(); got != 0 {
		t.Fatalf("empty state CompletionCount = %d, want 0", got)
	}
}

func TestNewEventValidation(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 5, 24, 13, 0, 0, 0, time.UTC)
	if _, err := NewEvent("", "Monaco GP", start, EventUpcoming, nil); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := NewEvent("monaco-2026", "Monaco GP", time.Time{}, EventUpcoming, nil); err == nil {
		t.Fatal("expected error for zero start time")
	}
	if _, err := NewEvent("monaco-2026", "Monaco GP", start, "paused", nil); err == nil {
		t.Fatal("expected error for invalid status")
	}
	ev, err := NewEvent("monaco-2026", "Monaco GP", start.In(time.FixedZone("X", 3600)), EventUpcoming, map[string]string{"track": "Monte Carlo"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if !ev.StartTime.Equal(start) || ev.StartTime.Location() != time.UTC {
		t.Fatalf("start time not normalized to UTC: %v", ev.StartTime)
	}
}
