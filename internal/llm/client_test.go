package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"racebot/internal/domain"
	"racebot/pkg/logx"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{APIKey: "test-key", Model: "gpt-test", BaseURL: srv.URL, Timeout: 5 * time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func completionResponse(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return b
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Model: "m"}, logx.Nop()); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := New(Config{APIKey: "k"}, logx.Nop()); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()
	var gotAuth, gotPath string
	var gotReq chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write(completionResponse("  🏁 preview text  "))
	})

	ev := domain.Event{ID: "monaco-2026", Name: "Monaco GP", Meta: map[string]string{"track": "Monte Carlo"}}
	text, err := c.GenerateContent(context.Background(), domain.KindPreRace, ev, "en", []string{"headline one"})
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if text != "🏁 preview text" {
		t.Fatalf("expected trimmed completion, got %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotReq.Model != "gpt-test" || len(gotReq.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", gotReq)
	}
}

func TestGenerateContentFailureWrapsSentinel(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	})

	_, err := c.GenerateContent(context.Background(), domain.KindPostRace, domain.Event{ID: "x", Name: "X"}, "ru", nil)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerateContentRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse("nope"))
	})
	if _, err := c.GenerateContent(context.Background(), domain.ContentKind("weird"), domain.Event{}, "en", nil); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestMemeCells(t *testing.T) {
	t.Parallel()
	payload := "```json\n[{\"id\":\"radio\",\"title\":\"Driver blames team\",\"type\":\"meme\"},{\"id\":\"\",\"title\":\"Here we go\"},{\"id\":\"empty\",\"title\":\"  \"}]\n```"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse(payload))
	})

	cells, err := c.MemeCells(context.Background(), domain.Event{ID: "x", Name: "X"}, "en")
	if err != nil {
		t.Fatalf("MemeCells: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("expected 2 usable cells, got %d: %+v", len(cells), cells)
	}
	if cells[0].ID != "radio" || cells[0].Category != domain.CellMeme {
		t.Fatalf("unexpected first cell: %+v", cells[0])
	}
	if cells[1].ID != "meme_2" {
		t.Fatalf("expected synthesized id for blank id, got %q", cells[1].ID)
	}
}

func TestMemeCellsBadJSON(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionResponse("sorry, no json today"))
	})
	if _, err := c.MemeCells(context.Background(), domain.Event{ID: "x"}, "en"); !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"[1]", "[1]"},
		{"```json\n[1]\n```", "[1]"},
		{"```\n[1]\n```", "[1]"},
		{"  ```json\n[1,2]\n```  ", "[1,2]"},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
