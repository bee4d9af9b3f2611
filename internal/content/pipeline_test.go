package content

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"racebot/internal/domain"
	"racebot/internal/fanout"
	"racebot/pkg/logx"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	items map[domain.ContentKey]domain.ContentItem
	order []domain.ContentKey

	getErr error
}

func newMemStore() *memStore {
	return &memStore{items: map[domain.ContentKey]domain.ContentItem{}}
}

func (m *memStore) GetContent(_ context.Context, key domain.ContentKey) (domain.ContentItem, bool, error) {
	if m.getErr != nil {
		return domain.ContentItem{}, false, m.getErr
	}
	item, ok := m.items[key]
	return item, ok, nil
}

func (m *memStore) UpsertContent(_ context.Context, item domain.ContentItem) error {
	if _, ok := m.items[item.Key]; !ok {
		m.order = append(m.order, item.Key)
	}
	m.items[item.Key] = item
	return nil
}

func (m *memStore) SetContentStatus(_ context.Context, key domain.ContentKey, status domain.ContentStatus) error {
	item, ok := m.items[key]
	if !ok {
		return fmt.Errorf("content %s: %w", key, domain.ErrNotFound)
	}
	item.Status = status
	m.items[key] = item
	return nil
}

func (m *memStore) DeleteContent(_ context.Context, key domain.ContentKey) error {
	delete(m.items, key)
	return nil
}

func (m *memStore) PendingContent(_ context.Context, kind domain.ContentKind, limit int) ([]domain.ContentItem, error) {
	var out []domain.ContentItem
	for _, key := range m.order {
		item, ok := m.items[key]
		if !ok || item.Key.Kind != kind || item.Status != domain.StatusPendingApproval {
			continue
		}
		out = append(out, item)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeGenerator struct {
	body  string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateContent(context.Context, domain.ContentKind, domain.Event, string, []string) (string, error) {
	f.calls++
	return f.body, f.err
}

type fakeBroadcaster struct {
	calls int
	items []domain.ContentItem
	res   fanout.Result
	err   error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, item domain.ContentItem) (fanout.Result, error) {
	f.calls++
	f.items = append(f.items, item)
	return f.res, f.err
}

func testEvent() domain.Event {
	return domain.Event{
		ID:        "monaco-2026",
		Name:      "Monaco GP",
		StartTime: time.Date(2026, 5, 24, 13, 0, 0, 0, time.UTC),
		Status:    domain.EventUpcoming,
	}
}

func mustKey(t *testing.T, kind domain.ContentKind, lang string) domain.ContentKey {
	t.Helper()
	key, err := domain.NewContentKey("monaco-2026", kind, lang)
	if err != nil {
		t.Fatalf("NewContentKey: %v", err)
	}
	return key
}

func TestGenerateFreshItem(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	gen := &fakeGenerator{body: "🏁 preview"}
	p := NewPipeline(store, gen, nil, logx.Nop())

	item, created, err := p.Generate(context.Background(), testEvent(), domain.KindPreRace, "en", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for a fresh item")
	}
	if item.Status != domain.StatusPendingApproval || item.Body != "🏁 preview" {
		t.Fatalf("unexpected item: %+v", item)
	}
	stored := store.items[item.Key]
	if stored.Status != domain.StatusPendingApproval {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestGenerateIdempotentPastDraft(t *testing.T) {
	t.Parallel()
	for _, status := range []domain.ContentStatus{
		domain.StatusPendingApproval, domain.StatusApproved, domain.StatusPublished,
	} {
		t.Run(string(status), func(t *testing.T) {
			t.Parallel()
			store := newMemStore()
			key := mustKey(t, domain.KindPreRace, "en")
			_ = store.UpsertContent(context.Background(), domain.ContentItem{Key: key, Status: status, Body: "kept"})

			gen := &fakeGenerator{body: "new text"}
			p := NewPipeline(store, gen, nil, logx.Nop())

			item, created, err := p.Generate(context.Background(), testEvent(), domain.KindPreRace, "en", nil)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if created {
				t.Fatal("expected created=false for existing item")
			}
			if gen.calls != 0 {
				t.Fatal("generator must not be called for an existing item")
			}
			if item.Body != "kept" || item.Status != status {
				t.Fatalf("existing item mutated: %+v", item)
			}
		})
	}
}

func TestGenerateRegeneratesDraft(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	key := mustKey(t, domain.KindPreRace, "en")
	_ = store.UpsertContent(context.Background(), domain.ContentItem{Key: key, Status: domain.StatusDraft, Body: "stale"})

	gen := &fakeGenerator{body: "fresh"}
	p := NewPipeline(store, gen, nil, logx.Nop())

	item, created, err := p.Generate(context.Background(), testEvent(), domain.KindPreRace, "en", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !created || item.Body != "fresh" || item.Status != domain.StatusPendingApproval {
		t.Fatalf("draft was not regenerated: created=%v item=%+v", created, item)
	}
}

func TestGenerateFailureDegradesToPlaceholder(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		lang string
		want string
	}{
		{"ru", "Ошибка генерации контента"},
		{"en", "Content generation error"},
	} {
		t.Run(tc.lang, func(t *testing.T) {
			t.Parallel()
			store := newMemStore()
			gen := &fakeGenerator{err: fmt.Errorf("%w: quota", domain.ErrGenerationFailed)}
			p := NewPipeline(store, gen, nil, logx.Nop())

			item, created, err := p.Generate(context.Background(), testEvent(), domain.KindPreRace, tc.lang, nil)
			if err != nil {
				t.Fatalf("generation failure must not propagate, got %v", err)
			}
			if !created {
				t.Fatal("placeholder item still counts as created")
			}
			if item.Status != domain.StatusPendingApproval || item.Body != tc.want {
				t.Fatalf("unexpected placeholder item: %+v", item)
			}
		})
	}
}

func TestApproveTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	key := mustKey(t, domain.KindPostRace, "ru")

	t.Run("missing is no-op", func(t *testing.T) {
		t.Parallel()
		p := NewPipeline(newMemStore(), nil, nil, logx.Nop())
		if err := p.Approve(ctx, key); err != nil {
			t.Fatalf("Approve on missing item: %v", err)
		}
	})

	t.Run("pending becomes approved", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: domain.StatusPendingApproval})
		p := NewPipeline(store, nil, nil, logx.Nop())
		if err := p.Approve(ctx, key); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		if store.items[key].Status != domain.StatusApproved {
			t.Fatalf("status = %s", store.items[key].Status)
		}
	})

	t.Run("published stays published", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: domain.StatusPublished})
		p := NewPipeline(store, nil, nil, logx.Nop())
		if err := p.Approve(ctx, key); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		if store.items[key].Status != domain.StatusPublished {
			t.Fatalf("status regressed to %s", store.items[key].Status)
		}
	})
}

func TestPublishTriggersFanoutOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	key := mustKey(t, domain.KindPreRace, "en")

	for _, from := range []domain.ContentStatus{domain.StatusPendingApproval, domain.StatusApproved} {
		t.Run(string(from), func(t *testing.T) {
			t.Parallel()
			store := newMemStore()
			_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: from, Body: "out"})
			fan := &fakeBroadcaster{res: fanout.Result{Delivered: 2}}
			p := NewPipeline(store, nil, fan, logx.Nop())

			item, err := p.Publish(ctx, key)
			if err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if item.Status != domain.StatusPublished {
				t.Fatalf("status = %s", item.Status)
			}
			if fan.calls != 1 {
				t.Fatalf("fanout calls = %d", fan.calls)
			}
			if fan.items[0].Status != domain.StatusPublished {
				t.Fatalf("broadcast saw status %s", fan.items[0].Status)
			}

			// Publishing again must not broadcast a second time.
			if _, err := p.Publish(ctx, key); err != nil {
				t.Fatalf("re-Publish: %v", err)
			}
			if fan.calls != 1 {
				t.Fatalf("fanout re-triggered: calls = %d", fan.calls)
			}
		})
	}
}

func TestPublishRejectsDraftAndMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	key := mustKey(t, domain.KindPreRace, "en")

	p := NewPipeline(newMemStore(), nil, &fakeBroadcaster{}, logx.Nop())
	if _, err := p.Publish(ctx, key); !domain.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	store := newMemStore()
	_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: domain.StatusDraft})
	p = NewPipeline(store, nil, &fakeBroadcaster{}, logx.Nop())
	if _, err := p.Publish(ctx, key); err == nil {
		t.Fatal("expected error publishing a draft")
	}
}

func TestPublishSurvivesBroadcastError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	key := mustKey(t, domain.KindPreRace, "en")
	store := newMemStore()
	_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: domain.StatusApproved, Body: "out"})
	fan := &fakeBroadcaster{err: errors.New("cut short")}
	p := NewPipeline(store, nil, fan, logx.Nop())

	item, err := p.Publish(ctx, key)
	if err != nil {
		t.Fatalf("Publish must not fail on broadcast error: %v", err)
	}
	if item.Status != domain.StatusPublished || store.items[key].Status != domain.StatusPublished {
		t.Fatal("publication did not stand")
	}
}

func TestCancelDeletesAnyStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	key := mustKey(t, domain.KindPostRace, "en")

	for _, status := range []domain.ContentStatus{
		domain.StatusDraft, domain.StatusPendingApproval, domain.StatusApproved, domain.StatusPublished,
	} {
		store := newMemStore()
		_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: status})
		p := NewPipeline(store, nil, nil, logx.Nop())
		if err := p.Cancel(ctx, key); err != nil {
			t.Fatalf("Cancel from %s: %v", status, err)
		}
		if _, ok := store.items[key]; ok {
			t.Fatalf("item survived cancel from %s", status)
		}
	}

	// Cancelling a missing item is fine too.
	p := NewPipeline(newMemStore(), nil, nil, logx.Nop())
	if err := p.Cancel(ctx, key); err != nil {
		t.Fatalf("Cancel on missing item: %v", err)
	}
}
