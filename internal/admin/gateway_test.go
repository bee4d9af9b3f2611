package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"racebot/internal/content"
	"racebot/internal/domain"
	"racebot/internal/fanout"
	"racebot/pkg/logx"
)

// memStore implements content.Store in memory.
type memStore struct {
	items map[domain.ContentKey]domain.ContentItem
	order []domain.ContentKey
}

func newMemStore() *memStore {
	return &memStore{items: map[domain.ContentKey]domain.ContentItem{}}
}

func (m *memStore) GetContent(_ context.Context, key domain.ContentKey) (domain.ContentItem, bool, error) {
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

type fakeEvents struct {
	finished    domain.Event
	hasFinished bool
}

func (f *fakeEvents) NextUpcomingEvent(context.Context) (domain.Event, bool, error) {
	return domain.Event{}, false, nil
}

func (f *fakeEvents) LastFinishedEvent(context.Context) (domain.Event, bool, error) {
	return f.finished, f.hasFinished, nil
}

type fakeGenerator struct{ calls int }

func (f *fakeGenerator) GenerateContent(context.Context, domain.ContentKind, domain.Event, string, []string) (string, error) {
	f.calls++
	return "generated", nil
}

type fakeBroadcaster struct{ calls int }

func (f *fakeBroadcaster) Broadcast(context.Context, domain.ContentItem) (fanout.Result, error) {
	f.calls++
	return fanout.Result{Delivered: 1}, nil
}

const adminID = int64(1000)

func newTestGateway(t *testing.T, store *memStore, fan *fakeBroadcaster, gen *fakeGenerator, events *fakeEvents) *Gateway {
	t.Helper()
	if store == nil {
		store = newMemStore()
	}
	if fan == nil {
		fan = &fakeBroadcaster{}
	}
	if gen == nil {
		gen = &fakeGenerator{}
	}
	if events == nil {
		events = &fakeEvents{}
	}
	pipeline := content.NewPipeline(store, gen, fan, logx.Nop())
	jobs := content.NewJobs(events, pipeline, nil, nil, []string{"ru", "en"}, logx.Nop())
	return New([]int64{adminID}, pipeline, jobs, 10, logx.Nop())
}

func mustKey(t *testing.T, eventID string, kind domain.ContentKind, lang string) domain.ContentKey {
	t.Helper()
	key, err := domain.NewContentKey(eventID, kind, lang)
	if err != nil {
		t.Fatalf("NewContentKey: %v", err)
	}
	return key
}

func TestNonAdminRejectedEverywhere(t *testing.T) {
	t.Parallel()
	g := newTestGateway(t, nil, nil, nil, nil)
	ctx := context.Background()
	key := mustKey(t, "monaco-2026", domain.KindPreRace, "en")

	if _, err := g.ListPending(ctx, 5, domain.KindPreRace); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("ListPending: %v", err)
	}
	if err := g.Decide(ctx, 5, ActionApprove, key); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Decide: %v", err)
	}
	if err := g.ForceGenerate(ctx, 5, domain.KindPostRace); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("ForceGenerate: %v", err)
	}
}

func TestSetAdminsReplacesAllowList(t *testing.T) {
	t.Parallel()
	g := newTestGateway(t, nil, nil, nil, nil)
	if !g.IsAdmin(adminID) {
		t.Fatal("configured admin not recognized")
	}
	g.SetAdmins([]int64{2000})
	if g.IsAdmin(adminID) {
		t.Fatal("old admin survived reload")
	}
	if !g.IsAdmin(2000) {
		t.Fatal("new admin not recognized")
	}
}

func TestListPendingCapped(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		key := mustKey(t, fmt.Sprintf("event-%02d", i), domain.KindPreRace, "en")
		_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: domain.StatusPendingApproval})
	}
	g := newTestGateway(t, store, nil, nil, nil)

	items, err := g.ListPending(ctx, adminID, domain.KindPreRace)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(items) != 10 {
		t.Fatalf("expected cap of 10, got %d", len(items))
	}
	if items[0].Key.EventID != "event-00" {
		t.Fatalf("expected insertion order, first = %s", items[0].Key.EventID)
	}
}

func TestDecideApprovePublishesAndBroadcasts(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	fan := &fakeBroadcaster{}
	ctx := context.Background()
	key := mustKey(t, "monaco-2026", domain.KindPreRace, "en")
	_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: domain.StatusPendingApproval, Body: "out"})
	g := newTestGateway(t, store, fan, nil, nil)

	if err := g.Decide(ctx, adminID, ActionApprove, key); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if store.items[key].Status != domain.StatusPublished {
		t.Fatalf("status = %s", store.items[key].Status)
	}
	if fan.calls != 1 {
		t.Fatalf("broadcast calls = %d", fan.calls)
	}
}

func TestDecideCancelDeletes(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	ctx := context.Background()
	key := mustKey(t, "monaco-2026", domain.KindPostRace, "ru")
	_ = store.UpsertContent(ctx, domain.ContentItem{Key: key, Status: domain.StatusPendingApproval})
	g := newTestGateway(t, store, nil, nil, nil)

	if err := g.Decide(ctx, adminID, ActionCancel, key); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if _, ok := store.items[key]; ok {
		t.Fatal("item survived cancel")
	}
}

func TestDecideUnknownAction(t *testing.T) {
	t.Parallel()
	g := newTestGateway(t, nil, nil, nil, nil)
	key := mustKey(t, "monaco-2026", domain.KindPreRace, "en")
	if err := g.Decide(context.Background(), adminID, Action("explode"), key); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestForceGenerateRunsJob(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{}
	events := &fakeEvents{
		finished:    domain.Event{ID: "monaco-2026", Name: "Monaco GP", StartTime: time.Now().Add(-4 * time.Hour), Status: domain.EventFinished},
		hasFinished: true,
	}
	g := newTestGateway(t, nil, nil, gen, events)

	if err := g.ForceGenerate(context.Background(), adminID, domain.KindPostRace); err != nil {
		t.Fatalf("ForceGenerate: %v", err)
	}
	if gen.calls != 2 {
		t.Fatalf("expected generation per language, got %d calls", gen.calls)
	}
}
