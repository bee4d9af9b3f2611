// Package calendar keeps the local event table in sync with a remote race
// calendar published as JSON.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"racebot/internal/domain"
	"racebot/pkg/logx"
)

// raceWindow is how long after the start an event counts as in progress.
const raceWindow = 3 * time.Hour

type Config struct {
	SourceURL string
	Timeout   time.Duration
}

// EventStore is the slice of storage the syncer needs.
type EventStore interface {
	UpsertEvent(ctx context.Context, ev domain.Event) error
}

type Source struct {
	cfg   Config
	hc    *http.Client
	store EventStore
	log   logx.Logger
	now   func() time.Time
}

func New(cfg Config, store EventStore, log logx.Logger) *Source {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Source{
		cfg:   cfg,
		hc:    &http.Client{Timeout: timeout},
		store: store,
		log:   log,
		now:   time.Now,
	}
}

type calendarEntry struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	StartTime time.Time         `json:"start_time"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Fetch downloads and validates the remote calendar. Entries with missing
// fields are skipped with a warning rather than failing the whole fetch.
func (s *Source) Fetch(ctx context.Context) ([]domain.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.SourceURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	var entries []calendarEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("calendar parse: %w", err)
	}

	now := s.now()
	events := make([]domain.Event, 0, len(entries))
	for _, e := range entries {
		ev, err := domain.NewEvent(e.ID, e.Name, e.StartTime, statusAt(e.StartTime, now), e.Meta)
		if err != nil {
			s.log.Warn("calendar entry skipped", logx.String("id", e.ID), logx.Err(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Sync fetches the calendar and upserts every valid entry. Re-running Sync
// also moves events through upcoming → in_progress → finished as time passes.
func (s *Source) Sync(ctx context.Context) error {
	events, err := s.Fetch(ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := s.store.UpsertEvent(ctx, ev); err != nil {
			return fmt.Errorf("upsert event %s: %w", ev.ID, err)
		}
	}
	s.log.Info("calendar synced", logx.Int("events", len(events)))
	return nil
}

func statusAt(start, now time.Time) domain.EventStatus {
	switch {
	case now.Before(start):
		return domain.EventUpcoming
	case now.Before(start.Add(raceWindow)):
		return domain.EventInProgress
	default:
		return domain.EventFinished
	}
}
