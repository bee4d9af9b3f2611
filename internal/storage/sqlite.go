package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"racebot/internal/domain"
	"racebot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Store wraps the SQLite database. All methods are safe for concurrent use;
// SQLite prefers a single writer so the pool is capped at one connection.
type Store struct {
	db  *sql.DB
	log logx.Logger
	now func() time.Time
}

func Open(cfg Config, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &Store{db: db, log: log, now: time.Now}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeFormat = time.RFC3339Nano

func fmtTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ---- events ----

func (s *Store) UpsertEvent(ctx context.Context, ev domain.Event) error {
	var meta any
	if len(ev.Meta) > 0 {
		b, err := json.Marshal(ev.Meta)
		if err != nil {
			return err
		}
		meta = string(b)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(id, name, start_time, status, meta) VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, start_time=excluded.start_time,
		   status=excluded.status, meta=excluded.meta`,
		ev.ID, ev.Name, fmtTime(ev.StartTime), string(ev.Status), meta,
	)
	return err
}

func (s *Store) scanEvent(row *sql.Row) (domain.Event, bool, error) {
	var (
		ev    domain.Event
		start string
		meta  sql.NullString
	)
	err := row.Scan(&ev.ID, &ev.Name, &start, &ev.Status, &meta)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, false, nil
	}
	if err != nil {
		return domain.Event{}, false, err
	}
	ev.StartTime = parseTime(start)
	if meta.Valid && meta.String != "" {
		_ = json.Unmarshal([]byte(meta.String), &ev.Meta)
	}
	return ev, true, nil
}

// NextUpcomingEvent returns the earliest event still marked upcoming.
func (s *Store) NextUpcomingEvent(ctx context.Context) (domain.Event, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_time, status, meta FROM events
		 WHERE status = ? ORDER BY start_time ASC LIMIT 1`, string(domain.EventUpcoming))
	return s.scanEvent(row)
}

// LastFinishedEvent returns the most recently started finished event.
func (s *Store) LastFinishedEvent(ctx context.Context) (domain.Event, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_time, status, meta FROM events
		 WHERE status = ? ORDER BY start_time DESC LIMIT 1`, string(domain.EventFinished))
	return s.scanEvent(row)
}

// ---- recipients ----

func (s *Store) UpsertRecipient(ctx context.Context, id int64, lang string) error {
	now := fmtTime(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipients(id, lang, created_at, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET lang=excluded.lang, updated_at=excluded.updated_at`,
		id, lang, now, now,
	)
	return err
}

func (s *Store) GetRecipient(ctx context.Context, id int64) (domain.Recipient, bool, error) {
	var (
		r      domain.Recipient
		cr, up string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, lang, created_at, updated_at FROM recipients WHERE id = ?`, id).
		Scan(&r.ID, &r.Lang, &cr, &up)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Recipient{}, false, nil
	}
	if err != nil {
		return domain.Recipient{}, false, err
	}
	r.CreatedAt = parseTime(cr)
	r.UpdatedAt = parseTime(up)
	return r, true, nil
}

// RecipientsByLang returns every recipient with the given language, oldest first.
func (s *Store) RecipientsByLang(ctx context.Context, lang string) ([]domain.Recipient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lang, created_at, updated_at FROM recipients WHERE lang = ? ORDER BY created_at ASC, id ASC`, lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var (
			r      domain.Recipient
			cr, up string
		)
		if err := rows.Scan(&r.ID, &r.Lang, &cr, &up); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(cr)
		r.UpdatedAt = parseTime(up)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---- contents ----

// UpsertContent writes the item, replacing any previous row for the same
// (event_id, kind, lang). CreatedAt of an existing row is preserved.
func (s *Store) UpsertContent(ctx context.Context, item domain.ContentItem) error {
	now := fmtTime(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contents(event_id, kind, lang, status, body, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?)
		 ON CONFLICT(event_id, kind, lang) DO UPDATE SET
		   status=excluded.status, body=excluded.body, updated_at=excluded.updated_at`,
		item.Key.EventID, string(item.Key.Kind), item.Key.Lang,
		string(item.Status), item.Body, now, now,
	)
	return err
}

// SetContentStatus updates the status of an existing row. Missing rows are
// reported via domain.ErrNotFound.
func (s *Store) SetContentStatus(ctx context.Context, key domain.ContentKey, status domain.ContentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contents SET status = ?, updated_at = ?
		 WHERE event_id = ? AND kind = ? AND lang = ?`,
		string(status), fmtTime(s.now()), key.EventID, string(key.Kind), key.Lang,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("content %s: %w", key, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetContent(ctx context.Context, key domain.ContentKey) (domain.ContentItem, bool, error) {
	var (
		item   domain.ContentItem
		cr, up string
	)
	item.Key = key
	err := s.db.QueryRowContext(ctx,
		`SELECT status, body, created_at, updated_at FROM contents
		 WHERE event_id = ? AND kind = ? AND lang = ?`,
		key.EventID, string(key.Kind), key.Lang).
		Scan(&item.Status, &item.Body, &cr, &up)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContentItem{}, false, nil
	}
	if err != nil {
		return domain.ContentItem{}, false, err
	}
	item.CreatedAt = parseTime(cr)
	item.UpdatedAt = parseTime(up)
	return item, true, nil
}

func (s *Store) DeleteContent(ctx context.Context, key domain.ContentKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM contents WHERE event_id = ? AND kind = ? AND lang = ?`,
		key.EventID, string(key.Kind), key.Lang,
	)
	return err
}

// PendingContent lists pending_approval items of the given kind in insertion
// order (most recently generated last), capped at limit.
func (s *Store) PendingContent(ctx context.Context, kind domain.ContentKind, limit int) ([]domain.ContentItem, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, kind, lang, status, body, created_at, updated_at FROM contents
		 WHERE kind = ? AND status = ? ORDER BY id ASC LIMIT ?`,
		string(kind), string(domain.StatusPendingApproval), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ContentItem
	for rows.Next() {
		var (
			item   domain.ContentItem
			cr, up string
		)
		if err := rows.Scan(&item.Key.EventID, &item.Key.Kind, &item.Key.Lang,
			&item.Status, &item.Body, &cr, &up); err != nil {
			return nil, err
		}
		item.CreatedAt = parseTime(cr)
		item.UpdatedAt = parseTime(up)
		out = append(out, item)
	}
	return out, rows.Err()
}

// ---- bingo templates ----

// PutTemplate stores the template only if none exists for its key: templates
// are immutable once created. The stored (possibly pre-existing) template is
// returned.
func (s *Store) PutTemplate(ctx context.Context, tpl domain.BingoTemplate) (domain.BingoTemplate, error) {
	cells, err := json.Marshal(tpl.Cells)
	if err != nil {
		return domain.BingoTemplate{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bingo_templates(event_id, lang, cells, created_at) VALUES(?,?,?,?)
		 ON CONFLICT(event_id, lang) DO NOTHING`,
		tpl.EventID, tpl.Lang, string(cells), fmtTime(s.now()),
	)
	if err != nil {
		return domain.BingoTemplate{}, err
	}
	stored, ok, err := s.GetTemplate(ctx, tpl.EventID, tpl.Lang)
	if err != nil {
		return domain.BingoTemplate{}, err
	}
	if !ok {
		return domain.BingoTemplate{}, fmt.Errorf("bingo template %s/%s: %w", tpl.EventID, tpl.Lang, domain.ErrNotFound)
	}
	return stored, nil
}

func (s *Store) GetTemplate(ctx context.Context, eventID, lang string) (domain.BingoTemplate, bool, error) {
	var (
		cells string
		cr    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT cells, created_at FROM bingo_templates WHERE event_id = ? AND lang = ?`,
		eventID, lang).Scan(&cells, &cr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BingoTemplate{}, false, nil
	}
	if err != nil {
		return domain.BingoTemplate{}, false, err
	}
	tpl := domain.BingoTemplate{EventID: eventID, Lang: lang, CreatedAt: parseTime(cr)}
	if err := json.Unmarshal([]byte(cells), &tpl.Cells); err != nil {
		return domain.BingoTemplate{}, false, err
	}
	return tpl, true, nil
}

// ---- bingo user state ----

func (s *Store) PutBingoState(ctx context.Context, st domain.BingoUserState) error {
	cells, err := json.Marshal(st.Cells)
	if err != nil {
		return err
	}
	now := fmtTime(s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bingo_states(event_id, recipient_id, cells, created_at, updated_at)
		 VALUES(?,?,?,?,?)
		 ON CONFLICT(event_id, recipient_id) DO UPDATE SET
		   cells=excluded.cells, updated_at=excluded.updated_at`,
		st.EventID, st.RecipientID, string(cells), now, now,
	)
	return err
}

func (s *Store) GetBingoState(ctx context.Context, eventID string, recipientID int64) (domain.BingoUserState, bool, error) {
	var (
		cells  string
		cr, up string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT cells, created_at, updated_at FROM bingo_states
		 WHERE event_id = ? AND recipient_id = ?`, eventID, recipientID).
		Scan(&cells, &cr, &up)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BingoUserState{}, false, nil
	}
	if err != nil {
		return domain.BingoUserState{}, false, err
	}
	st := domain.BingoUserState{
		EventID:     eventID,
		RecipientID: recipientID,
		CreatedAt:   parseTime(cr),
		UpdatedAt:   parseTime(up),
	}
	if err := json.Unmarshal([]byte(cells), &st.Cells); err != nil {
		return domain.BingoUserState{}, false, err
	}
	return st, true, nil
}
