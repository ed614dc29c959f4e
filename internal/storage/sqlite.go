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
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"postpilot/internal/audit"
	"postpilot/internal/queue"
	"postpilot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const itemCols = `id, content, plain_text, media_kind, media_ref, scheduled_for, status, error, created_at, posting_started_at, posted_at, backlog_at`

func (s *sqliteStore) ListItems(ctx context.Context) ([]queue.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemCols+` FROM items ORDER BY scheduled_for, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []queue.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanItem(rows *sql.Rows) (queue.Item, error) {
	var (
		it                       queue.Item
		mediaKind, mediaRef, e   sql.NullString
		postingAt, postedAt, bAt sql.NullInt64
		status                   string
	)
	if err := rows.Scan(&it.ID, &it.Content, &it.PlainText, &mediaKind, &mediaRef,
		&it.ScheduledFor, &status, &e, &it.CreatedAt, &postingAt, &postedAt, &bAt); err != nil {
		return queue.Item{}, err
	}
	it.Status = queue.Status(status)
	if mediaRef.Valid {
		it.Media = &queue.Media{Kind: mediaKind.String, Ref: mediaRef.String}
	}
	it.Error = e.String
	it.PostingStartedAt = postingAt.Int64
	it.PostedAt = postedAt.Int64
	it.BacklogAt = bAt.Int64
	return it, nil
}

func itemArgs(it queue.Item) []any {
	var mediaKind, mediaRef any
	if it.Media != nil {
		mediaKind = it.Media.Kind
		mediaRef = it.Media.Ref
	}
	return []any{
		it.ID, it.Content, it.PlainText, mediaKind, mediaRef,
		it.ScheduledFor, string(it.Status), nullStr(it.Error), it.CreatedAt,
		nullMilli(it.PostingStartedAt), nullMilli(it.PostedAt), nullMilli(it.BacklogAt),
	}
}

func (s *sqliteStore) InsertItem(ctx context.Context, it queue.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items(`+itemCols+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		itemArgs(it)...)
	return err
}

func (s *sqliteStore) UpdateItem(ctx context.Context, it queue.Item) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET content=?, plain_text=?, media_kind=?, media_ref=?, scheduled_for=?,
		 status=?, error=?, created_at=?, posting_started_at=?, posted_at=?, backlog_at=?
		 WHERE id=?`,
		append(itemArgs(it)[1:], it.ID)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) AppendAudit(ctx context.Context, e audit.Entry) error {
	var details any
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err == nil {
			details = string(b)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit(id, at, level, message, item_id, details) VALUES(?,?,?,?,?,?)`,
		e.ID, e.At, string(e.Level), e.Message, nullStr(e.ItemID), details)
	return err
}

func (s *sqliteStore) ListAudit(ctx context.Context, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = audit.MaxEntries
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, level, message, item_id, details FROM audit ORDER BY at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var level string
		var itemID, details sql.NullString
		if err := rows.Scan(&e.ID, &e.At, &level, &e.Message, &itemID, &details); err != nil {
			return nil, err
		}
		e.Level = audit.Level(level)
		e.ItemID = itemID.String
		if details.Valid {
			_ = json.Unmarshal([]byte(details.String), &e.Details)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) PruneAudit(ctx context.Context, keep int) error {
	if keep < 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM audit WHERE id NOT IN (SELECT id FROM audit ORDER BY at DESC, id LIMIT ?)`, keep)
	return err
}

func (s *sqliteStore) SetBadge(ctx context.Context, count int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('badge', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		strconv.Itoa(count))
	return err
}

func (s *sqliteStore) GetBadge(ctx context.Context) (int, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key='badge'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func nullMilli(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
