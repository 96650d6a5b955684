package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/linkgrid/pkg/cache"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Dialect names the SQL flavour of an SQLStore.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps records in a single widgets table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS widgets (
		id TEXT PRIMARY KEY,
		page_id TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		position TEXT,
		web_position TEXT,
		mobile_position TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_widgets_page ON widgets(page_id, sort_order)`,
}

// OpenSQLite opens (or creates) the database file at path. SQLite allows a
// single writer, so the pool is limited to one connection.
func OpenSQLite(path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db, dialect: DialectSQLite}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// OpenPostgres connects using a lib/pq connection string.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: postgres: %v", cache.ErrNetwork, err)
	}

	s := &SQLStore{db: db, dialect: DialectPostgres}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return res, s.classify(err)
}

// classify marks connection failures as retryable.
func (s *SQLStore) classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	return err
}

func (s *SQLStore) isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ListWidgets returns a page's records ordered by insertion.
func (s *SQLStore) ListWidgets(ctx context.Context, pageID string) ([]widget.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, type, size, position, web_position, mobile_position
		FROM widgets WHERE page_id = ? ORDER BY sort_order, created_at, id`), pageID)
	if err != nil {
		return nil, wrapf(s.classify(err), "list widgets of %s", pageID)
	}
	defer rows.Close()

	var out []widget.Record
	for rows.Next() {
		var r widget.Record
		var legacy, web, mobile sql.NullString
		if err := rows.Scan(&r.ID, &r.Type, &r.Size, &legacy, &web, &mobile); err != nil {
			return nil, wrapf(err, "scan widget")
		}
		r.Position = rawColumn(legacy)
		r.WebPosition = rawColumn(web)
		r.MobilePosition = rawColumn(mobile)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateWidget inserts a record at the end of its page.
func (s *SQLStore) CreateWidget(ctx context.Context, pageID string, r widget.Record) error {
	if err := checkRecord(pageID, r); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := s.exec(ctx, `
		INSERT INTO widgets (id, page_id, type, size, position, web_position, mobile_position, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM widgets WHERE page_id = ?), ?, ?)`,
		r.ID, pageID, r.Type, r.Size, textColumn(r.Position), textColumn(r.WebPosition), textColumn(r.MobilePosition),
		pageID, now, now)
	if err != nil && s.isUniqueViolation(err) {
		return duplicate(r.ID)
	}
	if err != nil {
		return wrapf(err, "create widget %s", r.ID)
	}
	return nil
}

// SaveWidget upserts a record. An existing row keeps its sort order.
func (s *SQLStore) SaveWidget(ctx context.Context, pageID string, r widget.Record) error {
	if err := checkRecord(pageID, r); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := s.exec(ctx, `
		INSERT INTO widgets (id, page_id, type, size, position, web_position, mobile_position, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM widgets WHERE page_id = ?), ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			page_id = excluded.page_id,
			type = excluded.type,
			size = excluded.size,
			position = excluded.position,
			web_position = excluded.web_position,
			mobile_position = excluded.mobile_position,
			updated_at = excluded.updated_at`,
		r.ID, pageID, r.Type, r.Size, textColumn(r.Position), textColumn(r.WebPosition), textColumn(r.MobilePosition),
		pageID, now, now)
	if err != nil {
		return wrapf(err, "save widget %s", r.ID)
	}
	return nil
}

// UpdatePosition writes one view's position.
func (s *SQLStore) UpdatePosition(ctx context.Context, id string, view widget.ViewMode, p widget.Point) error {
	col, err := positionField(view)
	if err != nil {
		return err
	}
	raw, err := widget.EncodePoint(p)
	if err != nil {
		return err
	}
	// col comes from a fixed set, never from input.
	res, err := s.exec(ctx, `UPDATE widgets SET `+col+` = ?, updated_at = ? WHERE id = ?`,
		string(raw), time.Now().UTC(), id)
	if err != nil {
		return wrapf(err, "update position of %s", id)
	}
	return s.expectRow(res, id)
}

// UpdateSize writes the size tag.
func (s *SQLStore) UpdateSize(ctx context.Context, id string, size widget.Size) error {
	res, err := s.exec(ctx, `UPDATE widgets SET size = ?, updated_at = ? WHERE id = ?`,
		string(size), time.Now().UTC(), id)
	if err != nil {
		return wrapf(err, "update size of %s", id)
	}
	return s.expectRow(res, id)
}

// DeleteWidget removes a record.
func (s *SQLStore) DeleteWidget(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM widgets WHERE id = ?`, id)
	if err != nil {
		return wrapf(err, "delete widget %s", id)
	}
	return s.expectRow(res, id)
}

func (s *SQLStore) expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// textColumn stores raw JSON as text, or NULL when absent.
func textColumn(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// rawColumn converts stored text back to raw JSON. Text that is not JSON
// at all, as written by some old clients, is wrapped as a JSON string so
// it stays representable and fails later in position parsing.
func rawColumn(v sql.NullString) json.RawMessage {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	if json.Valid([]byte(v.String)) {
		return json.RawMessage(v.String)
	}
	quoted, _ := json.Marshal(v.String)
	return quoted
}

var _ Store = (*SQLStore)(nil)
