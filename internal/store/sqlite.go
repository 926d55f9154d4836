package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/collectorvault/appraise/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS items (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT 'other',
	condition      TEXT NOT NULL DEFAULT 'loose',
	catalog_id     TEXT NOT NULL DEFAULT '',
	catalog_name   TEXT NOT NULL DEFAULT '',
	catalog_second TEXT NOT NULL DEFAULT '',
	value_cents    INTEGER NOT NULL DEFAULT 0,
	value_source   TEXT NOT NULL DEFAULT '',
	confidence     INTEGER NOT NULL DEFAULT 0,
	original_cents INTEGER,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS price_cache (
	id          TEXT PRIMARY KEY,
	item_id     TEXT NOT NULL REFERENCES items(id),
	purpose     TEXT NOT NULL,
	value_cents INTEGER NOT NULL,
	confidence  INTEGER NOT NULL DEFAULT 0,
	sample_size INTEGER NOT NULL DEFAULT 0,
	payload     TEXT,
	fetched_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);
CREATE INDEX IF NOT EXISTS idx_price_cache_item_purpose ON price_cache(item_id, purpose);
CREATE INDEX IF NOT EXISTS idx_price_cache_expires_at ON price_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateItem(ctx context.Context, item model.Item) (*model.Item, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, title, category, condition, catalog_id, catalog_name, catalog_second,
		                    value_cents, value_source, confidence, original_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, string(item.Category), string(item.Condition),
		item.CatalogID, item.CatalogName, item.CatalogSecond,
		item.ValueCents, item.ValueSource, item.Confidence, item.OriginalCents, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert item")
	}
	return &item, nil
}

func (s *SQLiteStore) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, category, condition, catalog_id, catalog_name, catalog_second,
		        value_cents, value_source, confidence, original_cents, created_at, updated_at
		 FROM items WHERE id = ?`,
		itemID,
	)
	return scanItem(row)
}

func (s *SQLiteStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	query := `SELECT id, title, category, condition, catalog_id, catalog_name, catalog_second,
	                 value_cents, value_source, confidence, original_cents, created_at, updated_at
	          FROM items WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list items")
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list items iterate")
}

func (s *SQLiteStore) UpdateItemValue(ctx context.Context, itemID string, valueCents int64, source string, confidence int) error {
	// COALESCE keeps the first pre-valuation value as the original; later
	// updates never touch it.
	res, err := s.db.ExecContext(ctx,
		`UPDATE items
		 SET original_cents = COALESCE(original_cents, value_cents),
		     value_cents = ?, value_source = ?, confidence = ?, updated_at = ?
		 WHERE id = ?`,
		valueCents, source, confidence, time.Now().UTC(), itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update item value %s", itemID)
	}
	return checkRowsAffected(res, itemID)
}

func (s *SQLiteStore) LinkCatalog(ctx context.Context, itemID, catalogID, displayName, secondaryName string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET catalog_id = ?, catalog_name = ?, catalog_second = ?, updated_at = ? WHERE id = ?`,
		catalogID, displayName, secondaryName, time.Now().UTC(), itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: link catalog %s", itemID)
	}
	return checkRowsAffected(res, itemID)
}

func (s *SQLiteStore) GetCachedPrice(ctx context.Context, itemID, purpose string) (*model.PriceCacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, item_id, purpose, value_cents, confidence, sample_size, payload, fetched_at, expires_at
		 FROM price_cache
		 WHERE item_id = ? AND purpose = ? AND expires_at > datetime('now')
		 ORDER BY fetched_at DESC LIMIT 1`,
		itemID, purpose,
	)

	var e model.PriceCacheEntry
	var payload sql.NullString
	err := row.Scan(&e.ID, &e.ItemID, &e.Purpose, &e.ValueCents, &e.Confidence, &e.SampleSize, &payload, &e.FetchedAt, &e.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached price")
	}
	if payload.Valid {
		e.Payload = []byte(payload.String)
	}
	return &e, nil
}

func (s *SQLiteStore) PutCachedPrice(ctx context.Context, itemID, purpose string, valueCents int64, confidence, sampleSize int, payload []byte, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_cache (id, item_id, purpose, value_cents, confidence, sample_size, payload, fetched_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, itemID, purpose, valueCents, confidence, sampleSize, nullableString(payload), now, expiresAt,
	)
	return eris.Wrap(err, "sqlite: put cached price")
}

func (s *SQLiteStore) InvalidateItemCache(ctx context.Context, itemID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM price_cache WHERE item_id = ?`,
		itemID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: invalidate cache %s", itemID)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) ListPriceHistory(ctx context.Context, itemID string, limit int) ([]model.PriceCacheEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_id, purpose, value_cents, confidence, sample_size, payload, fetched_at, expires_at
		 FROM price_cache WHERE item_id = ?
		 ORDER BY fetched_at DESC LIMIT ?`,
		itemID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list price history")
	}
	defer rows.Close()

	var entries []model.PriceCacheEntry
	for rows.Next() {
		var e model.PriceCacheEntry
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Purpose, &e.ValueCents, &e.Confidence, &e.SampleSize, &payload, &e.FetchedAt, &e.ExpiresAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan price history")
		}
		if payload.Valid {
			e.Payload = []byte(payload.String)
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list price history iterate")
}

func (s *SQLiteStore) DeleteExpiredPrices(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM price_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired prices")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, itemID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s", itemID)
	}
	return nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (*model.Item, error) {
	var it model.Item
	var category, condition string
	var original sql.NullInt64

	err := row.Scan(&it.ID, &it.Title, &category, &condition,
		&it.CatalogID, &it.CatalogName, &it.CatalogSecond,
		&it.ValueCents, &it.ValueSource, &it.Confidence, &original,
		&it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan item")
	}

	it.Category = model.Category(category)
	it.Condition = model.Condition(condition)
	if original.Valid {
		v := original.Int64
		it.OriginalCents = &v
	}
	return &it, nil
}
