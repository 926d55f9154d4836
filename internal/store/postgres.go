package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/collectorvault/appraise/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot valuation paths.
var preparedStatements = map[string]string{
	"get_item": `SELECT id, title, category, condition, catalog_id, catalog_name, catalog_second,
	                    value_cents, value_source, confidence, original_cents, created_at, updated_at
	             FROM items WHERE id = $1`,
	"get_cached_price": `SELECT id, item_id, purpose, value_cents, confidence, sample_size, payload, fetched_at, expires_at
	                     FROM price_cache
	                     WHERE item_id = $1 AND purpose = $2 AND expires_at > now()
	                     ORDER BY fetched_at DESC LIMIT 1`,
	"put_cached_price": `INSERT INTO price_cache (id, item_id, purpose, value_cents, confidence, sample_size, payload, fetched_at, expires_at)
	                     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"update_item_value": `UPDATE items
	                      SET original_cents = COALESCE(original_cents, value_cents),
	                          value_cents = $1, value_source = $2, confidence = $3, updated_at = $4
	                      WHERE id = $5`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns, minConns int32) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	if maxConns <= 0 {
		maxConns = 10
	}
	if minConns <= 0 {
		minConns = 2
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS items (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	title          TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT 'other',
	condition      TEXT NOT NULL DEFAULT 'loose',
	catalog_id     TEXT NOT NULL DEFAULT '',
	catalog_name   TEXT NOT NULL DEFAULT '',
	catalog_second TEXT NOT NULL DEFAULT '',
	value_cents    BIGINT NOT NULL DEFAULT 0,
	value_source   TEXT NOT NULL DEFAULT '',
	confidence     INT NOT NULL DEFAULT 0,
	original_cents BIGINT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS price_cache (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	item_id     TEXT NOT NULL REFERENCES items(id),
	purpose     TEXT NOT NULL,
	value_cents BIGINT NOT NULL,
	confidence  INT NOT NULL DEFAULT 0,
	sample_size INT NOT NULL DEFAULT 0,
	payload     JSONB,
	fetched_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);
CREATE INDEX IF NOT EXISTS idx_price_cache_item_purpose ON price_cache(item_id, purpose);
CREATE INDEX IF NOT EXISTS idx_price_cache_expires_at ON price_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateItem(ctx context.Context, item model.Item) (*model.Item, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO items (id, title, category, condition, catalog_id, catalog_name, catalog_second,
		                    value_cents, value_source, confidence, original_cents, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		item.ID, item.Title, string(item.Category), string(item.Condition),
		item.CatalogID, item.CatalogName, item.CatalogSecond,
		item.ValueCents, item.ValueSource, item.Confidence, item.OriginalCents, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert item")
	}
	return &item, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, category, condition, catalog_id, catalog_name, catalog_second,
		        value_cents, value_source, confidence, original_cents, created_at, updated_at
		 FROM items WHERE id = $1`,
		itemID,
	)
	return scanPgItem(row)
}

func (s *PostgresStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	query := `SELECT id, title, category, condition, catalog_id, catalog_name, catalog_second,
	                 value_cents, value_source, confidence, original_cents, created_at, updated_at
	          FROM items WHERE 1=1`
	var args []any
	arg := 0

	if filter.Category != "" {
		arg++
		query += ` AND category = $1`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	arg++
	query += ` LIMIT $` + strconv.Itoa(arg)
	args = append(args, limit)

	if filter.Offset > 0 {
		arg++
		query += ` OFFSET $` + strconv.Itoa(arg)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list items")
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanPgItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list items iterate")
}

func (s *PostgresStore) UpdateItemValue(ctx context.Context, itemID string, valueCents int64, source string, confidence int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE items
		 SET original_cents = COALESCE(original_cents, value_cents),
		     value_cents = $1, value_source = $2, confidence = $3, updated_at = $4
		 WHERE id = $5`,
		valueCents, source, confidence, time.Now().UTC(), itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update item value %s", itemID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s", itemID)
	}
	return nil
}

func (s *PostgresStore) LinkCatalog(ctx context.Context, itemID, catalogID, displayName, secondaryName string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE items SET catalog_id = $1, catalog_name = $2, catalog_second = $3, updated_at = $4 WHERE id = $5`,
		catalogID, displayName, secondaryName, time.Now().UTC(), itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: link catalog %s", itemID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s", itemID)
	}
	return nil
}

func (s *PostgresStore) GetCachedPrice(ctx context.Context, itemID, purpose string) (*model.PriceCacheEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, item_id, purpose, value_cents, confidence, sample_size, payload, fetched_at, expires_at
		 FROM price_cache
		 WHERE item_id = $1 AND purpose = $2 AND expires_at > now()
		 ORDER BY fetched_at DESC LIMIT 1`,
		itemID, purpose,
	)

	var e model.PriceCacheEntry
	err := row.Scan(&e.ID, &e.ItemID, &e.Purpose, &e.ValueCents, &e.Confidence, &e.SampleSize, &e.Payload, &e.FetchedAt, &e.ExpiresAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached price")
	}
	return &e, nil
}

func (s *PostgresStore) PutCachedPrice(ctx context.Context, itemID, purpose string, valueCents int64, confidence, sampleSize int, payload []byte, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	var payloadArg any
	if len(payload) > 0 {
		payloadArg = payload
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO price_cache (id, item_id, purpose, value_cents, confidence, sample_size, payload, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, itemID, purpose, valueCents, confidence, sampleSize, payloadArg, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: put cached price")
}

func (s *PostgresStore) InvalidateItemCache(ctx context.Context, itemID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM price_cache WHERE item_id = $1`,
		itemID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: invalidate cache %s", itemID)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ListPriceHistory(ctx context.Context, itemID string, limit int) ([]model.PriceCacheEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, item_id, purpose, value_cents, confidence, sample_size, payload, fetched_at, expires_at
		 FROM price_cache WHERE item_id = $1
		 ORDER BY fetched_at DESC LIMIT $2`,
		itemID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list price history")
	}
	defer rows.Close()

	var entries []model.PriceCacheEntry
	for rows.Next() {
		var e model.PriceCacheEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Purpose, &e.ValueCents, &e.Confidence, &e.SampleSize, &e.Payload, &e.FetchedAt, &e.ExpiresAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price history")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list price history iterate")
}

func (s *PostgresStore) DeleteExpiredPrices(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM price_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired prices")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgItem(row pgx.Row) (*model.Item, error) {
	var it model.Item
	var category, condition string
	var original *int64

	err := row.Scan(&it.ID, &it.Title, &category, &condition,
		&it.CatalogID, &it.CatalogName, &it.CatalogSecond,
		&it.ValueCents, &it.ValueSource, &it.Confidence, &original,
		&it.CreatedAt, &it.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan item")
	}

	it.Category = model.Category(category)
	it.Condition = model.Condition(condition)
	it.OriginalCents = original
	return &it, nil
}

