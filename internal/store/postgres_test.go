package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_GetItem_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, title, category, condition`).
		WithArgs("nonexistent-item").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetItem(context.Background(), "nonexistent-item")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetItem(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "title", "category", "condition", "catalog_id", "catalog_name", "catalog_second",
		"value_cents", "value_source", "confidence", "original_cents", "created_at", "updated_at",
	}).AddRow(
		"item-1", "EarthBound", "video_games", "complete_in_box", "6910", "EarthBound", "Super Nintendo",
		int64(12500), "consolidated", 81, (*int64)(nil), now, now,
	)

	mock.ExpectQuery(`SELECT id, title, category, condition`).
		WithArgs("item-1").
		WillReturnRows(rows)

	item, err := s.GetItem(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, "EarthBound", item.Title)
	assert.Equal(t, int64(12500), item.ValueCents)
	assert.True(t, item.HasCatalogLink())
	assert.Nil(t, item.OriginalCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateItemValue(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE items`).
		WithArgs(int64(3600), "consolidated", 81, pgxmock.AnyArg(), "item-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateItemValue(context.Background(), "item-1", 3600, "consolidated", 81)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateItemValue_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE items`).
		WithArgs(int64(100), "api", 50, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateItemValue(context.Background(), "missing", 100, "api", 50)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LinkCatalog(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE items SET catalog_id`).
		WithArgs("1512", "Pokemon Red", "Game Boy", pgxmock.AnyArg(), "item-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.LinkCatalog(context.Background(), "item-1", "1512", "Pokemon Red", "Game Boy")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedPrice_Miss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, item_id, purpose`).
		WithArgs("item-1", "consolidated").
		WillReturnError(pgx.ErrNoRows)

	entry, err := s.GetCachedPrice(context.Background(), "item-1", "consolidated")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedPrice_Hit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "item_id", "purpose", "value_cents", "confidence", "sample_size", "payload", "fetched_at", "expires_at",
	}).AddRow(
		"cache-1", "item-1", "consolidated", int64(3600), 81, 12, []byte(`{"value_cents":3600}`), now, now.Add(time.Hour),
	)

	mock.ExpectQuery(`SELECT id, item_id, purpose`).
		WithArgs("item-1", "consolidated").
		WillReturnRows(rows)

	entry, err := s.GetCachedPrice(context.Background(), "item-1", "consolidated")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(3600), entry.ValueCents)
	assert.Equal(t, 81, entry.Confidence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutCachedPrice(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO price_cache`).
		WithArgs(pgxmock.AnyArg(), "item-1", "consolidated", int64(3600), 81, 12, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutCachedPrice(context.Background(), "item-1", "consolidated", 3600, 81, 12, []byte(`{}`), 24*time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InvalidateItemCache(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM price_cache WHERE item_id`).
		WithArgs("item-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.InvalidateItemCache(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpiredPrices(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM price_cache WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := s.DeleteExpiredPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
