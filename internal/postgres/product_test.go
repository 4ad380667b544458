package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/airkicks/internal"
	"github.com/dukerupert/airkicks/internal/domain"
)

// testPool connects to TEST_DATABASE_URL and applies migrations.
// Tests are skipped when it is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, internal.RunMigrations(db))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestNullDecimal(t *testing.T) {
	got, err := nullDecimal(nil)
	require.NoError(t, err)
	assert.False(t, got.Valid)

	s := "12.50"
	got, err = nullDecimal(&s)
	require.NoError(t, err)
	require.True(t, got.Valid)
	assert.Equal(t, "12.5", got.Decimal.String())

	bad := "twelve"
	_, err = nullDecimal(&bad)
	assert.Error(t, err)
}

func TestProductStore_SeededProduct(t *testing.T) {
	store := NewProductStore(testPool(t))

	p, err := store.ProductDetails(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "Air Jordan 1 Retro High OG", p.Name)
	assert.Equal(t, "180.00", p.Price.Decimal.StringFixed(2))
	assert.Equal(t, "12.5", p.CarbonFootprint.Decimal.String())
}

func TestProductStore_NotFound(t *testing.T) {
	store := NewProductStore(testPool(t))

	_, err := store.ProductDetails(context.Background(), 999999)

	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestProductStore_DatabaseDown(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://airkicks@127.0.0.1:1/airkicks?connect_timeout=1")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = NewProductStore(pool).ProductDetails(ctx, 1)

	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}
