package inventory_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/olumuyiwaa/afrohub-backend/internal/inventory"
	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/models"
)

func setupTestStore(t *testing.T) *inventory.Store {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Event)(nil)))

	return &inventory.Store{Bun: bunDB}
}

func seedEvent(t *testing.T, store *inventory.Store) {
	t.Helper()
	err := store.SaveEvent(context.Background(), &models.Event{
		EventID:          "event-1",
		Title:            "Afrobeats Live",
		RegularPrice:     50.0,
		RegularAvailable: 5,
		VIPPrice:         120.0,
		VIPAvailable:     2,
	})
	require.NoError(t, err)
}

func TestGetEvent(t *testing.T) {
	store := setupTestStore(t)
	seedEvent(t, store)

	event, err := store.GetEvent(context.Background(), "event-1")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "Afrobeats Live", event.Title)
	assert.Equal(t, 5, event.RegularAvailable)

	missing, err := store.GetEvent(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveEventUpsert(t *testing.T) {
	store := setupTestStore(t)
	seedEvent(t, store)

	err := store.SaveEvent(context.Background(), &models.Event{
		EventID:          "event-1",
		Title:            "Afrobeats Live (Rescheduled)",
		RegularPrice:     55.0,
		RegularAvailable: 10,
		VIPPrice:         120.0,
		VIPAvailable:     2,
	})
	require.NoError(t, err)

	event, err := store.GetEvent(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, "Afrobeats Live (Rescheduled)", event.Title)
	assert.Equal(t, 10, event.RegularAvailable)
}

func TestDecrement(t *testing.T) {
	store := setupTestStore(t)
	seedEvent(t, store)

	remaining, err := store.Decrement(context.Background(), "event-1", models.TierRegular, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	// VIP counter is untouched.
	vip, err := store.Available(context.Background(), "event-1", models.TierVIP)
	require.NoError(t, err)
	assert.Equal(t, 2, vip)
}

func TestDecrementToZero(t *testing.T) {
	store := setupTestStore(t)
	seedEvent(t, store)

	remaining, err := store.Decrement(context.Background(), "event-1", models.TierVIP, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestDecrementClampsAtZero(t *testing.T) {
	store := setupTestStore(t)
	seedEvent(t, store)

	remaining, err := store.Decrement(context.Background(), "event-1", models.TierVIP, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining, "the counter never goes negative")
}

func TestDecrementUnknownTier(t *testing.T) {
	store := setupTestStore(t)
	seedEvent(t, store)

	_, err := store.Decrement(context.Background(), "event-1", "platinum", 1)
	assert.Error(t, err)
}

func TestLedgerDecrementShortfall(t *testing.T) {
	store := setupTestStore(t)
	seedEvent(t, store)
	ledger := inventory.NewLedger(store, logger.NewLogger())

	remaining, err := ledger.Decrement(context.Background(), "event-1", models.TierVIP, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestLedgerCheckAvailability(t *testing.T) {
	store := setupTestStore(t)
	seedEvent(t, store)
	ledger := inventory.NewLedger(store, logger.NewLogger())

	available, err := ledger.CheckAvailability(context.Background(), "event-1", models.TierRegular)
	require.NoError(t, err)
	assert.Equal(t, 5, available)
}
