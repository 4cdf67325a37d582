package payments_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/olumuyiwaa/afrohub-backend/internal/models"
	"github.com/olumuyiwaa/afrohub-backend/internal/payment/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Transaction)(nil)))

	return &db.DB{Bun: bunDB}
}

func pendingTransaction(id string) models.Transaction {
	return models.Transaction{
		TransactionID:  id,
		UserID:         "user-1",
		TicketID:       "event-1",
		Amount:         100.0,
		TicketCount:    2,
		TicketType:     models.TierRegular,
		PricePerTicket: 50.0,
		Status:         models.StatusPending,
		CreatedAt:      time.Now().Round(time.Second),
	}
}

func TestCreateAndLookupTransaction(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.CreateTransaction(pendingTransaction("tx-1")))
	require.NoError(t, store.SetProviderRefs("tx-1", "PAYPAL-1", ""))

	tx, err := store.GetByTransactionID("tx-1")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, models.StatusPending, tx.Status)
	assert.Equal(t, "PAYPAL-1", tx.PayPalOrderID)

	byOrder, err := store.GetByPayPalOrderID("PAYPAL-1")
	require.NoError(t, err)
	require.NotNil(t, byOrder)
	assert.Equal(t, "tx-1", byOrder.TransactionID)

	missing, err := store.GetByTransactionID("tx-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFinalizeIfPendingFlipsOnce(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.CreateTransaction(pendingTransaction("tx-1")))

	flipped, err := store.FinalizeIfPending("tx-1", models.StatusCompleted, models.PaymentStatusPaid, []byte(`{"status":"COMPLETED"}`))
	require.NoError(t, err)
	assert.True(t, flipped)

	// A second flip attempt loses the guard.
	flipped, err = store.FinalizeIfPending("tx-1", models.StatusFailed, models.PaymentStatusFailed, nil)
	require.NoError(t, err)
	assert.False(t, flipped)

	tx, err := store.GetByTransactionID("tx-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, tx.Status)
	assert.Equal(t, models.PaymentStatusPaid, tx.PaymentStatus)
}

func TestFinalizeIfPendingUnknownTransaction(t *testing.T) {
	store := setupTestDB(t)

	flipped, err := store.FinalizeIfPending("tx-unknown", models.StatusCompleted, models.PaymentStatusPaid, nil)
	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestUpdatePaymentStatusLeavesLifecycleAlone(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.CreateTransaction(pendingTransaction("tx-1")))

	require.NoError(t, store.UpdatePaymentStatus("tx-1", models.PaymentStatusUnpaid))

	tx, err := store.GetByTransactionID("tx-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, tx.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, tx.PaymentStatus)
}

func TestSetTicketQR(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.CreateTransaction(pendingTransaction("tx-1")))

	require.NoError(t, store.SetTicketQR("tx-1", []byte{0x89, 0x50, 0x4e, 0x47}))

	tx, err := store.GetByTransactionID("tx-1")
	require.NoError(t, err)
	assert.NotEmpty(t, tx.TicketQR)
}

func TestListByUserNewestFirst(t *testing.T) {
	store := setupTestDB(t)

	older := pendingTransaction("tx-1")
	older.CreatedAt = time.Now().Add(-time.Hour).Round(time.Second)
	require.NoError(t, store.CreateTransaction(older))

	newer := pendingTransaction("tx-2")
	require.NoError(t, store.CreateTransaction(newer))

	other := pendingTransaction("tx-3")
	other.UserID = "user-2"
	require.NoError(t, store.CreateTransaction(other))

	txs, err := store.ListByUser("user-1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "tx-2", txs[0].TransactionID)
	assert.Equal(t, "tx-1", txs[1].TransactionID)
}

func TestDeleteTransaction(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.CreateTransaction(pendingTransaction("tx-1")))

	deleted, err := store.DeleteTransaction("tx-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteTransaction("tx-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
