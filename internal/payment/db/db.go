package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/olumuyiwaa/afrohub-backend/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- TRANSACTIONS ----------------

// CreateTransaction → insert a new PENDING transaction
func (d *DB) CreateTransaction(tx models.Transaction) error {
	_, err := d.Bun.NewInsert().Model(&tx).Exec(context.Background())
	return err
}

// GetByTransactionID → fetch one transaction by its client-visible id
func (d *DB) GetByTransactionID(id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := d.Bun.NewSelect().
		Model(&tx).
		Where("transaction_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// GetByPayPalOrderID → resolve a transaction during the PayPal return callback
func (d *DB) GetByPayPalOrderID(orderID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := d.Bun.NewSelect().
		Model(&tx).
		Where("paypal_order_id = ?", orderID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// GetByStripeSessionID → resolve a transaction during session callbacks/polling
func (d *DB) GetByStripeSessionID(sessionID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := d.Bun.NewSelect().
		Model(&tx).
		Where("stripe_session_id = ?", sessionID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// SetProviderRefs stores the external provider references after resource creation.
func (d *DB) SetProviderRefs(transactionID, paypalOrderID, stripeSessionID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Transaction)(nil)).
		Set("paypal_order_id = ?", paypalOrderID).
		Set("stripe_session_id = ?", stripeSessionID).
		Where("transaction_id = ?", transactionID).
		Exec(context.Background())
	return err
}

// FinalizeIfPending flips a transaction to a terminal status, guarded by the
// current status still being PENDING. Returns true only for the caller that
// actually performed the flip; concurrent settlers observe false and must not
// run side effects.
func (d *DB) FinalizeIfPending(transactionID string, status models.TransactionStatus, paymentStatus string, details []byte) (bool, error) {
	q := d.Bun.NewUpdate().
		Model((*models.Transaction)(nil)).
		Set("status = ?", status).
		Where("transaction_id = ?", transactionID).
		Where("status = ?", models.StatusPending)
	if paymentStatus != "" {
		q = q.Set("payment_status = ?", paymentStatus)
	}
	if details != nil {
		q = q.Set("payment_details = ?", details)
	}
	res, err := q.Exec(context.Background())
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// UpdatePaymentStatus records the latest provider-reported status. It never
// touches the authoritative lifecycle status.
func (d *DB) UpdatePaymentStatus(transactionID, paymentStatus string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Transaction)(nil)).
		Set("payment_status = ?", paymentStatus).
		Where("transaction_id = ?", transactionID).
		Exec(context.Background())
	return err
}

// SetPaymentDetails stores the last-known provider payload for audit.
func (d *DB) SetPaymentDetails(transactionID string, details []byte) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Transaction)(nil)).
		Set("payment_details = ?", details).
		Where("transaction_id = ?", transactionID).
		Exec(context.Background())
	return err
}

// SetTicketQR attaches the issued ticket artifact to a settled transaction.
func (d *DB) SetTicketQR(transactionID string, qr []byte) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Transaction)(nil)).
		Set("ticket_qr = ?", qr).
		Where("transaction_id = ?", transactionID).
		Exec(context.Background())
	return err
}

// ListByUser → payment history, newest first
func (d *DB) ListByUser(userID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := d.Bun.NewSelect().
		Model(&txs).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// ListAll → full ledger for administrative review
func (d *DB) ListAll() ([]models.Transaction, error) {
	var txs []models.Transaction
	err := d.Bun.NewSelect().
		Model(&txs).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// DeleteTransaction → administrative purge of a single record
func (d *DB) DeleteTransaction(transactionID string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Transaction)(nil)).
		Where("transaction_id = ?", transactionID).
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
