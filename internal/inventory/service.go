package inventory

import (
	"context"
	"fmt"

	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/models"
)

// EventStore is the persistence surface the ledger needs.
type EventStore interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	Available(ctx context.Context, eventID, ticketType string) (int, error)
	Decrement(ctx context.Context, eventID, ticketType string, count int) (int, error)
}

// Ledger exposes availability checks and the settlement-time decrement.
// Decrement is deliberately best-effort: hard inventory enforcement happened
// at order creation, so a post-validation shortfall is logged and clamped
// rather than failing a payment that already completed.
type Ledger struct {
	Store EventStore
	log   *logger.Logger
}

func NewLedger(store EventStore, log *logger.Logger) *Ledger {
	return &Ledger{Store: store, log: log}
}

func (l *Ledger) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return l.Store.GetEvent(ctx, eventID)
}

// CheckAvailability returns the live remaining count for a tier.
func (l *Ledger) CheckAvailability(ctx context.Context, eventID, ticketType string) (int, error) {
	return l.Store.Available(ctx, eventID, ticketType)
}

// Decrement applies the settlement-time inventory side effect. The counter
// never goes negative; a shortfall is logged for manual reconciliation.
func (l *Ledger) Decrement(ctx context.Context, eventID, ticketType string, count int) (int, error) {
	before, err := l.Store.Available(ctx, eventID, ticketType)
	if err != nil {
		return 0, err
	}

	newAvailable, err := l.Store.Decrement(ctx, eventID, ticketType, count)
	if err != nil {
		return 0, err
	}

	if before < count {
		l.log.Warn("INVENTORY", fmt.Sprintf(
			"Decrement shortfall for event %s tier %s: requested %d, had %d, clamped to %d",
			eventID, ticketType, count, before, newAvailable))
	}

	return newAvailable, nil
}
