package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olumuyiwaa/afrohub-backend/internal/models"

	"github.com/uptrace/bun"
)

// Store reads and mutates the tier counters embedded in the events table.
type Store struct {
	Bun *bun.DB
}

// availableColumn maps a tier name onto its counter column. Tier names are
// validated before any SQL is built from them.
func availableColumn(ticketType string) (string, error) {
	switch ticketType {
	case models.TierRegular:
		return "regular_available", nil
	case models.TierVIP:
		return "vip_available", nil
	}
	return "", fmt.Errorf("unknown ticket type: %s", ticketType)
}

// GetEvent → fetch the ticketed entity, nil when absent
func (s *Store) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := s.Bun.NewSelect().
		Model(&event).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// SaveEvent → upsert used by event-management callers and test fixtures
func (s *Store) SaveEvent(ctx context.Context, event *models.Event) error {
	_, err := s.Bun.NewInsert().
		Model(event).
		On("CONFLICT (event_id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("regular_price = EXCLUDED.regular_price").
		Set("regular_available = EXCLUDED.regular_available").
		Set("vip_price = EXCLUDED.vip_price").
		Set("vip_available = EXCLUDED.vip_available").
		Exec(ctx)
	return err
}

// Available returns the live counter for one tier.
func (s *Store) Available(ctx context.Context, eventID, ticketType string) (int, error) {
	col, err := availableColumn(ticketType)
	if err != nil {
		return 0, err
	}

	var available int
	err = s.Bun.NewSelect().
		Column(col).
		Table("events").
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx, &available)
	if err != nil {
		return 0, err
	}
	return available, nil
}

// Decrement subtracts count from the tier's counter in a single statement,
// clamping at zero. Returns the new counter value.
func (s *Store) Decrement(ctx context.Context, eventID, ticketType string, count int) (int, error) {
	col, err := availableColumn(ticketType)
	if err != nil {
		return 0, err
	}

	// Single conditional UPDATE so concurrent settlements on the same tier
	// cannot interleave a read-modify-write.
	expr := fmt.Sprintf("%s = CASE WHEN %s > ? THEN %s - ? ELSE 0 END", col, col, col)
	_, err = s.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set(expr, count, count).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return s.Available(ctx, eventID, ticketType)
}
