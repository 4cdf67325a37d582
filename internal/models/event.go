package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket tier names form a closed set.
const (
	TierRegular = "regular"
	TierVIP     = "vip"
)

// IsValidTicketType reports whether t names a known tier.
func IsValidTicketType(t string) bool {
	return t == TierRegular || t == TierVIP
}

// Event is the ticketed entity. Tier pricing is stored flat per tier; the
// available counters are mutated only by the settlement path.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	EventID          string    `bun:"event_id,pk" json:"eventId"`
	Title            string    `bun:"title,notnull" json:"title"`
	Location         string    `bun:"location,nullzero" json:"location,omitempty"`
	Date             string    `bun:"date,nullzero" json:"date,omitempty"`
	Organiser        string    `bun:"organiser,nullzero" json:"organiser,omitempty"`
	RegularPrice     float64   `bun:"regular_price,notnull,default:0" json:"regularPrice"`
	RegularAvailable int       `bun:"regular_available,notnull,default:0" json:"regularAvailable"`
	VIPPrice         float64   `bun:"vip_price,notnull,default:0" json:"vipPrice"`
	VIPAvailable     int       `bun:"vip_available,notnull,default:0" json:"vipAvailable"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Tier returns the price and remaining count for a tier name. ok is false
// when the tier is not configured on this event.
func (e *Event) Tier(ticketType string) (price float64, available int, ok bool) {
	switch ticketType {
	case TierRegular:
		return e.RegularPrice, e.RegularAvailable, true
	case TierVIP:
		return e.VIPPrice, e.VIPAvailable, true
	}
	return 0, 0, false
}
