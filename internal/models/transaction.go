package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// Provider-reported payment statuses. These are informational; TransactionStatus
// is authoritative for inventory decisions.
const (
	PaymentStatusPaid     = "paid"
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusFailed   = "failed"
	PaymentStatusCanceled = "canceled"
)

// IsTerminalPaymentStatus reports whether a provider status ends polling.
func IsTerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCanceled:
		return true
	}
	return false
}

// Transaction records one payment attempt. Amount, ticket count, type and the
// snapshotted unit price are immutable after creation; status moves through
// PENDING -> COMPLETED | FAILED | CANCELLED exactly once.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions"`

	TransactionID   string            `bun:"transaction_id,pk" json:"transactionId"`
	UserID          string            `bun:"user_id,notnull" json:"userId"`
	TicketID        string            `bun:"ticket_id,notnull" json:"ticketId"`
	PayPalOrderID   string            `bun:"paypal_order_id,nullzero" json:"paypalOrderId,omitempty"`
	StripeSessionID string            `bun:"stripe_session_id,nullzero" json:"stripeSessionId,omitempty"`
	Amount          float64           `bun:"amount,notnull" json:"amount"`
	TicketCount     int               `bun:"ticket_count,notnull" json:"ticketCount"`
	TicketType      string            `bun:"ticket_type,notnull" json:"ticketType"`
	PricePerTicket  float64           `bun:"price_per_ticket,notnull" json:"pricePerTicket"`
	Status          TransactionStatus `bun:"status,notnull" json:"status"`
	PaymentStatus   string            `bun:"payment_status,nullzero" json:"paymentStatus,omitempty"`
	PaymentDetails  json.RawMessage   `bun:"payment_details,nullzero" json:"paymentDetails,omitempty"`
	TicketQR        []byte            `bun:"ticket_qr,nullzero" json:"-"`
	CreatedAt       time.Time         `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// TransactionSummary is the client-facing view returned after settlement
// and from the payment history listing.
type TransactionSummary struct {
	TransactionID string            `json:"transactionId"`
	Status        TransactionStatus `json:"status"`
	PaymentStatus string            `json:"paymentStatus,omitempty"`
	TicketDetails OrderDetails      `json:"ticketDetails"`
}

// OrderDetails echoes the priced order back to the client.
type OrderDetails struct {
	EventTitle     string  `json:"eventTitle,omitempty"`
	TicketType     string  `json:"ticketType"`
	TicketCount    int     `json:"ticketCount"`
	PricePerTicket float64 `json:"pricePerTicket"`
	TotalAmount    float64 `json:"totalAmount"`
}
