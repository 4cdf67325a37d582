package models

// CheckoutRequest is the validated body for both checkout operations. The
// client-supplied unit price is compared against the stored tier price before
// any transaction is created.
type CheckoutRequest struct {
	TicketID       string  `json:"ticketId"`
	TicketCount    int     `json:"ticketCount"`
	TicketType     string  `json:"ticketType"`
	PricePerTicket float64 `json:"pricePerTicket"`
}

// CheckoutResponse points the client at the provider's approval page.
type CheckoutResponse struct {
	TransactionID string       `json:"transactionId"`
	RedirectURL   string       `json:"redirectUrl"`
	SessionID     string       `json:"sessionId,omitempty"`
	PaymentStatus string       `json:"paymentStatus,omitempty"`
	OrderDetails  OrderDetails `json:"orderDetails"`
}

// PaymentStatusResponse pairs the stored transaction state with the
// provider's live status when a session reference exists.
type PaymentStatusResponse struct {
	TransactionID  string            `json:"transactionId"`
	Status         TransactionStatus `json:"status"`
	PaymentStatus  string            `json:"paymentStatus,omitempty"`
	ProviderStatus string            `json:"providerStatus,omitempty"`
	Amount         float64           `json:"amount"`
	TicketCount    int               `json:"ticketCount"`
}
