package payment

import (
	"fmt"
)

// ValidationError covers malformed or missing request input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError is returned when the event or transaction cannot be resolved.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// PriceMismatchError signals that the client-supplied unit price disagrees
// with the stored tier price beyond tolerance (stale UI or tampering).
type PriceMismatchError struct {
	TicketType  string
	ClientPrice float64
	StoredPrice float64
}

func (e *PriceMismatchError) Error() string {
	return "price mismatch, please refresh and try again"
}

// InventoryError carries the true remaining count so the UI can correct itself.
type InventoryError struct {
	TicketType string
	Available  int
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("only %d %s tickets available", e.Available, e.TicketType)
}

// ProviderError wraps an external payment provider failure with its message.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
