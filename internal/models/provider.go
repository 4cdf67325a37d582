package models

import "encoding/json"

// ProviderResource is the provider-neutral result of creating an external
// payment resource (a PayPal order or a Stripe checkout session).
type ProviderResource struct {
	Ref         string `json:"ref"`
	RedirectURL string `json:"redirectUrl"`
	RawStatus   string `json:"rawStatus"`
}

// ProviderResult is the provider-neutral result of a capture or retrieve call.
// RawDetails carries the provider's full response payload for audit.
type ProviderResult struct {
	RawStatus  string          `json:"rawStatus"`
	RawDetails json.RawMessage `json:"rawDetails,omitempty"`
}
