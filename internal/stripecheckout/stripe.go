package stripecheckout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// Config carries the immutable Stripe credentials and redirect targets.
type Config struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
}

// Service is the session/checkout provider adapter. There is no synchronous
// capture step for this provider; the status poller re-queries the session
// until a terminal status appears.
type Service struct {
	client *client.API
	cfg    Config
	log    *logger.Logger
}

// NewService creates a new instance of Service
func NewService(cfg Config, log *logger.Logger) (*Service, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "Stripe secret key is not configured")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.SecretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &Service{client: sc, cfg: cfg, log: log}, nil
}

// unitAmountCents converts a dollar price to Stripe's smallest currency unit.
// Rounds to the nearest cent; truncation would undercharge prices like 19.99
// whose float64 product lands just below the true cent value.
func unitAmountCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateSession creates a hosted checkout session for the priced order.
// metadata travels with the session so callbacks can correlate it back to a
// transaction.
func (s *Service) CreateSession(ctx context.Context, title string, unitPrice float64, count int, metadata map[string]string) (*models.ProviderResource, error) {
	unitAmountInCents := unitAmountCents(unitPrice)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(title),
					},
					UnitAmount: stripe.Int64(unitAmountInCents),
				},
				Quantity: stripe.Int64(int64(count)),
			},
		},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	s.log.Info("STRIPE", fmt.Sprintf("Created checkout session %s (%d x %.2f USD)", sess.ID, count, unitPrice))
	return &models.ProviderResource{
		Ref:         sess.ID,
		RedirectURL: sess.URL,
		RawStatus:   string(sess.PaymentStatus),
	}, nil
}

// RetrieveSession fetches the session's current payment status plus the full
// payload for audit.
func (s *Service) RetrieveSession(ctx context.Context, sessionID string) (*models.ProviderResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to retrieve checkout session %s: %v", sessionID, err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}

	return &models.ProviderResult{
		RawStatus:  string(sess.PaymentStatus),
		RawDetails: raw,
	}, nil
}
