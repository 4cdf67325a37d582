package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/models"

	"github.com/google/uuid"
)

// priceTolerance is the allowed absolute difference between the client's unit
// price and the stored tier price.
const priceTolerance = 0.01

type TransactionStore interface {
	CreateTransaction(tx models.Transaction) error
	GetByTransactionID(id string) (*models.Transaction, error)
	GetByPayPalOrderID(orderID string) (*models.Transaction, error)
	GetByStripeSessionID(sessionID string) (*models.Transaction, error)
	SetProviderRefs(transactionID, paypalOrderID, stripeSessionID string) error
	FinalizeIfPending(transactionID string, status models.TransactionStatus, paymentStatus string, details []byte) (bool, error)
	UpdatePaymentStatus(transactionID, paymentStatus string) error
	SetPaymentDetails(transactionID string, details []byte) error
	SetTicketQR(transactionID string, qr []byte) error
	ListByUser(userID string) ([]models.Transaction, error)
	ListAll() ([]models.Transaction, error)
	DeleteTransaction(transactionID string) (bool, error)
}

type InventoryLedger interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	CheckAvailability(ctx context.Context, eventID, ticketType string) (int, error)
	Decrement(ctx context.Context, eventID, ticketType string, count int) (int, error)
}

// OrderGateway is the order/capture style provider (PayPal).
type OrderGateway interface {
	CreateOrder(ctx context.Context, amount float64, description string) (*models.ProviderResource, error)
	CaptureOrder(ctx context.Context, orderID string) (*models.ProviderResult, error)
}

// SessionGateway is the session/checkout style provider (Stripe). It has no
// synchronous capture step; terminal states arrive via polling.
type SessionGateway interface {
	CreateSession(ctx context.Context, title string, unitPrice float64, count int, metadata map[string]string) (*models.ProviderResource, error)
	RetrieveSession(ctx context.Context, sessionID string) (*models.ProviderResult, error)
}

type SettlementLock interface {
	LockTransaction(transactionID, owner string) (bool, error)
	UnlockTransaction(transactionID, owner string) error
}

type Notifier interface {
	PublishTransactionSettled(tx models.Transaction) error
}

// TicketIssuer produces the ticket artifact handed to the buyer after
// settlement.
type TicketIssuer interface {
	IssueTicket(tx models.Transaction, eventTitle string) ([]byte, error)
}

type PollScheduler interface {
	Schedule(transactionID, sessionID string)
	Cancel(transactionID string)
}

// Service is the checkout orchestrator and settlement handler for both
// provider flows.
type Service struct {
	Store    TransactionStore
	Ledger   InventoryLedger
	PayPal   OrderGateway
	Stripe   SessionGateway
	Lock     SettlementLock
	Notifier Notifier
	Issuer   TicketIssuer
	Poller   PollScheduler
	logger   *logger.Logger
}

func NewService(store TransactionStore, ledger InventoryLedger, paypal OrderGateway, stripe SessionGateway, lock SettlementLock, log *logger.Logger) *Service {
	return &Service{
		Store:  store,
		Ledger: ledger,
		PayPal: paypal,
		Stripe: stripe,
		Lock:   lock,
		logger: log,
	}
}

// validateCheckout runs the shared order-time checks and returns the event on
// success. No transaction exists yet when any of these fail.
func (s *Service) validateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.Event, error) {
	if req.TicketID == "" || req.TicketCount == 0 || req.TicketType == "" || req.PricePerTicket == 0 {
		return nil, &ValidationError{Message: "Ticket ID, count, type, and price per ticket are required."}
	}
	if req.TicketCount < 0 {
		return nil, &ValidationError{Message: "Ticket count must be positive."}
	}
	if !models.IsValidTicketType(req.TicketType) {
		return nil, &ValidationError{Message: `Invalid ticket type. Must be "regular" or "vip".`}
	}

	event, err := s.Ledger.GetEvent(ctx, req.TicketID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, &NotFoundError{Resource: "event"}
	}

	storedPrice, available, ok := event.Tier(req.TicketType)
	if !ok || (storedPrice == 0 && available == 0) {
		return nil, &ValidationError{Message: fmt.Sprintf("%s tickets are not available for this event.", req.TicketType)}
	}

	// Verify the price matches what's stored (security check)
	if math.Abs(req.PricePerTicket-storedPrice) > priceTolerance {
		return nil, &PriceMismatchError{
			TicketType:  req.TicketType,
			ClientPrice: req.PricePerTicket,
			StoredPrice: storedPrice,
		}
	}

	if available < req.TicketCount {
		return nil, &InventoryError{TicketType: req.TicketType, Available: available}
	}

	return event, nil
}

// CreatePayPalCheckout validates the purchase, records a PENDING transaction
// and creates the external PayPal order. Inventory is not reserved here;
// it is committed at settlement.
func (s *Service) CreatePayPalCheckout(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	event, err := s.validateCheckout(ctx, req)
	if err != nil {
		return nil, err
	}

	storedPrice, _, _ := event.Tier(req.TicketType)
	totalPrice := storedPrice * float64(req.TicketCount)

	tx := models.Transaction{
		TransactionID:  uuid.NewString(),
		UserID:         userID,
		TicketID:       req.TicketID,
		Amount:         totalPrice,
		TicketCount:    req.TicketCount,
		TicketType:     req.TicketType,
		PricePerTicket: storedPrice,
		Status:         models.StatusPending,
	}
	if err := s.Store.CreateTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	resource, err := s.PayPal.CreateOrder(ctx, totalPrice, "Ticket Purchase")
	if err != nil {
		s.failTransaction(tx.TransactionID, err)
		return nil, &ProviderError{Provider: "paypal", Message: err.Error(), Err: err}
	}

	if err := s.Store.SetProviderRefs(tx.TransactionID, resource.Ref, ""); err != nil {
		return nil, fmt.Errorf("failed to store provider reference: %w", err)
	}

	s.logger.LogTransaction("CREATE", tx.TransactionID, fmt.Sprintf("PayPal order %s for %.2f USD", resource.Ref, totalPrice))
	return &models.CheckoutResponse{
		TransactionID: tx.TransactionID,
		RedirectURL:   resource.RedirectURL,
		OrderDetails: models.OrderDetails{
			EventTitle:     event.Title,
			TicketType:     req.TicketType,
			TicketCount:    req.TicketCount,
			PricePerTicket: storedPrice,
			TotalAmount:    totalPrice,
		},
	}, nil
}

// CreateStripeCheckout validates the purchase, records a PENDING transaction,
// opens a hosted checkout session and starts the status-polling sequence.
func (s *Service) CreateStripeCheckout(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	event, err := s.validateCheckout(ctx, req)
	if err != nil {
		return nil, err
	}

	storedPrice, _, _ := event.Tier(req.TicketType)
	totalPrice := storedPrice * float64(req.TicketCount)

	tx := models.Transaction{
		TransactionID:  uuid.NewString(),
		UserID:         userID,
		TicketID:       req.TicketID,
		Amount:         totalPrice,
		TicketCount:    req.TicketCount,
		TicketType:     req.TicketType,
		PricePerTicket: storedPrice,
		Status:         models.StatusPending,
	}
	if err := s.Store.CreateTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	metadata := map[string]string{
		"userId":        userID,
		"ticketId":      req.TicketID,
		"transactionId": tx.TransactionID,
	}
	resource, err := s.Stripe.CreateSession(ctx, event.Title, storedPrice, req.TicketCount, metadata)
	if err != nil {
		s.failTransaction(tx.TransactionID, err)
		return nil, &ProviderError{Provider: "stripe", Message: err.Error(), Err: err}
	}

	if err := s.Store.SetProviderRefs(tx.TransactionID, "", resource.Ref); err != nil {
		return nil, fmt.Errorf("failed to store provider reference: %w", err)
	}
	if resource.RawStatus != "" {
		if err := s.Store.UpdatePaymentStatus(tx.TransactionID, resource.RawStatus); err != nil {
			s.logger.Error("PAYMENT", fmt.Sprintf("Failed to record initial payment status for %s: %v", tx.TransactionID, err))
		}
	}

	// No webhook is wired for this provider; polling is the only way the
	// system learns the session's outcome.
	if s.Poller != nil {
		s.Poller.Schedule(tx.TransactionID, resource.Ref)
	}

	s.logger.LogTransaction("CREATE", tx.TransactionID, fmt.Sprintf("Stripe session %s for %.2f USD", resource.Ref, totalPrice))
	return &models.CheckoutResponse{
		TransactionID: tx.TransactionID,
		RedirectURL:   resource.RedirectURL,
		SessionID:     resource.Ref,
		PaymentStatus: resource.RawStatus,
		OrderDetails: models.OrderDetails{
			EventTitle:     event.Title,
			TicketType:     req.TicketType,
			TicketCount:    req.TicketCount,
			PricePerTicket: storedPrice,
			TotalAmount:    totalPrice,
		},
	}, nil
}

// failTransaction marks a transaction FAILED after a synchronous provider
// failure so it is never left PENDING by a handler that threw.
func (s *Service) failTransaction(transactionID string, cause error) {
	details, _ := json.Marshal(map[string]string{"error": cause.Error()})
	if _, err := s.Store.FinalizeIfPending(transactionID, models.StatusFailed, "", details); err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to mark transaction %s as FAILED: %v", transactionID, err))
	}
}
