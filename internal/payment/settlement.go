package payment

import (
	"context"
	"fmt"

	"github.com/olumuyiwaa/afrohub-backend/internal/models"

	"github.com/google/uuid"
)

// isSuccessStatus maps provider raw statuses onto the settlement decision.
// PayPal reports COMPLETED after capture; Stripe reports paid.
func isSuccessStatus(rawStatus string) bool {
	return rawStatus == "COMPLETED" || rawStatus == models.PaymentStatusPaid
}

// CompletePayPalOrder finalizes an order-style checkout on return from the
// provider. Re-invocation on an already-settled transaction is a no-op.
func (s *Service) CompletePayPalOrder(ctx context.Context, token string) (*models.TransactionSummary, error) {
	if token == "" {
		return nil, &ValidationError{Message: "Missing payment token."}
	}

	tx, err := s.Store.GetByPayPalOrderID(token)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &NotFoundError{Resource: "transaction"}
	}
	if tx.Status != models.StatusPending {
		// Already settled by an earlier invocation; idempotent no-op.
		return s.summarize(ctx, tx), nil
	}

	owner := uuid.NewString()
	locked, err := s.Lock.LockTransaction(tx.TransactionID, owner)
	if err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Settlement lock error for %s: %v", tx.TransactionID, err))
	}
	if err == nil && !locked {
		// Another settlement attempt is mid-flight; report current state.
		if current, rerr := s.Store.GetByTransactionID(tx.TransactionID); rerr == nil && current != nil {
			return s.summarize(ctx, current), nil
		}
		return s.summarize(ctx, tx), nil
	}
	if locked {
		defer func() {
			if uerr := s.Lock.UnlockTransaction(tx.TransactionID, owner); uerr != nil {
				s.logger.Error("PAYMENT", fmt.Sprintf("Failed to release settlement lock for %s: %v", tx.TransactionID, uerr))
			}
		}()
	}

	result, err := s.PayPal.CaptureOrder(ctx, token)
	if err != nil {
		s.failTransaction(tx.TransactionID, err)
		return nil, &ProviderError{Provider: "paypal", Message: err.Error(), Err: err}
	}

	s.settle(ctx, tx, result.RawStatus, result.RawDetails)

	settled, err := s.Store.GetByTransactionID(tx.TransactionID)
	if err != nil || settled == nil {
		return s.summarize(ctx, tx), nil
	}
	return s.summarize(ctx, settled), nil
}

// CancelPayPalOrder marks a user-abandoned checkout CANCELLED. Best-effort:
// a missing token or unknown transaction is not an error.
func (s *Service) CancelPayPalOrder(ctx context.Context, token string) {
	if token == "" {
		return
	}
	tx, err := s.Store.GetByPayPalOrderID(token)
	if err != nil || tx == nil {
		return
	}
	if _, err := s.Store.FinalizeIfPending(tx.TransactionID, models.StatusCancelled, "", nil); err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to cancel transaction %s: %v", tx.TransactionID, err))
		return
	}
	s.logger.LogTransaction("CANCEL", tx.TransactionID, "PayPal checkout cancelled by user")
}

// CompleteStripeSession finalizes a session-style checkout on the success
// redirect. The session's live status decides the outcome; an unpaid session
// stays PENDING for the poller.
func (s *Service) CompleteStripeSession(ctx context.Context, sessionID string) (*models.TransactionSummary, error) {
	if sessionID == "" {
		return nil, &ValidationError{Message: "Session ID is required."}
	}

	result, err := s.Stripe.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, &ProviderError{Provider: "stripe", Message: err.Error(), Err: err}
	}

	tx, err := s.Store.GetByStripeSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &NotFoundError{Resource: "transaction"}
	}

	s.applySessionStatus(ctx, tx, result)

	settled, err := s.Store.GetByTransactionID(tx.TransactionID)
	if err != nil || settled == nil {
		settled = tx
	}
	if models.IsTerminalPaymentStatus(settled.PaymentStatus) && s.Poller != nil {
		s.Poller.Cancel(tx.TransactionID)
	}
	return s.summarize(ctx, settled), nil
}

// CancelStripeSession records a user-cancelled session. Best-effort, always
// succeeds from the caller's point of view.
func (s *Service) CancelStripeSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	var details []byte
	if result, err := s.Stripe.RetrieveSession(ctx, sessionID); err == nil {
		details = result.RawDetails
	}

	tx, err := s.Store.GetByStripeSessionID(sessionID)
	if err != nil || tx == nil {
		return
	}
	if _, err := s.Store.FinalizeIfPending(tx.TransactionID, models.StatusCancelled, models.PaymentStatusCanceled, details); err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to cancel transaction %s: %v", tx.TransactionID, err))
		return
	}
	if s.Poller != nil {
		s.Poller.Cancel(tx.TransactionID)
	}
	s.logger.LogTransaction("CANCEL", tx.TransactionID, "Stripe checkout cancelled by user")
}

// CheckSession is the poller entry point: re-query the session and apply any
// status change. done reports a terminal status so the sequence can stop.
func (s *Service) CheckSession(ctx context.Context, transactionID, sessionID string) (bool, error) {
	result, err := s.Stripe.RetrieveSession(ctx, sessionID)
	if err != nil {
		return false, err
	}

	tx, err := s.Store.GetByTransactionID(transactionID)
	if err != nil {
		return false, err
	}
	if tx == nil {
		s.logger.Error("POLLER", fmt.Sprintf("Transaction %s not found during status check", transactionID))
		return true, nil
	}
	if tx.Status != models.StatusPending {
		// Already resolved by a callback; remaining checks are no-ops.
		return true, nil
	}

	s.applySessionStatus(ctx, tx, result)
	return models.IsTerminalPaymentStatus(result.RawStatus), nil
}

// applySessionStatus persists a changed provider status and runs the
// settlement side effects on the first transition to a terminal state.
func (s *Service) applySessionStatus(ctx context.Context, tx *models.Transaction, result *models.ProviderResult) {
	if tx.PaymentStatus == result.RawStatus {
		if result.RawDetails != nil {
			if err := s.Store.SetPaymentDetails(tx.TransactionID, result.RawDetails); err != nil {
				s.logger.Error("PAYMENT", fmt.Sprintf("Failed to store payment details for %s: %v", tx.TransactionID, err))
			}
		}
		return
	}

	if err := s.Store.UpdatePaymentStatus(tx.TransactionID, result.RawStatus); err != nil {
		s.logger.Error("PAYMENT", fmt.Sprintf("Failed to update payment status for %s: %v", tx.TransactionID, err))
		return
	}
	s.logger.LogTransaction("STATUS", tx.TransactionID, fmt.Sprintf("Provider status changed %q -> %q", tx.PaymentStatus, result.RawStatus))

	if models.IsTerminalPaymentStatus(result.RawStatus) {
		s.settle(ctx, tx, result.RawStatus, result.RawDetails)
	}
}

// settle flips the transaction to its terminal status and, on success, runs
// the inventory decrement exactly once. The conditional flip closes the
// callback-vs-poll race: only the caller that actually moved the row off
// PENDING performs side effects.
func (s *Service) settle(ctx context.Context, tx *models.Transaction, rawStatus string, details []byte) {
	switch {
	case isSuccessStatus(rawStatus):
		flipped, err := s.Store.FinalizeIfPending(tx.TransactionID, models.StatusCompleted, models.PaymentStatusPaid, details)
		if err != nil {
			s.logger.Error("PAYMENT", fmt.Sprintf("Failed to complete transaction %s: %v", tx.TransactionID, err))
			return
		}
		if !flipped {
			// Lost the race; the winner already decremented.
			return
		}
		s.applySettlementSideEffects(ctx, tx)

	case rawStatus == models.PaymentStatusCanceled:
		if _, err := s.Store.FinalizeIfPending(tx.TransactionID, models.StatusCancelled, rawStatus, details); err != nil {
			s.logger.Error("PAYMENT", fmt.Sprintf("Failed to cancel transaction %s: %v", tx.TransactionID, err))
		}

	default:
		if _, err := s.Store.FinalizeIfPending(tx.TransactionID, models.StatusFailed, rawStatus, details); err != nil {
			s.logger.Error("PAYMENT", fmt.Sprintf("Failed to fail transaction %s: %v", tx.TransactionID, err))
		}
		s.logger.LogTransaction("SETTLE", tx.TransactionID, fmt.Sprintf("Marked FAILED on provider status %q", rawStatus))
	}
}

// applySettlementSideEffects runs the post-flip work: the clamped inventory
// decrement, the settled-event broadcast and the ticket artifact. Only the
// decrement matters for correctness; the rest is logged and dropped on error.
func (s *Service) applySettlementSideEffects(ctx context.Context, tx *models.Transaction) {
	newAvailable, err := s.Ledger.Decrement(ctx, tx.TicketID, tx.TicketType, tx.TicketCount)
	if err != nil {
		s.logger.Error("INVENTORY", fmt.Sprintf("Decrement failed for transaction %s: %v", tx.TransactionID, err))
	} else {
		s.logger.LogTransaction("SETTLE", tx.TransactionID, fmt.Sprintf("Completed, %s availability now %d", tx.TicketType, newAvailable))
	}

	if s.Notifier != nil {
		settled := *tx
		settled.Status = models.StatusCompleted
		settled.PaymentStatus = models.PaymentStatusPaid
		if err := s.Notifier.PublishTransactionSettled(settled); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish settled event for %s: %v", tx.TransactionID, err))
		}
	}

	if s.Issuer != nil {
		title := ""
		if event, err := s.Ledger.GetEvent(ctx, tx.TicketID); err == nil && event != nil {
			title = event.Title
		}
		qr, err := s.Issuer.IssueTicket(*tx, title)
		if err != nil {
			s.logger.Error("TICKET", fmt.Sprintf("Failed to issue ticket QR for %s: %v", tx.TransactionID, err))
			return
		}
		if err := s.Store.SetTicketQR(tx.TransactionID, qr); err != nil {
			s.logger.Error("TICKET", fmt.Sprintf("Failed to store ticket QR for %s: %v", tx.TransactionID, err))
		}
	}
}

// GetPaymentStatus pairs the stored transaction with the provider's live
// status when a session reference exists.
func (s *Service) GetPaymentStatus(ctx context.Context, transactionID string) (*models.PaymentStatusResponse, error) {
	tx, err := s.Store.GetByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &NotFoundError{Resource: "transaction"}
	}

	providerStatus := ""
	if tx.StripeSessionID != "" {
		if result, err := s.Stripe.RetrieveSession(ctx, tx.StripeSessionID); err == nil {
			providerStatus = result.RawStatus
		} else {
			s.logger.Warn("PAYMENT", fmt.Sprintf("Live status lookup failed for %s: %v", transactionID, err))
		}
	}

	return &models.PaymentStatusResponse{
		TransactionID:  tx.TransactionID,
		Status:         tx.Status,
		PaymentStatus:  tx.PaymentStatus,
		ProviderStatus: providerStatus,
		Amount:         tx.Amount,
		TicketCount:    tx.TicketCount,
	}, nil
}

// HistoryEntry is one row of a user's payment history.
type HistoryEntry struct {
	models.Transaction
	TicketDetails models.OrderDetails `json:"ticketDetails"`
}

// History returns the user's transactions newest-first with the priced order
// summary attached.
func (s *Service) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	txs, err := s.Store.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(txs))
	for _, tx := range txs {
		title := ""
		if event, err := s.Ledger.GetEvent(ctx, tx.TicketID); err == nil && event != nil {
			title = event.Title
		}
		entries = append(entries, HistoryEntry{
			Transaction: tx,
			TicketDetails: models.OrderDetails{
				EventTitle:     title,
				TicketType:     tx.TicketType,
				TicketCount:    tx.TicketCount,
				PricePerTicket: tx.PricePerTicket,
				TotalAmount:    tx.Amount,
			},
		})
	}
	return entries, nil
}

// ListTransactions returns the full ledger for administrative review.
func (s *Service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.Store.ListAll()
}

// PurgeTransaction removes a transaction record (administrative only).
func (s *Service) PurgeTransaction(ctx context.Context, transactionID string) error {
	deleted, err := s.Store.DeleteTransaction(transactionID)
	if err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Resource: "transaction"}
	}
	return nil
}

// summarize builds the client-facing settlement summary.
func (s *Service) summarize(ctx context.Context, tx *models.Transaction) *models.TransactionSummary {
	title := ""
	if event, err := s.Ledger.GetEvent(ctx, tx.TicketID); err == nil && event != nil {
		title = event.Title
	}
	return &models.TransactionSummary{
		TransactionID: tx.TransactionID,
		Status:        tx.Status,
		PaymentStatus: tx.PaymentStatus,
		TicketDetails: models.OrderDetails{
			EventTitle:     title,
			TicketType:     tx.TicketType,
			TicketCount:    tx.TicketCount,
			PricePerTicket: tx.PricePerTicket,
			TotalAmount:    tx.Amount,
		},
	}
}
