package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	analytics_api "github.com/olumuyiwaa/afrohub-backend/internal/analytics/api"
	"github.com/olumuyiwaa/afrohub-backend/internal/auth"
	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/models"
	"github.com/olumuyiwaa/afrohub-backend/internal/payment"
)

// Handler exposes the checkout and settlement operations over HTTP.
type Handler struct {
	Service   *payment.Service
	Logger    *logger.Logger
	JWTSecret string
	Analytics *analytics_api.Handler
}

func NewHandler(service *payment.Service, jwtSecret string, log *logger.Logger) *Handler {
	return &Handler{
		Service:   service,
		Logger:    log,
		JWTSecret: jwtSecret,
	}
}

// Routes mounts every payment endpoint. Provider return and cancel URLs are
// left unauthenticated because the buyer arrives on them via a provider
// redirect, without our Authorization header.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.JWTSecret))
		r.Post("/paypal/create-order", h.CreatePayPalOrder)
		r.Post("/stripe/create-checkout-session", h.CreateStripeSession)
		r.Get("/payments/history", h.PaymentHistory)
	})

	r.Get("/paypal/complete-order", h.CompletePayPalOrder)
	r.Get("/paypal/cancel", h.CancelPayPalOrder)
	r.Get("/stripe/complete/{sessionId}", h.CompleteStripeSession)
	r.Get("/stripe/cancel", h.CancelStripeSession)
	r.Get("/payments/status/{transactionId}", h.PaymentStatus)

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Middleware(h.JWTSecret))
		r.Get("/transactions", h.ListTransactions)
		r.Delete("/transactions/{transactionId}", h.DeleteTransaction)
		if h.Analytics != nil {
			h.Analytics.RegisterRoutes(r)
		}
	})

	return r
}

func (h *Handler) CreatePayPalOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, "Invalid request payload", err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.Service.CreatePayPalCheckout(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.Logger.LogTransaction("CREATE", resp.TransactionID, "PayPal order created")
	h.writeSuccessResponse(w, "PayPal order created", resp)
}

func (h *Handler) CompletePayPalOrder(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.writeErrorResponse(w, "Invalid request", "token query parameter is required", http.StatusBadRequest)
		return
	}

	summary, err := h.Service.CompletePayPalOrder(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.Logger.LogTransaction("COMPLETE", summary.TransactionID, fmt.Sprintf("PayPal order settled with status %s", summary.Status))
	h.writeSuccessResponse(w, "Payment completed", summary)
}

func (h *Handler) CancelPayPalOrder(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token != "" {
		h.Service.CancelPayPalOrder(r.Context(), token)
	}
	h.writeSuccessResponse(w, "Payment cancelled", nil)
}

func (h *Handler) CreateStripeSession(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, "Invalid request payload", err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.Service.CreateStripeCheckout(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.Logger.LogTransaction("CREATE", resp.TransactionID, "Stripe checkout session created")
	h.writeSuccessResponse(w, "Stripe checkout session created", resp)
}

func (h *Handler) CompleteStripeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		h.writeErrorResponse(w, "Invalid request", "sessionId path parameter is required", http.StatusBadRequest)
		return
	}

	summary, err := h.Service.CompleteStripeSession(r.Context(), sessionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.Logger.LogTransaction("COMPLETE", summary.TransactionID, fmt.Sprintf("Stripe session resolved with status %s", summary.Status))
	h.writeSuccessResponse(w, "Payment completed", summary)
}

func (h *Handler) CancelStripeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID != "" {
		h.Service.CancelStripeSession(r.Context(), sessionID)
	}
	h.writeSuccessResponse(w, "Payment cancelled", nil)
}

func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")

	status, err := h.Service.GetPaymentStatus(r.Context(), transactionID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccessResponse(w, "Payment status", status)
}

func (h *Handler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.History(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccessResponse(w, "Payment history", entries)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Service.ListTransactions(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccessResponse(w, "Transactions", txs)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")

	if err := h.Service.PurgeTransaction(r.Context(), transactionID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.Logger.LogTransaction("DELETE", transactionID, "Transaction deleted")
	h.writeSuccessResponse(w, "Transaction deleted", nil)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *payment.ValidationError
		notFoundErr   *payment.NotFoundError
		priceErr      *payment.PriceMismatchError
		inventoryErr  *payment.InventoryError
		providerErr   *payment.ProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		h.writeErrorResponse(w, "Invalid request", validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &priceErr):
		h.writeErrorResponse(w, "Price mismatch", priceErr.Error(), http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		h.writeErrorResponse(w, "Not found", notFoundErr.Error(), http.StatusNotFound)
	case errors.As(err, &inventoryErr):
		h.writeErrorResponse(w, "Insufficient tickets", inventoryErr.Error(), http.StatusConflict)
	case errors.As(err, &providerErr):
		h.writeErrorResponse(w, "Payment provider error", providerErr.Error(), http.StatusBadGateway)
	default:
		h.Logger.Error("API", fmt.Sprintf("Unhandled service error: %v", err))
		h.writeErrorResponse(w, "Internal server error", err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeErrorResponse(w http.ResponseWriter, message, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"status":  "error",
		"message": message,
		"details": details,
	}
	json.NewEncoder(w).Encode(response)
}

func (h *Handler) writeSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	response := map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	}
	json.NewEncoder(w).Encode(response)
}
