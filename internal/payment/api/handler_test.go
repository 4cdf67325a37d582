package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/models"
	"github.com/olumuyiwaa/afrohub-backend/internal/payment"
	"github.com/olumuyiwaa/afrohub-backend/internal/payment/api"
)

const testSecret = "test-jwt-secret"

// Minimal in-memory collaborators; the service behaviour itself is covered in
// the payment package tests.

type fakeStore struct {
	transactions map[string]*models.Transaction
}

func (f *fakeStore) CreateTransaction(tx models.Transaction) error {
	f.transactions[tx.TransactionID] = &tx
	return nil
}

func (f *fakeStore) GetByTransactionID(id string) (*models.Transaction, error) {
	tx, ok := f.transactions[id]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (f *fakeStore) GetByPayPalOrderID(orderID string) (*models.Transaction, error) {
	for _, tx := range f.transactions {
		if tx.PayPalOrderID == orderID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetByStripeSessionID(sessionID string) (*models.Transaction, error) {
	for _, tx := range f.transactions {
		if tx.StripeSessionID == sessionID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SetProviderRefs(transactionID, paypalOrderID, stripeSessionID string) error {
	if tx, ok := f.transactions[transactionID]; ok {
		tx.PayPalOrderID = paypalOrderID
		tx.StripeSessionID = stripeSessionID
	}
	return nil
}

func (f *fakeStore) FinalizeIfPending(transactionID string, status models.TransactionStatus, paymentStatus string, details []byte) (bool, error) {
	tx, ok := f.transactions[transactionID]
	if !ok || tx.Status != models.StatusPending {
		return false, nil
	}
	tx.Status = status
	if paymentStatus != "" {
		tx.PaymentStatus = paymentStatus
	}
	return true, nil
}

func (f *fakeStore) UpdatePaymentStatus(transactionID, paymentStatus string) error {
	if tx, ok := f.transactions[transactionID]; ok {
		tx.PaymentStatus = paymentStatus
	}
	return nil
}

func (f *fakeStore) SetPaymentDetails(transactionID string, details []byte) error { return nil }
func (f *fakeStore) SetTicketQR(transactionID string, qr []byte) error            { return nil }

func (f *fakeStore) ListByUser(userID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll() ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range f.transactions {
		out = append(out, *tx)
	}
	return out, nil
}

func (f *fakeStore) DeleteTransaction(transactionID string) (bool, error) {
	if _, ok := f.transactions[transactionID]; !ok {
		return false, nil
	}
	delete(f.transactions, transactionID)
	return true, nil
}

type fakeLedger struct {
	event *models.Event
}

func (f *fakeLedger) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if f.event != nil && f.event.EventID == eventID {
		copied := *f.event
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeLedger) CheckAvailability(ctx context.Context, eventID, ticketType string) (int, error) {
	_, available, _ := f.event.Tier(ticketType)
	return available, nil
}

func (f *fakeLedger) Decrement(ctx context.Context, eventID, ticketType string, count int) (int, error) {
	return 0, nil
}

type fakeOrderGateway struct{ err error }

func (f *fakeOrderGateway) CreateOrder(ctx context.Context, amount float64, description string) (*models.ProviderResource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ProviderResource{Ref: "PAYPAL-1", RedirectURL: "https://paypal.example/approve"}, nil
}

func (f *fakeOrderGateway) CaptureOrder(ctx context.Context, orderID string) (*models.ProviderResult, error) {
	return &models.ProviderResult{RawStatus: "COMPLETED"}, nil
}

type fakeSessionGateway struct{}

func (f *fakeSessionGateway) CreateSession(ctx context.Context, title string, unitPrice float64, count int, metadata map[string]string) (*models.ProviderResource, error) {
	return &models.ProviderResource{Ref: "cs_1", RedirectURL: "https://stripe.example/pay", RawStatus: models.PaymentStatusUnpaid}, nil
}

func (f *fakeSessionGateway) RetrieveSession(ctx context.Context, sessionID string) (*models.ProviderResult, error) {
	return &models.ProviderResult{RawStatus: models.PaymentStatusUnpaid}, nil
}

type fakeLock struct{}

func (f *fakeLock) LockTransaction(transactionID, owner string) (bool, error) { return true, nil }
func (f *fakeLock) UnlockTransaction(transactionID, owner string) error       { return nil }

func newTestRouter(orderGW *fakeOrderGateway) http.Handler {
	store := &fakeStore{transactions: make(map[string]*models.Transaction)}
	ledger := &fakeLedger{event: &models.Event{
		EventID:          "event-1",
		Title:            "Afrobeats Live",
		RegularPrice:     50.0,
		RegularAvailable: 3,
	}}
	svc := payment.NewService(store, ledger, orderGW, &fakeSessionGateway{}, &fakeLock{}, logger.NewLogger())
	return api.NewHandler(svc, testSecret, logger.NewLogger()).Routes()
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func postCheckout(t *testing.T, router http.Handler, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/paypal/create-order", strings.NewReader(body))
	if authorized {
		r.Header.Set("Authorization", bearerToken(t))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	router := newTestRouter(&fakeOrderGateway{})
	w := postCheckout(t, router, `{}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrderSuccess(t *testing.T) {
	router := newTestRouter(&fakeOrderGateway{})
	body := `{"ticketId":"event-1","ticketCount":2,"ticketType":"regular","pricePerTicket":50.0}`

	w := postCheckout(t, router, body, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string                 `json:"status"`
		Data   models.CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Data.TransactionID)
	assert.Equal(t, "https://paypal.example/approve", resp.Data.RedirectURL)
}

func TestCreateOrderErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"malformed json", `{not-json`, http.StatusBadRequest},
		{"missing fields", `{"ticketId":"event-1"}`, http.StatusBadRequest},
		{"price mismatch", `{"ticketId":"event-1","ticketCount":1,"ticketType":"regular","pricePerTicket":10.0}`, http.StatusBadRequest},
		{"unknown event", `{"ticketId":"nope","ticketCount":1,"ticketType":"regular","pricePerTicket":50.0}`, http.StatusNotFound},
		{"oversell", `{"ticketId":"event-1","ticketCount":10,"ticketType":"regular","pricePerTicket":50.0}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeOrderGateway{})
			w := postCheckout(t, router, tc.body, true)
			assert.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestCreateOrderProviderErrorMapsToBadGateway(t *testing.T) {
	router := newTestRouter(&fakeOrderGateway{err: errors.New("paypal down")})
	body := `{"ticketId":"event-1","ticketCount":1,"ticketType":"regular","pricePerTicket":50.0}`

	w := postCheckout(t, router, body, true)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCompletePayPalOrderMissingToken(t *testing.T) {
	router := newTestRouter(&fakeOrderGateway{})

	r := httptest.NewRequest(http.MethodGet, "/paypal/complete-order", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentStatusNotFound(t *testing.T) {
	router := newTestRouter(&fakeOrderGateway{})

	r := httptest.NewRequest(http.MethodGet, "/payments/status/tx-unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelEndpointsAlwaysSucceed(t *testing.T) {
	router := newTestRouter(&fakeOrderGateway{})

	for _, path := range []string{"/paypal/cancel", "/stripe/cancel", "/paypal/cancel?token=unknown"} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
