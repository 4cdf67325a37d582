package qr_test

import (
	"bytes"
	"testing"

	"github.com/olumuyiwaa/afrohub-backend/internal/models"
	"github.com/olumuyiwaa/afrohub-backend/internal/tickets/qr"
)

func sampleTransaction(id string) models.Transaction {
	return models.Transaction{
		TransactionID:  id,
		UserID:         "user-1",
		TicketID:       "event-1",
		TicketCount:    2,
		TicketType:     models.TierVIP,
		PricePerTicket: 120.0,
		Amount:         240.0,
		Status:         models.StatusCompleted,
	}
}

func TestIssueTicket(t *testing.T) {
	issuer := qr.NewIssuer("test-secret-key")

	qrBytes, err := issuer.IssueTicket(sampleTransaction("tx-1"), "Afrobeats Live")
	if err != nil {
		t.Fatalf("Failed to issue ticket QR: %v", err)
	}

	if len(qrBytes) == 0 {
		t.Error("Issued QR code is empty")
	}

	// qrcode.Encode produces a PNG image.
	pngHeader := []byte{0x89, 0x50, 0x4e, 0x47}
	if !bytes.HasPrefix(qrBytes, pngHeader) {
		t.Error("Issued QR code is not a PNG image")
	}
}

func TestIssueTicketDistinctTransactions(t *testing.T) {
	issuer := qr.NewIssuer("test-secret-key")

	qr1, err := issuer.IssueTicket(sampleTransaction("tx-1"), "Afrobeats Live")
	if err != nil {
		t.Fatalf("Failed to issue first QR: %v", err)
	}
	qr2, err := issuer.IssueTicket(sampleTransaction("tx-2"), "Afrobeats Live")
	if err != nil {
		t.Fatalf("Failed to issue second QR: %v", err)
	}

	if bytes.Equal(qr1, qr2) {
		t.Error("Different transactions produced identical QR codes")
	}
}
