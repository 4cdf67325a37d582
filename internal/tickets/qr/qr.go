package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/olumuyiwaa/afrohub-backend/internal/models"
)

// ticketPayload is what ends up inside the QR image. The whole payload is
// AES-encrypted so a scanned code is useless without the issuer secret.
type ticketPayload struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	TicketID      string    `json:"ticket_id"`
	EventTitle    string    `json:"event_title"`
	TicketType    string    `json:"ticket_type"`
	TicketCount   int       `json:"ticket_count"`
	IssuedAt      time.Time `json:"issued_at"`
}

type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Issuer{secret: hashed[:]}
}

func (i *Issuer) IssueTicket(tx models.Transaction, eventTitle string) ([]byte, error) {
	payload := ticketPayload{
		TransactionID: tx.TransactionID,
		UserID:        tx.UserID,
		TicketID:      tx.TicketID,
		EventTitle:    eventTitle,
		TicketType:    tx.TicketType,
		TicketCount:   tx.TicketCount,
		IssuedAt:      time.Now().UTC(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, i.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
