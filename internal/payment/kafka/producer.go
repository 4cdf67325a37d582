package kafka

import (
	"context"
	"encoding/json"

	"github.com/olumuyiwaa/afrohub-backend/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// PublishTransactionSettled streams the settled-transaction event to Kafka.
// Consumers (notification fan-out) are fire-and-forget collaborators; the
// settlement path logs and continues when this fails.
func (p *Producer) PublishTransactionSettled(tx models.Transaction) error {
	msgBytes, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(tx.TransactionID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
