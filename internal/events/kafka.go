package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	ledgerdomain "flashpay/backend/internal/ledger/domain"
)

// KafkaProducer publishes transfer events using segmentio/kafka-go.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a producer writing to the given topic. Returns nil
// when brokers or topic are empty (events disabled). Call Close on shutdown.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// PublishTransferCompleted serializes the transfer as JSON and writes it to
// the topic, keyed by sender id. Uses a short timeout so slow Kafka does not
// block the transfer response.
func (p *KafkaProducer) PublishTransferCompleted(ctx context.Context, t *ledgerdomain.Transfer) error {
	if p == nil || p.writer == nil || t == nil {
		return nil
	}
	payload, err := json.Marshal(TransferCompleted{
		TransferID: t.ID,
		SenderID:   t.SenderID,
		ReceiverID: t.ReceiverID,
		Amount:     t.Amount.StringFixed(2),
		OccurredAt: t.CreatedAt,
	})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(t.SenderID),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call on a nil producer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
