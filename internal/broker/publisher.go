package appkafka

import (
	"context"
	"encoding/json"
	"time"

	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"github.com/segmentio/kafka-go"
)

// Publisher sends activity events to Kafka.
// Publishing is best effort: failures are logged and never returned to callers.
type Publisher struct {
	writer KafkaWriter
	log    *logger.Logger
	now    func() time.Time
}

func NewPublisher(writer KafkaWriter, log *logger.Logger) *Publisher {
	return &Publisher{writer: writer, log: log, now: time.Now}
}

// Publish marshals the event and writes it keyed by user id, so all events of
// one user land on the same partition in order.
func (p *Publisher) Publish(_ context.Context, event models.Event) {
	if p == nil || p.writer == nil {
		return
	}
	if event.At.IsZero() {
		event.At = p.now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("broker", "Failed to marshal event", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	}
	if err := p.writer.WriteMessages(msg); err != nil {
		p.log.Warn("broker", "Failed to publish "+string(event.Type)+" event", err)
		return
	}
	p.log.Debug("broker", "Published "+string(event.Type)+" event")
}
