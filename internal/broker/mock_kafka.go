package appkafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"example.com/postapi/internal/models"
	"example.com/postapi/internal/store"
	"github.com/segmentio/kafka-go"
)

// MockKafka records written messages and, when Store is set, applies events to
// it immediately as the worker would.
type MockKafka struct {
	mu              sync.Mutex
	Store           *store.MockStore
	WrittenMessages []kafka.Message // stores messages written via WriteMessages
	ReadMessages    []kafka.Message // queue of messages to be read via ReadMessage
	ShouldFail      bool            // flag to simulate failures during write or read operations
}

// WriteMessages simulates writing events to Kafka.
func (m *MockKafka) WriteMessages(messages ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock kafka write failed")
	}

	m.WrittenMessages = append(m.WrittenMessages, messages...)
	if m.Store == nil {
		return nil
	}

	for _, msg := range messages {
		var event models.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return err
		}
		_ = m.Store.RecordActivity(context.Background(), event)
	}
	return nil
}

// Events decodes every written message.
func (m *MockKafka) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]models.Event, 0, len(m.WrittenMessages))
	for _, msg := range m.WrittenMessages {
		var event models.Event
		if err := json.Unmarshal(msg.Value, &event); err == nil {
			events = append(events, event)
		}
	}
	return events
}

// ReadMessage pops the next queued message.
func (m *MockKafka) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return kafka.Message{}, errors.New("mock kafka read failed")
	}
	if len(m.ReadMessages) == 0 {
		return kafka.Message{}, errors.New("no messages")
	}
	// Take the first message from the queue and remove it
	msg := m.ReadMessages[0]
	m.ReadMessages = m.ReadMessages[1:]
	return msg, nil
}

// Close is a no-op.
func (m *MockKafka) Close() error { return nil }

// MockKafkaFail always fails.
type MockKafkaFail struct{}

func (m *MockKafkaFail) WriteMessages(messages ...kafka.Message) error {
	return errors.New("mock kafka write failed")
}

func (m *MockKafkaFail) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return kafka.Message{}, errors.New("mock kafka read failed")
}

func (m *MockKafkaFail) Close() error { return nil }
