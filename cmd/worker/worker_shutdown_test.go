package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"example.com/postapi/internal/store"
	"github.com/segmentio/kafka-go"
)

// TestWorker_GracefulShutdown ensures that the worker:
// 1. Processes messages from Kafka.
// 2. Records activity for valid events and skips malformed ones.
// 3. Shuts down gracefully when the context is canceled.
func TestWorker_GracefulShutdown(t *testing.T) {
	mockStore := store.NewMock()

	events := []models.Event{
		{Type: models.EventUserRegistered, UserID: "user_1"},
		{Type: models.EventPostCreated, UserID: "user_1", PostID: "p1"},
	}
	var messages []kafka.Message
	for _, ev := range events {
		data, _ := json.Marshal(ev)
		messages = append(messages, kafka.Message{Key: []byte(ev.UserID), Value: data})
	}
	messages = append(messages, kafka.Message{Value: []byte("not-json")})

	// Mock Kafka reader with the queued messages
	mockKafka := &MockKafkaReader{Messages: messages}

	// Context with timeout to simulate graceful shutdown signal
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	worker := New(mockStore, mockKafka, logger.Discard(), 2, 4)

	go func() {
		worker.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
		got, _ := mockStore.GetActivity(context.Background(), "user_1", 10)
		if len(got) != len(events) {
			t.Fatalf("activity not recorded correctly: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not shutdown gracefully in time")
	}

	if err := worker.Close(); err != nil {
		t.Fatalf("worker Close() error: %v", err)
	}

	if !mockKafka.Closed {
		t.Fatal("expected Kafka reader to be closed")
	}
}

func TestWorker_ReadErrorsBackOffUntilShutdown(t *testing.T) {
	mockKafka := &MockKafkaReader{ShouldFail: true}
	worker := New(store.NewMock(), mockKafka, logger.Discard(), 1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after read errors")
	}
}

// MockKafkaReader simulates a Kafka reader for testing purposes
type MockKafkaReader struct {
	mu         sync.Mutex
	Messages   []kafka.Message // Queue of messages to return
	ShouldFail bool            // If true, ReadMessage will fail
	Closed     bool            // Tracks whether Close() has been called
}

// ReadMessage returns the next message in the queue or simulates a failure/context cancel
func (m *MockKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return kafka.Message{}, errors.New("mock reader failed")
	}

	if len(m.Messages) == 0 {
		time.Sleep(5 * time.Millisecond) // simulate idle wait
		return kafka.Message{}, nil
	}

	msg := m.Messages[0]
	m.Messages = m.Messages[1:]
	return msg, nil
}

// Close marks the mock Kafka reader as closed
func (m *MockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// closeCountingStore records how often the session would be closed.
type closeCountingStore struct {
	*store.MockStore
	closed int
}

func (c *closeCountingStore) Close() { c.closed++ }

func TestWorker_CloseLeavesStoreToOwner(t *testing.T) {
	st := &closeCountingStore{MockStore: store.NewMock()}
	reader := &MockKafkaReader{}
	worker := New(st, reader, logger.Discard(), 1, 1)

	if err := worker.Close(); err != nil {
		t.Fatalf("worker Close() error: %v", err)
	}
	if !reader.Closed {
		t.Fatal("expected Kafka reader to be closed")
	}
	if st.closed != 0 {
		t.Fatalf("worker closed the store %d times, want 0", st.closed)
	}
}
