package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	appkafka "example.com/postapi/internal/broker"
	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"example.com/postapi/internal/store"
	"github.com/pkg/errors"
)

// recordTimeout bounds a single activity write, including writes made while
// draining the queue after shutdown was requested.
const recordTimeout = 5 * time.Second

var errInvalidEvent = errors.New("invalid activity event")

// Worker consumes activity events from Kafka and records them in Cassandra concurrently.
type Worker struct {
	store        store.StoreInterface
	reader       appkafka.KafkaReader
	log          *logger.Logger
	workerCount  int
	jobQueueSize int
}

// New creates a new concurrent Worker using pre-initialized dependencies.
func New(store store.StoreInterface, reader appkafka.KafkaReader, log *logger.Logger, workerCount, jobQueueSize int) *Worker {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if jobQueueSize <= 0 {
		jobQueueSize = workerCount * 10
	}
	return &Worker{
		store:        store,
		reader:       reader,
		log:          log,
		workerCount:  workerCount,
		jobQueueSize: jobQueueSize,
	}
}

// Run reads messages until ctx is cancelled, then drains queued jobs before returning.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("worker", "Starting "+fmt.Sprint(w.workerCount)+" workers with queue size "+fmt.Sprint(w.jobQueueSize))

	jobs := make(chan []byte, w.jobQueueSize)
	var wg sync.WaitGroup

	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.processLoop(ctx, jobs)
		}()
	}

	w.readLoop(ctx, jobs)

	close(jobs)
	wg.Wait()
	w.log.Info("worker", "All workers stopped gracefully")
}

// readLoop reads Kafka messages and pushes them into the job queue.
func (w *Worker) readLoop(ctx context.Context, jobs chan<- []byte) {
	var retry int
	for {
		if ctx.Err() != nil {
			return
		}

		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			backoff := time.Duration(math.Min(1000, math.Pow(2, float64(retry)))) * time.Millisecond
			w.log.Warn("worker", "Kafka read error, backing off", err)
			if !waitWithContext(ctx, backoff) {
				return
			}
			retry++
			continue
		}
		retry = 0

		if len(msg.Value) == 0 {
			continue
		}

		select {
		case jobs <- msg.Value:
			continue
		default:
		}

		w.log.Info("worker", "Queue full, waiting to enqueue Kafka message")
		select {
		case jobs <- msg.Value:
		case <-ctx.Done():
			return
		}
	}
}

// processLoop records events until the queue is closed and empty.
func (w *Worker) processLoop(ctx context.Context, jobs <-chan []byte) {
	base := context.WithoutCancel(ctx)
	for data := range jobs {
		recordCtx, cancel := context.WithTimeout(base, recordTimeout)
		err := w.handle(recordCtx, data)
		cancel()

		switch {
		case errors.Is(err, errInvalidEvent):
			w.log.Warn("worker", "Skipping malformed activity message", err)
		case err != nil:
			w.log.Error("worker", "Failed to record activity", err)
		}
	}
}

// handle decodes and records a single event.
func (w *Worker) handle(ctx context.Context, data []byte) error {
	var event models.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return errors.Wrap(errInvalidEvent, err.Error())
	}
	if !event.Type.Valid() || event.UserID == "" {
		return errors.Wrapf(errInvalidEvent, "type=%q", event.Type)
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	if err := w.store.RecordActivity(ctx, event); err != nil {
		return err
	}
	w.log.Debug("worker", "Recorded "+string(event.Type)+" for user_id="+event.UserID)
	return nil
}

// waitWithContext waits for duration or context cancellation.
func waitWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Close shuts down the Kafka reader. The store is owned by the caller.
func (w *Worker) Close() error {
	w.log.Info("worker", "Closing Kafka reader")
	if err := w.reader.Close(); err != nil {
		w.log.Error("worker", "Error closing Kafka reader", err)
		return err
	}
	return nil
}
