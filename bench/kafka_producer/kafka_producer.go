package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"example.com/postapi/internal/models"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// eventTypes cycles through every activity kind so the worker exercises all of them.
var eventTypes = []models.EventType{
	models.EventUserRegistered,
	models.EventPostCreated,
	models.EventPostDeleted,
	models.EventUserDeleted,
}

func main() {
	var (
		total       int
		batchSize   int
		numWorkers  int
		numUsers    int
		kafkaBroker string
		topic       string
	)
	flag.IntVar(&total, "n", 100000, "total number of messages to send")
	flag.IntVar(&batchSize, "batch", 100, "batch size for sending messages")
	flag.IntVar(&numWorkers, "workers", 4, "number of parallel goroutines")
	flag.IntVar(&numUsers, "users", 100, "number of synthetic users to spread events over")
	flag.StringVar(&kafkaBroker, "broker", "localhost:9092", "Kafka broker address")
	flag.StringVar(&topic, "topic", "activity-topic", "activity events topic")
	flag.Parse()

	// Kafka writer with asynchronous sending enabled
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{kafkaBroker},
		Topic:   topic,
		Async:   true,
	})
	defer w.Close()

	// Synthetic user ids, time-based like the ones Cassandra stores
	users := make([]string, numUsers)
	for i := range users {
		users[i] = gocql.TimeUUID().String()
	}
	start := time.Now()

	var successCount uint64
	var failCount uint64

	// Channel for feeding message indexes to worker goroutines
	jobs := make(chan int, total)
	var wg sync.WaitGroup

	flush := func(batch []kafka.Message) {
		if err := w.WriteMessages(context.Background(), batch...); err != nil {
			atomic.AddUint64(&failCount, uint64(len(batch)))
			fmt.Printf("write error: %v\n", err)
			return
		}
		atomic.AddUint64(&successCount, uint64(len(batch)))
	}

	for wID := 0; wID < numWorkers; wID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]kafka.Message, 0, batchSize)

			for i := range jobs {
				ev := models.Event{
					Type:   eventTypes[i%len(eventTypes)],
					UserID: users[i%len(users)],
					At:     time.Now().UTC(),
				}
				if ev.Type == models.EventPostCreated || ev.Type == models.EventPostDeleted {
					ev.PostID = uuid.NewString()
				}

				v, err := json.Marshal(ev)
				if err != nil {
					atomic.AddUint64(&failCount, 1)
					fmt.Printf("marshal error: %v\n", err)
					continue
				}

				// Keyed by user so a user's events stay ordered on one partition
				batch = append(batch, kafka.Message{Key: []byte(ev.UserID), Value: v})

				if len(batch) >= batchSize {
					flush(batch)
					batch = batch[:0]
				}
			}

			if len(batch) > 0 {
				flush(batch)
			}
		}()
	}

	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	// --- Benchmark results ---
	elapsed := time.Since(start)
	fmt.Printf("Total messages: %d\n", total)
	fmt.Printf("Successful: %d, Failed: %d\n", successCount, failCount)
	fmt.Printf("Elapsed time: %s\n", elapsed)
	fmt.Printf("Throughput: %.2f msg/s\n", float64(successCount)/elapsed.Seconds())
}
