// Package appkafka carries user activity events (user_registered,
// user_deleted, post_created, post_deleted) between the API server, which
// publishes them, and the worker, which records them per user.
package appkafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	defaultBroker       = "localhost:9092"
	defaultTopic        = "activity"
	defaultGroupID      = "activity-recorder"
	defaultWriteTimeout = 10 * time.Second
	defaultReadTimeout  = 10 * time.Second
)

// KafkaWriter is the publishing side of the activity topic.
type KafkaWriter interface {
	WriteMessages(messages ...kafka.Message) error
	Close() error
}

// KafkaReader is the consuming side of the activity topic.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

var (
	_ KafkaWriter = (*RealKafkaWriter)(nil)
	_ KafkaReader = (*RealKafkaReader)(nil)
)

// KafkaConfig locates the activity topic for both sides.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Partition    int           // leader partition the server writes to
	WriteTimeout time.Duration // per publish batch
	ReadTimeout  time.Duration // max wait per fetch for the consumer group
	GroupID      string        // worker consumer group
}

// withDefaults fills unset fields so a zero config still targets a local broker.
func (c KafkaConfig) withDefaults() KafkaConfig {
	if len(c.Brokers) == 0 || c.Brokers[0] == "" {
		c.Brokers = []string{defaultBroker}
	}
	if c.Topic == "" {
		c.Topic = defaultTopic
	}
	if c.GroupID == "" {
		c.GroupID = defaultGroupID
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	return c
}

// RealKafkaWriter publishes activity events over a leader connection.
type RealKafkaWriter struct {
	conn         *kafka.Conn
	writeTimeout time.Duration
}

// NewKafkaWriter dials the partition leader of the activity topic.
func NewKafkaWriter(ctx context.Context, cfg KafkaConfig) (*RealKafkaWriter, error) {
	cfg = cfg.withDefaults()

	conn, err := kafka.DialLeader(ctx, "tcp", cfg.Brokers[0], cfg.Topic, cfg.Partition)
	if err != nil {
		return nil, errors.Wrapf(err, "dial activity topic %q on %s", cfg.Topic, cfg.Brokers[0])
	}

	return &RealKafkaWriter{conn: conn, writeTimeout: cfg.WriteTimeout}, nil
}

func (w *RealKafkaWriter) WriteMessages(messages ...kafka.Message) error {
	if w.conn == nil {
		return errors.New("activity writer is not connected")
	}
	if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
		return errors.Wrap(err, "set activity write deadline")
	}
	_, err := w.conn.WriteMessages(messages...)
	return errors.Wrap(err, "write activity events")
}

func (w *RealKafkaWriter) Close() error {
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}

// RealKafkaReader consumes activity events as part of the worker group, so
// several workers share the topic's partitions.
type RealKafkaReader struct {
	reader *kafka.Reader
}

// NewKafkaReader joins the worker consumer group. It does not connect until
// the first read.
func NewKafkaReader(cfg KafkaConfig) *RealKafkaReader {
	return &RealKafkaReader{reader: kafka.NewReader(readerConfig(cfg))}
}

func readerConfig(cfg KafkaConfig) kafka.ReaderConfig {
	cfg = cfg.withDefaults()
	return kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,    // activity events are tiny
		MaxBytes:       10e6, // 10MB
		MaxWait:        cfg.ReadTimeout,
		CommitInterval: time.Second,
	}
}

func (r *RealKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return r.reader.ReadMessage(ctx)
}

func (r *RealKafkaReader) Close() error {
	return r.reader.Close()
}
