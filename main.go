package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/postapi/cmd/server"
	"example.com/postapi/cmd/worker"
	"example.com/postapi/internal/auth"
	appkafka "example.com/postapi/internal/broker"
	config "example.com/postapi/internal/init"
	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/middleware"
	"example.com/postapi/internal/service"
	"example.com/postapi/internal/store"
	"github.com/pkg/errors"
)

func main() {
	// Initialize application configuration
	cfg, err := config.Init()
	if err != nil {
		logger.New().Error("main", "Invalid configuration", err)
		os.Exit(1)
	}
	logg := logger.NewWithWriter(os.Stdout, logger.ParseLevel(cfg.LogLevel))

	// Setup OS signal handling for graceful shutdown (SIGINT, SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error("main", "Exiting with error", err)
		stop()
		os.Exit(1)
	}
	logg.Info("main", "Shutdown completed")
}

// run starts the component selected by cfg.Mode and blocks until it stops.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	if cfg.Mode == "migrate" {
		return store.Migrate(cfg, logg)
	}
	if cfg.Mode != "server" && cfg.Mode != "worker" {
		return errors.Errorf("unknown mode: %s", cfg.Mode)
	}

	// Initialize Cassandra store connection
	st, err := store.New(cfg, logg)
	if err != nil {
		return errors.Wrap(err, "Cassandra connection failed")
	}
	defer st.Close()

	// Configure Kafka client parameters
	kafkaCfg := appkafka.KafkaConfig{
		Brokers:      []string{cfg.KafkaBroker},
		Topic:        cfg.KafkaTopic,
		Partition:    cfg.KafkaPartition,
		GroupID:      cfg.KafkaGroupID,
		WriteTimeout: cfg.KafkaWriteTO,
		ReadTimeout:  cfg.KafkaReadTO,
	}

	if cfg.Mode == "worker" {
		// Consume activity events and record them per user
		w := worker.New(st, appkafka.NewKafkaReader(kafkaCfg), logg, cfg.WorkerCount, cfg.WorkerQueueSize)
		w.Run(ctx)
		return w.Close()
	}

	return runServer(ctx, cfg, st, kafkaCfg, logg)
}

func runServer(ctx context.Context, cfg *config.Config, st store.StoreInterface, kafkaCfg appkafka.KafkaConfig, logg *logger.Logger) error {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		return err
	}

	// Activity events are optional; without a writer the publisher is a no-op.
	var events *appkafka.Publisher
	if cfg.EventsEnabled {
		writer, err := appkafka.NewKafkaWriter(ctx, kafkaCfg)
		if err != nil {
			logg.Warn("main", "Kafka writer init failed, activity events disabled", err)
		} else {
			defer writer.Close()
			events = appkafka.NewPublisher(writer, logg)
		}
	}

	s := server.New(
		service.NewAccounts(st, auth.NewHasher(cfg.BcryptCost), tokens, events, logg),
		service.NewPosts(st, events, logg),
		middleware.NewAuthenticator(tokens, st, logg),
		logg,
	)
	server.Run(ctx, cfg, s.Routes(), logg)
	return nil
}
