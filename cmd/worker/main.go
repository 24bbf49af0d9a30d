package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"brandbuzz/internal/automation"
	"brandbuzz/internal/config"
	"brandbuzz/internal/events"
	"brandbuzz/internal/queue/rabbitmq"
	"brandbuzz/pkg/logger"
	"brandbuzz/pkg/utils"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env, "worker")
	slog.SetDefault(log)

	if err := run(rootCtx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker failed", "err", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.RabbitMQ.URL == "" {
		return errors.New("RABBITMQ_URL is required for the worker")
	}

	client, db, err := utils.OpenMongo(ctx, utils.MongoConfig{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := automation.NewMongoRepo(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return err
	}

	var pub events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := events.ConnectNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix, "brandbuzz-worker")
		if err != nil {
			return err
		}
		pub = nc
	}
	defer pub.Close()

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	w := automation.NewWorker(repo, automation.SimulatedPerformer, pub, cfg.Automation.StepDelay)
	log.Info("worker consuming", "queue", cfg.RabbitMQ.Queue, "worker_id", w.ID)

	return consumer.Consume(logger.With(ctx, log.With("worker_id", w.ID)), w.Handle)
}
