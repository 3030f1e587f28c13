// cmd/worker/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/config"
	"github.com/unclebandit/crowdfund-backend/internal/db"
	"github.com/unclebandit/crowdfund-backend/internal/logging"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
	"github.com/unclebandit/crowdfund-backend/internal/server"
)

// The worker consumes pledge.created events from RabbitMQ and sends the
// backer confirmation email.
func main() {
	cfg, _, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Queue.AMQPURL == "" {
		logger.Fatal("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer conn.Close()

	q, err := queue.DialAMQP(cfg.Queue.AMQPURL, map[string]string{
		queue.TopicPledgeCreated: cfg.Queue.PledgeQueue,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	repos := server.NewRepositories(conn)
	worker := server.NewWorker(repos, server.NewMailer(cfg.Mail, logger), logger)

	if err := q.Subscribe(queue.TopicPledgeCreated, worker.Handle(ctx)); err != nil {
		logger.Fatal("failed to register consumer", zap.Error(err))
	}

	logger.Info("worker running, waiting for messages", zap.String("queue", cfg.Queue.PledgeQueue))
	<-ctx.Done()
	logger.Info("worker stopping")
}
