// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/crowdfund-backend/internal/config"
	"github.com/unclebandit/crowdfund-backend/internal/db"
	"github.com/unclebandit/crowdfund-backend/internal/logging"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
	"github.com/unclebandit/crowdfund-backend/internal/server"
)

func main() {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if !foundEnv {
		logger.Warn("no .env file found, relying on OS environment variables")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer conn.Close()

	if _, err := db.Migrate(ctx, conn, logger); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}

	repos := server.NewRepositories(conn)

	provider, err := server.NewProvider(cfg.Shop)
	if err != nil {
		logger.Fatal("commerce provider", zap.Error(err))
	}

	q, closeQueue, err := openQueue(ctx, cfg, repos, logger)
	if err != nil {
		logger.Fatal("queue", zap.Error(err))
	}
	defer closeQueue()

	routes, err := server.Build(cfg, conn, repos, q, provider, logger)
	if err != nil {
		logger.Fatal("build routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server running", zap.String("addr", srv.Addr), zap.String("provider", provider.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

// openQueue publishes to RabbitMQ when AMQP_URL is set; cmd/worker consumes
// there. Without it the confirmation worker runs in-process.
func openQueue(ctx context.Context, cfg *config.Config, repos *server.Repositories, logger *zap.Logger) (queue.Queue, func(), error) {
	if cfg.Queue.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.Queue.AMQPURL, map[string]string{
			queue.TopicPledgeCreated: cfg.Queue.PledgeQueue,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return q, func() { _ = q.Close() }, nil
	}

	q := queue.NewInMemoryQueue(logger)
	worker := server.NewWorker(repos, server.NewMailer(cfg.Mail, logger), logger)
	if err := q.Subscribe(queue.TopicPledgeCreated, worker.Handle(ctx)); err != nil {
		return nil, nil, err
	}
	logger.Info("AMQP_URL not set, confirmations run in-process")
	return q, q.Wait, nil
}
