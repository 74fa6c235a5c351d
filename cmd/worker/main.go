// cmd/worker/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/app"
	"github.com/unclebandit/listing-campaigns/internal/config"
	"github.com/unclebandit/listing-campaigns/internal/db"
	"github.com/unclebandit/listing-campaigns/internal/logging"
	"github.com/unclebandit/listing-campaigns/internal/queue"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logger.Sync()

	if cfg.AMQPURL == "" {
		logger.Fatal("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DB.DSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer conn.Close()

	a, err := app.New(ctx, cfg, conn, logger)
	if err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}
	defer a.Close()

	if err := a.Queue.Subscribe(queue.TopicCampaignContent, app.ContentJobHandler(a.Processor, logger.Named("content_job"))); err != nil {
		logger.Fatal("failed to register consumer", zap.String("topic", queue.TopicCampaignContent), zap.Error(err))
	}
	if err := a.Queue.Subscribe(queue.TopicItemApproved, app.ApprovedEventHandler(logger.Named("dispatch"))); err != nil {
		logger.Fatal("failed to register consumer", zap.String("topic", queue.TopicItemApproved), zap.Error(err))
	}

	logger.Info("worker running, waiting for jobs", zap.Int("content_workers", cfg.ContentWorkers))
	<-ctx.Done()
	logger.Info("worker shutting down")
}
