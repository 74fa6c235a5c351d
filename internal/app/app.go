// Package app wires repositories and services from configuration. It is
// shared by the server and worker binaries.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/config"
	"github.com/unclebandit/listing-campaigns/internal/content"
	"github.com/unclebandit/listing-campaigns/internal/queue"
	"github.com/unclebandit/listing-campaigns/internal/repository"
	"github.com/unclebandit/listing-campaigns/internal/service"
)

// App holds the wired services of one process.
type App struct {
	Triggers  *service.TriggerService
	Campaigns *service.CampaignService
	Approvals *service.ApprovalService
	Listings  *service.ListingService
	Processor *service.ContentProcessor
	Queue     queue.Queue

	closers []func() error
}

// New builds every service over db. A Redis cache, the AI text service and
// the AMQP broker are used only when configured.
func New(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (*App, error) {
	a := &App{}

	listings, err := a.listingStore(ctx, cfg, db, logger)
	if err != nil {
		return nil, err
	}

	campaignRepo := &repository.CampaignRepository{DB: db}
	itemRepo := &repository.QueueItemRepository{DB: db}

	q, err := a.queue(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Queue = q

	a.Triggers = &service.TriggerService{
		Triggers:  &repository.TriggerRepository{DB: db},
		Templates: &repository.TemplateRepository{DB: db},
	}
	a.Campaigns = &service.CampaignService{
		Triggers:     a.Triggers,
		Listings:     listings,
		CampaignRepo: campaignRepo,
		ItemRepo:     itemRepo,
		HistoryRepo:  &repository.HistoryRepository{DB: db},
		Tx:           &repository.SQLTxRunner{DB: db},
		Queue:        q,
		Logger:       logger.Named("campaigns"),
		Now:          time.Now,
		Location:     cfg.ScheduleLocation(),
	}
	a.Approvals = &service.ApprovalService{
		CampaignRepo: campaignRepo,
		ItemRepo:     itemRepo,
		Queue:        q,
		Logger:       logger.Named("approvals"),
		Now:          time.Now,
	}
	a.Listings = &service.ListingService{
		Listings:  listings,
		Campaigns: a.Campaigns,
		Logger:    logger.Named("listings"),
	}

	gen, err := a.generator(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Processor = &service.ContentProcessor{
		CampaignRepo: campaignRepo,
		ItemRepo:     itemRepo,
		Listings:     listings,
		Generator:    gen,
		Workers:      cfg.ContentWorkers,
		Logger:       logger.Named("content"),
	}
	return a, nil
}

func (a *App) listingStore(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (repository.ListingStore, error) {
	var store repository.ListingStore = &repository.ListingRepository{DB: db}
	if cfg.RedisURL == "" {
		return store, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, listing cache will fall through", zap.Error(err))
	}
	a.closers = append(a.closers, rdb.Close)

	return &repository.CachedListingStore{
		Next:   store,
		Redis:  rdb,
		TTL:    cfg.ListingCacheTTL,
		Logger: logger.Named("listing_cache"),
	}, nil
}

func (a *App) queue(ctx context.Context, cfg *config.Config, logger *zap.Logger) (queue.Queue, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, using in-memory queue")
		return queue.NewInMemoryQueue(logger.Named("queue")), nil
	}
	q, err := queue.DialAMQP(ctx, cfg.AMQPURL, logger.Named("queue"))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, q.Close)
	return q, nil
}

func (a *App) generator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*content.Generator, error) {
	var ai content.TextService
	if cfg.AIAPIKey != "" {
		svc, err := content.NewGenAIService(ctx, cfg.AIAPIKey, cfg.AIModel)
		if err != nil {
			return nil, fmt.Errorf("init AI text service: %w", err)
		}
		logger.Info("AI captions enabled", zap.String("model", svc.Name()))
		ai = svc
	} else {
		logger.Info("AI_API_KEY not set, captions come from templates only")
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return content.NewGenerator(ai, content.NewRand(seed), cfg.AITimeout, logger.Named("generator")), nil
}

// ContentRunner runs batch generation for one campaign.
type ContentRunner interface {
	ProcessCampaignContent(ctx context.Context, campaignID uuid.UUID) (*service.ProcessResult, error)
}

// ContentJobHandler decodes a ContentJob and runs batch generation. Item
// failures are returned so the queue retries; items that already have
// content are not generated again.
func ContentJobHandler(p ContentRunner, logger *zap.Logger) queue.Handler {
	return func(ctx context.Context, body []byte) error {
		var job queue.ContentJob
		if err := json.Unmarshal(body, &job); err != nil {
			// a malformed job will never succeed
			logger.Error("invalid content job", zap.ByteString("body", body), zap.Error(err))
			return nil
		}
		res, err := p.ProcessCampaignContent(ctx, job.CampaignID)
		if err != nil {
			return err
		}
		if res.Errors > 0 {
			return fmt.Errorf("campaign %s: %d items failed", job.CampaignID, res.Errors)
		}
		return nil
	}
}

// ApprovedEventHandler logs approvals for the dispatcher that publishes
// approved items downstream.
func ApprovedEventHandler(logger *zap.Logger) queue.Handler {
	return func(ctx context.Context, body []byte) error {
		var ev queue.ItemApprovedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			logger.Error("invalid approval event", zap.ByteString("body", body), zap.Error(err))
			return nil
		}
		fields := []zap.Field{zap.String("campaign_id", ev.CampaignID.String()), zap.Int("count", ev.Count)}
		if ev.ItemID != nil {
			fields = append(fields, zap.String("item_id", ev.ItemID.String()))
		}
		logger.Info("queue items approved", fields...)
		return nil
	}
}

// Close releases the broker and cache connections.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
