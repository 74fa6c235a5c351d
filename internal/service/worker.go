package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/listing-campaigns/internal/metrics"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/repository"
)

const defaultWorkers = 4

// ContentGenerator fills one queue item. content.Generator implements it.
type ContentGenerator interface {
	Generate(ctx context.Context, item *model.QueueItem, listing *model.Listing) (model.ContentData, error)
}

// ProcessResult counts a batch run. Skipped items were never started
// because the campaign was cancelled or the context ended mid-batch.
type ProcessResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Skipped   int `json:"skipped"`
}

// ContentProcessor generates content for a campaign's items with a
// bounded pool of workers.
type ContentProcessor struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ItemRepo     repository.QueueItemRepositoryInterface
	Listings     repository.ListingProvider
	Generator    ContentGenerator
	Workers      int
	Logger       *zap.Logger
}

// ProcessCampaignContent generates every item not yet generated. A failed
// item is counted and the batch carries on, so running it again picks up
// only what is left.
func (p *ContentProcessor) ProcessCampaignContent(ctx context.Context, campaignID uuid.UUID) (*ProcessResult, error) {
	log := p.logger().With(zap.String("campaign_id", campaignID.String()))

	c, err := p.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.CampaignCancelled {
		log.Info("campaign cancelled, nothing to generate")
		return &ProcessResult{}, nil
	}

	listing, err := p.Listings.GetListing(ctx, c.ListingID)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}

	items, err := p.ItemRepo.ListUngenerated(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list ungenerated items: %w", err)
	}

	var processed, failed, skipped atomic.Int64

	var g errgroup.Group
	g.SetLimit(p.workers())
	for _, item := range items {
		g.Go(func() error {
			if ctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			cancelled, err := p.cancelled(ctx, campaignID)
			if err != nil {
				failed.Add(1)
				log.Error("failed to re-check campaign", zap.Error(err))
				return nil
			}
			if cancelled {
				skipped.Add(1)
				return nil
			}

			if err := p.processItem(ctx, item, listing); err != nil {
				failed.Add(1)
				metrics.GenerationErrors.Inc()
				log.Error("content generation failed",
					zap.String("item_id", item.ID.String()),
					zap.String("content_type", string(item.ContentType)),
					zap.Error(err))
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	// workers never return errors; failures are counted above
	_ = g.Wait()

	res := &ProcessResult{
		Processed: int(processed.Load()),
		Errors:    int(failed.Load()),
		Skipped:   int(skipped.Load()),
	}
	log.Info("content batch finished",
		zap.Int("processed", res.Processed),
		zap.Int("errors", res.Errors),
		zap.Int("skipped", res.Skipped))
	return res, ctx.Err()
}

func (p *ContentProcessor) processItem(ctx context.Context, item *model.QueueItem, listing *model.Listing) error {
	data, err := p.Generator.Generate(ctx, item, listing)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := p.ItemRepo.UpdateContent(ctx, item.ID, data); err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	return nil
}

func (p *ContentProcessor) cancelled(ctx context.Context, campaignID uuid.UUID) (bool, error) {
	c, err := p.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return false, err
	}
	return c.Status == model.CampaignCancelled, nil
}

func (p *ContentProcessor) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return defaultWorkers
}

func (p *ContentProcessor) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}
