package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/listing-campaigns/internal/errors"
	"github.com/unclebandit/listing-campaigns/internal/metrics"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/queue"
	"github.com/unclebandit/listing-campaigns/internal/repository"
)

// ApprovalService releases queue items for dispatch. Refused requests
// change nothing.
type ApprovalService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ItemRepo     repository.QueueItemRepositoryInterface
	Queue        queue.Queue
	Logger       *zap.Logger
	Now          func() time.Time
}

// ApproveItem moves a pending item to approved and stamps who approved it.
func (s *ApprovalService) ApproveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.QueueItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != model.ItemPending {
		return nil, appErrors.NewTransitionError("queue item", string(item.Status), string(model.ItemApproved))
	}
	if err := s.requireOpenCampaign(ctx, item.CampaignID); err != nil {
		return nil, err
	}

	at := s.now()
	ok, err := s.ItemRepo.Approve(ctx, itemID, userID, at)
	if err != nil {
		return nil, fmt.Errorf("approve item: %w", err)
	}
	if !ok {
		return nil, appErrors.NewTransitionError("queue item", string(item.Status), string(model.ItemApproved))
	}

	item.Status = model.ItemApproved
	item.ApprovedAt = &at
	item.ApprovedBy = &userID
	metrics.ItemTransitions.WithLabelValues(string(model.ItemApproved)).Inc()

	s.announce(ctx, queue.ItemApprovedEvent{CampaignID: item.CampaignID, ItemID: &item.ID, Count: 1})
	return item, nil
}

// ApproveAll approves every pending item the user owns in the campaign
// and returns how many moved. Zero is a valid outcome.
func (s *ApprovalService) ApproveAll(ctx context.Context, userID, campaignID uuid.UUID) (int, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	if c.UserID != userID {
		return 0, appErrors.ErrForbidden
	}
	if c.Status == model.CampaignCancelled {
		return 0, fmt.Errorf("campaign %s is cancelled: %w", campaignID, appErrors.ErrInvalidTransition)
	}

	n, err := s.ItemRepo.ApproveAll(ctx, campaignID, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("approve all: %w", err)
	}
	if n > 0 {
		metrics.ItemTransitions.WithLabelValues(string(model.ItemApproved)).Add(float64(n))
		s.announce(ctx, queue.ItemApprovedEvent{CampaignID: campaignID, Count: n})
	}
	return n, nil
}

// SkipItem moves a pending or approved item to skipped. Skipped is final.
func (s *ApprovalService) SkipItem(ctx context.Context, userID, itemID uuid.UUID) (*model.QueueItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, appErrors.NewTransitionError("queue item", string(item.Status), string(model.ItemSkipped))
	}

	ok, err := s.ItemRepo.Skip(ctx, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("skip item: %w", err)
	}
	if !ok {
		return nil, appErrors.NewTransitionError("queue item", string(item.Status), string(model.ItemSkipped))
	}

	item.Status = model.ItemSkipped
	metrics.ItemTransitions.WithLabelValues(string(model.ItemSkipped)).Inc()
	return item, nil
}

func (s *ApprovalService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*model.QueueItem, error) {
	item, err := s.ItemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, appErrors.ErrForbidden
	}
	return item, nil
}

func (s *ApprovalService) requireOpenCampaign(ctx context.Context, campaignID uuid.UUID) error {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.Status == model.CampaignCancelled {
		return fmt.Errorf("campaign %s is cancelled: %w", campaignID, appErrors.ErrInvalidTransition)
	}
	return nil
}

// announce is best effort; the dispatcher re-reads campaign state anyway.
func (s *ApprovalService) announce(ctx context.Context, ev queue.ItemApprovedEvent) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.Publish(ctx, queue.TopicItemApproved, ev); err != nil {
		s.logger().Warn("failed to publish approval",
			zap.String("campaign_id", ev.CampaignID.String()), zap.Error(err))
	}
}

func (s *ApprovalService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ApprovalService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}
