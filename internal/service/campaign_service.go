// internal/service/campaign_service.go
package service

import (
	"context"
	"errors"
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

type CampaignService struct {
	Triggers     TriggerResolver
	Listings     repository.ListingProvider
	CampaignRepo repository.CampaignRepositoryInterface
	ItemRepo     repository.QueueItemRepositoryInterface
	HistoryRepo  repository.HistoryRepositoryInterface
	Tx           repository.TxRunner
	// Queue is optional; without it content generation must be started by hand.
	Queue  queue.Queue
	Logger *zap.Logger
	Now    func() time.Time
	// Location is the zone template hours are read in. Nil means UTC.
	Location *time.Location
}

// CampaignResult reports what a status change did to campaigns.
type CampaignResult struct {
	CampaignID *uuid.UUID `json:"campaign_id,omitempty"`
	Unchanged  bool       `json:"unchanged,omitempty"`
	Skipped    bool       `json:"skipped,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	TotalItems int        `json:"total_items"`
}

type CampaignDetails struct {
	model.Campaign
	Stats map[string]int `json:"stats"`
}

// OnListingStatusChange is the event entrypoint. newStatus must already be
// a canonical key; see model.NormalizeStatus for display strings.
func (s *CampaignService) OnListingStatusChange(ctx context.Context, userID, listingID uuid.UUID, newStatus model.ListingStatus, previousStatus *model.ListingStatus) (*CampaignResult, error) {
	if previousStatus != nil && *previousStatus == newStatus {
		return &CampaignResult{Unchanged: true, Reason: "status unchanged"}, nil
	}
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%q: %w", newStatus, appErrors.ErrInvalidStatus)
	}
	return s.CreateCampaign(ctx, userID, listingID, newStatus, previousStatus)
}

// CreateCampaign resolves the trigger, expands its template and persists
// the campaign with all of its items in one transaction. Earlier open
// campaigns for the same listing and status are cancelled as superseded.
func (s *CampaignService) CreateCampaign(ctx context.Context, userID, listingID uuid.UUID, status model.ListingStatus, previousStatus *model.ListingStatus) (*CampaignResult, error) {
	log := s.logger().With(
		zap.String("user_id", userID.String()),
		zap.String("listing_id", listingID.String()),
		zap.String("trigger_status", string(status)),
	)

	tmpl, settings, err := s.Triggers.ResolveTrigger(ctx, userID, status)
	if errors.Is(err, appErrors.ErrNotConfigured) {
		metrics.CampaignsCreated.WithLabelValues("skipped").Inc()
		log.Info("no campaign configured for status")
		return &CampaignResult{Skipped: true, Reason: err.Error()}, nil
	}
	if err != nil {
		metrics.CampaignsCreated.WithLabelValues("failed").Inc()
		return nil, err
	}

	listing, err := s.Listings.GetListing(ctx, listingID)
	if err != nil {
		metrics.CampaignsCreated.WithLabelValues("failed").Inc()
		return nil, err
	}
	if listing.UserID != uuid.Nil && listing.UserID != userID {
		return nil, appErrors.ErrForbidden
	}

	now := s.now()
	drafts := Expand(tmpl, settings, now.In(s.location()))

	campaign := &model.Campaign{
		ID:             uuid.New(),
		UserID:         userID,
		ListingID:      listingID,
		TemplateID:     &tmpl.ID,
		TriggerStatus:  status,
		PreviousStatus: previousStatus,
		Status:         model.CampaignActive,
		CreatedAt:      now,
	}

	itemStatus := model.ItemPending
	if settings.AutoApprove {
		itemStatus = model.ItemApproved
	}
	items := make([]*model.QueueItem, len(drafts))
	for i, d := range drafts {
		it := &model.QueueItem{
			ID:               uuid.New(),
			CampaignID:       campaign.ID,
			UserID:           userID,
			ListingID:        listingID,
			ContentType:      d.ContentType,
			Platform:         d.Platform,
			ScheduledFor:     d.ScheduledFor.UTC(),
			ContentData:      model.ContentData{Payload: d.Payload},
			Status:           itemStatus,
			RequiresApproval: !settings.AutoApprove,
		}
		if settings.AutoApprove {
			approvedAt := now
			it.ApprovedAt = &approvedAt
		}
		items[i] = it
	}

	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supersede(txCtx, userID, listingID, status, campaign.ID); err != nil {
			return err
		}
		if err := s.CampaignRepo.Create(txCtx, campaign); err != nil {
			return err
		}
		if err := s.ItemRepo.CreateBatch(txCtx, items); err != nil {
			return err
		}
		if err := s.CampaignRepo.SetTotalItems(txCtx, campaign.ID, len(items)); err != nil {
			return fmt.Errorf("set total items: %w", err)
		}
		campaign.TotalItems = len(items)

		details := map[string]any{
			"template_id":   tmpl.ID.String(),
			"template_name": tmpl.Name,
			"item_count":    len(items),
			"auto_approve":  settings.AutoApprove,
		}
		if previousStatus != nil {
			details["previous_status"] = string(*previousStatus)
		}
		return s.HistoryRepo.Append(txCtx, &model.HistoryEntry{
			UserID:     userID,
			CampaignID: campaign.ID,
			ListingID:  listingID,
			Action:     model.ActionTriggered,
			Details:    details,
			CreatedAt:  now,
		})
	})
	if err != nil {
		metrics.CampaignsCreated.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	metrics.CampaignsCreated.WithLabelValues("created").Inc()
	log.Info("campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("template", tmpl.Name),
		zap.Int("items", len(items)))

	if s.Queue != nil {
		if err := s.Queue.Publish(ctx, queue.TopicCampaignContent, queue.ContentJob{CampaignID: campaign.ID}); err != nil {
			log.Warn("failed to enqueue content generation",
				zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
		}
	}

	return &CampaignResult{CampaignID: &campaign.ID, TotalItems: len(items)}, nil
}

// supersede cancels the user's open campaigns for the listing and status.
// Must run inside the creating transaction.
func (s *CampaignService) supersede(ctx context.Context, userID, listingID uuid.UUID, status model.ListingStatus, by uuid.UUID) error {
	open, err := s.CampaignRepo.ListOpen(ctx, userID, listingID, status)
	if err != nil {
		return fmt.Errorf("list open campaigns: %w", err)
	}
	for _, old := range open {
		ok, err := s.CampaignRepo.TransitionStatus(ctx, old.ID, old.Status, model.CampaignCancelled)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		skipped, err := s.ItemRepo.SkipOpenByCampaign(ctx, old.ID)
		if err != nil {
			return fmt.Errorf("skip items of %s: %w", old.ID, err)
		}
		err = s.HistoryRepo.Append(ctx, &model.HistoryEntry{
			UserID:     userID,
			CampaignID: old.ID,
			ListingID:  listingID,
			Action:     model.ActionCancelled,
			Details: map[string]any{
				"reason":        "superseded",
				"superseded_by": by.String(),
				"from":          string(old.Status),
				"skipped_items": skipped,
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *CampaignService) Pause(ctx context.Context, userID, campaignID uuid.UUID) (*model.Campaign, error) {
	return s.transition(ctx, userID, campaignID, model.CampaignPaused, model.ActionPaused)
}

func (s *CampaignService) Resume(ctx context.Context, userID, campaignID uuid.UUID) (*model.Campaign, error) {
	return s.transition(ctx, userID, campaignID, model.CampaignActive, model.ActionResumed)
}

// Cancel is terminal. Every pending or approved item is skipped in the
// same transaction; rows are never deleted.
func (s *CampaignService) Cancel(ctx context.Context, userID, campaignID uuid.UUID) (*model.Campaign, error) {
	return s.transition(ctx, userID, campaignID, model.CampaignCancelled, model.ActionCancelled)
}

func (s *CampaignService) transition(ctx context.Context, userID, campaignID uuid.UUID, to model.CampaignStatus, action model.HistoryAction) (*model.Campaign, error) {
	var out *model.Campaign
	err := s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.ownedCampaign(txCtx, userID, campaignID)
		if err != nil {
			return err
		}
		from := c.Status
		if !from.CanTransition(to) {
			return appErrors.NewTransitionError("campaign", string(from), string(to))
		}
		ok, err := s.CampaignRepo.TransitionStatus(txCtx, campaignID, from, to)
		if err != nil {
			return err
		}
		if !ok {
			// lost a race with another transition
			return appErrors.NewTransitionError("campaign", string(from), string(to))
		}

		details := map[string]any{"from": string(from)}
		if to == model.CampaignCancelled {
			skipped, err := s.ItemRepo.SkipOpenByCampaign(txCtx, campaignID)
			if err != nil {
				return fmt.Errorf("skip items: %w", err)
			}
			details["skipped_items"] = skipped
			metrics.ItemTransitions.WithLabelValues(string(model.ItemSkipped)).Add(float64(skipped))
		}

		err = s.HistoryRepo.Append(txCtx, &model.HistoryEntry{
			UserID:     userID,
			CampaignID: campaignID,
			ListingID:  c.ListingID,
			Action:     action,
			Details:    details,
			CreatedAt:  s.now(),
		})
		if err != nil {
			return err
		}

		c.Status = to
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger().Info("campaign "+string(action),
		zap.String("campaign_id", campaignID.String()),
		zap.String("user_id", userID.String()))
	return out, nil
}

func (s *CampaignService) ownedCampaign(ctx context.Context, userID, campaignID uuid.UUID) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, appErrors.ErrForbidden
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, userID uuid.UUID, filter model.CampaignFilter, page, pageSize int) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, userID, filter, offset, pageSize)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats returns the campaign with item counts per status.
func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, userID, campaignID uuid.UUID) (*CampaignDetails, error) {
	c, err := s.ownedCampaign(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	counts, err := s.ItemRepo.CountByStatus(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	stats := map[string]int{"total": 0}
	for status, n := range counts {
		stats[string(status)] = n
		stats["total"] += n
	}

	return &CampaignDetails{Campaign: *c, Stats: stats}, nil
}

// ListItems returns a campaign's items in schedule order.
func (s *CampaignService) ListItems(ctx context.Context, userID, campaignID uuid.UUID) ([]*model.QueueItem, error) {
	if _, err := s.ownedCampaign(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	return s.ItemRepo.ListByCampaign(ctx, campaignID)
}

func (s *CampaignService) History(ctx context.Context, userID, campaignID uuid.UUID) ([]*model.HistoryEntry, error) {
	if _, err := s.ownedCampaign(ctx, userID, campaignID); err != nil {
		return nil, err
	}
	return s.HistoryRepo.ListByCampaign(ctx, campaignID)
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CampaignService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}
