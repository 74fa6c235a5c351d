package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/listing-campaigns/internal/errors"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/repository"
)

// StatusChangeHandler reacts to a listing moving to a new status.
type StatusChangeHandler interface {
	OnListingStatusChange(ctx context.Context, userID, listingID uuid.UUID, newStatus model.ListingStatus, previousStatus *model.ListingStatus) (*CampaignResult, error)
}

type ListingService struct {
	Listings  repository.ListingStore
	Campaigns StatusChangeHandler
	Logger    *zap.Logger
}

type StatusChangeResult struct {
	ListingID      uuid.UUID           `json:"listing_id"`
	Status         model.ListingStatus `json:"status"`
	PreviousStatus model.ListingStatus `json:"previous_status,omitempty"`
	Unchanged      bool                `json:"unchanged"`
	Campaign       *CampaignResult     `json:"campaign,omitempty"`
	// Warning carries a campaign failure; the status change itself stands.
	Warning string `json:"warning,omitempty"`
}

// ChangeStatus normalizes a display status, writes it and triggers the
// matching campaign. Only the status write can fail the call.
func (s *ListingService) ChangeStatus(ctx context.Context, userID, listingID uuid.UUID, display string) (*StatusChangeResult, error) {
	status, ok := model.NormalizeStatus(display)
	if !ok {
		return nil, fmt.Errorf("%q: %w", display, appErrors.ErrInvalidStatus)
	}

	listing, err := s.Listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.UserID != userID {
		return nil, appErrors.ErrForbidden
	}

	res := &StatusChangeResult{ListingID: listingID, Status: status, PreviousStatus: listing.Status}
	if listing.Status == status {
		res.Unchanged = true
		return res, nil
	}

	if err := s.Listings.UpdateStatus(ctx, listingID, userID, status); err != nil {
		return nil, fmt.Errorf("update listing status: %w", err)
	}

	var previous *model.ListingStatus
	if listing.Status != "" {
		prev := listing.Status
		previous = &prev
	}

	campaign, err := s.Campaigns.OnListingStatusChange(ctx, userID, listingID, status, previous)
	if err != nil {
		s.logger().Warn("status changed but campaign failed",
			zap.String("listing_id", listingID.String()),
			zap.String("status", string(status)),
			zap.Error(err))
		res.Warning = err.Error()
		return res, nil
	}
	res.Campaign = campaign
	return res, nil
}

func (s *ListingService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

var _ StatusChangeHandler = (*CampaignService)(nil)
