// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/service"
)

type CampaignLifecycle interface {
	Pause(ctx context.Context, userID, campaignID uuid.UUID) (*model.Campaign, error)
	Resume(ctx context.Context, userID, campaignID uuid.UUID) (*model.Campaign, error)
	Cancel(ctx context.Context, userID, campaignID uuid.UUID) (*model.Campaign, error)
	GetCampaignDetailsWithStats(ctx context.Context, userID, campaignID uuid.UUID) (*service.CampaignDetails, error)
}

type Approvals interface {
	ApproveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.QueueItem, error)
	ApproveAll(ctx context.Context, userID, campaignID uuid.UUID) (int, error)
	SkipItem(ctx context.Context, userID, itemID uuid.UUID) (*model.QueueItem, error)
}

type StatusChanger interface {
	ChangeStatus(ctx context.Context, userID, listingID uuid.UUID, display string) (*service.StatusChangeResult, error)
}

type ContentRunner interface {
	ProcessCampaignContent(ctx context.Context, campaignID uuid.UUID) (*service.ProcessResult, error)
}

// CampaignController serves the state-changing endpoints.
type CampaignController struct {
	Campaigns CampaignLifecycle
	Approvals Approvals
	Listings  StatusChanger
	Processor ContentRunner
	Validate  *validator.Validate
	Logger    *zap.Logger
}

type statusChangeRequest struct {
	Status string `json:"status" validate:"required,max=64"`
}

// ChangeListingStatus handles PUT /listings/{id}/status. A failed campaign
// still answers 200 with a warning since the status was written.
func (c *CampaignController) ChangeListingStatus(w http.ResponseWriter, r *http.Request) {
	listingID, ok := URLID(r, "id")
	if !ok {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing id"})
		return
	}

	var body statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if err := c.Validate.Struct(body); err != nil {
		WriteError(w, err)
		return
	}

	res, err := c.Listings.ChangeStatus(r.Context(), UserID(r), listingID, body.Status)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (c *CampaignController) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Campaigns.Pause)
}

func (c *CampaignController) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Campaigns.Resume)
}

func (c *CampaignController) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Campaigns.Cancel)
}

func (c *CampaignController) lifecycle(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, uuid.UUID) (*model.Campaign, error)) {
	id, ok := URLID(r, "id")
	if !ok {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}
	campaign, err := op(r.Context(), UserID(r), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) ApproveAll(w http.ResponseWriter, r *http.Request) {
	id, ok := URLID(r, "id")
	if !ok {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}
	n, err := c.Approvals.ApproveAll(r.Context(), UserID(r), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"campaign_id": id, "approved": n})
}

// ProcessContent runs batch generation synchronously for the owner.
func (c *CampaignController) ProcessContent(w http.ResponseWriter, r *http.Request) {
	id, ok := URLID(r, "id")
	if !ok {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}
	if _, err := c.Campaigns.GetCampaignDetailsWithStats(r.Context(), UserID(r), id); err != nil {
		c.fail(w, r, err)
		return
	}
	res, err := c.Processor.ProcessCampaignContent(r.Context(), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (c *CampaignController) ApproveItem(w http.ResponseWriter, r *http.Request) {
	c.item(w, r, c.Approvals.ApproveItem)
}

func (c *CampaignController) SkipItem(w http.ResponseWriter, r *http.Request) {
	c.item(w, r, c.Approvals.SkipItem)
}

func (c *CampaignController) item(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, uuid.UUID) (*model.QueueItem, error)) {
	id, ok := URLID(r, "id")
	if !ok {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	item, err := op(r.Context(), UserID(r), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

func (c *CampaignController) fail(w http.ResponseWriter, r *http.Request, err error) {
	if c.Logger != nil {
		c.Logger.Warn("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	WriteError(w, err)
}
