// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/unclebandit/listing-campaigns/internal/controller"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/service"
)

type CampaignReader interface {
	ListCampaigns(ctx context.Context, userID uuid.UUID, filter model.CampaignFilter, page, pageSize int) ([]model.Campaign, map[string]int, error)
	GetCampaignDetailsWithStats(ctx context.Context, userID, campaignID uuid.UUID) (*service.CampaignDetails, error)
	ListItems(ctx context.Context, userID, campaignID uuid.UUID) ([]*model.QueueItem, error)
	History(ctx context.Context, userID, campaignID uuid.UUID) ([]*model.HistoryEntry, error)
}

// CampaignHandler holds the dependencies for campaign read endpoints
type CampaignHandler struct {
	Service  CampaignReader
	Validate *validator.Validate
}

type listQuery struct {
	Page          int    `validate:"gte=0"`
	PageSize      int    `validate:"gte=0,lte=100"`
	ListingID     string `validate:"omitempty,uuid"`
	Status        string `validate:"omitempty,oneof=active paused cancelled"`
	TriggerStatus string `validate:"omitempty,oneof=coming_soon just_listed open_house price_drop under_contract sold"`
}

// ListCampaignsHandler returns a paginated list of campaigns
func (h *CampaignHandler) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := listQuery{
		ListingID:     q.Get("listing_id"),
		Status:        q.Get("status"),
		TriggerStatus: q.Get("trigger_status"),
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		query.Page = p
	}
	if ps, err := strconv.Atoi(q.Get("page_size")); err == nil {
		query.PageSize = ps
	}
	if err := h.Validate.Struct(query); err != nil {
		controller.WriteError(w, err)
		return
	}

	filter := model.CampaignFilter{
		Status:        model.CampaignStatus(query.Status),
		TriggerStatus: model.ListingStatus(query.TriggerStatus),
	}
	if query.ListingID != "" {
		id := uuid.MustParse(query.ListingID)
		filter.ListingID = &id
	}

	campaigns, pagination, err := h.Service.ListCampaigns(r.Context(), controller.UserID(r), filter, query.Page, query.PageSize)
	if err != nil {
		controller.WriteError(w, err)
		return
	}

	controller.WriteJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id, ok := controller.URLID(r, "id")
	if !ok {
		controller.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), controller.UserID(r), id)
	if err != nil {
		controller.WriteError(w, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, details)
}

// ListItemsHandler returns items in schedule order.
func (h *CampaignHandler) ListItemsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := controller.URLID(r, "id")
	if !ok {
		controller.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	items, err := h.Service.ListItems(r.Context(), controller.UserID(r), id)
	if err != nil {
		controller.WriteError(w, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *CampaignHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := controller.URLID(r, "id")
	if !ok {
		controller.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid campaign id"})
		return
	}

	entries, err := h.Service.History(r.Context(), controller.UserID(r), id)
	if err != nil {
		controller.WriteError(w, err)
		return
	}
	controller.WriteJSON(w, http.StatusOK, map[string]any{"data": entries})
}
