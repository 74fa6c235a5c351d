// internal/controller/trigger_controller.go
package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/service"
)

type TriggerSettings interface {
	SaveTrigger(ctx context.Context, userID uuid.UUID, status model.ListingStatus, in service.TriggerInput) (*model.Trigger, error)
}

// TriggerController serves the per-user automation settings.
type TriggerController struct {
	Triggers TriggerSettings
	Validate *validator.Validate
	Logger   *zap.Logger
}

type triggerRequest struct {
	Status             string     `json:"-" validate:"required,oneof=coming_soon just_listed open_house price_drop under_contract sold"`
	IsActive           *bool      `json:"is_active"`
	TemplateID         *uuid.UUID `json:"template_id"`
	AutoApprove        bool       `json:"auto_approve"`
	GenerateSocial     bool       `json:"generate_social"`
	GenerateEmail      bool       `json:"generate_email"`
	GenerateVideo      bool       `json:"generate_video"`
	UpdatePropertySite bool       `json:"update_property_site"`
	Platforms          []string   `json:"platforms" validate:"required_if=GenerateSocial true,max=5,dive,oneof=instagram facebook linkedin twitter tiktok"`
}

// SaveTrigger handles PUT /triggers/{status}. The trigger always belongs to
// the calling user; is_active defaults to true.
func (c *TriggerController) SaveTrigger(w http.ResponseWriter, r *http.Request) {
	var body triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	body.Status = chi.URLParam(r, "status")
	if err := c.Validate.Struct(body); err != nil {
		WriteError(w, err)
		return
	}

	in := service.TriggerInput{
		IsActive:   body.IsActive == nil || *body.IsActive,
		TemplateID: body.TemplateID,
		Settings: model.Settings{
			AutoApprove:        body.AutoApprove,
			GenerateSocial:     body.GenerateSocial,
			GenerateEmail:      body.GenerateEmail,
			GenerateVideo:      body.GenerateVideo,
			UpdatePropertySite: body.UpdatePropertySite,
		},
	}
	for _, p := range body.Platforms {
		in.Platforms = append(in.Platforms, model.Platform(p))
	}

	trigger, err := c.Triggers.SaveTrigger(r.Context(), UserID(r), model.ListingStatus(body.Status), in)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("save trigger failed", zap.String("status", body.Status), zap.Error(err))
		}
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, trigger)
}
