package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/listing-campaigns/internal/errors"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/repository"
)

// TriggerResolver decides which template and settings drive a campaign.
type TriggerResolver interface {
	ResolveTrigger(ctx context.Context, userID uuid.UUID, status model.ListingStatus) (*model.Template, model.Settings, error)
}

type TriggerService struct {
	Triggers  repository.TriggerRepositoryInterface
	Templates repository.TemplateRepositoryInterface
}

// ResolveTrigger prefers the user's active trigger and its template. A
// trigger without a usable template keeps its settings but borrows the
// system default template. Without either, ErrNotConfigured is returned.
func (s *TriggerService) ResolveTrigger(ctx context.Context, userID uuid.UUID, status model.ListingStatus) (*model.Template, model.Settings, error) {
	trigger, err := s.Triggers.GetActive(ctx, userID, status)
	if err != nil {
		return nil, model.Settings{}, fmt.Errorf("load trigger: %w", err)
	}

	if trigger != nil && trigger.TemplateID != nil {
		tmpl, err := s.Templates.GetByID(ctx, *trigger.TemplateID)
		if err != nil {
			return nil, model.Settings{}, fmt.Errorf("load template %s: %w", *trigger.TemplateID, err)
		}
		if tmpl != nil {
			return tmpl, trigger.Settings, nil
		}
	}

	tmpl, err := s.Templates.GetDefault(ctx, status)
	if err != nil {
		return nil, model.Settings{}, fmt.Errorf("load default template: %w", err)
	}
	if tmpl == nil {
		return nil, model.Settings{}, appErrors.ErrNotConfigured
	}

	if trigger != nil {
		return tmpl, trigger.Settings, nil
	}
	return tmpl, model.DefaultSettings(), nil
}

// TriggerInput is a user's automation settings for one status.
type TriggerInput struct {
	IsActive   bool
	TemplateID *uuid.UUID
	model.Settings
}

// SaveTrigger creates or replaces the user's trigger for status. A named
// template must exist and be built for the same status. Platforms are
// stored once each, in the given order.
func (s *TriggerService) SaveTrigger(ctx context.Context, userID uuid.UUID, status model.ListingStatus, in TriggerInput) (*model.Trigger, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%q: %w", status, appErrors.ErrInvalidStatus)
	}

	if in.TemplateID != nil {
		tmpl, err := s.Templates.GetByID(ctx, *in.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", *in.TemplateID, err)
		}
		if tmpl == nil {
			return nil, fmt.Errorf("template %s: %w", *in.TemplateID, appErrors.ErrTemplateNotFound)
		}
		if tmpl.TriggerStatus != status {
			return nil, fmt.Errorf("template %s is for %s, not %s: %w", tmpl.ID, tmpl.TriggerStatus, status, appErrors.ErrInvalidStatus)
		}
	}

	settings := in.Settings
	seen := make(map[model.Platform]bool, len(settings.Platforms))
	platforms := make([]model.Platform, 0, len(settings.Platforms))
	for _, p := range settings.Platforms {
		if !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}
	settings.Platforms = platforms

	t := &model.Trigger{
		UserID:        userID,
		TriggerStatus: status,
		IsActive:      in.IsActive,
		TemplateID:    in.TemplateID,
		Settings:      settings,
	}
	if err := s.Triggers.Upsert(ctx, t); err != nil {
		return nil, fmt.Errorf("save trigger: %w", err)
	}
	return t, nil
}

var _ TriggerResolver = (*TriggerService)(nil)
