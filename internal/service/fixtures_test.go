package service_test

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/service"
)

var fixedNow = time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

func statusPtr(s model.ListingStatus) *model.ListingStatus { return &s }

// env wires a CampaignService over in-memory repositories.
type env struct {
	userID    uuid.UUID
	listingID uuid.UUID
	template  *model.Template

	campaigns *MockCampaignRepo
	items     *MockItemRepo
	history   *MockHistoryRepo
	triggers  *MockTriggerRepo
	templates *MockTemplateRepo
	listings  *MockListingRepo
	tx        *MockTx
	queue     *MockQueue

	svc *service.CampaignService
}

func newEnv() *env {
	e := &env{
		userID:    uuid.New(),
		listingID: uuid.New(),
		campaigns: NewMockCampaignRepo(),
		items:     NewMockItemRepo(),
		history:   &MockHistoryRepo{},
		triggers:  &MockTriggerRepo{triggers: map[string]*model.Trigger{}},
		templates: &MockTemplateRepo{templates: map[uuid.UUID]*model.Template{}},
		tx:        &MockTx{},
		queue:     &MockQueue{},
	}

	e.template = &model.Template{
		ID:            uuid.New(),
		TriggerStatus: model.StatusJustListed,
		Name:          "Just Listed Default",
		IsDefault:     true,
		SocialSchedule: []model.ScheduleEntry{
			{DayOffset: 0, TemplateStyle: "announcement", Tone: "excited", Platforms: []model.Platform{model.PlatformInstagram, model.PlatformFacebook}},
			{DayOffset: 2, Hour: intPtr(10), TemplateStyle: "story", Tone: "warm", Platforms: []model.Platform{model.PlatformLinkedIn}},
		},
		EmailSubject:       "New listing: {{address}}",
		EmailTemplateStyle: "announcement",
	}
	e.templates.templates[e.template.ID] = e.template

	e.listings = &MockListingRepo{listings: map[uuid.UUID]*model.Listing{
		e.listingID: {
			ID:        e.listingID,
			UserID:    e.userID,
			Address:   "12 Oak St",
			City:      "San Diego",
			State:     "CA",
			Price:     1250000,
			Bedrooms:  5,
			Bathrooms: 3.5,
			Sqft:      3500,
			Status:    model.StatusComingSoon,
		},
	}}

	e.svc = &service.CampaignService{
		Triggers:     &service.TriggerService{Triggers: e.triggers, Templates: e.templates},
		Listings:     e.listings,
		CampaignRepo: e.campaigns,
		ItemRepo:     e.items,
		HistoryRepo:  e.history,
		Tx:           e.tx,
		Queue:        e.queue,
		Logger:       zap.NewNop(),
		Now:          func() time.Time { return fixedNow },
	}
	return e
}

func (e *env) setTrigger(status model.ListingStatus, settings model.Settings, templateID *uuid.UUID) {
	e.triggers.triggers[triggerKey(e.userID, status)] = &model.Trigger{
		ID:            uuid.New(),
		UserID:        e.userID,
		TriggerStatus: status,
		IsActive:      true,
		TemplateID:    templateID,
		Settings:      settings,
	}
}
