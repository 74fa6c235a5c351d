// internal/model/campaign.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Campaign struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	ListingID      uuid.UUID      `db:"listing_id" json:"listing_id"`
	TemplateID     *uuid.UUID     `db:"template_id" json:"template_id,omitempty"`
	TriggerStatus  ListingStatus  `db:"trigger_status" json:"trigger_status"`
	PreviousStatus *ListingStatus `db:"previous_status" json:"previous_status,omitempty"`
	Status         CampaignStatus `db:"status" json:"status"`
	TotalItems     int            `db:"total_items" json:"total_items"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// CampaignFilter narrows ListCampaigns. Zero values match everything.
type CampaignFilter struct {
	ListingID     *uuid.UUID
	Status        CampaignStatus
	TriggerStatus ListingStatus
}

type HistoryEntry struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	UserID     uuid.UUID      `db:"user_id" json:"user_id"`
	CampaignID uuid.UUID      `db:"campaign_id" json:"campaign_id"`
	ListingID  uuid.UUID      `db:"listing_id" json:"listing_id"`
	Action     HistoryAction  `db:"action" json:"action"`
	Details    map[string]any `db:"details" json:"details"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
