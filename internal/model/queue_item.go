// internal/model/queue_item.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// QueueItem is one scheduled unit of content within a campaign.
// Platform is set iff ContentType is ContentSocialPost.
type QueueItem struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	CampaignID       uuid.UUID   `db:"campaign_id" json:"campaign_id"`
	UserID           uuid.UUID   `db:"user_id" json:"user_id"`
	ListingID        uuid.UUID   `db:"listing_id" json:"listing_id"`
	ContentType      ContentType `db:"content_type" json:"content_type"`
	Platform         *Platform   `db:"platform" json:"platform,omitempty"`
	ScheduledFor     time.Time   `db:"scheduled_for" json:"scheduled_for"`
	Position         int         `db:"position" json:"position"`
	ContentData      ContentData `db:"content_data" json:"content_data"`
	Status           ItemStatus  `db:"status" json:"status"`
	RequiresApproval bool        `db:"requires_approval" json:"requires_approval"`
	ApprovedAt       *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy       *uuid.UUID  `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time  `db:"updated_at" json:"updated_at,omitempty"`
}

// QueueItemDraft is an unsaved item produced by schedule expansion.
type QueueItemDraft struct {
	ContentType  ContentType
	Platform     *Platform
	ScheduledFor time.Time
	Payload      Payload
}

// Listing is the read-only property record the generator works from.
type Listing struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	UserID      uuid.UUID     `db:"user_id" json:"user_id"`
	Address     string        `db:"address" json:"address"`
	City        string        `db:"city" json:"city"`
	State       string        `db:"state" json:"state"`
	Zip         string        `db:"zip" json:"zip"`
	Price       int64         `db:"price" json:"price"`
	Bedrooms    int           `db:"bedrooms" json:"bedrooms"`
	Bathrooms   float64       `db:"bathrooms" json:"bathrooms"`
	Sqft        int           `db:"sqft" json:"sqft"`
	Description string        `db:"description" json:"description,omitempty"`
	Features    []string      `db:"features" json:"features,omitempty"`
	Photos      []Photo       `db:"photos" json:"photos"`
	Status      ListingStatus `db:"status" json:"status"`
}

type Photo struct {
	URL         string `json:"url"`
	EnhancedURL string `json:"enhanced_url,omitempty"`
}
