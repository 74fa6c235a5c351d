// internal/model/status.go
package model

import "strings"

// ListingStatus is the canonical market status of a listing.
type ListingStatus string

const (
	StatusComingSoon    ListingStatus = "coming_soon"
	StatusJustListed    ListingStatus = "just_listed"
	StatusOpenHouse     ListingStatus = "open_house"
	StatusPriceDrop     ListingStatus = "price_drop"
	StatusUnderContract ListingStatus = "under_contract"
	StatusSold          ListingStatus = "sold"
)

// ListingStatuses lists the recognized statuses in lifecycle order.
var ListingStatuses = []ListingStatus{
	StatusComingSoon,
	StatusJustListed,
	StatusOpenHouse,
	StatusPriceDrop,
	StatusUnderContract,
	StatusSold,
}

var statusBanners = map[ListingStatus]string{
	StatusComingSoon:    "Coming Soon",
	StatusJustListed:    "Just Listed",
	StatusOpenHouse:     "Open House",
	StatusPriceDrop:     "Price Reduced",
	StatusUnderContract: "Under Contract",
	StatusSold:          "Sold",
}

// display strings used by listing screens and MLS feeds, lower-cased
var displayStatuses = map[string]ListingStatus{
	"coming soon":       StatusComingSoon,
	"coming_soon":       StatusComingSoon,
	"just listed":       StatusJustListed,
	"just_listed":       StatusJustListed,
	"new listing":       StatusJustListed,
	"active":            StatusJustListed,
	"open house":        StatusOpenHouse,
	"open_house":        StatusOpenHouse,
	"price drop":        StatusPriceDrop,
	"price_drop":        StatusPriceDrop,
	"price improvement": StatusPriceDrop,
	"price reduced":     StatusPriceDrop,
	"under contract":    StatusUnderContract,
	"under_contract":    StatusUnderContract,
	"pending":           StatusUnderContract,
	"contingent":        StatusUnderContract,
	"sold":              StatusSold,
	"closed":            StatusSold,
}

// Valid reports whether s is one of the recognized statuses.
func (s ListingStatus) Valid() bool {
	_, ok := statusBanners[s]
	return ok
}

// Banner returns the human-readable label for s.
func (s ListingStatus) Banner() string {
	if b, ok := statusBanners[s]; ok {
		return b
	}
	return string(s)
}

// NormalizeStatus maps a display status ("Price Improvement") to its
// canonical key. The second return value is false for unknown input.
func NormalizeStatus(display string) (ListingStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(display))
	s, ok := displayStatuses[key]
	return s, ok
}

// Platform is a social channel.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformTikTok    Platform = "tiktok"
)

type ContentType string

const (
	ContentSocialPost         ContentType = "social_post"
	ContentEmail              ContentType = "email"
	ContentVideo              ContentType = "video"
	ContentPropertySiteUpdate ContentType = "property_site_update"
)

type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCancelled CampaignStatus = "cancelled"
)

// CanTransition reports whether a campaign may move from s to next.
// Cancelled is terminal.
func (s CampaignStatus) CanTransition(next CampaignStatus) bool {
	switch s {
	case CampaignActive:
		return next == CampaignPaused || next == CampaignCancelled
	case CampaignPaused:
		return next == CampaignActive || next == CampaignCancelled
	}
	return false
}

type ItemStatus string

const (
	ItemPending  ItemStatus = "pending"
	ItemApproved ItemStatus = "approved"
	ItemSkipped  ItemStatus = "skipped"
)

// Terminal reports whether no further transition is allowed from s.
func (s ItemStatus) Terminal() bool {
	return s == ItemSkipped
}

type HistoryAction string

const (
	ActionTriggered HistoryAction = "triggered"
	ActionPaused    HistoryAction = "paused"
	ActionResumed   HistoryAction = "resumed"
	ActionCancelled HistoryAction = "cancelled"
)
