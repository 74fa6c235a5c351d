// internal/model/template.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleEntry is one social slot of a template. Hour is the time-of-day
// to post at in the configured schedule timezone; nil keeps the campaign
// creation time.
type ScheduleEntry struct {
	DayOffset     int        `json:"day_offset" yaml:"day_offset"`
	Hour          *int       `json:"hour,omitempty" yaml:"hour,omitempty"`
	TemplateStyle string     `json:"template_style" yaml:"template_style"`
	Tone          string     `json:"tone" yaml:"tone"`
	Platforms     []Platform `json:"platforms" yaml:"platforms"`
}

// Template is a reusable schedule definition for one trigger status.
// Campaigns copy what they need at expansion time, so later edits never
// reach items that already exist.
type Template struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	TriggerStatus      ListingStatus   `db:"trigger_status" json:"trigger_status" yaml:"trigger_status"`
	Name               string          `db:"name" json:"name" yaml:"name"`
	IsDefault          bool            `db:"is_default" json:"is_default" yaml:"is_default"`
	SocialSchedule     []ScheduleEntry `db:"social_schedule" json:"social_schedule" yaml:"social_schedule"`
	EmailSubject       string          `db:"email_subject_template" json:"email_subject_template" yaml:"email_subject_template"`
	EmailTemplateStyle string          `db:"email_template_style" json:"email_template_style" yaml:"email_template_style"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// Settings are the per-trigger channel and approval switches.
type Settings struct {
	AutoApprove        bool       `json:"auto_approve"`
	GenerateSocial     bool       `json:"generate_social"`
	GenerateEmail      bool       `json:"generate_email"`
	GenerateVideo      bool       `json:"generate_video"`
	UpdatePropertySite bool       `json:"update_property_site"`
	Platforms          []Platform `json:"platforms"`
}

// DefaultSettings apply when a status falls back to the system template.
func DefaultSettings() Settings {
	return Settings{
		AutoApprove:        false,
		GenerateSocial:     true,
		GenerateEmail:      true,
		GenerateVideo:      false,
		UpdatePropertySite: true,
		Platforms:          []Platform{PlatformInstagram, PlatformFacebook, PlatformLinkedIn},
	}
}

// HasPlatform reports whether p is enabled.
func (s Settings) HasPlatform(p Platform) bool {
	for _, sp := range s.Platforms {
		if sp == p {
			return true
		}
	}
	return false
}

// Trigger is a user's automation rule for one status.
type Trigger struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	UserID        uuid.UUID     `db:"user_id" json:"user_id"`
	TriggerStatus ListingStatus `db:"trigger_status" json:"trigger_status"`
	IsActive      bool          `db:"is_active" json:"is_active"`
	TemplateID    *uuid.UUID    `db:"template_id" json:"template_id,omitempty"`
	Settings
}
