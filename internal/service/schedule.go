package service

import (
	"time"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

// Expand turns a template and settings into dated drafts. It performs no
// I/O. Order: social entries (per platform, in entry order), then email,
// site update and video. No draft is scheduled before now. Template hours
// are wall-clock hours in now's location.
func Expand(t *model.Template, s model.Settings, now time.Time) []model.QueueItemDraft {
	var drafts []model.QueueItemDraft

	if s.GenerateSocial {
		for _, entry := range t.SocialSchedule {
			at := slotTime(now, entry.DayOffset, entry.Hour)
			seen := make(map[model.Platform]bool, len(entry.Platforms))
			for _, p := range entry.Platforms {
				if seen[p] || !s.HasPlatform(p) {
					continue
				}
				seen[p] = true
				platform := p
				drafts = append(drafts, model.QueueItemDraft{
					ContentType:  model.ContentSocialPost,
					Platform:     &platform,
					ScheduledFor: at,
					Payload: model.SocialPayload{
						TemplateStyle: entry.TemplateStyle,
						Tone:          entry.Tone,
						TriggerStatus: t.TriggerStatus,
					},
				})
			}
		}
	}

	if s.GenerateEmail {
		drafts = append(drafts, model.QueueItemDraft{
			ContentType:  model.ContentEmail,
			ScheduledFor: now,
			Payload: model.EmailPayload{
				SubjectTemplate: t.EmailSubject,
				TemplateStyle:   t.EmailTemplateStyle,
				TriggerStatus:   t.TriggerStatus,
			},
		})
	}

	if s.UpdatePropertySite {
		drafts = append(drafts, model.QueueItemDraft{
			ContentType:  model.ContentPropertySiteUpdate,
			ScheduledFor: now,
			Payload:      model.SiteUpdatePayload{NewStatus: t.TriggerStatus, UpdateBanner: true},
		})
	}

	if s.GenerateVideo {
		drafts = append(drafts, model.QueueItemDraft{
			ContentType:  model.ContentVideo,
			ScheduledFor: now,
			Payload:      model.VideoPayload{TriggerStatus: t.TriggerStatus, IncludeVoiceover: true},
		})
	}

	return drafts
}

// slotTime is now shifted by dayOffset calendar days, with the clock set to
// hour:00 when hour is a valid hour of day. Results before now become now.
func slotTime(now time.Time, dayOffset int, hour *int) time.Time {
	at := now.AddDate(0, 0, dayOffset)
	if hour != nil && *hour >= 0 && *hour <= 23 {
		at = time.Date(at.Year(), at.Month(), at.Day(), *hour, 0, 0, 0, at.Location())
	}
	if at.Before(now) {
		return now
	}
	return at
}
