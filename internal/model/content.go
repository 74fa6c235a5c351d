// internal/model/content.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Payload is the type-specific body of a queue item's content. The set of
// implementations is closed: SocialPayload, EmailPayload, SiteUpdatePayload
// and VideoPayload.
type Payload interface {
	ContentType() ContentType
	isPayload()
}

type SocialPayload struct {
	TemplateStyle string        `json:"template_style"`
	Tone          string        `json:"tone"`
	TriggerStatus ListingStatus `json:"trigger_status"`
	Caption       string        `json:"caption,omitempty"`
	Hashtags      []string      `json:"hashtags,omitempty"`
}

type EmailPayload struct {
	SubjectTemplate string        `json:"subject_template"`
	TemplateStyle   string        `json:"email_template_style"`
	TriggerStatus   ListingStatus `json:"trigger_status"`
	Subject         string        `json:"subject,omitempty"`
	Body            string        `json:"body,omitempty"`
}

type SiteUpdatePayload struct {
	NewStatus    ListingStatus `json:"new_status"`
	UpdateBanner bool          `json:"update_banner"`
	UpdateType   string        `json:"update_type,omitempty"`
	NewBanner    string        `json:"new_banner,omitempty"`
}

type VideoPayload struct {
	TriggerStatus    ListingStatus `json:"trigger_status"`
	IncludeVoiceover bool          `json:"include_voiceover"`
	Script           string        `json:"script,omitempty"`
}

func (SocialPayload) ContentType() ContentType     { return ContentSocialPost }
func (EmailPayload) ContentType() ContentType      { return ContentEmail }
func (SiteUpdatePayload) ContentType() ContentType { return ContentPropertySiteUpdate }
func (VideoPayload) ContentType() ContentType      { return ContentVideo }

func (SocialPayload) isPayload()     {}
func (EmailPayload) isPayload()      {}
func (SiteUpdatePayload) isPayload() {}
func (VideoPayload) isPayload()      {}

// Content sources recorded on generated items.
const (
	SourceAI       = "ai"
	SourceTemplate = "template"
)

// ContentData is the stored content of a queue item. Before generation it
// carries only intent (style, tone, status); generation replaces it whole.
type ContentData struct {
	Generated   bool       `json:"generated"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	Source      string     `json:"source,omitempty"`
	Payload     Payload    `json:"-"`
}

type contentEnvelope struct {
	Type        ContentType     `json:"type"`
	Generated   bool            `json:"generated"`
	GeneratedAt *time.Time      `json:"generated_at,omitempty"`
	Source      string          `json:"source,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

func (c ContentData) MarshalJSON() ([]byte, error) {
	if c.Payload == nil {
		return nil, errors.New("content data has no payload")
	}
	raw, err := json.Marshal(c.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(contentEnvelope{
		Type:        c.Payload.ContentType(),
		Generated:   c.Generated,
		GeneratedAt: c.GeneratedAt,
		Source:      c.Source,
		Payload:     raw,
	})
}

func (c *ContentData) UnmarshalJSON(data []byte) error {
	var env contentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	var p Payload
	switch env.Type {
	case ContentSocialPost:
		var v SocialPayload
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return err
		}
		p = v
	case ContentEmail:
		var v EmailPayload
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return err
		}
		p = v
	case ContentPropertySiteUpdate:
		var v SiteUpdatePayload
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return err
		}
		p = v
	case ContentVideo:
		var v VideoPayload
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return err
		}
		p = v
	default:
		return fmt.Errorf("unknown content type %q", env.Type)
	}
	*c = ContentData{
		Generated:   env.Generated,
		GeneratedAt: env.GeneratedAt,
		Source:      env.Source,
		Payload:     p,
	}
	return nil
}

// Value stores ContentData as JSONB. It returns a string because lib/pq
// sends []byte parameters as bytea.
func (c ContentData) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads ContentData from a JSONB column.
func (c *ContentData) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return c.UnmarshalJSON(v)
	case string:
		return c.UnmarshalJSON([]byte(v))
	case nil:
		return errors.New("content data is null")
	}
	return fmt.Errorf("cannot scan %T into ContentData", src)
}
