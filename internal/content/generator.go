package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/metrics"
	"github.com/unclebandit/listing-campaigns/internal/model"
)

const defaultAITimeout = 15 * time.Second

// Generator turns a queue item's intent into finished content.
type Generator struct {
	// AI is optional; with nil every caption comes from templates.
	AI      TextService
	Rand    Rand
	Timeout time.Duration
	Logger  *zap.Logger
	Now     func() time.Time
}

// NewGenerator wires a generator. ai may be nil.
func NewGenerator(ai TextService, r Rand, timeout time.Duration, logger *zap.Logger) *Generator {
	return &Generator{AI: ai, Rand: r, Timeout: timeout, Logger: logger, Now: time.Now}
}

// Generate builds the item's content from its current payload intent and
// the listing. The result always replaces the item's content_data, so
// calling it again on the same item is safe.
func (g *Generator) Generate(ctx context.Context, item *model.QueueItem, listing *model.Listing) (model.ContentData, error) {
	if listing == nil {
		return model.ContentData{}, errors.New("listing is required")
	}
	if item.ContentData.Payload == nil {
		return model.ContentData{}, fmt.Errorf("queue item %s has no payload", item.ID)
	}

	var (
		payload model.Payload
		source  = model.SourceTemplate
	)
	switch p := item.ContentData.Payload.(type) {
	case model.SocialPayload:
		if item.Platform == nil {
			return model.ContentData{}, fmt.Errorf("social queue item %s has no platform", item.ID)
		}
		payload, source = g.social(ctx, *item.Platform, p, listing)
	case model.EmailPayload:
		payload = model.EmailPayload{
			SubjectTemplate: p.SubjectTemplate,
			TemplateStyle:   p.TemplateStyle,
			TriggerStatus:   p.TriggerStatus,
			Subject:         emailSubject(g.rand(), listing, p),
			Body:            emailBody(g.rand(), listing, p),
		}
	case model.SiteUpdatePayload:
		payload = model.SiteUpdatePayload{
			NewStatus:    p.NewStatus,
			UpdateBanner: p.UpdateBanner,
			UpdateType:   "status_change",
			NewBanner:    p.NewStatus.Banner(),
		}
	case model.VideoPayload:
		payload = model.VideoPayload{
			TriggerStatus:    p.TriggerStatus,
			IncludeVoiceover: p.IncludeVoiceover,
			Script:           videoScript(listing, p),
		}
	default:
		return model.ContentData{}, fmt.Errorf("unsupported payload %T", p)
	}

	if payload.ContentType() != item.ContentType {
		return model.ContentData{}, fmt.Errorf("queue item %s is %s but carries a %s payload", item.ID, item.ContentType, payload.ContentType())
	}

	now := g.now()
	metrics.ItemsGenerated.WithLabelValues(string(item.ContentType), source).Inc()
	return model.ContentData{
		Generated:   true,
		GeneratedAt: &now,
		Source:      source,
		Payload:     payload,
	}, nil
}

func (g *Generator) social(ctx context.Context, platform model.Platform, p model.SocialPayload, listing *model.Listing) (model.SocialPayload, string) {
	limits := LimitsFor(platform)
	out := model.SocialPayload{
		TemplateStyle: p.TemplateStyle,
		Tone:          p.Tone,
		TriggerStatus: p.TriggerStatus,
	}

	if reply, err := g.askAI(ctx, platform, p, listing, limits); err == nil {
		tags := limitHashtags(reply.Hashtags, limits.MaxHashtags)
		out.Caption = renderCaption(platform, reply.Caption, tags)
		out.Hashtags = tags
		return out, model.SourceAI
	}

	tags := BuildHashtags(listing, p.TriggerStatus, limits.MaxHashtags)
	out.Caption = renderCaption(platform, templateCaption(g.rand(), listing, p), tags)
	out.Hashtags = tags
	return out, model.SourceTemplate
}

// askAI calls the text service under the generator timeout. Every failure
// (timeout, transport, decode) comes back as an error for the caller to
// fall back on; nothing here is surfaced beyond a log line.
func (g *Generator) askAI(ctx context.Context, platform model.Platform, p model.SocialPayload, listing *model.Listing, limits Limits) (reply *CaptionReply, err error) {
	if g.AI == nil {
		return nil, errors.New("no text service configured")
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	aiCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text service panicked: %v", r)
		}
		if err != nil {
			reason := "error"
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(aiCtx.Err(), context.DeadlineExceeded) {
				reason = "timeout"
			}
			metrics.AIFallbacks.WithLabelValues(reason).Inc()
			g.logger().Warn("AI caption failed, using template",
				zap.String("platform", string(platform)),
				zap.String("reason", reason),
				zap.Error(err))
		}
	}()

	reply, err = g.AI.GenerateCaption(aiCtx, CaptionRequest{
		Listing:     listing,
		Platform:    platform,
		Status:      p.TriggerStatus,
		Style:       p.TemplateStyle,
		Tone:        p.Tone,
		MaxChars:    limits.MaxChars,
		MaxHashtags: limits.MaxHashtags,
	})
	if err != nil {
		return nil, err
	}
	if reply == nil || reply.Caption == "" {
		return nil, errEmptyCaption
	}
	return reply, nil
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

var defaultRand = NewRand(1)

func (g *Generator) rand() Rand {
	if g.Rand != nil {
		return g.Rand
	}
	return defaultRand
}

func (g *Generator) logger() *zap.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return zap.NewNop()
}
