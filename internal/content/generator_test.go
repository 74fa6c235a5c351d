package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

// --- Fakes ---

type fixedRand int

func (f fixedRand) Intn(n int) int { return int(f) % n }

type failingAI struct{ calls int }

func (f *failingAI) GenerateCaption(ctx context.Context, req CaptionRequest) (*CaptionReply, error) {
	f.calls++
	return nil, errors.New("503 service unavailable")
}

type slowAI struct{}

func (slowAI) GenerateCaption(ctx context.Context, req CaptionRequest) (*CaptionReply, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stubAI struct {
	reply *CaptionReply
	last  CaptionRequest
}

func (s *stubAI) GenerateCaption(ctx context.Context, req CaptionRequest) (*CaptionReply, error) {
	s.last = req
	return s.reply, nil
}

// --- Helpers ---

func luxuryListing() *model.Listing {
	return &model.Listing{
		ID:          uuid.New(),
		Address:     "12 Oak St",
		City:        "San Diego",
		State:       "CA",
		Zip:         "92101",
		Price:       1250000,
		Bedrooms:    5,
		Bathrooms:   3.5,
		Sqft:        3500,
		Description: "Ocean views from every room.",
	}
}

func socialItem(platform model.Platform, status model.ListingStatus) *model.QueueItem {
	return &model.QueueItem{
		ID:          uuid.New(),
		ContentType: model.ContentSocialPost,
		Platform:    &platform,
		ContentData: model.ContentData{Payload: model.SocialPayload{
			TemplateStyle: "announcement",
			Tone:          "excited",
			TriggerStatus: status,
		}},
	}
}

func newTestGenerator(ai TextService) *Generator {
	return &Generator{AI: ai, Rand: fixedRand(0), Timeout: 50 * time.Millisecond, Logger: zap.NewNop()}
}

// --- Tests ---

func TestSocialFallbackIncludesSizeAndPriceTags(t *testing.T) {
	ai := &failingAI{}
	g := newTestGenerator(ai)

	data, err := g.Generate(context.Background(), socialItem(model.PlatformInstagram, model.StatusJustListed), luxuryListing())
	require.NoError(t, err)

	assert.Equal(t, 1, ai.calls)
	assert.True(t, data.Generated)
	assert.Equal(t, model.SourceTemplate, data.Source)

	social := data.Payload.(model.SocialPayload)
	assert.Contains(t, social.Hashtags, "LargeHome")
	assert.Contains(t, social.Hashtags, "LuxuryHome")
	assert.Contains(t, social.Hashtags, "MillionDollarListing")
	assert.Contains(t, social.Hashtags, "JustListed")
	assert.Contains(t, social.Hashtags, "SanDiegoRealEstate")
	assert.Contains(t, social.Hashtags, "CARealEstate")
	assert.Contains(t, social.Caption, "$1,250,000")
	assert.Contains(t, social.Caption, "12 Oak St, San Diego")
}

func TestSocialFallbackOnTimeout(t *testing.T) {
	g := newTestGenerator(slowAI{})
	g.Timeout = 10 * time.Millisecond

	start := time.Now()
	data, err := g.Generate(context.Background(), socialItem(model.PlatformFacebook, model.StatusOpenHouse), luxuryListing())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, model.SourceTemplate, data.Source)
	assert.NotEmpty(t, data.Payload.(model.SocialPayload).Caption)
}

func TestSocialFallbackWithoutTextService(t *testing.T) {
	g := newTestGenerator(nil)

	data, err := g.Generate(context.Background(), socialItem(model.PlatformLinkedIn, model.StatusSold), luxuryListing())
	require.NoError(t, err)
	assert.Equal(t, model.SourceTemplate, data.Source)
}

func TestSocialAIReplyIsLimitedAndInlinedForInstagram(t *testing.T) {
	var tags []string
	for i := 0; i < 40; i++ {
		tags = append(tags, fmt.Sprintf("#tag%d", i))
	}
	ai := &stubAI{reply: &CaptionReply{Caption: "Gorgeous home on Oak St.", Hashtags: tags}}
	g := newTestGenerator(ai)

	data, err := g.Generate(context.Background(), socialItem(model.PlatformInstagram, model.StatusJustListed), luxuryListing())
	require.NoError(t, err)

	assert.Equal(t, model.SourceAI, data.Source)
	assert.Equal(t, model.PlatformInstagram, ai.last.Platform)
	assert.Equal(t, 30, ai.last.MaxHashtags)

	social := data.Payload.(model.SocialPayload)
	require.Len(t, social.Hashtags, 30)
	assert.Equal(t, "tag0", social.Hashtags[0])

	inline := make([]string, len(social.Hashtags))
	for i, h := range social.Hashtags {
		inline[i] = "#" + h
	}
	assert.True(t, strings.HasSuffix(social.Caption, strings.Join(inline, " ")))
	assert.True(t, strings.HasPrefix(social.Caption, "Gorgeous home on Oak St."))
}

func TestSocialAIReplyKeepsHashtagsSeparateOffInstagram(t *testing.T) {
	ai := &stubAI{reply: &CaptionReply{Caption: "Open house Sunday.", Hashtags: []string{"a", "b", "c", "d", "e", "f"}}}
	g := newTestGenerator(ai)

	data, err := g.Generate(context.Background(), socialItem(model.PlatformLinkedIn, model.StatusOpenHouse), luxuryListing())
	require.NoError(t, err)

	social := data.Payload.(model.SocialPayload)
	assert.Equal(t, "Open house Sunday.", social.Caption)
	assert.Len(t, social.Hashtags, 5)
}

func TestSocialEmptyAIReplyFallsBack(t *testing.T) {
	ai := &stubAI{reply: &CaptionReply{Caption: "", Hashtags: []string{"x"}}}
	g := newTestGenerator(ai)

	data, err := g.Generate(context.Background(), socialItem(model.PlatformFacebook, model.StatusPriceDrop), luxuryListing())
	require.NoError(t, err)
	assert.Equal(t, model.SourceTemplate, data.Source)
}

func TestHashtagCountNeverExceedsPlatformLimit(t *testing.T) {
	l := luxuryListing()
	for platform, limits := range platformLimits {
		for _, status := range model.ListingStatuses {
			tags := BuildHashtags(l, status, limits.MaxHashtags)
			assert.LessOrEqual(t, len(tags), limits.MaxHashtags, "%s/%s", platform, status)
		}
	}
}

func TestTwitterCaptionFitsLimit(t *testing.T) {
	l := luxuryListing()
	l.Description = strings.Repeat("Spacious and bright. ", 40)
	item := socialItem(model.PlatformTwitter, model.StatusJustListed)
	item.ContentData.Payload = model.SocialPayload{TemplateStyle: "story", TriggerStatus: model.StatusJustListed}

	data, err := newTestGenerator(nil).Generate(context.Background(), item, l)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(data.Payload.(model.SocialPayload).Caption)), 280)
}

func TestGenerateIsIdempotentOverwrite(t *testing.T) {
	g := newTestGenerator(&failingAI{})
	item := socialItem(model.PlatformInstagram, model.StatusJustListed)
	l := luxuryListing()

	first, err := g.Generate(context.Background(), item, l)
	require.NoError(t, err)

	item.ContentData = first
	second, err := g.Generate(context.Background(), item, l)
	require.NoError(t, err)

	assert.True(t, first.Generated)
	assert.True(t, second.Generated)
	assert.Equal(t, first.Payload, second.Payload)
	assert.Len(t, second.Payload.(model.SocialPayload).Hashtags, len(first.Payload.(model.SocialPayload).Hashtags))
}

func TestEmailSubjectTemplate(t *testing.T) {
	g := newTestGenerator(nil)
	item := &model.QueueItem{
		ID:          uuid.New(),
		ContentType: model.ContentEmail,
		ContentData: model.ContentData{Payload: model.EmailPayload{
			SubjectTemplate: "New in {{city}}: {{address}} at {{price}}",
			TriggerStatus:   model.StatusJustListed,
		}},
	}

	data, err := g.Generate(context.Background(), item, luxuryListing())
	require.NoError(t, err)

	email := data.Payload.(model.EmailPayload)
	assert.Equal(t, "New in San Diego: 12 Oak St at $1,250,000", email.Subject)
	assert.Contains(t, email.Body, "Price: $1,250,000")
	assert.Contains(t, email.Body, "Bedrooms: 5 | Bathrooms: 3.5 | Square Feet: 3,500")
	assert.Contains(t, email.Body, "Ocean views from every room.")
	assert.Contains(t, email.Body, callsToAction[model.StatusJustListed][0])
}

func TestEmailDefaultSubject(t *testing.T) {
	g := newTestGenerator(nil)
	item := &model.QueueItem{
		ContentType: model.ContentEmail,
		ContentData: model.ContentData{Payload: model.EmailPayload{TriggerStatus: model.StatusSold}},
	}

	data, err := g.Generate(context.Background(), item, luxuryListing())
	require.NoError(t, err)
	assert.Equal(t, "Just sold! 12 Oak St", data.Payload.(model.EmailPayload).Subject)
}

func TestSiteUpdateAndVideo(t *testing.T) {
	g := newTestGenerator(&failingAI{})
	l := luxuryListing()

	site, err := g.Generate(context.Background(), &model.QueueItem{
		ContentType: model.ContentPropertySiteUpdate,
		ContentData: model.ContentData{Payload: model.SiteUpdatePayload{NewStatus: model.StatusPriceDrop, UpdateBanner: true}},
	}, l)
	require.NoError(t, err)
	assert.Equal(t, model.SiteUpdatePayload{
		NewStatus:    model.StatusPriceDrop,
		UpdateBanner: true,
		UpdateType:   "status_change",
		NewBanner:    "Price Reduced",
	}, site.Payload)

	video, err := g.Generate(context.Background(), &model.QueueItem{
		ContentType: model.ContentVideo,
		ContentData: model.ContentData{Payload: model.VideoPayload{TriggerStatus: model.StatusSold, IncludeVoiceover: true}},
	}, l)
	require.NoError(t, err)
	script := video.Payload.(model.VideoPayload).Script
	assert.Contains(t, script, "Sold")
	assert.Contains(t, script, "12 Oak St")
}

func TestGenerateRejectsMismatchedPayload(t *testing.T) {
	g := newTestGenerator(nil)
	_, err := g.Generate(context.Background(), &model.QueueItem{
		ContentType: model.ContentEmail,
		ContentData: model.ContentData{Payload: model.VideoPayload{TriggerStatus: model.StatusSold}},
	}, luxuryListing())
	assert.Error(t, err)

	item := socialItem(model.PlatformInstagram, model.StatusSold)
	item.Platform = nil
	_, err = g.Generate(context.Background(), item, luxuryListing())
	assert.Error(t, err)
}
