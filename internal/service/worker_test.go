package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/content"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/service"
)

// countingGenerator marks items generated and can fail chosen ones.
type countingGenerator struct {
	calls  atomic.Int32
	failOn map[uuid.UUID]bool
	// onCall runs before each generation
	onCall func()
}

func (g *countingGenerator) Generate(ctx context.Context, item *model.QueueItem, listing *model.Listing) (model.ContentData, error) {
	g.calls.Add(1)
	if g.onCall != nil {
		g.onCall()
	}
	if g.failOn[item.ID] {
		return model.ContentData{}, errors.New("boom")
	}
	now := fixedNow
	return model.ContentData{Generated: true, GeneratedAt: &now, Source: model.SourceTemplate, Payload: item.ContentData.Payload}, nil
}

func newProcessor(e *env, gen service.ContentGenerator, workers int) *service.ContentProcessor {
	return &service.ContentProcessor{
		CampaignRepo: e.campaigns,
		ItemRepo:     e.items,
		Listings:     e.listings,
		Generator:    gen,
		Workers:      workers,
		Logger:       zap.NewNop(),
	}
}

func createCampaign(t *testing.T, e *env) (uuid.UUID, []*model.QueueItem) {
	t.Helper()
	res, err := e.svc.CreateCampaign(context.Background(), e.userID, e.listingID, model.StatusJustListed, nil)
	require.NoError(t, err)
	items, err := e.items.ListByCampaign(context.Background(), *res.CampaignID)
	require.NoError(t, err)
	return *res.CampaignID, items
}

func TestProcessCampaignContentIsolatesFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	e := newEnv()
	campaignID, items := createCampaign(t, e)
	e.items.failUpdate[items[1].ID] = true

	res, err := newProcessor(e, &countingGenerator{}, 2).ProcessCampaignContent(context.Background(), campaignID)
	require.NoError(t, err)
	assert.Equal(t, service.ProcessResult{Processed: 4, Errors: 1}, *res)

	// a rerun only touches what is left
	delete(e.items.failUpdate, items[1].ID)
	gen := &countingGenerator{}
	res, err = newProcessor(e, gen, 2).ProcessCampaignContent(context.Background(), campaignID)
	require.NoError(t, err)
	assert.Equal(t, service.ProcessResult{Processed: 1}, *res)
	assert.EqualValues(t, 1, gen.calls.Load())

	res, err = newProcessor(e, gen, 2).ProcessCampaignContent(context.Background(), campaignID)
	require.NoError(t, err)
	assert.Equal(t, service.ProcessResult{}, *res)
}

func TestProcessCampaignContentGeneratorErrorsAreCounted(t *testing.T) {
	e := newEnv()
	campaignID, items := createCampaign(t, e)
	gen := &countingGenerator{failOn: map[uuid.UUID]bool{items[0].ID: true, items[3].ID: true}}

	res, err := newProcessor(e, gen, 4).ProcessCampaignContent(context.Background(), campaignID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 2, res.Errors)
}

func TestProcessCampaignContentSkipsCancelledCampaign(t *testing.T) {
	e := newEnv()
	campaignID, _ := createCampaign(t, e)
	_, err := e.svc.Cancel(context.Background(), e.userID, campaignID)
	require.NoError(t, err)

	gen := &countingGenerator{}
	res, err := newProcessor(e, gen, 4).ProcessCampaignContent(context.Background(), campaignID)
	require.NoError(t, err)
	assert.Equal(t, service.ProcessResult{}, *res)
	assert.Zero(t, gen.calls.Load())
}

func TestProcessCampaignContentStopsStartingWorkAfterCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	e := newEnv()
	campaignID, _ := createCampaign(t, e)

	var once sync.Once
	gen := &countingGenerator{onCall: func() {
		once.Do(func() {
			_, err := e.svc.Cancel(context.Background(), e.userID, campaignID)
			assert.NoError(t, err)
		})
	}}

	res, err := newProcessor(e, gen, 1).ProcessCampaignContent(context.Background(), campaignID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gen.calls.Load())
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 4, res.Skipped)
}

func TestProcessCampaignContentWithRealGenerator(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	e := newEnv()
	campaignID, _ := createCampaign(t, e)
	gen := content.NewGenerator(nil, content.NewRand(7), time.Second, zap.NewNop())

	res, err := newProcessor(e, gen, 3).ProcessCampaignContent(context.Background(), campaignID)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Processed)

	items, _ := e.items.ListByCampaign(context.Background(), campaignID)
	for _, it := range items {
		assert.True(t, it.ContentData.Generated)
		assert.Equal(t, model.SourceTemplate, it.ContentData.Source)
	}
	social := items[0].ContentData.Payload.(model.SocialPayload)
	assert.Contains(t, social.Caption, "#JustListed")
	assert.Equal(t, "Just Listed", items[4].ContentData.Payload.(model.SiteUpdatePayload).NewBanner)
}

func TestProcessCampaignContentUnknownCampaign(t *testing.T) {
	e := newEnv()
	_, err := newProcessor(e, &countingGenerator{}, 1).ProcessCampaignContent(context.Background(), uuid.New())
	assert.Error(t, err)
}
