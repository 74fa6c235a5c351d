package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/listing-campaigns/internal/errors"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/queue"
	"github.com/unclebandit/listing-campaigns/internal/service"
)

func newApprovalEnv(t *testing.T) (*env, *service.ApprovalService, uuid.UUID, []*model.QueueItem) {
	t.Helper()
	e := newEnv()
	ctx := context.Background()

	res, err := e.svc.CreateCampaign(ctx, e.userID, e.listingID, model.StatusJustListed, nil)
	require.NoError(t, err)
	items, err := e.items.ListByCampaign(ctx, *res.CampaignID)
	require.NoError(t, err)

	e.queue.messages = nil
	svc := &service.ApprovalService{
		CampaignRepo: e.campaigns,
		ItemRepo:     e.items,
		Queue:        e.queue,
		Logger:       zap.NewNop(),
		Now:          func() time.Time { return fixedNow },
	}
	return e, svc, *res.CampaignID, items
}

func TestApproveItem(t *testing.T) {
	e, svc, campaignID, items := newApprovalEnv(t)
	ctx := context.Background()

	item, err := svc.ApproveItem(ctx, e.userID, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemApproved, item.Status)
	assert.Equal(t, fixedNow, *item.ApprovedAt)
	assert.Equal(t, e.userID, *item.ApprovedBy)

	stored, _ := e.items.GetByID(ctx, items[0].ID)
	assert.Equal(t, model.ItemApproved, stored.Status)

	require.Len(t, e.queue.messages, 1)
	assert.Equal(t, queue.TopicItemApproved, e.queue.messages[0].Topic)
	ev := e.queue.messages[0].Payload.(queue.ItemApprovedEvent)
	assert.Equal(t, campaignID, ev.CampaignID)
	assert.Equal(t, items[0].ID, *ev.ItemID)

	_, err = svc.ApproveItem(ctx, e.userID, items[0].ID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestApproveItemRejectsOtherUser(t *testing.T) {
	e, svc, _, items := newApprovalEnv(t)
	ctx := context.Background()

	_, err := svc.ApproveItem(ctx, uuid.New(), items[0].ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	stored, _ := e.items.GetByID(ctx, items[0].ID)
	assert.Equal(t, model.ItemPending, stored.Status)
	assert.Nil(t, stored.ApprovedAt)
	assert.Empty(t, e.queue.messages)

	_, err = svc.SkipItem(ctx, uuid.New(), items[0].ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.ApproveAll(ctx, uuid.New(), items[0].CampaignID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.ApproveItem(ctx, e.userID, uuid.New())
	assert.ErrorIs(t, err, appErrors.ErrItemNotFound)
}

func TestApproveAllCountsOnlyPending(t *testing.T) {
	e, svc, campaignID, items := newApprovalEnv(t)
	ctx := context.Background()

	_, err := svc.SkipItem(ctx, e.userID, items[1].ID)
	require.NoError(t, err)

	n, err := svc.ApproveAll(ctx, e.userID, campaignID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = svc.ApproveAll(ctx, e.userID, campaignID)
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, _ := e.items.CountByStatus(ctx, campaignID)
	assert.Equal(t, 4, stats[model.ItemApproved])
	assert.Equal(t, 1, stats[model.ItemSkipped])
	assert.Len(t, e.queue.messages, 1)
}

func TestSkipItemTransitions(t *testing.T) {
	e, svc, _, items := newApprovalEnv(t)
	ctx := context.Background()

	_, err := svc.ApproveItem(ctx, e.userID, items[0].ID)
	require.NoError(t, err)

	item, err := svc.SkipItem(ctx, e.userID, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemSkipped, item.Status)

	_, err = svc.SkipItem(ctx, e.userID, items[0].ID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = svc.ApproveItem(ctx, e.userID, items[0].ID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestApprovalRefusedInCancelledCampaign(t *testing.T) {
	e, svc, campaignID, items := newApprovalEnv(t)
	ctx := context.Background()

	ok, err := e.campaigns.TransitionStatus(ctx, campaignID, model.CampaignActive, model.CampaignCancelled)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.ApproveItem(ctx, e.userID, items[0].ID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = svc.ApproveAll(ctx, e.userID, campaignID)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	stats, _ := e.items.CountByStatus(ctx, campaignID)
	assert.Zero(t, stats[model.ItemApproved])
}

func TestApprovalAllowedWhilePaused(t *testing.T) {
	e, svc, campaignID, items := newApprovalEnv(t)
	ctx := context.Background()

	_, err := e.svc.Pause(ctx, e.userID, campaignID)
	require.NoError(t, err)

	_, err = svc.ApproveItem(ctx, e.userID, items[0].ID)
	assert.NoError(t, err)
}
