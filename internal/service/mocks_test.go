package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/listing-campaigns/internal/errors"
	"github.com/unclebandit/listing-campaigns/internal/model"
	"github.com/unclebandit/listing-campaigns/internal/queue"
)

// Mock repositories

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*model.Campaign
	order     []uuid.UUID
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{campaigns: map[uuid.UUID]*model.Campaign{}}
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	m.order = append(m.order, c.ID)
	return nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.CampaignStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (m *MockCampaignRepo) SetTotalItems(ctx context.Context, id uuid.UUID, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.campaigns[id]; ok {
		c.TotalItems = total
	}
	return nil
}

func (m *MockCampaignRepo) ListCampaigns(ctx context.Context, userID uuid.UUID, filter model.CampaignFilter, offset, limit int) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.Campaign
	// newest first
	for i := len(m.order) - 1; i >= 0; i-- {
		c := m.campaigns[m.order[i]]
		if c.UserID != userID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.TriggerStatus != "" && c.TriggerStatus != filter.TriggerStatus {
			continue
		}
		if filter.ListingID != nil && c.ListingID != *filter.ListingID {
			continue
		}
		all = append(all, c)
	}
	if offset >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *MockCampaignRepo) ListOpen(ctx context.Context, userID, listingID uuid.UUID, status model.ListingStatus) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Campaign
	for _, id := range m.order {
		c := m.campaigns[id]
		if c.UserID == userID && c.ListingID == listingID && c.TriggerStatus == status && c.Status != model.CampaignCancelled {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockCampaignRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.campaigns)
}

func (m *MockCampaignRepo) Status(id uuid.UUID) model.CampaignStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.campaigns[id].Status
}

type MockItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.QueueItem
	// failUpdate makes UpdateContent fail for these ids
	failUpdate map[uuid.UUID]bool
	updates    int
}

func NewMockItemRepo() *MockItemRepo {
	return &MockItemRepo{items: map[uuid.UUID]*model.QueueItem{}, failUpdate: map[uuid.UUID]bool{}}
}

func (m *MockItemRepo) CreateBatch(ctx context.Context, items []*model.QueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.Position = i
		cp := *it
		m.items[it.ID] = &cp
	}
	return nil
}

func (m *MockItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, appErrors.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *MockItemRepo) list(match func(*model.QueueItem) bool) []*model.QueueItem {
	out := []*model.QueueItem{}
	for _, it := range m.items {
		if match(it) {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (m *MockItemRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(it *model.QueueItem) bool { return it.CampaignID == campaignID }), nil
}

func (m *MockItemRepo) ListUngenerated(ctx context.Context, campaignID uuid.UUID) ([]*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(it *model.QueueItem) bool {
		return it.CampaignID == campaignID && it.Status != model.ItemSkipped && !it.ContentData.Generated
	}), nil
}

func (m *MockItemRepo) UpdateContent(ctx context.Context, id uuid.UUID, data model.ContentData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate[id] {
		return errors.New("connection reset by peer")
	}
	it, ok := m.items[id]
	if !ok {
		return appErrors.ErrItemNotFound
	}
	it.ContentData = data
	m.updates++
	return nil
}

func (m *MockItemRepo) Approve(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.UserID != userID || it.Status != model.ItemPending {
		return false, nil
	}
	it.Status = model.ItemApproved
	it.ApprovedAt = &at
	it.ApprovedBy = &userID
	return true, nil
}

func (m *MockItemRepo) ApproveAll(ctx context.Context, campaignID, userID uuid.UUID, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.CampaignID == campaignID && it.UserID == userID && it.Status == model.ItemPending {
			it.Status = model.ItemApproved
			it.ApprovedAt = &at
			it.ApprovedBy = &userID
			n++
		}
	}
	return n, nil
}

func (m *MockItemRepo) Skip(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.UserID != userID || it.Status.Terminal() {
		return false, nil
	}
	it.Status = model.ItemSkipped
	return true, nil
}

func (m *MockItemRepo) SkipOpenByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.CampaignID == campaignID && !it.Status.Terminal() {
			it.Status = model.ItemSkipped
			n++
		}
	}
	return n, nil
}

func (m *MockItemRepo) CountByStatus(ctx context.Context, campaignID uuid.UUID) (map[model.ItemStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := map[model.ItemStatus]int{model.ItemPending: 0, model.ItemApproved: 0, model.ItemSkipped: 0}
	for _, it := range m.items {
		if it.CampaignID == campaignID {
			stats[it.Status]++
		}
	}
	return stats, nil
}

func (m *MockItemRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type MockHistoryRepo struct {
	mu      sync.Mutex
	entries []*model.HistoryEntry
}

func (m *MockHistoryRepo) Append(ctx context.Context, e *model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *MockHistoryRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]*model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.HistoryEntry
	for _, e := range m.entries {
		if e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

type MockTriggerRepo struct {
	triggers map[string]*model.Trigger
}

func triggerKey(userID uuid.UUID, status model.ListingStatus) string {
	return fmt.Sprintf("%s/%s", userID, status)
}

func (m *MockTriggerRepo) Upsert(ctx context.Context, t *model.Trigger) error {
	key := triggerKey(t.UserID, t.TriggerStatus)
	if old, ok := m.triggers[key]; ok {
		t.ID = old.ID
	} else if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	m.triggers[key] = &cp
	return nil
}

func (m *MockTriggerRepo) GetActive(ctx context.Context, userID uuid.UUID, status model.ListingStatus) (*model.Trigger, error) {
	t, ok := m.triggers[triggerKey(userID, status)]
	if !ok || !t.IsActive {
		return nil, nil
	}
	return t, nil
}

type MockTemplateRepo struct {
	templates map[uuid.UUID]*model.Template
}

func (m *MockTemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	return m.templates[id], nil
}

func (m *MockTemplateRepo) GetDefault(ctx context.Context, status model.ListingStatus) (*model.Template, error) {
	for _, t := range m.templates {
		if t.IsDefault && t.TriggerStatus == status {
			return t, nil
		}
	}
	return nil, nil
}

type MockListingRepo struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*model.Listing
}

func (m *MockListingRepo) GetListing(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, appErrors.ErrListingNotFound)
	}
	cp := *l
	return &cp, nil
}

func (m *MockListingRepo) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status model.ListingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return appErrors.ErrListingNotFound
	}
	if l.UserID != userID {
		return appErrors.ErrForbidden
	}
	l.Status = status
	return nil
}

// MockTx runs fn inline.
type MockTx struct{ calls int }

func (m *MockTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type published struct {
	Topic   string
	Payload any
}

type MockQueue struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (q *MockQueue) Publish(ctx context.Context, topic string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, published{Topic: topic, Payload: payload})
	return nil
}

func (q *MockQueue) Subscribe(topic string, handler queue.Handler) error { return nil }

func (q *MockQueue) Topics() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []string
	for _, m := range q.messages {
		out = append(out, m.Topic)
	}
	return out
}
