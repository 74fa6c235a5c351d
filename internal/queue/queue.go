package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Topics
const (
	// TopicCampaignContent carries ContentJob: generate a campaign's content.
	TopicCampaignContent = "campaign_content"
	// TopicItemApproved carries ItemApprovedEvent for the external dispatcher.
	TopicItemApproved = "queue_item_approved"
)

// ContentJob asks a worker to run batch content generation for a campaign.
type ContentJob struct {
	CampaignID uuid.UUID `json:"campaign_id"`
}

// ItemApprovedEvent announces released items. ItemID is nil for a bulk
// approval covering Count items of the campaign. Consumers must re-check
// the campaign status before sending anything.
type ItemApprovedEvent struct {
	CampaignID uuid.UUID  `json:"campaign_id"`
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
	Count      int        `json:"count"`
}

// Handler processes one JSON-encoded message. A returned error triggers a retry.
type Handler func(ctx context.Context, body []byte) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue delivers messages to in-process subscribers with retry.
// It is used when no broker is configured.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]Handler
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
		logger:     logger,
	}
}

// Publish encodes payload and hands it to every subscriber of topic.
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}

	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.wg.Add(1)
		go q.processJob(context.WithoutCancel(ctx), topic, handler, body)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(ctx context.Context, topic string, handler Handler, body []byte) {
	defer q.wg.Done()

	for attempt := 0; ; attempt++ {
		err := handler(ctx, body)
		if err == nil {
			return
		}
		if attempt >= q.maxRetries {
			q.logger.Error("job permanently failed",
				zap.String("topic", topic), zap.Int("attempts", attempt+1), zap.Error(err))
			return
		}
		q.logger.Warn("job failed, retrying",
			zap.String("topic", topic), zap.Int("attempt", attempt+1), zap.Error(err))
		time.Sleep(time.Duration(attempt+1) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished, retries included.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
