package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

// CachedListingStore is a Redis read-through cache in front of a ListingStore.
// Cache failures are logged and fall through to the underlying store.
type CachedListingStore struct {
	Next   ListingStore
	Redis  *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func listingKey(id uuid.UUID) string {
	return "listing:" + id.String()
}

func (c *CachedListingStore) GetListing(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	key := listingKey(id)

	raw, err := c.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var l model.Listing
		if jerr := json.Unmarshal(raw, &l); jerr == nil {
			return &l, nil
		}
		c.Logger.Warn("discarding undecodable cached listing", zap.String("listing_id", id.String()))
	case !errors.Is(err, redis.Nil):
		c.Logger.Warn("listing cache read failed", zap.String("listing_id", id.String()), zap.Error(err))
	}

	l, err := c.Next.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, jerr := json.Marshal(l); jerr == nil {
		if serr := c.Redis.Set(ctx, key, b, c.TTL).Err(); serr != nil {
			c.Logger.Warn("listing cache write failed", zap.String("listing_id", id.String()), zap.Error(serr))
		}
	}
	return l, nil
}

func (c *CachedListingStore) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status model.ListingStatus) error {
	if err := c.Next.UpdateStatus(ctx, id, userID, status); err != nil {
		return err
	}
	if err := c.Redis.Del(ctx, listingKey(id)).Err(); err != nil {
		c.Logger.Warn("listing cache invalidation failed", zap.String("listing_id", id.String()), zap.Error(err))
	}
	return nil
}

var _ ListingStore = (*CachedListingStore)(nil)
