package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/ports/repository"
)

var _ repository.LedgerCacheRepository = (*LedgerCache)(nil)

// LedgerCache keeps place and subscriber display names warm for the
// confirmation-screen projection. Holds no business state; a Redis outage
// or flush only costs extra ledger reads.
type LedgerCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewLedgerCache(client RedisClient, ttl time.Duration) *LedgerCache {
	return &LedgerCache{client: client, ttl: ttl}
}

func placeKey(id string) string      { return fmt.Sprintf("ledger:place:%s", id) }
func subscriberKey(id string) string { return fmt.Sprintf("ledger:subscriber:%s", id) }

func (c *LedgerCache) GetPlaceName(ctx context.Context, placeID string) (*repository.DisplayName, error) {
	return c.get(ctx, placeKey(placeID))
}

func (c *LedgerCache) SetPlaceName(ctx context.Context, d *repository.DisplayName) error {
	return c.set(ctx, placeKey(d.ID), d)
}

func (c *LedgerCache) GetSubscriberName(ctx context.Context, subscriberID string) (*repository.DisplayName, error) {
	return c.get(ctx, subscriberKey(subscriberID))
}

func (c *LedgerCache) SetSubscriberName(ctx context.Context, d *repository.DisplayName) error {
	return c.set(ctx, subscriberKey(d.ID), d)
}

func (c *LedgerCache) get(ctx context.Context, key string) (*repository.DisplayName, error) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var d repository.DisplayName
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *LedgerCache) set(ctx context.Context, key string, d *repository.DisplayName) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl)
}
