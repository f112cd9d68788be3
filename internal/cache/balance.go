// Package cache provides a Redis-backed cache for computed period
// balances. The cache is an optimization only: misses and Redis outages
// fall back to recomputation, so a stale entry can never produce a wrong
// settlement (settlement creation always recomputes from the database).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const balanceTTL = 5 * time.Minute

// Balance is one member's cached position over a period
type Balance struct {
	Paid int64 `json:"paid"`
	Owed int64 `json:"owed"`
	Net  int64 `json:"net"`
}

// BalanceCache caches balance maps keyed by group and period.
// A nil client disables caching entirely.
type BalanceCache struct {
	client *redis.Client
}

// NewBalanceCache creates a balance cache backed by the given client
func NewBalanceCache(client *redis.Client) *BalanceCache {
	return &BalanceCache{client: client}
}

func balanceKey(groupID int64, from, to string) string {
	return fmt.Sprintf("balances:%d:%s:%s", groupID, from, to)
}

func groupKeyPattern(groupID int64) string {
	return fmt.Sprintf("balances:%d:*", groupID)
}

// Get returns the cached balance map for a group and period, or ok=false
// on a miss or any Redis error.
func (c *BalanceCache) Get(ctx context.Context, groupID int64, from, to string) (map[int64]*Balance, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, balanceKey(groupID, from, to)).Bytes()
	if err != nil {
		return nil, false
	}

	var balances map[int64]*Balance
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, false
	}
	return balances, true
}

// Set stores the balance map for a group and period with a short TTL
func (c *BalanceCache) Set(ctx context.Context, groupID int64, from, to string, balances map[int64]*Balance) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(balances)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, balanceKey(groupID, from, to), data, balanceTTL).Err()
}

// InvalidateGroup drops every cached period for a group. Called after
// any expense write, since a single expense can affect many periods.
func (c *BalanceCache) InvalidateGroup(ctx context.Context, groupID int64) error {
	if c == nil || c.client == nil {
		return nil
	}

	keys, err := c.client.Keys(ctx, groupKeyPattern(groupID)).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
