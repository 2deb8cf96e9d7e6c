package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gurnoorsh/wealthwise/internal/models"
)

const (
	priceCacheKeyPrefix  = "wealthwise:price:latest"
	defaultPriceCacheTTL = 15 * time.Minute
)

// setIfNewer writes the entry unless the cached one is strictly newer, ordered
// by (observed_at, id) the same way the price store picks its latest row.
var setIfNewer = redis.NewScript(`
	local cur = redis.call('HMGET', KEYS[1], 'observed_at', 'id')
	if cur[1] then
		local curTs = tonumber(cur[1])
		local ts = tonumber(ARGV[1])
		if curTs > ts or (curTs == ts and tonumber(cur[2] or '0') > tonumber(ARGV[2])) then
			return 0
		end
	end
	redis.call('HSET', KEYS[1], 'observed_at', ARGV[1], 'id', ARGV[2], 'data', ARGV[3])
	redis.call('PEXPIRE', KEYS[1], ARGV[4])
	return 1
`)

// RedisPriceCache keeps the latest observation per instrument in a Redis hash.
// Writes never replace a newer entry, so a slow reader cannot put back a
// price that a concurrent refresh already superseded.
type RedisPriceCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisPriceCache(client redis.UniversalClient, ttl time.Duration) *RedisPriceCache {
	if ttl <= 0 {
		ttl = defaultPriceCacheTTL
	}
	return &RedisPriceCache{client: client, ttl: ttl}
}

func priceCacheKey(symbol string, class models.AssetClass) string {
	return fmt.Sprintf("%s:%s:%s", priceCacheKeyPrefix, class, models.NormalizeSymbol(symbol))
}

func (c *RedisPriceCache) Get(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	data, err := c.client.HGet(ctx, priceCacheKey(symbol, class), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached price: %w", err)
	}
	var obs models.PriceObservation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("failed to decode cached price: %w", err)
	}
	return &obs, nil
}

// Set caches obs unless a newer observation is already cached.
func (c *RedisPriceCache) Set(ctx context.Context, obs *models.PriceObservation) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to encode price: %w", err)
	}
	// microseconds stay exact in Lua's double precision numbers
	err = setIfNewer.Run(ctx, c.client,
		[]string{priceCacheKey(obs.Symbol, obs.AssetClass)},
		obs.ObservedAt.UnixMicro(), obs.ID, string(data), c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to cache price: %w", err)
	}
	return nil
}

func (c *RedisPriceCache) Invalidate(ctx context.Context, symbol string, class models.AssetClass) error {
	if err := c.client.Del(ctx, priceCacheKey(symbol, class)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached price: %w", err)
	}
	return nil
}
