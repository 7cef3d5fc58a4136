package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// geocodeKeyPrefix namespaces cached lookups in Redis
const geocodeKeyPrefix = "geocode:"

// CachedCoords is one cached resolution
type CachedCoords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RedisGeocodeCache stores successful geocoder lookups so repeat submissions
// of the same address skip the external call. Only hits are cached; a miss
// is free to retry on the next submission.
type RedisGeocodeCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisGeocodeCache creates a Redis-backed geocode cache
func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{
		Client: client,
		TTL:    ttl,
	}
}

// Get retrieves the cached coordinates for an address, nil on miss
func (c *RedisGeocodeCache) Get(ctx context.Context, address string) (*CachedCoords, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	payload, err := c.Client.Get(ctx, geocodeKey(address)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get geocode entry from Redis: %w", err)
	}

	var coords CachedCoords
	if err := json.Unmarshal([]byte(payload), &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached coordinates: %w", err)
	}

	return &coords, nil
}

// Set stores resolved coordinates for an address with the configured TTL
func (c *RedisGeocodeCache) Set(ctx context.Context, address string, lat, lon float64) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	payload, err := json.Marshal(CachedCoords{Lat: lat, Lon: lon})
	if err != nil {
		return fmt.Errorf("failed to marshal coordinates: %w", err)
	}

	if err := c.Client.Set(ctx, geocodeKey(address), payload, c.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store geocode entry in Redis: %w", err)
	}

	return nil
}

// geocodeKey normalizes whitespace and case so trivially different spellings
// of the same address share an entry.
func geocodeKey(address string) string {
	return geocodeKeyPrefix + strings.ToLower(strings.Join(strings.Fields(address), " "))
}
