package geo

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestGeocodeKeyNormalization(t *testing.T) {
	assert.Equal(t, geocodeKey("12 Main St"), geocodeKey("  12  MAIN st "))
	assert.NotEqual(t, geocodeKey("12 Main St"), geocodeKey("14 Main St"))
}

// TestRedisGeocodeCacheIntegration round-trips the cache against a real
// Redis container.
func TestRedisGeocodeCacheIntegration(t *testing.T) {
	// Skip if short test mode
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Could not start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})
	cache := NewRedisGeocodeCache(client, time.Hour)

	coords, err := cache.Get(ctx, "12 Main St, Springfield")
	require.NoError(t, err)
	assert.Nil(t, coords, "Expected a miss before anything is stored")

	require.NoError(t, cache.Set(ctx, "12 Main St, Springfield", 40.5, -74.2))

	coords, err = cache.Get(ctx, "12 Main St, Springfield")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.Equal(t, 40.5, coords.Lat)
	assert.Equal(t, -74.2, coords.Lon)

	// Different casing and spacing fold into the same entry
	coords, err = cache.Get(ctx, "  12 MAIN st,   Springfield ")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.Equal(t, 40.5, coords.Lat)
}
