package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	entries      map[string]CachedCoords
	sets         int
	shouldFailOn string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]CachedCoords)}
}

func (c *fakeCache) Get(ctx context.Context, address string) (*CachedCoords, error) {
	if c.shouldFailOn == "Get" {
		return nil, errors.New("cache down")
	}
	coords, ok := c.entries[address]
	if !ok {
		return nil, nil
	}
	return &coords, nil
}

func (c *fakeCache) Set(ctx context.Context, address string, lat, lon float64) error {
	if c.shouldFailOn == "Set" {
		return errors.New("cache down")
	}
	c.entries[address] = CachedCoords{Lat: lat, Lon: lon}
	c.sets++
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func TestResolveExplicitPairSkipsLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("geocoder should not be called when both coordinates are explicit")
	}))
	defer server.Close()

	r := NewResolver(server.URL, "test-agent", time.Second, nil)

	lat, lon, err := r.Resolve(context.Background(), "10 Main St", floatPtr(40.5), floatPtr(-74.2))
	require.NoError(t, err)
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, 40.5, *lat)
	assert.Equal(t, -74.2, *lon)
}

func TestResolveEmptyAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("geocoder should not be called for an empty address")
	}))
	defer server.Close()

	r := NewResolver(server.URL, "test-agent", time.Second, nil)

	lat, lon, err := r.Resolve(context.Background(), "   ", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, lat)
	assert.Nil(t, lon)
}

func TestResolveParsesFirstCandidate(t *testing.T) {
	var gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `[{"lat":"40.712800","lon":"-74.006000"},{"lat":"1.0","lon":"2.0"}]`)
	}))
	defer server.Close()

	r := NewResolver(server.URL, "test-agent", time.Second, nil)

	lat, lon, err := r.Resolve(context.Background(), "New York", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, 40.7128, *lat)
	assert.Equal(t, -74.006, *lon)
	assert.Equal(t, "New York", gotQuery)
	assert.Equal(t, "test-agent", gotAgent)
}

func TestResolvePartialPairStillLooksUp(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		fmt.Fprint(w, `[{"lat":"51.5","lon":"-0.12"}]`)
	}))
	defer server.Close()

	r := NewResolver(server.URL, "test-agent", time.Second, nil)

	lat, lon, err := r.Resolve(context.Background(), "London", floatPtr(51.0), nil)
	require.NoError(t, err)
	assert.True(t, called)
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, 51.5, *lat)
}

func TestResolveNoMatchIsSilent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	cache := newFakeCache()
	r := NewResolver(server.URL, "test-agent", time.Second, cache)

	lat, lon, err := r.Resolve(context.Background(), "Nowhere Special", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, lat)
	assert.Nil(t, lon)
	assert.Zero(t, cache.sets, "misses must not be cached")
}

func TestResolveServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewResolver(server.URL, "test-agent", time.Second, nil)

	_, _, err := r.Resolve(context.Background(), "Somewhere", nil, nil)
	assert.Error(t, err)
}

func TestResolveTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	r := NewResolver(server.URL, "test-agent", time.Second, nil)

	_, _, err := r.Resolve(context.Background(), "Somewhere", nil, nil)
	assert.Error(t, err)
}

func TestResolveCacheHitSkipsLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("geocoder should not be called on a cache hit")
	}))
	defer server.Close()

	cache := newFakeCache()
	cache.entries["Boston"] = CachedCoords{Lat: 42.36, Lon: -71.06}
	r := NewResolver(server.URL, "test-agent", time.Second, cache)

	lat, lon, err := r.Resolve(context.Background(), "Boston", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, 42.36, *lat)
	assert.Equal(t, -71.06, *lon)
}

func TestResolveStoresSuccessInCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"lat":"48.8566","lon":"2.3522"}]`)
	}))
	defer server.Close()

	cache := newFakeCache()
	r := NewResolver(server.URL, "test-agent", time.Second, cache)

	_, _, err := r.Resolve(context.Background(), "Paris", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, CachedCoords{Lat: 48.8566, Lon: 2.3522}, cache.entries["Paris"])
}

func TestResolveCacheFailureDegradesToMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"lat":"35.68","lon":"139.69"}]`)
	}))
	defer server.Close()

	cache := newFakeCache()
	cache.shouldFailOn = "Get"
	r := NewResolver(server.URL, "test-agent", time.Second, cache)

	lat, lon, err := r.Resolve(context.Background(), "Tokyo", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.Equal(t, 35.68, *lat)
	assert.Equal(t, 139.69, *lon)
}
