package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ms-events/internal/logger"
)

// Cache is the optional lookaside store for successful resolutions. Cache
// failures never fail a resolution; they degrade to a miss.
type Cache interface {
	Get(ctx context.Context, address string) (*CachedCoords, error)
	Set(ctx context.Context, address string, lat, lon float64) error
}

// Resolver turns free-form addresses into coordinates through a
// Nominatim-compatible search endpoint.
type Resolver struct {
	baseURL   string
	userAgent string
	client    *http.Client
	cache     Cache
	logger    *logger.Logger
}

// geocodeResult is one candidate from the search endpoint. The service
// returns coordinates as strings.
type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NewResolver creates a geocoding resolver. A nil cache disables caching.
func NewResolver(baseURL, userAgent string, timeout time.Duration, cache Cache) *Resolver {
	return &Resolver{
		baseURL:   baseURL,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
		cache:  cache,
		logger: logger.NewLogger(),
	}
}

// Resolve decides the coordinates for a submission. An explicit lat/lon pair
// wins without any lookup, and an empty address resolves to no coordinates.
// An address the geocoder does not know also resolves to no coordinates;
// only transport and decoding failures surface as errors. One attempt, no
// retries.
func (r *Resolver) Resolve(ctx context.Context, address string, lat, lon *float64) (*float64, *float64, error) {
	if lat != nil && lon != nil {
		return lat, lon, nil
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil, nil
	}

	if r.cache != nil {
		coords, err := r.cache.Get(ctx, address)
		if err != nil {
			r.logger.Warn("GEO", fmt.Sprintf("Geocode cache read failed: %v", err))
		} else if coords != nil {
			r.logger.LogGeocode(address, "cache hit")
			return &coords.Lat, &coords.Lon, nil
		}
	}

	resLat, resLon, err := r.lookup(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	if resLat == nil || resLon == nil {
		r.logger.LogGeocode(address, "no match")
		return nil, nil, nil
	}

	r.logger.LogGeocode(address, fmt.Sprintf("resolved to %.6f,%.6f", *resLat, *resLon))

	if r.cache != nil {
		if err := r.cache.Set(ctx, address, *resLat, *resLon); err != nil {
			r.logger.Warn("GEO", fmt.Sprintf("Geocode cache write failed: %v", err))
		}
	}

	return resLat, resLon, nil
}

// lookup performs the single external search call
func (r *Resolver) lookup(ctx context.Context, address string) (*float64, *float64, error) {
	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		r.logger.Error("GEO", fmt.Sprintf("Failed to create geocode request: %v", err))
		return nil, nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("GEO", fmt.Sprintf("Geocoder error: %v", err))
		return nil, nil, fmt.Errorf("geocoder error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			r.logger.Error("GEO", fmt.Sprintf("Failed to close geocode response body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("GEO", fmt.Sprintf("Geocoder returned status: %d", resp.StatusCode))
		return nil, nil, fmt.Errorf("geocoder returned status: %d", resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		r.logger.Error("GEO", fmt.Sprintf("Failed to decode geocode response: %v", err))
		return nil, nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if len(results) == 0 {
		return nil, nil, nil
	}

	parsedLat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("geocoder returned invalid lat %q: %w", results[0].Lat, err)
	}
	parsedLon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("geocoder returned invalid lon %q: %w", results[0].Lon, err)
	}

	return &parsedLat, &parsedLon, nil
}
