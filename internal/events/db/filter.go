package db

import (
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"ms-events/internal/utils"
)

// metersPerMile converts the public radius parameter for ST_DWithin, which
// measures geography distances in meters.
const metersPerMile = 1609.34

// FilterParams carries the raw public query parameters. Values arrive as
// strings straight from the URL; BuildFilter decides what they mean.
type FilterParams struct {
	Types     []string // every value of the type and types params, unsplit
	Date      string   // YYYY-MM-DD
	TimeOfDay string
	Lat       string
	Lng       string
	Radius    string // miles
}

// GeoFilter is a parsed proximity constraint
type GeoFilter struct {
	Lat    float64
	Lng    float64
	Meters float64
}

// Filter is the parsed, queryable form of the public listing parameters.
// From/To and After are mutually exclusive: a date request matches a window
// within that day, everything else matches only future events.
type Filter struct {
	Types []string
	From  *time.Time
	To    *time.Time
	After *time.Time
	Geo   *GeoFilter
}

// BuildFilter parses the public query parameters. A malformed date is the
// only rejection; bad coordinates or radius silently drop the proximity
// constraint and an unknown timeOfDay falls back to the whole day.
func BuildFilter(params FilterParams, now time.Time) (*Filter, error) {
	f := &Filter{
		Types: normalizeTypes(params.Types),
	}

	if strings.TrimSpace(params.Date) != "" {
		day, err := utils.ParseDateUTC(params.Date)
		if err != nil {
			return nil, err
		}
		from, to := dayWindow(day, params.TimeOfDay)
		f.From = &from
		f.To = &to
	} else {
		after := now
		f.After = &after
	}

	if geo := parseGeo(params.Lat, params.Lng, params.Radius); geo != nil {
		f.Geo = geo
	}

	return f, nil
}

// Apply attaches the filter predicates. Ordering and limits stay with the
// caller.
func (f *Filter) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	if len(f.Types) > 0 {
		q = q.Where("lower(type) IN (?)", bun.In(f.Types))
	}

	if f.From != nil && f.To != nil {
		q = q.Where("start_time BETWEEN ? AND ?", *f.From, *f.To)
	} else if f.After != nil {
		q = q.Where("start_time >= ?", *f.After)
	}

	if f.Geo != nil {
		q = q.Where("location IS NOT NULL").
			Where("ST_DWithin(location, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)",
				f.Geo.Lng, f.Geo.Lat, f.Geo.Meters)
	}

	return q
}

// normalizeTypes splits every raw value on commas, trims, lowercases, drops
// empties and de-duplicates while preserving first-seen order.
func normalizeTypes(raw []string) []string {
	seen := make(map[string]bool)
	var types []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			types = append(types, part)
		}
	}
	return types
}

// dayWindow maps a calendar day plus a time-of-day bucket onto an inclusive
// start_time window. Unrecognized buckets (and "anytime") mean the full day.
func dayWindow(day time.Time, timeOfDay string) (time.Time, time.Time) {
	switch strings.ToLower(strings.TrimSpace(timeOfDay)) {
	case "morning":
		return at(day, 5, 0, 0), at(day, 11, 59, 59)
	case "afternoon":
		return at(day, 12, 0, 0), at(day, 16, 59, 59)
	case "evening":
		return at(day, 17, 0, 0), at(day, 23, 59, 59)
	default:
		return at(day, 0, 0, 0), at(day, 23, 59, 59)
	}
}

func at(day time.Time, hour, min, sec int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, sec, 0, day.Location())
}

// parseGeo accepts the proximity constraint only when all three parameters
// parse as numbers. The radius arrives in miles.
func parseGeo(latRaw, lngRaw, radiusRaw string) *GeoFilter {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	radius, errRadius := strconv.ParseFloat(strings.TrimSpace(radiusRaw), 64)
	if errLat != nil || errLng != nil || errRadius != nil {
		return nil
	}
	return &GeoFilter{
		Lat:    lat,
		Lng:    lng,
		Meters: radius * metersPerMile,
	}
}
