package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-events/internal/models"
)

// ErrNotFound is returned when a lookup by ID matches nothing
var ErrNotFound = errors.New("event not found")

// Geography fragments. The column stores geography(Point,4326); points are
// built longitude-first and decoded back into lon/lat on every read.
const (
	pointExpr = "ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography"
	lonExpr   = "ST_X(location::geometry) AS lon"
	latExpr   = "ST_Y(location::geometry) AS lat"
)

// eventColumns lists the plain columns selected on reads; lon/lat are
// decoded separately from the geography column.
var eventColumns = []string{
	"id", "name", "type", "description", "address_name", "address",
	"start_time", "end_time", "created_at",
}

type DB struct {
	Bun *bun.DB
}

// ---------------- WRITES ----------------

// InsertEvent → insert one event row, building the geography point when both
// coordinates are present. The generated ID is written back to the model.
func (d *DB) InsertEvent(ctx context.Context, event *models.Event, lat, lon *float64) (int64, error) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	q := d.Bun.NewInsert().Model(event)
	if lat != nil && lon != nil {
		q = q.Value("location", pointExpr, *lon, *lat)
	}

	if _, err := q.Returning("id").Exec(ctx); err != nil {
		return 0, err
	}
	return event.ID, nil
}

// UpdateEvent → update the editable fields. The location column is touched
// only when a resolved pair is supplied; a failed or skipped resolution
// leaves the stored point as it was.
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event, lat, lon *float64) error {
	q := d.Bun.NewUpdate().
		Model(event).
		Column("name", "type", "description", "address_name", "address", "start_time", "end_time").
		Where("id = ?", event.ID)
	if lat != nil && lon != nil {
		q = q.Value("location", pointExpr, *lon, *lat)
	}

	_, err := q.Exec(ctx)
	return err
}

// DeleteEvent → delete by ID. Deleting a missing row is not an error.
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- READS ----------------

// GetEventByID → fetch one event with its coordinates decoded
func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Column(eventColumns...).
		ColumnExpr(lonExpr).
		ColumnExpr(latExpr).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListPublicEvents → apply the public filter, soonest first
func (d *DB) ListPublicEvents(ctx context.Context, filter *Filter, limit int) ([]models.Event, error) {
	var events []models.Event
	q := d.Bun.NewSelect().
		Model(&events).
		Column(eventColumns...).
		ColumnExpr(lonExpr).
		ColumnExpr(latExpr)
	q = filter.Apply(q)
	err := q.Order("start_time ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListRecentEvents → latest start first, for the admin listing
func (d *DB) ListRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Column(eventColumns...).
		ColumnExpr(lonExpr).
		ColumnExpr(latExpr).
		Order("start_time DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// SelectNow → round-trip the database clock for the health check
func (d *DB) SelectNow(ctx context.Context) (time.Time, error) {
	var now time.Time
	err := d.Bun.NewSelect().
		ColumnExpr("now()").
		Scan(ctx, &now)
	return now, err
}

// ---------------- AGGREGATIONS ----------------

// TypeCount is one row of the per-type breakdown
type TypeCount struct {
	Type  string `bun:"type" json:"type"`
	Count int    `bun:"count" json:"count"`
}

// CountEvents → total stored rows
func (d *DB) CountEvents(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Count(ctx)
}

// CountUpcomingEvents → rows that have not started yet
func (d *DB) CountUpcomingEvents(ctx context.Context, now time.Time) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("start_time >= ?", now).
		Count(ctx)
}

// CountEventsByType → per-type totals, largest first
func (d *DB) CountEventsByType(ctx context.Context) ([]TypeCount, error) {
	var counts []TypeCount
	err := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("lower(type) AS type").
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("lower(type)").
		OrderExpr("count DESC").
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
