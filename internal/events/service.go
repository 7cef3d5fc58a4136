package events

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-events/internal/events/db"
	"ms-events/internal/importer"
	"ms-events/internal/models"
	"ms-events/internal/recurrence"
	"ms-events/internal/utils"
)

const (
	// PublicListLimit caps the public listing
	PublicListLimit = 200
	// AdminListLimit caps the admin listing
	AdminListLimit = 500
)

type DBLayer interface {
	InsertEvent(ctx context.Context, event *models.Event, lat, lon *float64) (int64, error)
	UpdateEvent(ctx context.Context, event *models.Event, lat, lon *float64) error
	DeleteEvent(ctx context.Context, id int64) error
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	ListPublicEvents(ctx context.Context, filter *db.Filter, limit int) ([]models.Event, error)
	ListRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	SelectNow(ctx context.Context) (time.Time, error)
	CountEvents(ctx context.Context) (int, error)
	CountUpcomingEvents(ctx context.Context, now time.Time) (int, error)
	CountEventsByType(ctx context.Context) ([]db.TypeCount, error)
}

type GeoResolver interface {
	Resolve(ctx context.Context, address string, lat, lon *float64) (*float64, *float64, error)
}

type KafkaPublisher interface {
	PublishEventCreated(event models.Event) error
	PublishEventUpdated(event models.Event) error
	PublishEventDeleted(id int64) error
	PublishImportCompleted(batchID string, inserted int) error
}

// ValidationError marks a rejected submission. Its message is safe to return
// to the caller; every other error stays opaque.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type EventService struct {
	DB    DBLayer
	Geo   GeoResolver
	Kafka KafkaPublisher
}

func NewEventService(db DBLayer, geo GeoResolver, kafka KafkaPublisher) *EventService {
	return &EventService{DB: db, Geo: geo, Kafka: kafka}
}

// eventFields is a parsed, validated submission
type eventFields struct {
	name        string
	eventType   string
	description string
	addressName string
	address     string
	start       time.Time
	end         *time.Time
	mode        recurrence.Mode
	until       *time.Time
	lat         *float64
	lon         *float64
}

func parseInput(input models.EventInput) (*eventFields, error) {
	fields := &eventFields{
		name:        strings.TrimSpace(input.Name),
		eventType:   strings.TrimSpace(input.Type),
		description: strings.TrimSpace(input.Description),
		addressName: strings.TrimSpace(input.AddressName),
		address:     strings.TrimSpace(input.Address),
		lat:         input.Lat,
		lon:         input.Lon,
	}

	var missing []string
	if fields.name == "" {
		missing = append(missing, "name")
	}
	if fields.eventType == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(input.StartTime) == "" {
		missing = append(missing, "start_time")
	}
	if len(missing) > 0 {
		return nil, validationErrorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	start, err := utils.ParseTimestamp(input.StartTime)
	if err != nil {
		return nil, validationErrorf("invalid start_time: %v", err)
	}
	fields.start = start

	if strings.TrimSpace(input.EndTime) != "" {
		end, err := utils.ParseTimestamp(input.EndTime)
		if err != nil {
			return nil, validationErrorf("invalid end_time: %v", err)
		}
		fields.end = &end
	}

	mode, err := recurrence.ParseMode(input.Recurrence)
	if err != nil {
		return nil, validationErrorf("invalid recurrence: %v", err)
	}
	fields.mode = mode

	if strings.TrimSpace(input.RecurrenceUntil) != "" {
		until, err := utils.ParseTimestamp(input.RecurrenceUntil)
		if err != nil {
			return nil, validationErrorf("invalid recurrence_until: %v", err)
		}
		fields.until = &until
	}

	return fields, nil
}

func (f *eventFields) toModel(inst recurrence.Instance) *models.Event {
	return &models.Event{
		Name:        f.name,
		Type:        f.eventType,
		Description: f.description,
		AddressName: f.addressName,
		Address:     f.address,
		StartTime:   inst.Start,
		EndTime:     inst.End,
	}
}

// ---------------- PUBLIC ----------------

// ListPublic returns upcoming events matching the query parameters, soonest
// first, capped at PublicListLimit.
func (s *EventService) ListPublic(ctx context.Context, params db.FilterParams) ([]models.Event, error) {
	filter, err := db.BuildFilter(params, time.Now().UTC())
	if err != nil {
		return nil, validationErrorf("invalid date: %v", err)
	}

	events, err := s.DB.ListPublicEvents(ctx, filter, PublicListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// Health round-trips the database clock
func (s *EventService) Health(ctx context.Context) (time.Time, error) {
	return s.DB.SelectNow(ctx)
}

// ---------------- ADMIN ----------------

// ListAdmin returns the most recently created events, newest first
func (s *EventService) ListAdmin(ctx context.Context) ([]models.Event, error) {
	events, err := s.DB.ListRecentEvents(ctx, AdminListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// Create validates a submission, resolves its coordinates once, expands the
// recurrence rule and inserts one row per instance. Inserts are sequential;
// a failure mid-batch keeps the rows already stored.
func (s *EventService) Create(ctx context.Context, input models.EventInput) ([]int64, error) {
	fields, err := parseInput(input)
	if err != nil {
		return nil, err
	}

	lat, lon, err := s.Geo.Resolve(ctx, fields.address, fields.lat, fields.lon)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve coordinates: %w", err)
	}

	instances := recurrence.Expand(fields.start, fields.end, fields.mode, fields.until)

	batchID := uuid.New().String()
	fmt.Printf("Creating event batch %s: %d instance(s) of %q\n", batchID, len(instances), fields.name)

	ids := make([]int64, 0, len(instances))
	for _, inst := range instances {
		event := fields.toModel(inst)
		id, err := s.DB.InsertEvent(ctx, event, lat, lon)
		if err != nil {
			return nil, fmt.Errorf("failed to insert event: %w", err)
		}
		ids = append(ids, id)

		event.Lat = lat
		event.Lon = lon
		if err := s.Kafka.PublishEventCreated(*event); err != nil {
			fmt.Printf("Kafka publish error (event created): %v\n", err)
		}
	}

	return ids, nil
}

// Update rewrites one stored row. Coordinates are re-resolved with the same
// precedence as creation; when nothing resolves, the stored location is left
// alone. Recurrence fields are accepted but never re-expanded; instances are
// independent once created.
func (s *EventService) Update(ctx context.Context, id int64, input models.EventInput) error {
	fields, err := parseInput(input)
	if err != nil {
		return err
	}

	lat, lon, err := s.Geo.Resolve(ctx, fields.address, fields.lat, fields.lon)
	if err != nil {
		return fmt.Errorf("failed to resolve coordinates: %w", err)
	}

	event := fields.toModel(recurrence.Instance{Start: fields.start, End: fields.end})
	event.ID = id

	if err := s.DB.UpdateEvent(ctx, event, lat, lon); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	event.Lat = lat
	event.Lon = lon
	if err := s.Kafka.PublishEventUpdated(*event); err != nil {
		fmt.Printf("Kafka publish error (event updated): %v\n", err)
	}

	return nil
}

// Delete removes one row. Deleting an absent row succeeds; deletion is
// declarative.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if err := s.Kafka.PublishEventDeleted(id); err != nil {
		fmt.Printf("Kafka publish error (event deleted): %v\n", err)
	}

	return nil
}

// Duplicate inserts a carbon copy of a stored event under a fresh ID. The
// source coordinates are carried over as-is, never re-resolved.
func (s *EventService) Duplicate(ctx context.Context, id int64) (int64, error) {
	source, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return 0, err
	}

	dup := *source
	dup.ID = 0
	dup.CreatedAt = time.Time{}

	newID, err := s.DB.InsertEvent(ctx, &dup, source.Lat, source.Lon)
	if err != nil {
		return 0, fmt.Errorf("failed to insert duplicate: %w", err)
	}

	dup.Lat = source.Lat
	dup.Lon = source.Lon
	if err := s.Kafka.PublishEventCreated(dup); err != nil {
		fmt.Printf("Kafka publish error (event created): %v\n", err)
	}

	return newID, nil
}

// Import ingests a CSV batch. The whole file is parsed and validated before
// any insert, so malformed rows reject the batch up front; once inserting
// starts, a storage failure aborts the rest but keeps what was stored.
func (s *EventService) Import(ctx context.Context, r io.Reader) (int, error) {
	inputs, err := importer.ParseEvents(r)
	if err != nil {
		return 0, validationErrorf("%v", err)
	}

	parsed := make([]*eventFields, 0, len(inputs))
	for i, input := range inputs {
		fields, err := parseInput(input)
		if err != nil {
			return 0, validationErrorf("row %d: %v", i+1, err)
		}
		parsed = append(parsed, fields)
	}

	batchID := uuid.New().String()
	fmt.Printf("Importing batch %s: %d row(s)\n", batchID, len(parsed))

	inserted := 0
	for _, fields := range parsed {
		lat, lon, err := s.Geo.Resolve(ctx, fields.address, fields.lat, fields.lon)
		if err != nil {
			return inserted, fmt.Errorf("failed to resolve coordinates: %w", err)
		}

		for _, inst := range recurrence.Expand(fields.start, fields.end, fields.mode, fields.until) {
			event := fields.toModel(inst)
			if _, err := s.DB.InsertEvent(ctx, event, lat, lon); err != nil {
				return inserted, fmt.Errorf("failed to insert event: %w", err)
			}
			inserted++

			event.Lat = lat
			event.Lon = lon
			if err := s.Kafka.PublishEventCreated(*event); err != nil {
				fmt.Printf("Kafka publish error (event created): %v\n", err)
			}
		}
	}

	if err := s.Kafka.PublishImportCompleted(batchID, inserted); err != nil {
		fmt.Printf("Kafka publish error (import completed): %v\n", err)
	}

	return inserted, nil
}

// ---------------- AGGREGATIONS ----------------

// Stats is the admin dashboard summary
type Stats struct {
	Total    int            `json:"total"`
	Upcoming int            `json:"upcoming"`
	ByType   []db.TypeCount `json:"by_type"`
}

func (s *EventService) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.DB.CountEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	upcoming, err := s.DB.CountUpcomingEvents(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count upcoming events: %w", err)
	}

	byType, err := s.DB.CountEventsByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events by type: %w", err)
	}
	if byType == nil {
		byType = []db.TypeCount{}
	}

	return &Stats{Total: total, Upcoming: upcoming, ByType: byType}, nil
}
