package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is one stored listing instance. Recurring submissions are expanded
// into independent rows before insert, so a row never carries its recurrence
// rule. Lon/Lat are decoded from the geography column on reads and are
// either both set or both nil.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	Name        string     `bun:"name,notnull" json:"name"`
	Type        string     `bun:"type,notnull" json:"type"`
	Description string     `bun:"description,nullzero" json:"description"`
	AddressName string     `bun:"address_name,nullzero" json:"address_name"`
	Address     string     `bun:"address,nullzero" json:"address"`
	Lon         *float64   `bun:"lon,scanonly" json:"lon"`
	Lat         *float64   `bun:"lat,scanonly" json:"lat"`
	StartTime   time.Time  `bun:"start_time,notnull" json:"start_time"`
	EndTime     *time.Time `bun:"end_time" json:"end_time"`
	CreatedAt   time.Time  `bun:"created_at,notnull" json:"-"`
}

// EventInput is the submission shape shared by the admin create/update
// endpoints and the CSV importer. Timestamps stay strings until validation.
type EventInput struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Description     string   `json:"description"`
	AddressName     string   `json:"address_name"`
	Address         string   `json:"address"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	Recurrence      string   `json:"recurrence"`
	RecurrenceUntil string   `json:"recurrence_until"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
}
