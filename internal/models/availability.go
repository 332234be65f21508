package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AvailabilitySlot is a single offerable time window for one photographer.
// Dates are ISO calendar dates ("2006-01-02") and times are "HH:MM" strings
// compared exactly, never parsed into durations. The four slot fields carry a
// unique index so the same window cannot be offered twice.
type AvailabilitySlot struct {
	bun.BaseModel `bun:"table:availability_slots"`

	ID             string    `bun:"id,pk" json:"id"`
	PhotographerID string    `bun:"photographer_id,notnull" json:"photographer_id"`
	Date           string    `bun:"date,notnull" json:"date"`
	StartTime      string    `bun:"start_time,notnull" json:"start_time"`
	EndTime        string    `bun:"end_time,notnull" json:"end_time"`
	IsBooked       bool      `bun:"is_booked,notnull,default:false" json:"is_booked"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

type AddSlotRequest struct {
	// PhotographerID comes from the URL, not the body.
	PhotographerID string `json:"-"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
}
