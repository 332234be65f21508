package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// ValidBookingStatus reports whether s is one of the four enumerated states.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID              string    `bun:"id,pk" json:"id"`
	CustomerID      string    `bun:"customer_id,notnull" json:"customer_id"`
	PhotographerID  string    `bun:"photographer_id,notnull" json:"photographer_id"`
	CategoryID      string    `bun:"category_id,nullzero" json:"category_id,omitempty"`
	Date            string    `bun:"date,notnull" json:"date"`
	StartTime       string    `bun:"start_time,notnull" json:"start_time"`
	EndTime         string    `bun:"end_time,notnull" json:"end_time"`
	Location        string    `bun:"location,nullzero" json:"location,omitempty"`
	Notes           string    `bun:"notes,nullzero" json:"notes,omitempty"`
	TotalAmount     int64     `bun:"total_amount,notnull" json:"total_amount"`
	Status          string    `bun:"status,notnull" json:"status"`
	PaymentIntentID string    `bun:"payment_intent_id,nullzero" json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type CreateBookingRequest struct {
	PhotographerID string `json:"photographer_id" validate:"required"`
	CategoryID     string `json:"category_id,omitempty"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string `json:"start_time" validate:"required"`
	EndTime        string `json:"end_time" validate:"required"`
	Location       string `json:"location,omitempty"`
	Notes          string `json:"notes,omitempty"`
	TotalAmount    int64  `json:"total_amount" validate:"required,gt=0"`
}

// CreateBookingResponse carries the persisted booking plus, when a payment
// gateway is configured, the client secret the caller needs to complete the
// charge on their side.
type CreateBookingResponse struct {
	Booking      Booking `json:"booking"`
	ClientSecret string  `json:"client_secret,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// BookingParty is the slim identity shape embedded in booking reads.
type BookingParty struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// BookingDetail is a booking joined with both parties for list/detail reads.
type BookingDetail struct {
	Booking
	Customer     *BookingParty `json:"customer,omitempty"`
	Photographer *BookingParty `json:"photographer,omitempty"`
}
