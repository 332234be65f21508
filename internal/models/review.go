package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Review is one-to-one with a completed booking; the unique index on
// booking_id backs the at-most-one invariant even under concurrent submits.
type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ID             string    `bun:"id,pk" json:"id"`
	BookingID      string    `bun:"booking_id,unique,notnull" json:"booking_id"`
	CustomerID     string    `bun:"customer_id,notnull" json:"customer_id"`
	PhotographerID string    `bun:"photographer_id,notnull" json:"photographer_id"`
	Rating         int       `bun:"rating,notnull" json:"rating"`
	Comment        string    `bun:"comment,nullzero" json:"comment,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

type CreateReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty"`
}

// ReviewWithCustomer is the public read shape for a photographer's review list.
type ReviewWithCustomer struct {
	Review
	CustomerName string `json:"customer_name"`
}
