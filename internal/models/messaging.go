package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Message is an append-only entry in a per-booking conversation. The receiver
// is always derived server-side as the other participant on the booking.
type Message struct {
	bun.BaseModel `bun:"table:messages"`

	ID         string    `bun:"id,pk" json:"id"`
	BookingID  string    `bun:"booking_id,notnull" json:"booking_id"`
	SenderID   string    `bun:"sender_id,notnull" json:"sender_id"`
	ReceiverID string    `bun:"receiver_id,notnull" json:"receiver_id"`
	Content    string    `bun:"content,notnull" json:"content"`
	Read       bool      `bun:"read,notnull,default:false" json:"read"`
	SentAt     time.Time `bun:"sent_at,notnull" json:"sent_at"`
}

type PostMessageRequest struct {
	// BookingID comes from the URL, not the body.
	BookingID string `json:"-"`
	Content   string `json:"content" validate:"required"`
}

type Deliverable struct {
	bun.BaseModel `bun:"table:deliverables"`

	ID          string    `bun:"id,pk" json:"id"`
	BookingID   string    `bun:"booking_id,notnull" json:"booking_id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,nullzero" json:"description,omitempty"`
	FileURL     string    `bun:"file_url,notnull" json:"file_url"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

type AddDeliverableRequest struct {
	// BookingID comes from the URL, not the body.
	BookingID   string `json:"-"`
	Title       string `json:"title" validate:"required"`
	FileURL     string `json:"file_url" validate:"required,url"`
	Description string `json:"description,omitempty"`
}
