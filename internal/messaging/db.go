package messaging

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"lensbook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// InsertMessage → append one message to a booking conversation
func (d *DB) InsertMessage(ctx context.Context, msg models.Message) error {
	_, err := d.Bun.NewInsert().Model(&msg).Exec(ctx)
	return err
}

// ListByBooking → full conversation for a booking, oldest first
func (d *DB) ListByBooking(ctx context.Context, bookingID string) ([]models.Message, error) {
	var msgs []models.Message
	err := d.Bun.NewSelect().
		Model(&msgs).
		Where("booking_id = ?", bookingID).
		Order("sent_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// MarkRead → flag everything addressed to the reader as read
func (d *DB) MarkRead(ctx context.Context, bookingID, readerID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Message)(nil)).
		Set("read = ?", true).
		Where("booking_id = ?", bookingID).
		Where("receiver_id = ?", readerID).
		Where("read = ?", false).
		Exec(ctx)
	return err
}

// CountUnread → unread messages addressed to the reader across bookings
func (d *DB) CountUnread(ctx context.Context, readerID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Message)(nil)).
		Where("receiver_id = ?", readerID).
		Where("read = ?", false).
		Count(ctx)
}

// ---------------- DELIVERABLES ----------------

// InsertDeliverable → attach one delivered asset to a booking
func (d *DB) InsertDeliverable(ctx context.Context, item models.Deliverable) error {
	_, err := d.Bun.NewInsert().Model(&item).Exec(ctx)
	return err
}

// ListDeliverables → all assets delivered for a booking, oldest first
func (d *DB) ListDeliverables(ctx context.Context, bookingID string) ([]models.Deliverable, error) {
	var items []models.Deliverable
	err := d.Bun.NewSelect().
		Model(&items).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Deliverable{}
	}
	return items, nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
