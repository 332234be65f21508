package availability

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"

	"lensbook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ListSlots → all slots for a photographer, optionally one date, open first
func (d *DB) ListSlots(ctx context.Context, photographerID, date string) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	q := d.Bun.NewSelect().
		Model(&slots).
		Where("photographer_id = ?", photographerID)
	if date != "" {
		q = q.Where("date = ?", date)
	}
	err := q.Order("date", "start_time").Scan(ctx)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}
	return slots, nil
}

// InsertSlot → insert new slot, surfacing duplicate windows
func (d *DB) InsertSlot(ctx context.Context, slot models.AvailabilitySlot) error {
	_, err := d.Bun.NewInsert().Model(&slot).Exec(ctx)
	return err
}

// GetOpenSlot → fetch the slot matching all four window fields, if still open
func (d *DB) GetOpenSlot(ctx context.Context, photographerID, date, start, end string) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	err := d.Bun.NewSelect().
		Model(&slot).
		Where("photographer_id = ?", photographerID).
		Where("date = ?", date).
		Where("start_time = ?", start).
		Where("end_time = ?", end).
		Where("is_booked = ?", false).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// MarkBooked → conditionally claim the slot inside tx. Returns false when a
// concurrent booking already took it.
func (d *DB) MarkBooked(ctx context.Context, tx bun.Tx, slotID string) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*models.AvailabilitySlot)(nil)).
		Set("is_booked = ?", true).
		Where("id = ?", slotID).
		Where("is_booked = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseSlot → reopen a slot after a cancellation or failed payment
func (d *DB) ReleaseSlot(ctx context.Context, photographerID, date, start, end string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.AvailabilitySlot)(nil)).
		Set("is_booked = ?", false).
		Where("photographer_id = ?", photographerID).
		Where("date = ?", date).
		Where("start_time = ?", start).
		Where("end_time = ?", end).
		Exec(ctx)
	return err
}

// DeleteSlot → remove an open slot by ID, scoped to its owner
func (d *DB) DeleteSlot(ctx context.Context, slotID, photographerID string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.AvailabilitySlot)(nil)).
		Where("id = ?", slotID).
		Where("photographer_id = ?", photographerID).
		Where("is_booked = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsDuplicate reports whether err is a unique-constraint violation. Matched
// on message text so both the postgres and sqlite drivers are covered.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
