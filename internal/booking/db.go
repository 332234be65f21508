package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"lensbook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetBookingByID → fetch one booking by its ID
func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateBookingTx → claim the slot and insert the booking in one transaction.
// Returns claimed=false (and rolls back) when the slot was already taken.
func (d *DB) CreateBookingTx(ctx context.Context, booking models.Booking, claimSlot func(ctx context.Context, tx bun.Tx) (bool, error)) (bool, error) {
	tx, err := d.Bun.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, err
	}

	claimed, err := claimSlot(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if !claimed {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.NewInsert().Model(&booking).Exec(ctx); err != nil {
		_ = tx.Rollback()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateStatus → persist a status transition
func (d *DB) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPaymentIntent → attach the gateway intent to the booking
func (d *DB) SetPaymentIntent(ctx context.Context, id, intentID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("payment_intent_id = ?", intentID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// GetBookingByPaymentIntent → resolve a webhook event back to its booking
func (d *DB) GetBookingByPaymentIntent(ctx context.Context, intentID string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("payment_intent_id = ?", intentID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByCustomer → all bookings placed by a customer, newest first
func (d *DB) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// ListByPhotographer → all bookings against a photographer, newest first
func (d *DB) ListByPhotographer(ctx context.Context, photographerID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("photographer_id = ?", photographerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// ListAll → every booking, newest first. Admin surface only.
func (d *DB) ListAll(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// GetPendingByWindow → the pending booking holding a slot window, if any
func (d *DB) GetPendingByWindow(ctx context.Context, photographerID, date, start, end string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("photographer_id = ?", photographerID).
		Where("date = ?", date).
		Where("start_time = ?", start).
		Where("end_time = ?", end).
		Where("status = ?", models.BookingPending).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListStalePending → pending bookings older than the cutoff, for the
// expiry sweeper
func (d *DB) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("status = ?", models.BookingPending).
		Where("created_at < ?", cutoff).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
