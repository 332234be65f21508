package reviews

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

// InsertReview → one review per booking, enforced by the unique index
func (d *DB) InsertReview(ctx context.Context, review models.Review) error {
	_, err := d.Bun.NewInsert().Model(&review).Exec(ctx)
	return err
}

// GetByBooking → the review attached to a booking, if any
func (d *DB) GetByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	var review models.Review
	err := d.Bun.NewSelect().
		Model(&review).
		Where("booking_id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByPhotographer → a photographer's reviews with the reviewer name,
// newest first
func (d *DB) ListByPhotographer(ctx context.Context, photographerID string) ([]models.ReviewWithCustomer, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Where("photographer_id = ?", photographerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return []models.ReviewWithCustomer{}, nil
	}

	customerIDs := make([]string, len(reviews))
	for i, r := range reviews {
		customerIDs[i] = r.CustomerID
	}

	var customers []models.User
	err = d.Bun.NewSelect().
		Model(&customers).
		Where("id IN (?)", bun.In(customerIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(customers))
	for _, c := range customers {
		name := c.FirstName
		if c.LastName != "" {
			if name != "" {
				name += " "
			}
			name += c.LastName
		}
		nameByID[c.ID] = name
	}

	result := make([]models.ReviewWithCustomer, len(reviews))
	for i, r := range reviews {
		result[i] = models.ReviewWithCustomer{
			Review:       r,
			CustomerName: nameByID[r.CustomerID],
		}
	}
	return result, nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
