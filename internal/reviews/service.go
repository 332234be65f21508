package reviews

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lensbook/internal/apperror"
	"lensbook/internal/logger"
	"lensbook/internal/models"
)

// BookingReader is the slice of the booking store review submission needs.
type BookingReader interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
}

// Service accepts reviews on completed bookings and serves the public
// review lists.
type Service struct {
	DB       *DB
	Bookings BookingReader
	Logger   *logger.Logger
}

func NewService(db *DB, bookings BookingReader, log *logger.Logger) *Service {
	return &Service{DB: db, Bookings: bookings, Logger: log}
}

// Create accepts a review from the booking's customer once the shoot is
// completed. A second review for the same booking is a conflict.
func (s *Service) Create(ctx context.Context, actor *models.User, req models.CreateReviewRequest) (*models.Review, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthenticated
	}

	booking, err := s.Bookings.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: booking %s", apperror.ErrNotFound, req.BookingID)
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking.CustomerID != actor.ID {
		return nil, fmt.Errorf("%w: only the booking's customer may review", apperror.ErrForbidden)
	}
	if booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: booking is %s, reviews require completed", apperror.ErrConflict, booking.Status)
	}

	review := models.Review{
		ID:             uuid.NewString(),
		BookingID:      booking.ID,
		CustomerID:     actor.ID,
		PhotographerID: booking.PhotographerID,
		Rating:         req.Rating,
		Comment:        req.Comment,
		CreatedAt:      time.Now(),
	}
	if err := s.DB.InsertReview(ctx, review); err != nil {
		if IsDuplicate(err) {
			return nil, fmt.Errorf("%w: booking already reviewed", apperror.ErrConflict)
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}

	s.Logger.Info("REVIEWS", fmt.Sprintf("review %s posted for booking %s (rating %d)", review.ID, booking.ID, req.Rating))
	return &review, nil
}

// ForPhotographer lists a photographer's reviews. Public.
func (s *Service) ForPhotographer(ctx context.Context, photographerID string) ([]models.ReviewWithCustomer, error) {
	return s.DB.ListByPhotographer(ctx, photographerID)
}
