package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lensbook/internal/apperror"
	"lensbook/internal/logger"
	"lensbook/internal/models"
)

// BookingReader resolves the booking a conversation hangs off.
type BookingReader interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
}

// PhotographerReader resolves the photographer side of a booking to its
// user account.
type PhotographerReader interface {
	GetPhotographer(ctx context.Context, id string) (*models.Photographer, error)
}

// Service is the per-booking message thread plus the deliverables shelf.
// The receiver of a message is always derived server-side as the other
// participant; clients never choose who they write to.
type Service struct {
	DB            *DB
	Bookings      BookingReader
	Photographers PhotographerReader
	Logger        *logger.Logger
}

func NewService(db *DB, bookings BookingReader, photographers PhotographerReader, log *logger.Logger) *Service {
	return &Service{DB: db, Bookings: bookings, Photographers: photographers, Logger: log}
}

// Post appends a message to the booking's thread. Only the two parties may
// write.
func (s *Service) Post(ctx context.Context, actor *models.User, req models.PostMessageRequest) (*models.Message, error) {
	booking, photographerUserID, err := s.resolveParties(ctx, actor, req.BookingID)
	if err != nil {
		return nil, err
	}

	var receiverID string
	switch actor.ID {
	case booking.CustomerID:
		receiverID = photographerUserID
	case photographerUserID:
		receiverID = booking.CustomerID
	default:
		return nil, fmt.Errorf("%w: only booking parties may post", apperror.ErrForbidden)
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		BookingID:  booking.ID,
		SenderID:   actor.ID,
		ReceiverID: receiverID,
		Content:    req.Content,
		Read:       false,
		SentAt:     time.Now(),
	}
	if err := s.DB.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

// Conversation returns the booking's thread and marks the reader's side as
// read. Parties and admins may read.
func (s *Service) Conversation(ctx context.Context, actor *models.User, bookingID string) ([]models.Message, error) {
	booking, photographerUserID, err := s.resolveParties(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	isParty := actor.ID == booking.CustomerID || actor.ID == photographerUserID
	if !isParty && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not a party to this booking", apperror.ErrForbidden)
	}

	msgs, err := s.DB.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if isParty {
		if err := s.DB.MarkRead(ctx, bookingID, actor.ID); err != nil {
			s.Logger.Warn("MESSAGING", fmt.Sprintf("mark read failed for booking %s: %v", bookingID, err))
		}
	}
	return msgs, nil
}

// UnreadCount is the badge number for the caller across all bookings.
func (s *Service) UnreadCount(ctx context.Context, actor *models.User) (int, error) {
	if actor == nil {
		return 0, apperror.ErrUnauthenticated
	}
	return s.DB.CountUnread(ctx, actor.ID)
}

// AddDeliverable attaches a finished asset to the booking. Photographer
// side only, and not before the booking is confirmed.
func (s *Service) AddDeliverable(ctx context.Context, actor *models.User, req models.AddDeliverableRequest) (*models.Deliverable, error) {
	booking, photographerUserID, err := s.resolveParties(ctx, actor, req.BookingID)
	if err != nil {
		return nil, err
	}
	if actor.ID != photographerUserID && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only the photographer delivers", apperror.ErrForbidden)
	}
	if booking.Status != models.BookingConfirmed && booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: booking is %s, delivery requires confirmed", apperror.ErrConflict, booking.Status)
	}

	item := models.Deliverable{
		ID:          uuid.NewString(),
		BookingID:   booking.ID,
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
		CreatedAt:   time.Now(),
	}
	if err := s.DB.InsertDeliverable(ctx, item); err != nil {
		return nil, fmt.Errorf("insert deliverable: %w", err)
	}

	s.Logger.Info("DELIVERABLES", fmt.Sprintf("deliverable %s added to booking %s", item.ID, booking.ID))
	return &item, nil
}

// Deliverables lists what was delivered for a booking. Parties and admins.
func (s *Service) Deliverables(ctx context.Context, actor *models.User, bookingID string) ([]models.Deliverable, error) {
	booking, photographerUserID, err := s.resolveParties(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.ID != booking.CustomerID && actor.ID != photographerUserID && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not a party to this booking", apperror.ErrForbidden)
	}
	return s.DB.ListDeliverables(ctx, bookingID)
}

func (s *Service) resolveParties(ctx context.Context, actor *models.User, bookingID string) (*models.Booking, string, error) {
	if actor == nil {
		return nil, "", apperror.ErrUnauthenticated
	}
	booking, err := s.Bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		if IsNotFound(err) {
			return nil, "", fmt.Errorf("%w: booking %s", apperror.ErrNotFound, bookingID)
		}
		return nil, "", fmt.Errorf("load booking: %w", err)
	}
	ph, err := s.Photographers.GetPhotographer(ctx, booking.PhotographerID)
	if err != nil {
		return nil, "", err
	}
	return booking, ph.UserID, nil
}
