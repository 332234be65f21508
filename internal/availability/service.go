package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"lensbook/internal/apperror"
	"lensbook/internal/logger"
	"lensbook/internal/models"
	"lensbook/internal/utils"
)

// PhotographerDirectory is the slice of the photographer store this service
// needs for ownership checks.
type PhotographerDirectory interface {
	GetPhotographer(ctx context.Context, id string) (*models.Photographer, error)
}

// Service owns the availability ledger: the source of truth for which time
// windows a photographer offers and which are taken.
type Service struct {
	DB            *DB
	Logger        *logger.Logger
	Photographers PhotographerDirectory
}

func NewService(db *DB, log *logger.Logger, dir PhotographerDirectory) *Service {
	return &Service{DB: db, Logger: log, Photographers: dir}
}

// ListSlots returns a photographer's slots, optionally filtered to one date.
// Public: booked slots are included so clients can render a full calendar.
func (s *Service) ListSlots(ctx context.Context, photographerID, date string) ([]models.AvailabilitySlot, error) {
	if _, err := s.Photographers.GetPhotographer(ctx, photographerID); err != nil {
		return nil, err
	}
	if date != "" {
		if _, err := utils.ParseDate(date); err != nil {
			return nil, err
		}
	}
	return s.DB.ListSlots(ctx, photographerID, date)
}

// AddSlot publishes a new open window. Only the owning photographer or an
// admin may add slots, and the same four-field window cannot exist twice.
func (s *Service) AddSlot(ctx context.Context, actor *models.User, req models.AddSlotRequest) (*models.AvailabilitySlot, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthenticated
	}
	ph, err := s.Photographers.GetPhotographer(ctx, req.PhotographerID)
	if err != nil {
		return nil, err
	}
	if ph.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not your availability", apperror.ErrForbidden)
	}

	if _, err := utils.ParseDate(req.Date); err != nil {
		return nil, err
	}
	if _, err := utils.ParseClock(req.StartTime); err != nil {
		return nil, err
	}
	if _, err := utils.ParseClock(req.EndTime); err != nil {
		return nil, err
	}
	// HH:MM strings order lexicographically
	if req.StartTime >= req.EndTime {
		return nil, fmt.Errorf("%w: start_time must precede end_time", apperror.ErrValidation)
	}

	slot := models.AvailabilitySlot{
		ID:             uuid.NewString(),
		PhotographerID: req.PhotographerID,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		IsBooked:       false,
		CreatedAt:      time.Now(),
	}
	if err := s.DB.InsertSlot(ctx, slot); err != nil {
		if IsDuplicate(err) {
			return nil, fmt.Errorf("%w: slot window already exists", apperror.ErrConflict)
		}
		return nil, fmt.Errorf("insert slot: %w", err)
	}

	s.Logger.Info("AVAILABILITY", fmt.Sprintf("slot %s added for photographer %s on %s %s-%s",
		slot.ID, slot.PhotographerID, slot.Date, slot.StartTime, slot.EndTime))
	return &slot, nil
}

// FindOpenSlot locates the open slot matching the exact window, or reports
// it unavailable. Near-miss windows do not match.
func (s *Service) FindOpenSlot(ctx context.Context, photographerID, date, start, end string) (*models.AvailabilitySlot, error) {
	slot, err := s.DB.GetOpenSlot(ctx, photographerID, date, start, end)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s %s-%s", apperror.ErrSlotUnavailable, date, start, end)
		}
		return nil, err
	}
	return slot, nil
}

// MarkBooked claims the slot inside the caller's transaction. False means a
// concurrent booking won the race.
func (s *Service) MarkBooked(ctx context.Context, tx bun.Tx, slotID string) (bool, error) {
	return s.DB.MarkBooked(ctx, tx, slotID)
}

// RemoveSlot deletes an open slot. Booked slots cannot be removed; cancel
// the booking instead.
func (s *Service) RemoveSlot(ctx context.Context, actor *models.User, slotID, photographerID string) error {
	if actor == nil {
		return apperror.ErrUnauthenticated
	}
	ph, err := s.Photographers.GetPhotographer(ctx, photographerID)
	if err != nil {
		return err
	}
	if ph.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: not your availability", apperror.ErrForbidden)
	}
	ok, err := s.DB.DeleteSlot(ctx, slotID, photographerID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: open slot %s", apperror.ErrNotFound, slotID)
	}
	return nil
}

// Release reopens the window after a cancellation.
func (s *Service) Release(ctx context.Context, photographerID, date, start, end string) error {
	return s.DB.ReleaseSlot(ctx, photographerID, date, start, end)
}
