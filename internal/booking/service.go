package booking

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

// SlotLedger is the availability surface the booking flow depends on.
type SlotLedger interface {
	FindOpenSlot(ctx context.Context, photographerID, date, start, end string) (*models.AvailabilitySlot, error)
	MarkBooked(ctx context.Context, tx bun.Tx, slotID string) (bool, error)
	Release(ctx context.Context, photographerID, date, start, end string) error
}

// SlotHold is the short-lived claim store guarding the payment window.
type SlotHold interface {
	HoldSlot(ctx context.Context, photographerID, date, start, end, bookingID string) (bool, error)
	ReleaseHold(ctx context.Context, photographerID, date, start, end, bookingID string) error
}

// Publisher streams booking lifecycle events out.
type Publisher interface {
	PublishBookingCreated(ctx context.Context, topic string, b models.Booking) error
	PublishBookingUpdated(ctx context.Context, topic string, b models.Booking) error
	PublishBookingCancelled(ctx context.Context, topic string, b models.Booking) error
}

// Directory resolves photographers and users for authorization and detail
// reads.
type Directory interface {
	GetPhotographer(ctx context.Context, id string) (*models.Photographer, error)
	GetPhotographerByUserID(ctx context.Context, userID string) (*models.Photographer, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Topics names the event streams the service publishes to.
type Topics struct {
	Created   string
	Updated   string
	Cancelled string
}

type Service struct {
	DB        *DB
	Ledger    SlotLedger
	Hold      SlotHold
	Gateway   PaymentGateway
	Kafka     Publisher
	Directory Directory
	Logger    *logger.Logger
	Vouchers  *VoucherGenerator
	Topics    Topics
}

// CreateBooking runs the whole booking flow: exact-window slot check, hold,
// payment authorization, then the transactional claim plus insert. Any
// failure after the hold releases it so the window reopens immediately.
func (s *Service) CreateBooking(ctx context.Context, actor *models.User, req models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthenticated
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
	if req.StartTime >= req.EndTime {
		return nil, fmt.Errorf("%w: start_time must precede end_time", apperror.ErrValidation)
	}

	if _, err := s.Directory.GetPhotographer(ctx, req.PhotographerID); err != nil {
		return nil, err
	}

	slot, err := s.Ledger.FindOpenSlot(ctx, req.PhotographerID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.NewString()

	held, err := s.Hold.HoldSlot(ctx, req.PhotographerID, req.Date, req.StartTime, req.EndTime, bookingID)
	if err != nil {
		return nil, fmt.Errorf("slot hold: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("%w: another booking is in flight for this window", apperror.ErrSlotUnavailable)
	}
	releaseHold := func() {
		if err := s.Hold.ReleaseHold(ctx, req.PhotographerID, req.Date, req.StartTime, req.EndTime, bookingID); err != nil {
			s.Logger.Warn("BOOKING", fmt.Sprintf("failed to release hold for %s: %v", bookingID, err))
		}
	}

	booking := models.Booking{
		ID:             bookingID,
		CustomerID:     actor.ID,
		PhotographerID: req.PhotographerID,
		CategoryID:     req.CategoryID,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Location:       req.Location,
		Notes:          req.Notes,
		TotalAmount:    req.TotalAmount,
		Status:         models.BookingPending,
		CreatedAt:      time.Now(),
	}

	var clientSecret string
	if s.Gateway != nil {
		intent, err := s.Gateway.CreateIntent(ctx, req.TotalAmount, bookingID, actor.ID, req.PhotographerID)
		if err != nil {
			releaseHold()
			return nil, err
		}
		booking.PaymentIntentID = intent.ID
		clientSecret = intent.ClientSecret
	}

	claimed, err := s.DB.CreateBookingTx(ctx, booking, func(ctx context.Context, tx bun.Tx) (bool, error) {
		return s.Ledger.MarkBooked(ctx, tx, slot.ID)
	})
	if err != nil {
		releaseHold()
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if !claimed {
		releaseHold()
		return nil, fmt.Errorf("%w: slot was taken concurrently", apperror.ErrSlotUnavailable)
	}

	s.Logger.LogBooking("CREATE", bookingID, fmt.Sprintf("pending booking for %s %s-%s", req.Date, req.StartTime, req.EndTime))

	if err := s.Kafka.PublishBookingCreated(ctx, s.Topics.Created, booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking created: %v", err))
	}

	return &models.CreateBookingResponse{Booking: booking, ClientSecret: clientSecret}, nil
}

// GetBooking returns a booking joined with both parties. Only the customer,
// the photographer, or an admin may read it.
func (s *Service) GetBooking(ctx context.Context, actor *models.User, id string) (*models.BookingDetail, error) {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParty(ctx, actor, booking); err != nil {
		return nil, err
	}

	detail := &models.BookingDetail{Booking: *booking}
	if customer, err := s.Directory.GetUser(ctx, booking.CustomerID); err == nil {
		detail.Customer = partyOf(customer)
	}
	if ph, err := s.Directory.GetPhotographer(ctx, booking.PhotographerID); err == nil {
		if owner, err := s.Directory.GetUser(ctx, ph.UserID); err == nil {
			detail.Photographer = partyOf(owner)
		}
	}
	return detail, nil
}

// ListForActor returns the caller's side of the ledger: customers see the
// bookings they placed, photographers the ones against their profile, and
// admins everything.
func (s *Service) ListForActor(ctx context.Context, actor *models.User) ([]models.Booking, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthenticated
	}
	switch actor.Role {
	case models.RoleAdmin:
		return s.DB.ListAll(ctx)
	case models.RolePhotographer:
		ph, err := s.Directory.GetPhotographerByUserID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return s.DB.ListByPhotographer(ctx, ph.ID)
	default:
		return s.DB.ListByCustomer(ctx, actor.ID)
	}
}

// SetStatus applies a lifecycle transition. Photographers confirm and
// complete; either party cancels; admins can do all three.
func (s *Service) SetStatus(ctx context.Context, actor *models.User, id, status string) (*models.Booking, error) {
	if !models.ValidBookingStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", apperror.ErrValidation, status)
	}

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParty(ctx, actor, booking); err != nil {
		return nil, err
	}

	isPhotographerSide, err := s.actsForPhotographer(ctx, actor, booking)
	if err != nil {
		return nil, err
	}

	switch status {
	case models.BookingConfirmed:
		if !isPhotographerSide {
			return nil, fmt.Errorf("%w: only the photographer can confirm", apperror.ErrForbidden)
		}
		if booking.Status != models.BookingPending {
			return nil, fmt.Errorf("%w: cannot confirm a %s booking", apperror.ErrConflict, booking.Status)
		}
	case models.BookingCompleted:
		if !isPhotographerSide {
			return nil, fmt.Errorf("%w: only the photographer can complete", apperror.ErrForbidden)
		}
		if booking.Status != models.BookingConfirmed {
			return nil, fmt.Errorf("%w: cannot complete a %s booking", apperror.ErrConflict, booking.Status)
		}
	case models.BookingCancelled:
		if booking.Status == models.BookingCompleted || booking.Status == models.BookingCancelled {
			return nil, fmt.Errorf("%w: cannot cancel a %s booking", apperror.ErrConflict, booking.Status)
		}
	default:
		return nil, fmt.Errorf("%w: cannot transition back to %s", apperror.ErrConflict, status)
	}

	if err := s.DB.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	booking.Status = status
	booking.UpdatedAt = time.Now()
	s.Logger.LogBooking("STATUS", id, "transition to "+status)

	if status == models.BookingCancelled {
		s.releaseWindow(ctx, booking)
		if err := s.Kafka.PublishBookingCancelled(ctx, s.Topics.Cancelled, *booking); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish booking cancelled: %v", err))
		}
	} else {
		if err := s.Kafka.PublishBookingUpdated(ctx, s.Topics.Updated, *booking); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish booking updated: %v", err))
		}
	}

	return booking, nil
}

// PaymentIntentFor returns the client secret for the booking's charge,
// reusing the existing intent when one is attached.
func (s *Service) PaymentIntentFor(ctx context.Context, actor *models.User, id string) (*PaymentIntent, error) {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParty(ctx, actor, booking); err != nil {
		return nil, err
	}
	if actor.ID != booking.CustomerID && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only the customer pays for a booking", apperror.ErrForbidden)
	}
	if s.Gateway == nil {
		return nil, fmt.Errorf("%w: no payment gateway configured", apperror.ErrPaymentAuthorizationFailed)
	}

	if booking.PaymentIntentID != "" {
		return s.Gateway.GetIntent(ctx, booking.PaymentIntentID)
	}

	intent, err := s.Gateway.CreateIntent(ctx, booking.TotalAmount, booking.ID, booking.CustomerID, booking.PhotographerID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.SetPaymentIntent(ctx, booking.ID, intent.ID); err != nil {
		return nil, fmt.Errorf("attach payment intent: %w", err)
	}
	return intent, nil
}

// HandlePaymentSucceeded confirms the pending booking behind a verified
// gateway event. Unknown intents are ignored so replays stay harmless.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, intentID string) error {
	booking, err := s.DB.GetBookingByPaymentIntent(ctx, intentID)
	if err != nil {
		if IsNotFound(err) {
			s.Logger.Warn("PAYMENT", "succeeded event for unknown intent "+intentID)
			return nil
		}
		return err
	}
	if booking.Status != models.BookingPending {
		return nil
	}

	if err := s.DB.UpdateStatus(ctx, booking.ID, models.BookingConfirmed); err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	booking.Status = models.BookingConfirmed
	s.Logger.LogBooking("PAYMENT", booking.ID, "payment captured, booking confirmed")

	if err := s.Hold.ReleaseHold(ctx, booking.PhotographerID, booking.Date, booking.StartTime, booking.EndTime, booking.ID); err != nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("failed to drop hold for %s: %v", booking.ID, err))
	}
	if err := s.Kafka.PublishBookingUpdated(ctx, s.Topics.Updated, *booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking updated: %v", err))
	}
	return nil
}

// HandlePaymentFailed cancels the pending booking and reopens its window.
func (s *Service) HandlePaymentFailed(ctx context.Context, intentID string) error {
	booking, err := s.DB.GetBookingByPaymentIntent(ctx, intentID)
	if err != nil {
		if IsNotFound(err) {
			s.Logger.Warn("PAYMENT", "failed event for unknown intent "+intentID)
			return nil
		}
		return err
	}
	if booking.Status != models.BookingPending {
		return nil
	}

	if err := s.DB.UpdateStatus(ctx, booking.ID, models.BookingCancelled); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	booking.Status = models.BookingCancelled
	s.Logger.LogBooking("PAYMENT", booking.ID, "payment failed, booking cancelled")

	s.releaseWindow(ctx, booking)
	if err := s.Kafka.PublishBookingCancelled(ctx, s.Topics.Cancelled, *booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking cancelled: %v", err))
	}
	return nil
}

// ExpireHold reacts to a hold key expiring: a pending booking whose payment
// never landed gets cancelled and its window reopened.
func (s *Service) ExpireHold(ctx context.Context, photographerID, date, start, end string) {
	booking, err := s.DB.GetPendingByWindow(ctx, photographerID, date, start, end)
	if err != nil {
		if !IsNotFound(err) {
			s.Logger.Error("BOOKING", fmt.Sprintf("expiry lookup failed: %v", err))
		}
		return
	}

	if err := s.DB.UpdateStatus(ctx, booking.ID, models.BookingCancelled); err != nil {
		s.Logger.Error("BOOKING", fmt.Sprintf("expiry cancel failed for %s: %v", booking.ID, err))
		return
	}
	booking.Status = models.BookingCancelled
	s.Logger.LogBooking("EXPIRE", booking.ID, "payment window elapsed, booking cancelled")

	if err := s.Ledger.Release(ctx, photographerID, date, start, end); err != nil {
		s.Logger.Error("BOOKING", fmt.Sprintf("expiry slot release failed for %s: %v", booking.ID, err))
	}
	if err := s.Kafka.PublishBookingCancelled(ctx, s.Topics.Cancelled, *booking); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish booking cancelled: %v", err))
	}
}

// ReapStalePending cancels pending bookings older than maxAge and reopens
// their windows. Backstop for missed hold expiry events, and the only
// cleanup path when redis is disabled.
func (s *Service) ReapStalePending(ctx context.Context, maxAge time.Duration) {
	stale, err := s.DB.ListStalePending(ctx, time.Now().Add(-maxAge))
	if err != nil {
		s.Logger.Error("BOOKING", fmt.Sprintf("stale sweep failed: %v", err))
		return
	}
	for i := range stale {
		booking := &stale[i]
		if err := s.DB.UpdateStatus(ctx, booking.ID, models.BookingCancelled); err != nil {
			s.Logger.Error("BOOKING", fmt.Sprintf("stale cancel failed for %s: %v", booking.ID, err))
			continue
		}
		booking.Status = models.BookingCancelled
		s.Logger.LogBooking("EXPIRE", booking.ID, "stale pending booking cancelled")
		s.releaseWindow(ctx, booking)
		if err := s.Kafka.PublishBookingCancelled(ctx, s.Topics.Cancelled, *booking); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish booking cancelled: %v", err))
		}
	}
}

// Voucher renders the QR voucher for a confirmed or completed booking.
func (s *Service) Voucher(ctx context.Context, actor *models.User, id string) ([]byte, error) {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParty(ctx, actor, booking); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingConfirmed && booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: voucher requires a confirmed booking", apperror.ErrConflict)
	}
	return s.Vouchers.GenerateEncryptedQR(*booking)
}

// releaseWindow reopens the ledger slot and drops any redis hold.
func (s *Service) releaseWindow(ctx context.Context, booking *models.Booking) {
	if err := s.Ledger.Release(ctx, booking.PhotographerID, booking.Date, booking.StartTime, booking.EndTime); err != nil {
		s.Logger.Error("BOOKING", fmt.Sprintf("slot release failed for %s: %v", booking.ID, err))
	}
	if err := s.Hold.ReleaseHold(ctx, booking.PhotographerID, booking.Date, booking.StartTime, booking.EndTime, booking.ID); err != nil {
		s.Logger.Warn("BOOKING", fmt.Sprintf("hold release failed for %s: %v", booking.ID, err))
	}
}

func (s *Service) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: booking %s", apperror.ErrNotFound, id)
		}
		return nil, err
	}
	return booking, nil
}

// authorizeParty checks the actor is the customer, the photographer, or an
// admin. Existence is checked before authorization so strangers get 403,
// not a resource probe.
func (s *Service) authorizeParty(ctx context.Context, actor *models.User, booking *models.Booking) error {
	if actor == nil {
		return apperror.ErrUnauthenticated
	}
	if actor.Role == models.RoleAdmin || actor.ID == booking.CustomerID {
		return nil
	}
	isPh, err := s.actsForPhotographer(ctx, actor, booking)
	if err != nil {
		return err
	}
	if isPh {
		return nil
	}
	return fmt.Errorf("%w: not a party to this booking", apperror.ErrForbidden)
}

func (s *Service) actsForPhotographer(ctx context.Context, actor *models.User, booking *models.Booking) (bool, error) {
	if actor.Role == models.RoleAdmin {
		return true, nil
	}
	ph, err := s.Directory.GetPhotographer(ctx, booking.PhotographerID)
	if err != nil {
		return false, err
	}
	return ph.UserID == actor.ID, nil
}

func partyOf(u *models.User) *models.BookingParty {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	return &models.BookingParty{ID: u.ID, Name: name, Email: u.Email}
}
