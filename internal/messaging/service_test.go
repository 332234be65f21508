package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"lensbook/internal/apperror"
	"lensbook/internal/logger"
	"lensbook/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	err = bunDB.ResetModel(context.Background(),
		(*models.Message)(nil),
		(*models.Deliverable)(nil),
	)
	if err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return &DB{Bun: bunDB}
}

type stubBookings struct {
	bookings map[string]*models.Booking
	err      error
}

func (s *stubBookings) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	if b, ok := s.bookings[id]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("booking %s: %w", id, sql.ErrNoRows)
}

type stubPhotographers struct {
	byID map[string]*models.Photographer
}

func (s *stubPhotographers) GetPhotographer(ctx context.Context, id string) (*models.Photographer, error) {
	if ph, ok := s.byID[id]; ok {
		return ph, nil
	}
	return nil, fmt.Errorf("%w: photographer %s", apperror.ErrNotFound, id)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	bookings := &stubBookings{bookings: map[string]*models.Booking{
		"bk-1":       {ID: "bk-1", CustomerID: "user-cust", PhotographerID: "ph-1", Status: models.BookingConfirmed},
		"bk-pending": {ID: "bk-pending", CustomerID: "user-cust", PhotographerID: "ph-1", Status: models.BookingPending},
	}}
	photographers := &stubPhotographers{byID: map[string]*models.Photographer{
		"ph-1": {ID: "ph-1", UserID: "user-ph"},
	}}
	return NewService(setupTestDB(t), bookings, photographers, logger.NewLogger())
}

func customer() *models.User {
	return &models.User{ID: "user-cust", Role: models.RoleCustomer}
}

func photographerUser() *models.User {
	return &models.User{ID: "user-ph", Role: models.RolePhotographer}
}

func TestPostDerivesReceiver(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	fromCustomer, err := svc.Post(ctx, customer(), models.PostMessageRequest{BookingID: "bk-1", Content: "Can we start at noon?"})
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if fromCustomer.ReceiverID != "user-ph" {
		t.Errorf("Customer message must land with the photographer, got %q", fromCustomer.ReceiverID)
	}

	fromPhotographer, err := svc.Post(ctx, photographerUser(), models.PostMessageRequest{BookingID: "bk-1", Content: "Noon works."})
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if fromPhotographer.ReceiverID != "user-cust" {
		t.Errorf("Photographer message must land with the customer, got %q", fromPhotographer.ReceiverID)
	}
}

func TestPostStrangerForbidden(t *testing.T) {
	svc := newTestService(t)

	stranger := &models.User{ID: "user-nobody", Role: models.RoleCustomer}
	_, err := svc.Post(context.Background(), stranger, models.PostMessageRequest{BookingID: "bk-1", Content: "hi"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Expected forbidden, got %v", err)
	}
}

func TestPostUnknownBooking(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Post(context.Background(), customer(), models.PostMessageRequest{BookingID: "bk-ghost", Content: "hi"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestConversationMarksRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Post(ctx, customer(), models.PostMessageRequest{BookingID: "bk-1", Content: "first"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if _, err := svc.Post(ctx, customer(), models.PostMessageRequest{BookingID: "bk-1", Content: "second"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	unread, err := svc.UnreadCount(ctx, photographerUser())
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 2 {
		t.Fatalf("Expected 2 unread, got %d", unread)
	}

	msgs, err := svc.Conversation(ctx, photographerUser(), "bk-1")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "first" {
		t.Errorf("Conversation must be oldest first, got %q", msgs[0].Content)
	}

	unread, err = svc.UnreadCount(ctx, photographerUser())
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 0 {
		t.Errorf("Reading the thread must clear the badge, got %d", unread)
	}
}

func TestConversationAdminReadDoesNotMarkRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Post(ctx, customer(), models.PostMessageRequest{BookingID: "bk-1", Content: "hello"}); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	admin := &models.User{ID: "user-admin", Role: models.RoleAdmin}
	msgs, err := svc.Conversation(ctx, admin, "bk-1")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}

	unread, err := svc.UnreadCount(ctx, photographerUser())
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 1 {
		t.Errorf("Admin reads must not touch the parties' badges, got %d unread", unread)
	}
}

func TestConversationStrangerForbidden(t *testing.T) {
	svc := newTestService(t)

	stranger := &models.User{ID: "user-nobody", Role: models.RoleCustomer}
	_, err := svc.Conversation(context.Background(), stranger, "bk-1")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Expected forbidden, got %v", err)
	}
}

func TestAddDeliverablePhotographerOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	req := models.AddDeliverableRequest{BookingID: "bk-1", Title: "Final gallery", FileURL: "https://cdn.example.com/gallery.zip"}

	_, err := svc.AddDeliverable(ctx, customer(), req)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Expected forbidden for customer, got %v", err)
	}

	item, err := svc.AddDeliverable(ctx, photographerUser(), req)
	if err != nil {
		t.Fatalf("AddDeliverable failed: %v", err)
	}
	if item.Title != "Final gallery" {
		t.Errorf("Unexpected title %q", item.Title)
	}
}

func TestAddDeliverableRequiresConfirmed(t *testing.T) {
	svc := newTestService(t)

	req := models.AddDeliverableRequest{BookingID: "bk-pending", Title: "Early", FileURL: "https://cdn.example.com/x.zip"}
	_, err := svc.AddDeliverable(context.Background(), photographerUser(), req)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Expected conflict for pending booking, got %v", err)
	}
}

func TestPostPropagatesStoreErrors(t *testing.T) {
	bookings := &stubBookings{err: errors.New("connection reset")}
	photographers := &stubPhotographers{byID: map[string]*models.Photographer{}}
	svc := NewService(setupTestDB(t), bookings, photographers, logger.NewLogger())

	_, err := svc.Post(context.Background(), customer(), models.PostMessageRequest{BookingID: "bk-1", Content: "hi"})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Transient store errors must not read as not-found, got %v", err)
	}
}

func TestDeliverablesOldestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"Previews", "Final gallery"} {
		item := models.Deliverable{
			ID:        fmt.Sprintf("dl-%d", i),
			BookingID: "bk-1",
			Title:     title,
			FileURL:   "https://cdn.example.com/x.zip",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := svc.DB.InsertDeliverable(ctx, item); err != nil {
			t.Fatalf("InsertDeliverable failed: %v", err)
		}
	}

	items, err := svc.Deliverables(ctx, customer(), "bk-1")
	if err != nil {
		t.Fatalf("Deliverables failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 deliverables, got %d", len(items))
	}
	if items[0].Title != "Previews" || items[1].Title != "Final gallery" {
		t.Errorf("Expected delivery order preserved, got %q then %q", items[0].Title, items[1].Title)
	}
}

func TestDeliverablesPartyRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := models.AddDeliverableRequest{BookingID: "bk-1", Title: "Final gallery", FileURL: "https://cdn.example.com/gallery.zip"}
	if _, err := svc.AddDeliverable(ctx, photographerUser(), req); err != nil {
		t.Fatalf("AddDeliverable failed: %v", err)
	}

	items, err := svc.Deliverables(ctx, customer(), "bk-1")
	if err != nil {
		t.Fatalf("Deliverables failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Expected 1 deliverable, got %d", len(items))
	}

	stranger := &models.User{ID: "user-nobody", Role: models.RoleCustomer}
	_, err = svc.Deliverables(ctx, stranger, "bk-1")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Expected forbidden, got %v", err)
	}
}
