package photographers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
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
		(*models.User)(nil),
		(*models.Photographer)(nil),
		(*models.Category)(nil),
		(*models.PhotographerCategory)(nil),
		(*models.PortfolioItem)(nil),
		(*models.AvailabilitySlot)(nil),
		(*models.Review)(nil),
	)
	if err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	return &DB{Bun: bunDB}
}

type stubAccounts struct {
	users    map[string]*models.User
	promoted []string
}

func (s *stubAccounts) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, id)
}

func (s *stubAccounts) PromoteToPhotographer(ctx context.Context, id string) error {
	s.promoted = append(s.promoted, id)
	return nil
}

type stubPublisher struct {
	verified []models.Photographer
}

func (s *stubPublisher) PublishPhotographerVerified(ctx context.Context, topic string, ph models.Photographer) error {
	s.verified = append(s.verified, ph)
	return nil
}

func newTestService(t *testing.T) (*Service, *stubAccounts, *stubPublisher) {
	t.Helper()
	accounts := &stubAccounts{users: map[string]*models.User{
		"user-1": {ID: "user-1", FirstName: "Mara", LastName: "Holt", Email: "mara@example.com", Role: models.RoleCustomer},
		"user-2": {ID: "user-2", FirstName: "Iris", LastName: "Lund", Email: "iris@example.com", Role: models.RoleCustomer},
	}}
	pub := &stubPublisher{}
	svc := NewService(setupTestDB(t), accounts, pub, logger.NewLogger(), "photographer.verified")
	return svc, accounts, pub
}

func seedCategory(t *testing.T, svc *Service, id, name string) {
	t.Helper()
	cat := models.Category{ID: id, Name: name}
	if _, err := svc.DB.Bun.NewInsert().Model(&cat).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}
}

func seedUserRow(t *testing.T, svc *Service, u *models.User) {
	t.Helper()
	if _, err := svc.DB.Bun.NewInsert().Model(u).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
}

func TestRegisterCreatesProfileAndPromotes(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	seedCategory(t, svc, "cat-wedding", "Wedding")
	actor := accounts.users["user-1"]

	ph, err := svc.Register(context.Background(), actor, models.RegisterPhotographerRequest{
		Bio:         "Weddings and elopements",
		City:        "Lisbon",
		BaseRate:    30000,
		CategoryIDs: []string{"cat-wedding"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "user-1", ph.UserID)
	assert.False(t, ph.Verified, "new profiles start unverified")
	assert.True(t, ph.Active)
	assert.Equal(t, []string{"user-1"}, accounts.promoted)

	cats, err := svc.DB.GetCategoriesFor(context.Background(), ph.ID)
	assert.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestRegisterSecondProfileConflicts(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	actor := accounts.users["user-1"]
	req := models.RegisterPhotographerRequest{BaseRate: 10000}

	if _, err := svc.Register(context.Background(), actor, req); err != nil {
		t.Fatalf("First register failed: %v", err)
	}

	_, err := svc.Register(context.Background(), actor, req)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestRegisterUnknownCategory(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	actor := accounts.users["user-1"]

	_, err := svc.Register(context.Background(), actor, models.RegisterPhotographerRequest{
		BaseRate:    10000,
		CategoryIDs: []string{"cat-ghost"},
	})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestUpdateOwnerOnly(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	owner := accounts.users["user-1"]
	stranger := accounts.users["user-2"]

	ph, err := svc.Register(context.Background(), owner, models.RegisterPhotographerRequest{BaseRate: 10000, City: "Porto"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	bio := "Updated bio"
	_, err = svc.Update(context.Background(), stranger, ph.ID, models.UpdatePhotographerRequest{Bio: &bio})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	updated, err := svc.Update(context.Background(), owner, ph.ID, models.UpdatePhotographerRequest{Bio: &bio})
	assert.NoError(t, err)
	assert.Equal(t, "Updated bio", updated.Bio)
	assert.Equal(t, "Porto", updated.City, "untouched fields survive a partial update")

	admin := &models.User{ID: "user-admin", Role: models.RoleAdmin}
	rate := int64(45000)
	updated, err = svc.Update(context.Background(), admin, ph.ID, models.UpdatePhotographerRequest{BaseRate: &rate})
	assert.NoError(t, err)
	assert.Equal(t, int64(45000), updated.BaseRate)
}

func TestVerifyAdminOnly(t *testing.T) {
	svc, accounts, pub := newTestService(t)
	owner := accounts.users["user-1"]

	ph, err := svc.Register(context.Background(), owner, models.RegisterPhotographerRequest{BaseRate: 10000})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err = svc.Verify(context.Background(), owner, ph.ID, true)
	assert.True(t, errors.Is(err, apperror.ErrForbidden), "owners cannot self-verify")

	admin := &models.User{ID: "user-admin", Role: models.RoleAdmin}
	verified, err := svc.Verify(context.Background(), admin, ph.ID, true)
	assert.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Len(t, pub.verified, 1)

	stored, err := svc.GetPhotographer(context.Background(), ph.ID)
	assert.NoError(t, err)
	assert.True(t, stored.Verified)
}

func seedSearchFixture(t *testing.T, svc *Service) (cityPh, otherPh models.Photographer) {
	t.Helper()
	ctx := context.Background()

	seedUserRow(t, svc, &models.User{ID: "user-1", FirstName: "Mara", LastName: "Holt", Email: "mara@example.com", Role: models.RolePhotographer, CreatedAt: time.Now()})
	seedUserRow(t, svc, &models.User{ID: "user-2", FirstName: "Iris", LastName: "Lund", Email: "iris@example.com", Role: models.RolePhotographer, CreatedAt: time.Now()})
	seedCategory(t, svc, "cat-wedding", "Wedding")
	seedCategory(t, svc, "cat-event", "Event")

	cityPh = models.Photographer{ID: "ph-lisbon", UserID: "user-1", City: "Lisbon", BaseRate: 30000, Active: true, CreatedAt: time.Now()}
	otherPh = models.Photographer{ID: "ph-porto", UserID: "user-2", City: "Porto", BaseRate: 12000, Active: true, CreatedAt: time.Now().Add(-time.Hour)}
	for _, ph := range []models.Photographer{cityPh, otherPh} {
		if err := svc.DB.CreatePhotographer(ctx, ph); err != nil {
			t.Fatalf("Failed to seed photographer: %v", err)
		}
	}
	if err := svc.DB.ReplaceCategories(ctx, "ph-lisbon", []string{"cat-wedding"}); err != nil {
		t.Fatalf("Failed to link categories: %v", err)
	}
	if err := svc.DB.ReplaceCategories(ctx, "ph-porto", []string{"cat-event"}); err != nil {
		t.Fatalf("Failed to link categories: %v", err)
	}

	slot := models.AvailabilitySlot{ID: "slot-1", PhotographerID: "ph-lisbon", Date: "2026-10-01", StartTime: "09:00", EndTime: "11:00", CreatedAt: time.Now()}
	if _, err := svc.DB.Bun.NewInsert().Model(&slot).Exec(ctx); err != nil {
		t.Fatalf("Failed to seed slot: %v", err)
	}
	return cityPh, otherPh
}

func TestSearchByCity(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedSearchFixture(t, svc)

	results, err := svc.Search(context.Background(), models.PhotographerSearchFilter{City: "Lisbon"})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "ph-lisbon", results[0].ID)
	assert.Equal(t, "Mara Holt", results[0].Name)
}

func TestSearchByPriceRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedSearchFixture(t, svc)

	results, err := svc.Search(context.Background(), models.PhotographerSearchFilter{MinPrice: 10000, MaxPrice: 15000})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "ph-porto", results[0].ID)
}

func TestSearchByCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedSearchFixture(t, svc)

	results, err := svc.Search(context.Background(), models.PhotographerSearchFilter{Category: "cat-event"})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "ph-porto", results[0].ID)
}

func TestSearchByAvailableDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedSearchFixture(t, svc)

	results, err := svc.Search(context.Background(), models.PhotographerSearchFilter{Date: "2026-10-01"})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "ph-lisbon", results[0].ID)

	// A booked slot no longer counts as availability.
	_, err = svc.DB.Bun.NewUpdate().
		Model((*models.AvailabilitySlot)(nil)).
		Set("is_booked = ?", true).
		Where("id = ?", "slot-1").
		Exec(context.Background())
	assert.NoError(t, err)

	results, err = svc.Search(context.Background(), models.PhotographerSearchFilter{Date: "2026-10-01"})
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSkipsInactive(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedSearchFixture(t, svc)

	_, err := svc.DB.Bun.NewUpdate().
		Model((*models.Photographer)(nil)).
		Set("active = ?", false).
		Where("id = ?", "ph-porto").
		Exec(context.Background())
	assert.NoError(t, err)

	results, err := svc.Search(context.Background(), models.PhotographerSearchFilter{})
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "ph-lisbon", results[0].ID)
}

func TestProfileAggregates(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedSearchFixture(t, svc)
	ctx := context.Background()

	reviews := []models.Review{
		{ID: "rv-1", BookingID: "bk-1", CustomerID: "user-2", PhotographerID: "ph-lisbon", Rating: 5, CreatedAt: time.Now()},
		{ID: "rv-2", BookingID: "bk-2", CustomerID: "user-2", PhotographerID: "ph-lisbon", Rating: 4, CreatedAt: time.Now()},
	}
	if _, err := svc.DB.Bun.NewInsert().Model(&reviews).Exec(ctx); err != nil {
		t.Fatalf("Failed to seed reviews: %v", err)
	}
	item := models.PortfolioItem{ID: "pf-1", PhotographerID: "ph-lisbon", FileURL: "https://cdn.example.com/1.jpg", CreatedAt: time.Now()}
	if err := svc.DB.AddPortfolioItem(ctx, item); err != nil {
		t.Fatalf("Failed to seed portfolio: %v", err)
	}

	profile, err := svc.Profile(ctx, "ph-lisbon")
	assert.NoError(t, err)
	assert.Equal(t, "Mara Holt", profile.Name)
	assert.Len(t, profile.Categories, 1)
	assert.InDelta(t, 4.5, profile.Rating.Average, 0.001)
	assert.Equal(t, 2, profile.Rating.Count)
	assert.Len(t, profile.PortfolioPreview, 1)
}

func TestProfileMissing(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Profile(context.Background(), "ph-ghost")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestPortfolioOwnership(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	owner := accounts.users["user-1"]
	stranger := accounts.users["user-2"]

	ph, err := svc.Register(context.Background(), owner, models.RegisterPhotographerRequest{BaseRate: 10000})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	req := models.AddPortfolioItemRequest{PhotographerID: ph.ID, FileURL: "https://cdn.example.com/shot.jpg", Caption: "Golden hour"}
	_, err = svc.AddPortfolioItem(context.Background(), stranger, req)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	item, err := svc.AddPortfolioItem(context.Background(), owner, req)
	assert.NoError(t, err)

	err = svc.RemovePortfolioItem(context.Background(), stranger, ph.ID, item.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	err = svc.RemovePortfolioItem(context.Background(), owner, ph.ID, item.ID)
	assert.NoError(t, err)

	err = svc.RemovePortfolioItem(context.Background(), owner, ph.ID, item.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "second delete finds nothing")
}
