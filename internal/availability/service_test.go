package availability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"lensbook/internal/apperror"
	"lensbook/internal/logger"
	"lensbook/internal/models"
)

type stubDirectory struct {
	photographers map[string]*models.Photographer
}

func (s *stubDirectory) GetPhotographer(ctx context.Context, id string) (*models.Photographer, error) {
	if ph, ok := s.photographers[id]; ok {
		return ph, nil
	}
	return nil, fmt.Errorf("%w: photographer %s", apperror.ErrNotFound, id)
}

func newTestService(t *testing.T) (*Service, *stubDirectory) {
	t.Helper()
	dir := &stubDirectory{photographers: map[string]*models.Photographer{
		"ph-1": {ID: "ph-1", UserID: "user-owner"},
	}}
	svc := NewService(setupTestDB(t), logger.NewLogger(), dir)
	return svc, dir
}

func TestAddSlotOwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := models.AddSlotRequest{
		PhotographerID: "ph-1",
		Date:           "2026-09-15",
		StartTime:      "10:00",
		EndTime:        "12:00",
	}

	owner := &models.User{ID: "user-owner", Role: models.RolePhotographer}
	slot, err := svc.AddSlot(ctx, owner, req)
	assert.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.False(t, slot.IsBooked)

	stranger := &models.User{ID: "user-other", Role: models.RolePhotographer}
	req.StartTime = "13:00"
	req.EndTime = "14:00"
	_, err = svc.AddSlot(ctx, stranger, req)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	admin := &models.User{ID: "user-admin", Role: models.RoleAdmin}
	_, err = svc.AddSlot(ctx, admin, req)
	assert.NoError(t, err)
}

func TestAddSlotRejectsBadWindows(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := &models.User{ID: "user-owner", Role: models.RolePhotographer}

	cases := []models.AddSlotRequest{
		{PhotographerID: "ph-1", Date: "15-09-2026", StartTime: "10:00", EndTime: "12:00"},
		{PhotographerID: "ph-1", Date: "2026-09-15", StartTime: "25:00", EndTime: "26:00"},
		{PhotographerID: "ph-1", Date: "2026-09-15", StartTime: "12:00", EndTime: "10:00"},
		{PhotographerID: "ph-1", Date: "2026-09-15", StartTime: "10:00", EndTime: "10:00"},
	}
	for _, req := range cases {
		_, err := svc.AddSlot(ctx, owner, req)
		assert.True(t, errors.Is(err, apperror.ErrValidation), "window %+v should be rejected", req)
	}
}

func TestAddSlotDuplicateWindowConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := &models.User{ID: "user-owner", Role: models.RolePhotographer}

	req := models.AddSlotRequest{
		PhotographerID: "ph-1",
		Date:           "2026-09-15",
		StartTime:      "10:00",
		EndTime:        "12:00",
	}
	_, err := svc.AddSlot(ctx, owner, req)
	assert.NoError(t, err)

	_, err = svc.AddSlot(ctx, owner, req)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestFindOpenSlotUnavailable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.FindOpenSlot(ctx, "ph-1", "2026-09-15", "10:00", "12:00")
	assert.True(t, errors.Is(err, apperror.ErrSlotUnavailable))
}

func TestListSlotsUnknownPhotographer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ListSlots(ctx, "ph-missing", "")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
