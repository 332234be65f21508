package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"lensbook/internal/auth"
	"lensbook/internal/availability/availability_api"
	"lensbook/internal/booking/booking_api"
	"lensbook/internal/config"
	"lensbook/internal/logger"
	"lensbook/internal/messaging/messaging_api"
	"lensbook/internal/models"
	"lensbook/internal/photographers/photographer_api"
	"lensbook/internal/reviews/review_api"
	"lensbook/internal/users/user_api"
)

type noopSyncer struct{}

func (noopSyncer) EnsureUser(_ context.Context, p auth.Principal) (*models.User, error) {
	return &models.User{ID: p.Sub, Email: p.Email, Role: models.RoleCustomer}, nil
}

func newTestRouter() *chi.Mux {
	log := logger.NewLogger()
	return newRouter(routerDeps{
		log:           log,
		authmw:        auth.Middleware(config.AuthConfig{}, noopSyncer{}),
		users:         user_api.NewHandler(nil, log),
		photographers: photographer_api.NewHandler(nil, log),
		availability:  availability_api.NewHandler(nil, log),
		bookings:      booking_api.NewHandler(nil, log, ""),
		reviews:       review_api.NewHandler(nil, log),
		messaging:     messaging_api.NewHandler(nil, log),
	})
}

// Chi panics at registration time when the same subtree is mounted twice,
// so building the full route table is the whole assertion here.
func TestNewRouterBuilds(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Router construction panicked: %v", r)
		}
	}()
	if r := newTestRouter(); r == nil {
		t.Fatal("Expected a router")
	}
}

func TestHealthzSkipsAuth(t *testing.T) {
	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /healthz, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	r := newTestRouter()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/user"},
		{http.MethodGet, "/api/bookings/"},
		{http.MethodPost, "/api/reviews"},
		{http.MethodGet, "/api/admin/users"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestPublicRoutesRegistered(t *testing.T) {
	r := newTestRouter()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/photographers"},
		{http.MethodGet, "/api/photographers/ph-1"},
		{http.MethodGet, "/api/photographers/ph-1/availability"},
		{http.MethodGet, "/api/photographers/ph-1/reviews"},
		{http.MethodGet, "/api/categories"},
		{http.MethodPost, "/api/webhooks/stripe"},
	} {
		rctx := chi.NewRouteContext()
		if !r.Match(rctx, tc.method, tc.path) {
			t.Errorf("Expected route for %s %s", tc.method, tc.path)
		}
	}
}
