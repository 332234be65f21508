package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lensbook/internal/apperror"
	"lensbook/internal/auth"
	"lensbook/internal/logger"
	"lensbook/internal/models"
)

// Service materializes token principals as user rows and owns role changes.
type Service struct {
	DB          *DB
	Logger      *logger.Logger
	AdminEmails []string
}

func NewService(db *DB, log *logger.Logger, adminEmails []string) *Service {
	return &Service{DB: db, Logger: log, AdminEmails: adminEmails}
}

// EnsureUser upserts the authenticated principal into the users table. New
// users start as customers. Role changes never happen here; admins come from
// BootstrapAdmins and photographers from PromoteToPhotographer.
func (s *Service) EnsureUser(ctx context.Context, p auth.Principal) (*models.User, error) {
	if p.Sub == "" {
		return nil, apperror.ErrUnauthenticated
	}

	first, last := splitName(p.Name)
	user := models.User{
		ID:        p.Sub,
		Role:      models.RoleCustomer,
		FirstName: first,
		LastName:  last,
		Email:     p.Email,
		CreatedAt: time.Now(),
	}

	stored, err := s.DB.UpsertUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return stored, nil
}

// BootstrapAdmins applies the configured admin allow-list as an explicit
// startup step. Emails with no matching account yet are skipped; they are
// picked up on the next boot after the account exists.
func (s *Service) BootstrapAdmins(ctx context.Context) error {
	for _, email := range s.AdminEmails {
		promoted, err := s.DB.SetRoleByEmail(ctx, email, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("bootstrap admin %s: %w", email, err)
		}
		if promoted {
			s.Logger.LogSecurity("ADMIN_PROMOTION", "bootstrap promoted to admin: "+email)
		}
	}
	return nil
}

// GetUser fetches one user, translating missing rows to the domain error.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, id)
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns every account. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthenticated
	}
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: user listing is admin-only", apperror.ErrForbidden)
	}
	return s.DB.ListUsers(ctx)
}

// PromoteToPhotographer flips a customer account to the photographer role.
// Admins keep their role.
func (s *Service) PromoteToPhotographer(ctx context.Context, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin || user.Role == models.RolePhotographer {
		return nil
	}
	return s.DB.SetRole(ctx, id, models.RolePhotographer)
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
