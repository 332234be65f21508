package photographers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lensbook/internal/apperror"
	"lensbook/internal/logger"
	"lensbook/internal/models"
)

const portfolioPreviewSize = 6

// Accounts is the user-store surface this service needs: identity reads and
// the role flip on registration.
type Accounts interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	PromoteToPhotographer(ctx context.Context, id string) error
}

// Publisher announces verification decisions.
type Publisher interface {
	PublishPhotographerVerified(ctx context.Context, topic string, ph models.Photographer) error
}

// Service owns the photographer directory: profiles, categories, portfolios
// and the admin verification flow.
type Service struct {
	DB            *DB
	Accounts      Accounts
	Kafka         Publisher
	Logger        *logger.Logger
	VerifiedTopic string
}

func NewService(db *DB, accounts Accounts, kafka Publisher, log *logger.Logger, verifiedTopic string) *Service {
	return &Service{DB: db, Accounts: accounts, Kafka: kafka, Logger: log, VerifiedTopic: verifiedTopic}
}

// GetPhotographer fetches the raw photographer row. Satisfies the directory
// interfaces other services consume.
func (s *Service) GetPhotographer(ctx context.Context, id string) (*models.Photographer, error) {
	ph, err := s.DB.GetPhotographerByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: photographer %s", apperror.ErrNotFound, id)
		}
		return nil, err
	}
	return ph, nil
}

// GetPhotographerByUserID resolves the profile behind a user account.
func (s *Service) GetPhotographerByUserID(ctx context.Context, userID string) (*models.Photographer, error) {
	ph, err := s.DB.GetPhotographerByUserID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: no photographer profile for user %s", apperror.ErrNotFound, userID)
		}
		return nil, err
	}
	return ph, nil
}

// GetUser passes through to the account store for booking detail reads.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.Accounts.GetUser(ctx, id)
}

// Register creates a photographer profile for the calling account and flips
// its role. One profile per account.
func (s *Service) Register(ctx context.Context, actor *models.User, req models.RegisterPhotographerRequest) (*models.Photographer, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthenticated
	}

	if _, err := s.DB.GetPhotographerByUserID(ctx, actor.ID); err == nil {
		return nil, fmt.Errorf("%w: account already has a photographer profile", apperror.ErrConflict)
	} else if !IsNotFound(err) {
		return nil, err
	}

	if err := s.checkCategories(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}

	ph := models.Photographer{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		Bio:       req.Bio,
		City:      req.City,
		State:     req.State,
		BaseRate:  req.BaseRate,
		Verified:  false,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.DB.CreatePhotographer(ctx, ph); err != nil {
		return nil, fmt.Errorf("create photographer: %w", err)
	}
	if len(req.CategoryIDs) > 0 {
		if err := s.DB.ReplaceCategories(ctx, ph.ID, req.CategoryIDs); err != nil {
			return nil, fmt.Errorf("link categories: %w", err)
		}
	}
	if err := s.Accounts.PromoteToPhotographer(ctx, actor.ID); err != nil {
		return nil, fmt.Errorf("promote role: %w", err)
	}

	s.Logger.Info("DIRECTORY", fmt.Sprintf("photographer %s registered by user %s", ph.ID, actor.ID))
	return &ph, nil
}

// Update edits profile fields. Only the owner or an admin.
func (s *Service) Update(ctx context.Context, actor *models.User, id string, req models.UpdatePhotographerRequest) (*models.Photographer, error) {
	ph, err := s.GetPhotographer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(actor, ph); err != nil {
		return nil, err
	}

	if req.Bio != nil {
		ph.Bio = *req.Bio
	}
	if req.City != nil {
		ph.City = *req.City
	}
	if req.State != nil {
		ph.State = *req.State
	}
	if req.BaseRate != nil {
		ph.BaseRate = *req.BaseRate
	}
	if req.Active != nil {
		ph.Active = *req.Active
	}

	if err := s.DB.UpdatePhotographer(ctx, *ph); err != nil {
		return nil, fmt.Errorf("update photographer: %w", err)
	}

	if req.CategoryIDs != nil {
		if err := s.checkCategories(ctx, req.CategoryIDs); err != nil {
			return nil, err
		}
		if err := s.DB.ReplaceCategories(ctx, ph.ID, req.CategoryIDs); err != nil {
			return nil, fmt.Errorf("link categories: %w", err)
		}
	}

	return ph, nil
}

// Profile builds the public read shape: identity, categories, rating and a
// short portfolio preview.
func (s *Service) Profile(ctx context.Context, id string) (*models.PhotographerProfile, error) {
	ph, err := s.GetPhotographer(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, ph)
}

// Search lists active photographers matching the directory filters, each
// hydrated into the profile shape.
func (s *Service) Search(ctx context.Context, filter models.PhotographerSearchFilter) ([]models.PhotographerProfile, error) {
	phs, err := s.DB.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search photographers: %w", err)
	}

	profiles := make([]models.PhotographerProfile, 0, len(phs))
	for i := range phs {
		profile, err := s.buildProfile(ctx, &phs[i])
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

// Verify is the admin toggle. Publishes the decision so downstream consumers
// (notifications, search indexers) can react.
func (s *Service) Verify(ctx context.Context, actor *models.User, id string, verified bool) (*models.Photographer, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthenticated
	}
	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: verification is admin-only", apperror.ErrForbidden)
	}

	ph, err := s.GetPhotographer(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.SetVerified(ctx, id, verified); err != nil {
		return nil, fmt.Errorf("set verified: %w", err)
	}
	ph.Verified = verified
	s.Logger.LogSecurity("VERIFICATION", fmt.Sprintf("photographer %s verified=%t by %s", id, verified, actor.ID))

	if err := s.Kafka.PublishPhotographerVerified(ctx, s.VerifiedTopic, *ph); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish photographer verified: %v", err))
	}

	return ph, nil
}

// ListCategories returns the category vocabulary.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.DB.ListCategories(ctx)
}

// Portfolio returns a photographer's full portfolio.
func (s *Service) Portfolio(ctx context.Context, photographerID string) ([]models.PortfolioItem, error) {
	if _, err := s.GetPhotographer(ctx, photographerID); err != nil {
		return nil, err
	}
	return s.DB.ListPortfolio(ctx, photographerID, 0)
}

// AddPortfolioItem appends to the portfolio. Owner or admin only.
func (s *Service) AddPortfolioItem(ctx context.Context, actor *models.User, req models.AddPortfolioItemRequest) (*models.PortfolioItem, error) {
	ph, err := s.GetPhotographer(ctx, req.PhotographerID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(actor, ph); err != nil {
		return nil, err
	}

	item := models.PortfolioItem{
		ID:             uuid.NewString(),
		PhotographerID: req.PhotographerID,
		FileURL:        req.FileURL,
		Caption:        req.Caption,
		CreatedAt:      time.Now(),
	}
	if err := s.DB.AddPortfolioItem(ctx, item); err != nil {
		return nil, fmt.Errorf("add portfolio item: %w", err)
	}
	return &item, nil
}

// RemovePortfolioItem deletes one entry. Owner or admin only.
func (s *Service) RemovePortfolioItem(ctx context.Context, actor *models.User, photographerID, itemID string) error {
	ph, err := s.GetPhotographer(ctx, photographerID)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(actor, ph); err != nil {
		return err
	}

	ok, err := s.DB.DeletePortfolioItem(ctx, itemID, photographerID)
	if err != nil {
		return fmt.Errorf("delete portfolio item: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: portfolio item %s", apperror.ErrNotFound, itemID)
	}
	return nil
}

func (s *Service) buildProfile(ctx context.Context, ph *models.Photographer) (*models.PhotographerProfile, error) {
	profile := models.PhotographerProfile{Photographer: *ph}

	user := ph.User
	if user == nil {
		var err error
		user, err = s.Accounts.GetUser(ctx, ph.UserID)
		if err != nil {
			return nil, err
		}
	}
	profile.Name = joinName(user.FirstName, user.LastName)
	profile.Email = user.Email
	profile.Phone = user.Phone

	cats, err := s.DB.GetCategoriesFor(ctx, ph.ID)
	if err != nil {
		return nil, err
	}
	profile.Categories = cats

	rating, err := s.DB.RatingFor(ctx, ph.ID)
	if err != nil {
		return nil, err
	}
	profile.Rating = rating

	preview, err := s.DB.ListPortfolio(ctx, ph.ID, portfolioPreviewSize)
	if err != nil {
		return nil, err
	}
	profile.PortfolioPreview = preview

	return &profile, nil
}

func (s *Service) checkCategories(ctx context.Context, ids []string) error {
	for _, id := range ids {
		ok, err := s.DB.CategoryExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: unknown category %s", apperror.ErrValidation, id)
		}
	}
	return nil
}

func (s *Service) authorizeOwner(actor *models.User, ph *models.Photographer) error {
	if actor == nil {
		return apperror.ErrUnauthenticated
	}
	if actor.ID != ph.UserID && actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: not your profile", apperror.ErrForbidden)
	}
	return nil
}

func joinName(first, last string) string {
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + " " + last
}
