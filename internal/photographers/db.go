package photographers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"lensbook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetPhotographerByID → fetch one photographer row
func (d *DB) GetPhotographerByID(ctx context.Context, id string) (*models.Photographer, error) {
	var ph models.Photographer
	err := d.Bun.NewSelect().
		Model(&ph).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ph, nil
}

// GetPhotographerByUserID → fetch the profile belonging to a user account
func (d *DB) GetPhotographerByUserID(ctx context.Context, userID string) (*models.Photographer, error) {
	var ph models.Photographer
	err := d.Bun.NewSelect().
		Model(&ph).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ph, nil
}

// CreatePhotographer → insert a new profile row
func (d *DB) CreatePhotographer(ctx context.Context, ph models.Photographer) error {
	_, err := d.Bun.NewInsert().Model(&ph).Exec(ctx)
	return err
}

// UpdatePhotographer → persist profile edits
func (d *DB) UpdatePhotographer(ctx context.Context, ph models.Photographer) error {
	_, err := d.Bun.NewUpdate().
		Model(&ph).
		Column("bio", "city", "state", "base_rate", "active").
		Where("id = ?", ph.ID).
		Exec(ctx)
	return err
}

// SetVerified → admin verification toggle
func (d *DB) SetVerified(ctx context.Context, id string, verified bool) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Photographer)(nil)).
		Set("verified = ?", verified).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Search → active photographers matching the directory filters. Category and
// date filters join against their own tables; price bounds apply to the
// base rate.
func (d *DB) Search(ctx context.Context, filter models.PhotographerSearchFilter) ([]models.Photographer, error) {
	var phs []models.Photographer
	q := d.Bun.NewSelect().
		Model(&phs).
		Relation("User").
		Where("photographer.active = ?", true)

	if filter.City != "" {
		q = q.Where("photographer.city = ?", filter.City)
	}
	if filter.MinPrice > 0 {
		q = q.Where("photographer.base_rate >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		q = q.Where("photographer.base_rate <= ?", filter.MaxPrice)
	}
	if filter.Category != "" {
		q = q.Where("photographer.id IN (SELECT photographer_id FROM photographer_categories WHERE category_id = ?)", filter.Category)
	}
	if filter.Date != "" {
		q = q.Where("photographer.id IN (SELECT photographer_id FROM availability_slots WHERE date = ? AND is_booked = ?)", filter.Date, false)
	}

	err := q.Order("photographer.created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	if phs == nil {
		phs = []models.Photographer{}
	}
	return phs, nil
}

// ---------------- CATEGORIES ----------------

// ListCategories → all categories, alphabetical
func (d *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := d.Bun.NewSelect().
		Model(&cats).
		Order("name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

// GetCategoriesFor → the categories attached to one photographer
func (d *DB) GetCategoriesFor(ctx context.Context, photographerID string) ([]models.Category, error) {
	var cats []models.Category
	err := d.Bun.NewSelect().
		Model(&cats).
		Where("id IN (SELECT category_id FROM photographer_categories WHERE photographer_id = ?)", photographerID).
		Order("name").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

// ReplaceCategories → reset a photographer's category links
func (d *DB) ReplaceCategories(ctx context.Context, photographerID string, categoryIDs []string) error {
	tx, err := d.Bun.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	if _, err := tx.NewDelete().
		Model((*models.PhotographerCategory)(nil)).
		Where("photographer_id = ?", photographerID).
		Exec(ctx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if len(categoryIDs) > 0 {
		links := make([]models.PhotographerCategory, 0, len(categoryIDs))
		for _, cid := range categoryIDs {
			links = append(links, models.PhotographerCategory{
				PhotographerID: photographerID,
				CategoryID:     cid,
			})
		}
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// CategoryExists → guard before linking an unknown category
func (d *DB) CategoryExists(ctx context.Context, id string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Category)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

// ---------------- PORTFOLIO ----------------

// ListPortfolio → a photographer's portfolio, newest first
func (d *DB) ListPortfolio(ctx context.Context, photographerID string, limit int) ([]models.PortfolioItem, error) {
	var items []models.PortfolioItem
	q := d.Bun.NewSelect().
		Model(&items).
		Where("photographer_id = ?", photographerID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.PortfolioItem{}
	}
	return items, nil
}

// AddPortfolioItem → insert one portfolio entry
func (d *DB) AddPortfolioItem(ctx context.Context, item models.PortfolioItem) error {
	_, err := d.Bun.NewInsert().Model(&item).Exec(ctx)
	return err
}

// DeletePortfolioItem → remove an entry, scoped to its owner
func (d *DB) DeletePortfolioItem(ctx context.Context, itemID, photographerID string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.PortfolioItem)(nil)).
		Where("id = ?", itemID).
		Where("photographer_id = ?", photographerID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// RatingFor → average and count over a photographer's reviews
func (d *DB) RatingFor(ctx context.Context, photographerID string) (models.RatingSummary, error) {
	var row struct {
		Average sql.NullFloat64
		Count   int
	}
	err := d.Bun.NewSelect().
		ColumnExpr("AVG(rating) AS average, COUNT(*) AS count").
		Table("reviews").
		Where("photographer_id = ?", photographerID).
		Scan(ctx, &row.Average, &row.Count)
	if err != nil {
		return models.RatingSummary{}, err
	}
	return models.RatingSummary{Average: row.Average.Float64, Count: row.Count}, nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
