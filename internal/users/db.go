package users

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

// GetUserByID → fetch one user by its ID
func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser → insert a user, updating profile fields on conflict
func (d *DB) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	_, err := d.Bun.NewInsert().
		Model(&user).
		On("CONFLICT (id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("first_name = EXCLUDED.first_name").
		Set("last_name = EXCLUDED.last_name").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return d.GetUserByID(ctx, user.ID)
}

// ListUsers → every account, newest first
func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var list []models.User
	err := d.Bun.NewSelect().
		Model(&list).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.User{}
	}
	return list, nil
}

// SetRoleByEmail → change the role of the account matching an email, if any.
// Reports whether a row actually changed.
func (d *DB) SetRoleByEmail(ctx context.Context, email, role string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("role = ?", role).
		Where("lower(email) = lower(?)", email).
		Where("role != ?", role).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetRole → change a user's role
func (d *DB) SetRole(ctx context.Context, id, role string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.User)(nil)).
		Set("role = ?", role).
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

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
