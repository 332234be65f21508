package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleCustomer     = "customer"
	RolePhotographer = "photographer"
	RoleAdmin        = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID              string    `bun:"id,pk" json:"id"`
	Role            string    `bun:"role,notnull" json:"role"`
	FirstName       string    `bun:"first_name,nullzero" json:"first_name,omitempty"`
	LastName        string    `bun:"last_name,nullzero" json:"last_name,omitempty"`
	Email           string    `bun:"email,unique,notnull" json:"email"`
	Phone           string    `bun:"phone,nullzero" json:"phone,omitempty"`
	ProfileImageURL string    `bun:"profile_image_url,nullzero" json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"created_at"`
}

// ValidRole reports whether s is one of the three recognised roles.
func ValidRole(s string) bool {
	return s == RoleCustomer || s == RolePhotographer || s == RoleAdmin
}
