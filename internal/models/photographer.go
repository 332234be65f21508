package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Photographer struct {
	bun.BaseModel `bun:"table:photographers"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,unique,notnull" json:"user_id"`
	Bio       string    `bun:"bio,nullzero" json:"bio,omitempty"`
	City      string    `bun:"city,nullzero" json:"city,omitempty"`
	State     string    `bun:"state,nullzero" json:"state,omitempty"`
	BaseRate  int64     `bun:"base_rate,notnull" json:"base_rate"`
	Verified  bool      `bun:"verified,notnull,default:false" json:"verified"`
	Active    bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID          string `bun:"id,pk" json:"id"`
	Name        string `bun:"name,unique,notnull" json:"name"`
	Description string `bun:"description,nullzero" json:"description,omitempty"`
}

// PhotographerCategory is the join row between photographers and categories.
type PhotographerCategory struct {
	bun.BaseModel `bun:"table:photographer_categories"`

	PhotographerID string `bun:"photographer_id,pk" json:"photographer_id"`
	CategoryID     string `bun:"category_id,pk" json:"category_id"`
}

type PortfolioItem struct {
	bun.BaseModel `bun:"table:portfolio_items"`

	ID             string    `bun:"id,pk" json:"id"`
	PhotographerID string    `bun:"photographer_id,notnull" json:"photographer_id"`
	FileURL        string    `bun:"file_url,notnull" json:"file_url"`
	Caption        string    `bun:"caption,nullzero" json:"caption,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

// RatingSummary is the aggregated review score shown on a profile card.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// PhotographerProfile is the public read shape: the photographer row joined
// with its user identity, categories, rating aggregate and a portfolio preview.
type PhotographerProfile struct {
	Photographer
	Name             string          `json:"name"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Categories       []Category      `json:"categories"`
	Rating           RatingSummary   `json:"rating"`
	PortfolioPreview []PortfolioItem `json:"portfolio_preview,omitempty"`
}

type PhotographerSearchFilter struct {
	Category string
	City     string
	Date     string
	MinPrice int64
	MaxPrice int64
}
