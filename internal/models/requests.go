package models

// Request bodies for the photographer directory surface. Everything crossing
// the HTTP boundary is an explicit struct validated before any store call.

type RegisterPhotographerRequest struct {
	Bio         string   `json:"bio,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	BaseRate    int64    `json:"base_rate" validate:"required,gt=0"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

type UpdatePhotographerRequest struct {
	Bio         *string  `json:"bio,omitempty"`
	City        *string  `json:"city,omitempty"`
	State       *string  `json:"state,omitempty"`
	BaseRate    *int64   `json:"base_rate,omitempty" validate:"omitempty,gt=0"`
	Active      *bool    `json:"active,omitempty"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

type AddPortfolioItemRequest struct {
	// PhotographerID comes from the URL, not the body.
	PhotographerID string `json:"-"`
	FileURL        string `json:"file_url" validate:"required,url"`
	Caption        string `json:"caption,omitempty"`
}

type VerifyPhotographerRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}
