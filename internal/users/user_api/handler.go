package user_api

import (
	"fmt"
	"net/http"

	"lensbook/internal/apperror"
	"lensbook/internal/auth"
	"lensbook/internal/logger"
	"lensbook/internal/users"
	"lensbook/internal/utils"
)

type Handler struct {
	Service *users.Service
	Logger  *logger.Logger
}

func NewHandler(service *users.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// Me handles GET /auth/user. The middleware already synced the account, so
// this is just the context user echoed back.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())
	if user == nil {
		utils.WriteDomainError(w, "not authenticated", apperror.ErrUnauthenticated)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "user retrieved", user)
}

// ListUsers handles GET /admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListUsers(r.Context(), auth.CurrentUser(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: %v", err))
		utils.WriteDomainError(w, "failed to list users", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "users retrieved", list)
}
