package apperror

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when an authenticated principal is not allowed
	// to perform the requested action.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when no valid principal is attached to
	// the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation is returned for malformed or schema-violating input.
	ErrValidation = errors.New("invalid input")
	// ErrSlotUnavailable is returned when a booking targets a taken or
	// nonexistent availability slot.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrPaymentAuthorizationFailed is returned when the charge gateway
	// rejects or errors on an authorization request.
	ErrPaymentAuthorizationFailed = errors.New("payment authorization failed")
	// ErrConflict is returned on duplicate writes, e.g. a second review for
	// the same booking.
	ErrConflict = errors.New("conflict")
)

// ErrorResponse is the standardized error body written at the route boundary.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPStatus maps a domain error to the status code its route should answer
// with. Wrapped errors are unwrapped via errors.Is so services can annotate
// with fmt.Errorf("...: %w", err) freely.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrSlotUnavailable):
		return http.StatusConflict
	case errors.Is(err, ErrPaymentAuthorizationFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable code for the response body.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrSlotUnavailable):
		return "SLOT_UNAVAILABLE"
	case errors.Is(err, ErrPaymentAuthorizationFailed):
		return "PAYMENT_AUTHORIZATION_FAILED"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	default:
		return "INTERNAL_ERROR"
	}
}
