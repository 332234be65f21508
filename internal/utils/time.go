package utils

import (
	"fmt"
	"time"

	"lensbook/internal/apperror"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ParseDate validates an ISO calendar date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", apperror.ErrValidation, s)
	}
	return t, nil
}

// ParseClock validates a 24h HH:MM string.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad time %q", apperror.ErrValidation, s)
	}
	return t, nil
}
