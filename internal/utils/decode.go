package utils

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"lensbook/internal/apperror"
)

var validate = validator.New()

// DecodeAndValidate decodes a JSON request body into dst and runs struct
// validation. Failures surface as ErrValidation so the route boundary maps
// them to 400.
func DecodeAndValidate(r io.Reader, dst interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrValidation, err)
	}
	return nil
}
